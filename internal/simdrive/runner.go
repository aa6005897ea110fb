package simdrive

import (
	"context"
	"fmt"
	"time"

	"github.com/ericggul/moodscape/pkg/logger"
)

// Run executes one complete simulated installation session.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting moodscape session drive",
		logger.String("baseURL", config.BaseURL),
		logger.Int("users", config.NumUsers),
		logger.Int("voicesPerUser", config.VoicesPerUser),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	client := newHTTPClient(config.Timeout)

	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	if config.Reset {
		if err := issueReset(ctx, client, config.BaseURL); err != nil {
			return fmt.Errorf("pre-run reset failed: %w", err)
		}
		logger.Get().Info(ctx, "state reset before run")
	}

	sessions := generateSessions(ctx, config)

	if err := runSessions(ctx, config, sessions, stats); err != nil {
		return fmt.Errorf("session drive failed: %w", err)
	}

	// Let the quiet interval elapse and the last rounds land.
	logger.Get().Info(ctx, "waiting for decision rounds to settle",
		logger.Duration("quietWait", config.QuietWait))
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while settling: %w", ctx.Err())
	case <-time.After(config.QuietWait):
	}

	snap, err := fetchState(ctx, client, config.BaseURL)
	if err != nil {
		return fmt.Errorf("state retrieval failed: %w", err)
	}
	stats.FinalVersion = snap.Decision.Version

	if err := verifyState(ctx, config, snap, stats); err != nil {
		return fmt.Errorf("state verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "session drive completed successfully")
	return nil
}

// checkServiceHealth verifies the orchestrator is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	drainAndClose(resp)

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != 200 {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate float64
	if stats.VoicesSubmitted > 0 {
		acceptRate = float64(stats.VoicesAccepted) / float64(stats.VoicesSubmitted) * 100
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("usersJoined", stats.UsersJoined),
		logger.Int("voicesSubmitted", stats.VoicesSubmitted),
		logger.Int("voicesAccepted", stats.VoicesAccepted),
		logger.Int("voicesFailed", stats.VoicesFailed),
		logger.Uint64("finalDecisionVersion", stats.FinalVersion),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate))
}
