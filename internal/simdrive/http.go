package simdrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// runSessions drives all sessions concurrently: each worker joins a
// participant, optionally renames them, and streams their utterances.
func runSessions(ctx context.Context, config *Config, sessions []session, stats *Stats) error {
	log.Printf("🎤 Running %d sessions with %d workers...", len(sessions), config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		joined    int64
		submitted int64
		accepted  int64
		failed    int64
	)

	sessionChan := make(chan session, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for s := range sessionChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				if err := joinUser(ctx, client, config.BaseURL, s); err != nil {
					if config.Verbose {
						log.Printf("⚠️  join failed for %s: %v", s.UserID, err)
					}
					continue
				}
				atomic.AddInt64(&joined, 1)

				for _, voice := range s.Voices {
					atomic.AddInt64(&submitted, 1)
					if submitVoice(ctx, client, config.BaseURL, voice) {
						atomic.AddInt64(&accepted, 1)
					} else {
						atomic.AddInt64(&failed, 1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(sessionChan)
		for _, s := range sessions {
			select {
			case <-ctx.Done():
				return
			case sessionChan <- s:
			}
		}
	}()

	wg.Wait()

	stats.UsersJoined = int(atomic.LoadInt64(&joined))
	stats.VoicesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.VoicesAccepted = int(atomic.LoadInt64(&accepted))
	stats.VoicesFailed = int(atomic.LoadInt64(&failed))

	log.Printf("✅ Sessions completed: joined %d, voices accepted %d, failed %d",
		stats.UsersJoined, stats.VoicesAccepted, stats.VoicesFailed)
	return nil
}

func joinUser(ctx context.Context, client *HTTPClient, baseURL string, s session) error {
	now := time.Now().UTC().Format(time.RFC3339)

	resp, err := client.Post(ctx, baseURL+"/events/join", joinEvent{UserID: s.UserID, TS: now})
	if err != nil {
		return err
	}
	drainAndClose(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("join returned status %d", resp.StatusCode)
	}

	resp, err = client.Post(ctx, baseURL+"/events/rename", renameEvent{UserID: s.UserID, Name: s.Name, TS: now})
	if err != nil {
		return err
	}
	drainAndClose(resp)
	return nil
}

func submitVoice(ctx context.Context, client *HTTPClient, baseURL string, voice voiceEvent) bool {
	resp, err := client.Post(ctx, baseURL+"/events/voice", voice)
	if err != nil {
		return false
	}
	defer drainAndClose(resp)
	return resp.StatusCode == http.StatusAccepted
}

// fetchState retrieves the shared decision snapshot.
func fetchState(ctx context.Context, client *HTTPClient, baseURL string) (stateSnapshot, error) {
	var snap stateSnapshot

	resp, err := client.Get(ctx, baseURL+"/state")
	if err != nil {
		return snap, fmt.Errorf("failed to fetch state: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return snap, fmt.Errorf("state returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, fmt.Errorf("failed to decode state: %w", err)
	}
	return snap, nil
}

// issueReset asks the orchestrator to clear state before the run.
func issueReset(ctx context.Context, client *HTTPClient, baseURL string) error {
	resp, err := client.Post(ctx, baseURL+"/events/reset", resetEvent{Source: "simdrive"})
	if err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	drainAndClose(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reset returned status %d", resp.StatusCode)
	}
	return nil
}
