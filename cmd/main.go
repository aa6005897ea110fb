package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ericggul/moodscape/internal/adapters/device"
	"github.com/ericggul/moodscape/internal/adapters/http/api"
	"github.com/ericggul/moodscape/internal/adapters/oracle"
	"github.com/ericggul/moodscape/internal/adapters/ws"
	"github.com/ericggul/moodscape/internal/app"
	"github.com/ericggul/moodscape/internal/config"
	"github.com/ericggul/moodscape/internal/domain/env"
	"github.com/ericggul/moodscape/pkg/logger"
	"github.com/ericggul/moodscape/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	defaultEnv := env.Default()
	if cfg.DefaultMusic != "" {
		defaultEnv.Music = cfg.DefaultMusic
	}

	// Pick the inference backend: a remote oracle when configured, otherwise
	// the built-in keyword model with simulated latency.
	var inference oracle.Oracle
	if cfg.OracleURL != "" {
		inference = oracle.NewHTTPOracle(cfg.OracleURL,
			oracle.WithTimeout(time.Duration(cfg.OracleTimeoutS)*time.Second))
		loggerInstance.Info(ctx, "using remote oracle", logger.String("url", cfg.OracleURL))
	} else {
		inference = oracle.NewFakeOracle(
			oracle.WithLatencyRange(
				time.Duration(cfg.OracleLatencyMinMS)*time.Millisecond,
				time.Duration(cfg.OracleLatencyMaxMS)*time.Millisecond,
			))
		loggerInstance.Info(ctx, "using built-in oracle")
	}

	// Device fabric: MQTT when a broker is configured, otherwise a no-op sink.
	var sink device.Sink = device.NoopSink{}
	if cfg.MQTTBroker != "" {
		mqttSink, err := device.NewMQTTSink(cfg.MQTTBroker, cfg.MQTTTopicPrefix, loggerInstance.Named("mqtt"))
		if err != nil {
			os.Stderr.WriteString("failed to connect MQTT sink: " + err.Error() + "\n")
			return
		}
		sink = mqttSink
		loggerInstance.Info(ctx, "MQTT sink connected", logger.String("broker", cfg.MQTTBroker))
	}

	hub := ws.NewHub(
		ws.WithSendBuffer(cfg.WSSendBuffer),
		ws.WithLogger(loggerInstance.Named("ws")),
	)
	defer hub.Close()

	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithDebounceInterval(time.Duration(cfg.DebounceMS)*time.Millisecond),
		app.WithPreferenceWindow(time.Duration(cfg.PreferenceWindowS)*time.Second),
		app.WithDeviceTimeout(time.Duration(cfg.DeviceTimeoutS)*time.Second),
		app.WithOracleTimeout(time.Duration(cfg.OracleTimeoutS)*time.Second),
		app.WithOracle(inference),
		app.WithDeviceSink(sink),
		app.WithBroadcaster(hub),
		app.WithDefaultEnvironment(defaultEnv),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc, hub)

	router := mux.NewRouter()
	apiServer := api.NewServer(svc, http.HandlerFunc(hub.HandleWS))
	apiServer.Register(ctx, router)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlers.LoggingHandler(os.Stdout, router),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater refreshes gauges that drift between decision
// rounds: active entries expire by time, not by writes, so the gauge goes
// stale without a periodic read.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service, hub *ws.Hub) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := svc.Snapshot()
			metrics.UpdateActiveEntries(snap.ActiveEntries)
			metrics.UpdateActiveUsers(len(snap.Users))
			metrics.UpdateDecisionVersion(snap.Decision.Version)
			metrics.UpdateWSClients(hub.ClientCount())
		}
	}
}
