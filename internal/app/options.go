package app

import (
	"time"

	"github.com/ericggul/moodscape/internal/adapters/device"
	"github.com/ericggul/moodscape/internal/adapters/oracle"
	"github.com/ericggul/moodscape/internal/domain/env"
	"github.com/ericggul/moodscape/internal/domain/normalize"
	"github.com/ericggul/moodscape/pkg/logger"
)

// Default orchestrator configuration constants.
const (
	defaultDebounceInterval = 500 * time.Millisecond
	defaultWindow           = 30 * time.Second
	defaultDeviceTimeout    = 30 * time.Second
	defaultOracleTimeout    = 8 * time.Second
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDebounceInterval sets the per-user quiet interval.
func WithDebounceInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.debounceInterval = interval
		}
	}
}

// WithPreferenceWindow sets the active preference horizon.
func WithPreferenceWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithDeviceTimeout sets the heartbeat staleness horizon.
func WithDeviceTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.deviceTimeout = timeout
		}
	}
}

// WithOracleTimeout bounds a single inference call.
func WithOracleTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.oracleTimeout = timeout
		}
	}
}

// WithOracle sets the inference collaborator.
func WithOracle(o oracle.Oracle) Option {
	return func(s *Service) {
		if o != nil {
			s.oracle = o
		}
	}
}

// WithNormalizer sets a custom normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithDeviceSink sets the device command sink.
func WithDeviceSink(sink device.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithBroadcaster sets the outbound publish fabric.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) {
		if b != nil {
			s.publisher = b
		}
	}
}

// WithDefaultEnvironment sets the process-wide default environment.
func WithDefaultEnvironment(e env.Environment) Option {
	return func(s *Service) {
		if e.Valid() {
			s.defaults = e
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(lg logger.Logger) Option {
	return func(s *Service) {
		if lg != nil {
			s.logger = lg
		}
	}
}
