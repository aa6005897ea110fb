package debounce

import (
	"time"

	"github.com/ericggul/moodscape/pkg/logger"
)

// Default quiet interval before a burst of voice input resolves.
const defaultInterval = 500 * time.Millisecond

// Option applies a configuration option to the Debouncer.
type Option func(*Debouncer)

// WithInterval sets the quiet interval.
func WithInterval(interval time.Duration) Option {
	return func(d *Debouncer) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithLogger sets a custom logger for the debouncer.
func WithLogger(lg logger.Logger) Option {
	return func(d *Debouncer) {
		if lg != nil {
			d.logger = lg
		}
	}
}
