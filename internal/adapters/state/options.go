package state

import (
	"time"

	"github.com/ericggul/moodscape/internal/domain/env"
)

// Defaults for device tracking.
const defaultDeviceTimeout = 30 * time.Second

var defaultDeviceSlots = []string{"climate", "light", "screen"}

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithDeviceTimeout sets the heartbeat staleness horizon.
func WithDeviceTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithDeviceSlots sets the logical device slots reported even before their
// first heartbeat.
func WithDeviceSlots(slots []string) Option {
	return func(c *Controller) {
		if len(slots) > 0 {
			c.deviceSlots = slots
		}
	}
}

// WithDefaultEnvironment sets the environment the decision resets to.
func WithDefaultEnvironment(e env.Environment) Option {
	return func(c *Controller) {
		if e.Valid() {
			c.defaults = e
		}
	}
}
