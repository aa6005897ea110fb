package registry

import "time"

// Default active window: how long a preference keeps counting.
const defaultWindow = 30 * time.Second

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithWindow sets the active window.
func WithWindow(window time.Duration) Option {
	return func(s *MemStore) {
		if window > 0 {
			s.window = window
		}
	}
}
