// Package config defines orchestrator configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DebounceMS is the per-user quiet interval before a decision round fires.
	DebounceMS int `koanf:"debounce_ms"`

	// PreferenceWindowS is the horizon in seconds during which a preference
	// entry still counts toward aggregation.
	PreferenceWindowS int `koanf:"preference_window_s"`

	// DeviceTimeoutS marks a device stale when no heartbeat arrives within it.
	DeviceTimeoutS int `koanf:"device_timeout_s"`

	// OracleURL points at the mood-to-environment inference endpoint.
	// Empty means the built-in fake oracle.
	OracleURL string `koanf:"oracle_url"`

	// OracleTimeoutS bounds a single inference call.
	OracleTimeoutS int `koanf:"oracle_timeout_s"`

	// OracleLatencyMinMS and OracleLatencyMaxMS bound the fake oracle's
	// simulated latency.
	OracleLatencyMinMS int `koanf:"oracle_latency_min_ms"`
	OracleLatencyMaxMS int `koanf:"oracle_latency_max_ms"`

	// MQTTBroker is the device command broker URL, e.g. "tcp://localhost:1883".
	// Empty disables the device sink.
	MQTTBroker string `koanf:"mqtt_broker"`

	// MQTTTopicPrefix prefixes device command topics.
	MQTTTopicPrefix string `koanf:"mqtt_topic_prefix"`

	// WSSendBuffer bounds the per-display outbound frame buffer.
	WSSendBuffer int `koanf:"ws_send_buffer"`

	// DefaultMusic is the fallback track applied when inference yields none.
	DefaultMusic string `koanf:"default_music"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9090",
		DebounceMS:         500,
		PreferenceWindowS:  30,
		DeviceTimeoutS:     30,
		OracleURL:          "",
		OracleTimeoutS:     8,
		OracleLatencyMinMS: 80,
		OracleLatencyMaxMS: 150,
		MQTTBroker:         "",
		MQTTTopicPrefix:    "moodscape/device",
		WSSendBuffer:       16,
		DefaultMusic:       "Clair de Lune",
	}
}
