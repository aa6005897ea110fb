package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MOODSCAPE_CONFIG is set
//  3. env (prefix MOODSCAPE_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("MOODSCAPE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MOODSCAPE_ADDR, MOODSCAPE_DEBOUNCE_MS, ...
	// Map env keys like MOODSCAPE_DEBOUNCE_MS -> debounce_ms (flat keys),
	// preserving underscores to match koanf tags on the struct.
	envProvider := env.Provider("MOODSCAPE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "moodscape_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DebounceMS <= 0:
		return fmt.Errorf("%w: debounce_ms must be positive", ErrInvalidConfig)
	case c.PreferenceWindowS <= 0:
		return fmt.Errorf("%w: preference_window_s must be positive", ErrInvalidConfig)
	case c.DeviceTimeoutS <= 0:
		return fmt.Errorf("%w: device_timeout_s must be positive", ErrInvalidConfig)
	case c.OracleTimeoutS <= 0:
		return fmt.Errorf("%w: oracle_timeout_s must be positive", ErrInvalidConfig)
	case c.DefaultMusic == "":
		return fmt.Errorf("%w: default_music must not be empty", ErrInvalidConfig)
	}
	return nil
}
