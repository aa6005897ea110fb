package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ericggul/moodscape/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DebounceMS, convey.ShouldEqual, 500)
				convey.So(cfg.PreferenceWindowS, convey.ShouldEqual, 30)
				convey.So(cfg.DeviceTimeoutS, convey.ShouldEqual, 30)
				convey.So(cfg.OracleTimeoutS, convey.ShouldEqual, 8)
				convey.So(cfg.DefaultMusic, convey.ShouldEqual, "Clair de Lune")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MOODSCAPE_ADDR", ":8080")
			_ = os.Setenv("MOODSCAPE_DEBOUNCE_MS", "250")
			_ = os.Setenv("MOODSCAPE_PREFERENCE_WINDOW_S", "45")
			_ = os.Setenv("MOODSCAPE_ORACLE_URL", "http://localhost:5005/infer")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DebounceMS, convey.ShouldEqual, 250)
				convey.So(cfg.PreferenceWindowS, convey.ShouldEqual, 45)
				convey.So(cfg.OracleURL, convey.ShouldEqual, "http://localhost:5005/infer")
			})
		})

		convey.Convey("When loading config from a YAML file", func() {
			clearConfigEnvVars()

			dir := t.TempDir()
			path := filepath.Join(dir, "moodscape.yaml")
			yaml := "addr: \":7070\"\ndebounce_ms: 300\ndefault_music: \"Gymnopedie No.1\"\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("MOODSCAPE_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.DebounceMS, convey.ShouldEqual, 300)
				convey.So(cfg.DefaultMusic, convey.ShouldEqual, "Gymnopedie No.1")
			})

			convey.Convey("And env should override the file", func() {
				_ = os.Setenv("MOODSCAPE_ADDR", ":6060")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When configuration is invalid", func() {
			clearConfigEnvVars()
			_ = os.Setenv("MOODSCAPE_DEBOUNCE_MS", "-1")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading should fail with ErrInvalidConfig", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"MOODSCAPE_CONFIG",
		"MOODSCAPE_ADDR",
		"MOODSCAPE_DEBOUNCE_MS",
		"MOODSCAPE_PREFERENCE_WINDOW_S",
		"MOODSCAPE_DEVICE_TIMEOUT_S",
		"MOODSCAPE_ORACLE_URL",
		"MOODSCAPE_ORACLE_TIMEOUT_S",
		"MOODSCAPE_DEFAULT_MUSIC",
	} {
		_ = os.Unsetenv(key)
	}
}
