package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/vigilance/vanguard/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		// point the dotenv lookup at a file that does not exist
		_ = os.Setenv("VANGUARD_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
		defer clearConfigEnvVars()

		convey.Convey("When loading with only the API key set", func() {
			_ = os.Setenv("VANGUARD_API_KEY", "key-123")

			cfg, err := config.Load(ctx)

			convey.Convey("Then defaults should be kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.APIKey, convey.ShouldEqual, "key-123")
				convey.So(cfg.ThrottleCap, convey.ShouldEqual, 18)
				convey.So(cfg.ThrottleWindowMS, convey.ShouldEqual, 1500)
			})
		})

		convey.Convey("When loading with environment overrides", func() {
			_ = os.Setenv("VANGUARD_API_KEY", "key-123")
			_ = os.Setenv("VANGUARD_THROTTLE_CAP", "10")
			_ = os.Setenv("VANGUARD_THROTTLE_WINDOW_MS", "1000")
			_ = os.Setenv("VANGUARD_FANOUT_WORKERS", "4")
			_ = os.Setenv("VANGUARD_THROTTLE_MODE", "token_bucket")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the environment should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ThrottleCap, convey.ShouldEqual, 10)
				convey.So(cfg.ThrottleWindowMS, convey.ShouldEqual, 1000)
				convey.So(cfg.FanoutWorkers, convey.ShouldEqual, 4)
				convey.So(cfg.ThrottleMode, convey.ShouldEqual, "token_bucket")
			})
		})

		convey.Convey("When loading with a YAML file and env together", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
api_key: "from-file"
cutoff_year: 2020
locale: "de"
`)
			_ = os.Setenv("VANGUARD_CONFIG", tmpFile)
			_ = os.Setenv("VANGUARD_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should override the file and the file the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.APIKey, convey.ShouldEqual, "from-file")
				convey.So(cfg.CutoffYear, convey.ShouldEqual, 2020)
				convey.So(cfg.Locale, convey.ShouldEqual, "de")
				convey.So(cfg.PageSize, convey.ShouldEqual, 250)
			})
		})

		convey.Convey("When secrets come from a .env file", func() {
			dir := t.TempDir()
			envFile := filepath.Join(dir, "test.env")
			convey.So(os.WriteFile(envFile, []byte("VANGUARD_API_KEY=dotenv-key\nVANGUARD_CLIENT_ID=42\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("VANGUARD_ENV_FILE", envFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then they should be picked up", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.APIKey, convey.ShouldEqual, "dotenv-key")
				convey.So(cfg.ClientID, convey.ShouldEqual, "42")
			})
		})

		convey.Convey("When loading an invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("VANGUARD_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the API key is missing", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
				convey.So(err.Error(), convey.ShouldContainSubstring, "api_key")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the throttle mode is unknown", func() {
			_ = os.Setenv("VANGUARD_API_KEY", "key-123")
			_ = os.Setenv("VANGUARD_THROTTLE_MODE", "leaky")

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected", func() {
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})

		convey.Convey("When a numeric variable is not a number", func() {
			_ = os.Setenv("VANGUARD_API_KEY", "key-123")
			_ = os.Setenv("VANGUARD_THROTTLE_CAP", "many")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "VANGUARD_") {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vanguard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
