package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "sim"

[trading]
default_investment = 0.25
max_positions = 3

[engine]
evaluate_interval = "2s"

[redis]
quote_ttl = "30s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "sim" {
		t.Errorf("Mode = %q, want sim", cfg.Mode)
	}
	if cfg.Trading.DefaultInvestment != 0.25 {
		t.Errorf("DefaultInvestment = %v, want 0.25", cfg.Trading.DefaultInvestment)
	}
	if cfg.Trading.MaxPositions != 3 {
		t.Errorf("MaxPositions = %d, want 3", cfg.Trading.MaxPositions)
	}
	if cfg.Engine.EvaluateInterval.Duration != 2*time.Second {
		t.Errorf("EvaluateInterval = %v, want 2s", cfg.Engine.EvaluateInterval.Duration)
	}
	if cfg.Redis.QuoteTTL.Duration != 30*time.Second {
		t.Errorf("QuoteTTL = %v, want 30s", cfg.Redis.QuoteTTL.Duration)
	}

	// Untouched fields keep their defaults.
	if cfg.Trading.TakeProfitFrac != 0.5 {
		t.Errorf("TakeProfitFrac = %v, want default 0.5", cfg.Trading.TakeProfitFrac)
	}
	if cfg.Engine.RetryDrainInterval.Duration != 10*time.Minute {
		t.Errorf("RetryDrainInterval = %v, want default 10m", cfg.Engine.RetryDrainInterval.Duration)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[trading]
default_investment = 0.25
`)

	t.Setenv("SNIPEBOT_TRADING_DEFAULT_INVESTMENT", "0.75")
	t.Setenv("SNIPEBOT_TRADING_TRACKED_MINTS", "mint1, mint2 ,mint3")
	t.Setenv("SNIPEBOT_MODE", "sim")
	t.Setenv("SNIPEBOT_ENGINE_EVALUATE_INTERVAL", "7s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trading.DefaultInvestment != 0.75 {
		t.Errorf("DefaultInvestment = %v, want env override 0.75", cfg.Trading.DefaultInvestment)
	}
	if len(cfg.Trading.TrackedMints) != 3 || cfg.Trading.TrackedMints[1] != "mint2" {
		t.Errorf("TrackedMints = %v, want trimmed 3-element list", cfg.Trading.TrackedMints)
	}
	if cfg.Mode != "sim" {
		t.Errorf("Mode = %q, want sim", cfg.Mode)
	}
	if cfg.Engine.EvaluateInterval.Duration != 7*time.Second {
		t.Errorf("EvaluateInterval = %v, want 7s", cfg.Engine.EvaluateInterval.Duration)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults failed validation: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "yolo" }},
		{"zero investment", func(c *Config) { c.Trading.DefaultInvestment = 0 }},
		{"zero take profit", func(c *Config) { c.Trading.TakeProfitFrac = 0 }},
		{"stop loss above one", func(c *Config) { c.Trading.StopLossFrac = 1.5 }},
		{"zero max positions", func(c *Config) { c.Trading.MaxPositions = 0 }},
		{"empty tracked without track_all", func(c *Config) {
			c.Trading.TrackAll = false
			c.Trading.TrackedMints = nil
		}},
		{"zero evaluate interval", func(c *Config) { c.Engine.EvaluateInterval.Duration = 0 }},
		{"auto execute without account", func(c *Config) {
			c.Trading.AutoExecute = true
			c.Venue.Account = ""
		}},
		{"archive without bucket", func(c *Config) {
			c.Engine.ArchiveEnabled = true
			c.S3.Bucket = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}
