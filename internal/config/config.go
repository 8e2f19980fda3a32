// Package config defines the top-level configuration for the sniper bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ckartal/snipebot/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SNIPEBOT_* environment
// variables.
type Config struct {
	Trading  TradingConfig  `toml:"trading"`
	Engine   EngineConfig   `toml:"engine"`
	Venue    VenueConfig    `toml:"venue"`
	Feed     FeedConfig     `toml:"feed"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// TradingConfig holds the trading limits consulted by entry gating and
// close accounting.
type TradingConfig struct {
	DefaultInvestment float64  `toml:"default_investment"`
	TakeProfitFrac    float64  `toml:"take_profit_frac"`
	StopLossFrac      float64  `toml:"stop_loss_frac"`
	FeesPercent       float64  `toml:"fees_percent"`
	SlippagePercent   float64  `toml:"slippage_percent"`
	MaxPositions      int      `toml:"max_positions"`
	MinAlertSize      float64  `toml:"min_alert_size"`
	AutoExecute       bool     `toml:"auto_execute"`
	TrackAll          bool     `toml:"track_all"`
	TrackedMints      []string `toml:"tracked_mints"`
}

// Limits converts the trading section to the domain representation.
func (t TradingConfig) Limits() domain.TradingLimits {
	return domain.TradingLimits{
		DefaultInvestment: t.DefaultInvestment,
		TakeProfitFrac:    t.TakeProfitFrac,
		StopLossFrac:      t.StopLossFrac,
		FeesPercent:       t.FeesPercent,
		SlippagePercent:   t.SlippagePercent,
		MaxPositions:      t.MaxPositions,
		MinAlertSize:      t.MinAlertSize,
		AutoExecute:       t.AutoExecute,
		TrackAll:          t.TrackAll,
		TrackedMints:      append([]string(nil), t.TrackedMints...),
	}
}

// EngineConfig holds the scheduler cadences and archival settings.
type EngineConfig struct {
	EvaluateInterval   duration `toml:"evaluate_interval"`
	RetryDrainInterval duration `toml:"retry_drain_interval"`
	ArchiveInterval    duration `toml:"archive_interval"`
	ArchiveEnabled     bool     `toml:"archive_enabled"`
}

// VenueConfig holds the swap-relay endpoint that executes real orders.
// The relay owns transaction signing and wallet custody.
type VenueConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Account   string `toml:"account"`
	TimeoutMs int    `toml:"timeout_ms"`
}

// FeedConfig holds the websocket price feed parameters.
type FeedConfig struct {
	WsURL          string   `toml:"ws_url"`
	ReconnectDelay duration `toml:"reconnect_delay"`
}

// PostgresConfig holds PostgreSQL connection parameters for snapshots.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the price cache and
// event bus. QuoteTTL expires cached quotes so the engine sees a missing
// price instead of an arbitrarily stale one.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	QuoteTTL   duration `toml:"quote_ttl"`
}

// S3Config holds S3-compatible object storage parameters for trade-history
// archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "10m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5s" or "10m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with sensible development defaults.
func Defaults() Config {
	return Config{
		Trading: TradingConfig{
			DefaultInvestment: 0.1,
			TakeProfitFrac:    0.5,
			StopLossFrac:      0.3,
			FeesPercent:       0.5,
			SlippagePercent:   2.0,
			MaxPositions:      10,
			MinAlertSize:      0,
			AutoExecute:       false,
			TrackAll:          true,
		},
		Engine: EngineConfig{
			EvaluateInterval:   duration{5 * time.Second},
			RetryDrainInterval: duration{10 * time.Minute},
			ArchiveInterval:    duration{24 * time.Hour},
		},
		Venue: VenueConfig{
			BaseURL:   "http://localhost:8899",
			TimeoutMs: 30000,
		},
		Feed: FeedConfig{
			ReconnectDelay: duration{5 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "snipebot",
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			QuoteTTL: duration{5 * time.Minute},
		},
		Mode:     "track",
		LogLevel: "info",
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	var problems []string

	switch strings.ToLower(c.Mode) {
	case "track", "sim":
	default:
		problems = append(problems, fmt.Sprintf("mode: unsupported %q", c.Mode))
	}

	if c.Trading.DefaultInvestment <= 0 {
		problems = append(problems, "trading.default_investment: must be > 0")
	}
	if c.Trading.TakeProfitFrac <= 0 {
		problems = append(problems, "trading.take_profit_frac: must be > 0")
	}
	if c.Trading.StopLossFrac <= 0 || c.Trading.StopLossFrac >= 1 {
		problems = append(problems, "trading.stop_loss_frac: must be in (0, 1)")
	}
	if c.Trading.MaxPositions <= 0 {
		problems = append(problems, "trading.max_positions: must be > 0")
	}
	if !c.Trading.TrackAll && len(c.Trading.TrackedMints) == 0 {
		problems = append(problems, "trading.tracked_mints: empty while track_all is disabled")
	}

	if c.Engine.EvaluateInterval.Duration <= 0 {
		problems = append(problems, "engine.evaluate_interval: must be > 0")
	}
	if c.Engine.RetryDrainInterval.Duration <= 0 {
		problems = append(problems, "engine.retry_drain_interval: must be > 0")
	}

	if c.Trading.AutoExecute {
		if c.Venue.BaseURL == "" {
			problems = append(problems, "venue.base_url: required when trading.auto_execute is enabled")
		}
		if c.Venue.Account == "" {
			problems = append(problems, "venue.account: required when trading.auto_execute is enabled")
		}
	}

	if c.Engine.ArchiveEnabled && c.S3.Bucket == "" {
		problems = append(problems, "s3.bucket: required when engine.archive_enabled is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
