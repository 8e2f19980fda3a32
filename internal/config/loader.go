package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SNIPEBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SNIPEBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Trading ──
	setFloat64(&cfg.Trading.DefaultInvestment, "SNIPEBOT_TRADING_DEFAULT_INVESTMENT")
	setFloat64(&cfg.Trading.TakeProfitFrac, "SNIPEBOT_TRADING_TAKE_PROFIT_FRAC")
	setFloat64(&cfg.Trading.StopLossFrac, "SNIPEBOT_TRADING_STOP_LOSS_FRAC")
	setFloat64(&cfg.Trading.FeesPercent, "SNIPEBOT_TRADING_FEES_PERCENT")
	setFloat64(&cfg.Trading.SlippagePercent, "SNIPEBOT_TRADING_SLIPPAGE_PERCENT")
	setInt(&cfg.Trading.MaxPositions, "SNIPEBOT_TRADING_MAX_POSITIONS")
	setFloat64(&cfg.Trading.MinAlertSize, "SNIPEBOT_TRADING_MIN_ALERT_SIZE")
	setBool(&cfg.Trading.AutoExecute, "SNIPEBOT_TRADING_AUTO_EXECUTE")
	setBool(&cfg.Trading.TrackAll, "SNIPEBOT_TRADING_TRACK_ALL")
	setStringSlice(&cfg.Trading.TrackedMints, "SNIPEBOT_TRADING_TRACKED_MINTS")

	// ── Engine ──
	setDuration(&cfg.Engine.EvaluateInterval, "SNIPEBOT_ENGINE_EVALUATE_INTERVAL")
	setDuration(&cfg.Engine.RetryDrainInterval, "SNIPEBOT_ENGINE_RETRY_DRAIN_INTERVAL")
	setDuration(&cfg.Engine.ArchiveInterval, "SNIPEBOT_ENGINE_ARCHIVE_INTERVAL")
	setBool(&cfg.Engine.ArchiveEnabled, "SNIPEBOT_ENGINE_ARCHIVE_ENABLED")

	// ── Venue ──
	setStr(&cfg.Venue.BaseURL, "SNIPEBOT_VENUE_BASE_URL")
	setStr(&cfg.Venue.APIKey, "SNIPEBOT_VENUE_API_KEY")
	setStr(&cfg.Venue.Account, "SNIPEBOT_VENUE_ACCOUNT")
	setInt(&cfg.Venue.TimeoutMs, "SNIPEBOT_VENUE_TIMEOUT_MS")

	// ── Feed ──
	setStr(&cfg.Feed.WsURL, "SNIPEBOT_FEED_WS_URL")
	setDuration(&cfg.Feed.ReconnectDelay, "SNIPEBOT_FEED_RECONNECT_DELAY")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "SNIPEBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SNIPEBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SNIPEBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SNIPEBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SNIPEBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SNIPEBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SNIPEBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SNIPEBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SNIPEBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SNIPEBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SNIPEBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SNIPEBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SNIPEBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SNIPEBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SNIPEBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SNIPEBOT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.QuoteTTL, "SNIPEBOT_REDIS_QUOTE_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "SNIPEBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SNIPEBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "SNIPEBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SNIPEBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SNIPEBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SNIPEBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SNIPEBOT_S3_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SNIPEBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SNIPEBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SNIPEBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SNIPEBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "SNIPEBOT_MODE")
	setStr(&cfg.LogLevel, "SNIPEBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
