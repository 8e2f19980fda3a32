package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/ckartal/snipebot/internal/blob/s3"
	"github.com/ckartal/snipebot/internal/cache/redis"
	"github.com/ckartal/snipebot/internal/config"
	"github.com/ckartal/snipebot/internal/domain"
	"github.com/ckartal/snipebot/internal/engine"
	"github.com/ckartal/snipebot/internal/feed"
	"github.com/ckartal/snipebot/internal/notify"
	"github.com/ckartal/snipebot/internal/store/postgres"
	"github.com/ckartal/snipebot/internal/venue"
)

// Dependencies bundles the wired application components.
type Dependencies struct {
	Manager   *engine.Manager
	Scheduler *engine.Scheduler
	Feed      *feed.QuoteFeed
}

// Wire constructs all concrete dependencies from the configuration and
// returns them with a cleanup function releasing connections in reverse
// order.
func Wire(ctx context.Context, cfg *config.Config, simulated bool, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// --- PostgreSQL snapshot store ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	snaps := postgres.NewSnapshotStore(pgClient)

	// --- Redis price cache and signal bus ---
	rdClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = rdClient.Close() })

	priceCache := redis.NewPriceCache(rdClient, cfg.Redis.QuoteTTL.Duration)
	bus := redis.NewSignalBus(rdClient)

	// --- Venue executor ---
	var executor domain.TradeExecutor = venue.NewRelay(venue.RelayConfig{
		BaseURL: cfg.Venue.BaseURL,
		APIKey:  cfg.Venue.APIKey,
		Timeout: time.Duration(cfg.Venue.TimeoutMs) * time.Millisecond,
	}, logger)

	// --- Engine ---
	mgr := engine.NewManager(
		priceCache,
		executor,
		snaps,
		bus,
		cfg.Trading.Limits(),
		cfg.Venue.Account,
		simulated,
		logger,
	)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		mgr.SetNotifier(notify.New(senders, cfg.Notify.Events, logger))
	}

	// --- Scheduler ---
	sched := engine.NewScheduler(
		mgr,
		cfg.Engine.EvaluateInterval.Duration,
		cfg.Engine.RetryDrainInterval.Duration,
		logger,
	)

	if cfg.Engine.ArchiveEnabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		archiver := s3blob.NewArchiver(s3Client, mgr, logger)
		sched.SetArchive(archiver.Archive, cfg.Engine.ArchiveInterval.Duration)
	}

	// --- Feed ---
	quoteFeed := feed.NewQuoteFeed(
		cfg.Feed.WsURL,
		cfg.Feed.ReconnectDelay.Duration,
		priceCache,
		func(ctx context.Context, mint string, alert domain.Alert, info domain.PriceInfo) {
			mgr.OpenPosition(ctx, mint, alert, info)
		},
		logger,
	)

	return &Dependencies{
		Manager:   mgr,
		Scheduler: sched,
		Feed:      quoteFeed,
	}, cleanup, nil
}
