package app

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/bondregistry/internal/abisource"
	s3blob "github.com/alanyoungcy/bondregistry/internal/blob/s3"
	"github.com/alanyoungcy/bondregistry/internal/cache/redis"
	"github.com/alanyoungcy/bondregistry/internal/catalog"
	"github.com/alanyoungcy/bondregistry/internal/chain"
	"github.com/alanyoungcy/bondregistry/internal/config"
	"github.com/alanyoungcy/bondregistry/internal/crypto"
	"github.com/alanyoungcy/bondregistry/internal/domain"
	"github.com/alanyoungcy/bondregistry/internal/notify"
	"github.com/alanyoungcy/bondregistry/internal/store/postgres"
)

// Dependencies bundles everything the modes need. Optional backends are nil
// when disabled.
type Dependencies struct {
	Chain  *chain.Pool
	Loader *catalog.Loader

	Store      domain.BondStore
	Cache      domain.CatalogCache
	BlobReader domain.BlobReader

	// SigningKey is nil when no wallet is configured.
	SigningKey *ecdsa.PrivateKey

	Notifier *notify.Notifier
}

func needsPostgres(cfg *config.Config) bool {
	return cfg.Postgres.Enabled || cfg.Mode == "sync" || cfg.Catalog.Source == "postgres"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	deps := &Dependencies{}

	// --- Signing key (optional) ---
	key, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	switch {
	case err == nil:
		deps.SigningKey = key
		logger.InfoContext(ctx, "signing key loaded", slog.String("address", crypto.Address(key).Hex()))
	case errors.Is(err, crypto.ErrNoKey):
	default:
		return fail(fmt.Errorf("wire: wallet: %w", err))
	}

	// --- RPC backends ---
	pool, err := chain.Dial(ctx, cfg.Endpoints(), logger)
	if err != nil {
		return fail(fmt.Errorf("wire: chain: %w", err))
	}
	closers = append(closers, pool.Close)
	deps.Chain = pool

	// --- S3 (only for s3:// ABI references) ---
	if cfg.S3.Enabled {
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
			return fail(fmt.Errorf("wire: s3: %w", err))
		}
		if err := s3Client.Health(ctx); err != nil {
			return fail(fmt.Errorf("wire: s3: %w", err))
		}
		deps.BlobReader = s3blob.NewReader(s3Client)
	}
	deps.Loader = catalog.NewLoader(
		abisource.NewResolver(cfg.Catalog.ABIDir, deps.BlobReader),
		cfg.Catalog.LoadConcurrency,
		logger,
	)

	// --- PostgreSQL ---
	if needsPostgres(cfg) {
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
			return fail(fmt.Errorf("wire: postgres: %w", err))
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				return fail(fmt.Errorf("wire: postgres migrations: %w", err))
			}
		}
		deps.Store = postgres.NewBondStore(pgClient.Pool())
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Cache = redis.NewCatalogCache(redisClient, cfg.Catalog.SnapshotTTL.Duration)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
