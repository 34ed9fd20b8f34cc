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
// built-in defaults, applies BONDREG_* environment variable overrides, and
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

// Parse decodes TOML from a string on top of the defaults. Environment
// overrides are not applied.
func Parse(doc string) (*Config, error) {
	cfg := Defaults()
	if _, err := toml.Decode(doc, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets operators inject endpoints and secrets at deploy
// time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Networks ──
	setRPC(cfg, "mainnet", "BONDREG_MAINNET_RPC_URL")
	setRPC(cfg, "testnet", "BONDREG_TESTNET_RPC_URL")

	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "BONDREG_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "BONDREG_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "BONDREG_WALLET_KEY_PASSWORD")

	// ── Catalog ──
	setStr(&cfg.Catalog.Source, "BONDREG_CATALOG_SOURCE")
	setStr(&cfg.Catalog.ABIDir, "BONDREG_CATALOG_ABI_DIR")
	setInt(&cfg.Catalog.LoadConcurrency, "BONDREG_CATALOG_LOAD_CONCURRENCY")
	setDuration(&cfg.Catalog.SnapshotTTL, "BONDREG_CATALOG_SNAPSHOT_TTL")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "BONDREG_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "BONDREG_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "BONDREG_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "BONDREG_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "BONDREG_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "BONDREG_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "BONDREG_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "BONDREG_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "BONDREG_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "BONDREG_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "BONDREG_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "BONDREG_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "BONDREG_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BONDREG_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BONDREG_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BONDREG_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BONDREG_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BONDREG_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "BONDREG_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "BONDREG_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BONDREG_S3_REGION")
	setStr(&cfg.S3.Bucket, "BONDREG_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BONDREG_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BONDREG_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "BONDREG_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "BONDREG_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "BONDREG_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "BONDREG_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BONDREG_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BONDREG_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BONDREG_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BONDREG_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BONDREG_MODE")
	setStr(&cfg.LogLevel, "BONDREG_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setRPC(cfg *Config, network, key string) {
	if v := os.Getenv(key); v != "" {
		if cfg.Networks == nil {
			cfg.Networks = map[string]NetworkConfig{}
		}
		n := cfg.Networks[network]
		n.RPCURL = v
		cfg.Networks[network] = n
	}
}

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
