// Package config defines the configuration of the bond registry service and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by BONDREG_* environment variables.
type Config struct {
	Networks map[string]NetworkConfig `toml:"networks"`
	Wallet   WalletConfig             `toml:"wallet"`
	Catalog  CatalogConfig            `toml:"catalog"`
	Bonds    []BondConfig             `toml:"bonds"`
	Postgres PostgresConfig           `toml:"postgres"`
	Redis    RedisConfig              `toml:"redis"`
	S3       S3Config                 `toml:"s3"`
	Server   ServerConfig             `toml:"server"`
	Notify   NotifyConfig             `toml:"notify"`
	Mode     string                   `toml:"mode"`
	LogLevel string                   `toml:"log_level"`
}

// NetworkConfig holds the RPC endpoint of one network. The table key is the
// network name ("mainnet", "testnet").
type NetworkConfig struct {
	RPCURL string `toml:"rpc_url"`
}

// WalletConfig holds the signing key used for signing connections.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// CatalogConfig controls where bond definitions come from.
type CatalogConfig struct {
	// Source is "config" (the [[bonds]] tables) or "postgres".
	Source string `toml:"source"`
	// ABIDir is the base directory for relative ABI and icon paths.
	ABIDir          string   `toml:"abi_dir"`
	LoadConcurrency int      `toml:"load_concurrency"`
	SnapshotTTL     duration `toml:"snapshot_ttl"`
}

// BondConfig is one [[bonds]] table.
type BondConfig struct {
	Name        string `toml:"name"`
	DisplayName string `toml:"display_name"`
	Type        string `toml:"type"`
	Icon        string `toml:"icon"`
	// IconPath, relative to catalog.abi_dir, is read when Icon is empty.
	IconPath   string                   `toml:"icon_path"`
	BondABI    string                   `toml:"bond_abi"`
	ReserveABI string                   `toml:"reserve_abi"`
	LPURL      string                   `toml:"lp_url"`
	Addresses  map[string]AddressConfig `toml:"addresses"`
}

// AddressConfig holds a bond's contracts on one network.
type AddressConfig struct {
	Bond    string `toml:"bond"`
	Reserve string `toml:"reserve"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
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

// RedisConfig holds Redis connection parameters for the catalog snapshot.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds object storage parameters for s3:// ABI references.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds alert channel settings. A channel is active when its
// credentials are set.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so TOML strings like "5m" decode.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Networks: map[string]NetworkConfig{},
		Catalog: CatalogConfig{
			Source:          "config",
			ABIDir:          ".",
			LoadConcurrency: 4,
			SnapshotTTL:     duration{0},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  0,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"serve": true,
	"check": true,
	"sync":  true,
}

var validEvents = map[string]bool{
	"check_failed":   true,
	"catalog_synced": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found. Bond addresses and ABIs are
// checked later, when descriptors are built.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, check, sync)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	for name := range c.Networks {
		if _, err := domain.ParseNetworkID(name); err != nil {
			errs = append(errs, fmt.Sprintf("networks: unknown network %q", name))
		}
	}

	if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
		errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
	}

	// Catalog
	switch c.Catalog.Source {
	case "config":
		if len(c.Bonds) == 0 {
			errs = append(errs, "catalog: source is config but no [[bonds]] are defined")
		}
	case "postgres":
		if !c.Postgres.Enabled {
			errs = append(errs, "catalog: source postgres requires postgres.enabled")
		}
	default:
		errs = append(errs, fmt.Sprintf("catalog: unknown source %q (valid: config, postgres)", c.Catalog.Source))
	}
	if c.Catalog.LoadConcurrency < 1 {
		errs = append(errs, "catalog: load_concurrency must be >= 1")
	}
	if c.Catalog.SnapshotTTL.Duration < 0 {
		errs = append(errs, "catalog: snapshot_ttl must not be negative")
	}

	seen := make(map[string]bool, len(c.Bonds))
	for i, b := range c.Bonds {
		label := fmt.Sprintf("bonds[%d]", i)
		if b.Name != "" {
			label = fmt.Sprintf("bonds[%s]", b.Name)
		}
		if strings.TrimSpace(b.Name) == "" {
			errs = append(errs, label+": name must not be empty")
		} else if seen[b.Name] {
			errs = append(errs, label+": duplicate name")
		}
		seen[b.Name] = true

		typ, err := domain.ParseBondType(b.Type)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: unknown type %q (valid: stable, lp)", label, b.Type))
		}
		if b.BondABI == "" {
			errs = append(errs, label+": bond_abi must not be empty")
		}
		if err == nil && typ == domain.LP && b.ReserveABI == "" {
			errs = append(errs, label+": reserve_abi is required for lp bonds")
		}
		for network := range b.Addresses {
			if _, err := domain.ParseNetworkID(network); err != nil {
				errs = append(errs, fmt.Sprintf("%s: unknown network %q in addresses", label, network))
			}
		}
	}

	// Postgres
	if c.Postgres.Enabled || c.Mode == "sync" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled && c.S3.Region == "" {
		errs = append(errs, "s3: region must not be empty")
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}
	for _, e := range c.Notify.Events {
		if !validEvents[strings.TrimSpace(e)] {
			errs = append(errs, fmt.Sprintf("notify: unknown event %q (valid: check_failed, catalog_synced)", e))
		}
	}

	// Server
	if c.Mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Endpoints returns the configured RPC URL of every network.
func (c *Config) Endpoints() map[domain.NetworkID]string {
	out := make(map[domain.NetworkID]string, len(c.Networks))
	for name, n := range c.Networks {
		id, err := domain.ParseNetworkID(name)
		if err != nil || n.RPCURL == "" {
			continue
		}
		out[id] = n.RPCURL
	}
	return out
}
