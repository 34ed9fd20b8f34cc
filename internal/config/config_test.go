package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/bondregistry/internal/domain"
)

const sampleTOML = `
mode = "check"
log_level = "debug"

[networks.mainnet]
rpc_url = "https://eth.example.org/v3/secret"

[catalog]
abi_dir = "testdata"
snapshot_ttl = "10m"

[[bonds]]
name = "dai"
display_name = "DAI"
type = "stable"
bond_abi = "abi/BondDepository.json"

[bonds.addresses.mainnet]
bond = "0x575409F8d77c12B05feD8B455815f0e54797381c"
reserve = "0x6B175474E89094C44Da98b954EedeAC495271d0F"

[bonds.addresses.testnet]
bond = "0xDea5668E815dAF058e3ecB30F645b04ad26374Cf"
reserve = "0xB2180448f8945C8Cc8AE9809E67D6bd27d8B2f2C"

[[bonds]]
name = "ohm_dai_lp"
display_name = "OHM-DAI LP"
type = "lp"
bond_abi = "abi/BondDepository.json"
reserve_abi = "abi/UniswapV2Pair.json"
lp_url = "https://app.sushi.com/add"
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sampleTOML)
	require.NoError(t, err)

	assert.Equal(t, "check", cfg.Mode)
	assert.Equal(t, 10*time.Minute, cfg.Catalog.SnapshotTTL.Duration)
	assert.Equal(t, 4, cfg.Catalog.LoadConcurrency, "default kept")
	require.Len(t, cfg.Bonds, 2)
	assert.Equal(t, "0x6B175474E89094C44Da98b954EedeAC495271d0F", cfg.Bonds[0].Addresses["mainnet"].Reserve)
	assert.Equal(t, "abi/UniswapV2Pair.json", cfg.Bonds[1].ReserveABI)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, map[domain.NetworkID]string{domain.Mainnet: "https://eth.example.org/v3/secret"}, cfg.Endpoints())
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.LogLevel = "loud"
	cfg.Networks = map[string]NetworkConfig{"polygon": {RPCURL: "x"}}
	cfg.Bonds = []BondConfig{
		{Name: "a", Type: "lp", BondABI: "a.json", Addresses: map[string]AddressConfig{"bsc": {}}},
		{Name: "a", Type: "perpetual"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`unknown mode "trade"`,
		`unknown log_level "loud"`,
		`unknown network "polygon"`,
		"bonds[a]: reserve_abi is required for lp bonds",
		`unknown network "bsc" in addresses`,
		"bonds[a]: duplicate name",
		`unknown type "perpetual"`,
		"bonds[a]: bond_abi must not be empty",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateCatalogSource(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no [[bonds]] are defined")

	cfg.Catalog.Source = "postgres"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires postgres.enabled")

	cfg.Postgres.Enabled = true
	assert.NoError(t, cfg.Validate())
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o600))

	t.Setenv("BONDREG_TESTNET_RPC_URL", "https://rinkeby.example.org")
	t.Setenv("BONDREG_MODE", "serve")
	t.Setenv("BONDREG_SERVER_PORT", "9090")
	t.Setenv("BONDREG_SERVER_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("BONDREG_REDIS_ENABLED", "true")
	t.Setenv("BONDREG_POSTGRES_PORT", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "serve", cfg.Mode)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 5432, cfg.Postgres.Port, "invalid override ignored")
	assert.Equal(t, "https://rinkeby.example.org", cfg.Networks["testnet"].RPCURL)
	assert.Equal(t, "https://eth.example.org/v3/secret", cfg.Networks["mainnet"].RPCURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestRedactedConfig(t *testing.T) {
	cfg, err := Parse(sampleTOML)
	require.NoError(t, err)
	cfg.Wallet.PrivateKey = "0xdeadbeef"
	cfg.Redis.Password = "pw"

	red := RedactedConfig(cfg)
	assert.Equal(t, "***", red.Wallet.PrivateKey)
	assert.Equal(t, "***", red.Redis.Password)
	assert.Equal(t, "***", red.Networks["mainnet"].RPCURL)
	assert.Empty(t, red.S3.SecretKey)

	assert.Equal(t, "0xdeadbeef", cfg.Wallet.PrivateKey)
	assert.Equal(t, "https://eth.example.org/v3/secret", cfg.Networks["mainnet"].RPCURL)
}

func TestValidateNotify(t *testing.T) {
	cfg, err := Parse(sampleTOML)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.Notify.TelegramToken = "123:abc"
	cfg.Notify.Events = []string{"check_failed", "order_filled"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram_chat_id")
	assert.Contains(t, err.Error(), `unknown event "order_filled"`)

	cfg.Notify.TelegramChatID = "-100"
	cfg.Notify.Events = []string{"catalog_synced"}
	assert.NoError(t, cfg.Validate())

	red := RedactedConfig(cfg)
	assert.Equal(t, "***", red.Notify.TelegramToken)
	assert.Equal(t, "-100", red.Notify.TelegramChatID)
}
