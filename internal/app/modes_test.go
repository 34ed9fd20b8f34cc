package app

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/bondregistry/internal/abisource"
	"github.com/alanyoungcy/bondregistry/internal/catalog"
	"github.com/alanyoungcy/bondregistry/internal/chain"
	"github.com/alanyoungcy/bondregistry/internal/config"
	"github.com/alanyoungcy/bondregistry/internal/domain"
	"github.com/alanyoungcy/bondregistry/internal/notify"
)

const (
	daiBond    = "0x575409F8d77c12B05feD8B455815f0e54797381c"
	daiReserve = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	lpBond     = "0xDea5668E815dAF058e3ecB30F645b04ad26374Cf"
	lpReserve  = "0x34d7d7Aaf50AD4944B70B320aCB24C95fa2def7c"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type memStore struct {
	recs map[string]domain.BondRecord
}

func (m *memStore) Upsert(_ context.Context, rec domain.BondRecord) error {
	m.recs[rec.Name] = rec
	return nil
}

func (m *memStore) UpsertBatch(ctx context.Context, recs []domain.BondRecord) error {
	for _, r := range recs {
		_ = m.Upsert(ctx, r)
	}
	return nil
}

func (m *memStore) GetByName(_ context.Context, name string) (domain.BondRecord, error) {
	r, ok := m.recs[name]
	if !ok {
		return domain.BondRecord{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *memStore) List(context.Context) ([]domain.BondRecord, error) {
	var out []domain.BondRecord
	for _, r := range m.recs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) Delete(_ context.Context, name string) error {
	if _, ok := m.recs[name]; !ok {
		return domain.ErrNotFound
	}
	delete(m.recs, name)
	return nil
}

type memCache struct {
	summaries []domain.BondSummary
}

func (m *memCache) Set(context.Context, domain.BondSummary) error { return nil }
func (m *memCache) Get(context.Context, string) (domain.BondSummary, error) {
	return domain.BondSummary{}, domain.ErrNotFound
}
func (m *memCache) Names(context.Context) ([]string, error) { return nil, nil }
func (m *memCache) Replace(_ context.Context, s []domain.BondSummary) error {
	m.summaries = s
	return nil
}

type codeBackend struct {
	bind.ContractBackend
	deployed map[common.Address]bool
}

func (b *codeBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (b *codeBackend) CodeAt(_ context.Context, addr common.Address, _ *big.Int) ([]byte, error) {
	if b.deployed[addr] {
		return []byte{0x60, 0x80}, nil
	}
	return nil, nil
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	addrs := func(bond, reserve string) map[string]config.AddressConfig {
		return map[string]config.AddressConfig{
			"mainnet": {Bond: bond, Reserve: reserve},
			"testnet": {Bond: bond, Reserve: reserve},
		}
	}
	cfg.Bonds = []config.BondConfig{
		{Name: "dai", DisplayName: "DAI", Type: "stable", BondABI: "erc20", Addresses: addrs(daiBond, daiReserve)},
		{Name: "ohm_dai_lp", DisplayName: "OHM-DAI LP", Type: "lp", BondABI: "erc20", ReserveABI: "erc20", Addresses: addrs(lpBond, lpReserve)},
	}
	return &cfg
}

func testDeps(pool *chain.Pool) *Dependencies {
	return &Dependencies{
		Chain:  pool,
		Loader: catalog.NewLoader(abisource.NewResolver(".", nil), 2, discard),
	}
}

func TestCheckModeWithoutRPC(t *testing.T) {
	a := New(testConfig(), discard)
	require.NoError(t, a.CheckMode(context.Background(), testDeps(chain.NewPool(nil))))
}

func TestCheckModeDetectsMissingCode(t *testing.T) {
	backend := &codeBackend{deployed: map[common.Address]bool{
		common.HexToAddress(daiBond):    true,
		common.HexToAddress(daiReserve): true,
		common.HexToAddress(lpBond):     true,
	}}
	pool := chain.NewPool(map[domain.NetworkID]chain.Backend{domain.Mainnet: backend})
	a := New(testConfig(), discard)

	err := a.CheckMode(context.Background(), testDeps(pool))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ohm_dai_lp")
	assert.Contains(t, strings.ToLower(err.Error()), strings.ToLower(lpReserve))
	assert.NotContains(t, err.Error(), "bond dai:")

	backend.deployed[common.HexToAddress(lpReserve)] = true
	assert.NoError(t, a.CheckMode(context.Background(), testDeps(pool)))
}

func TestSyncMode(t *testing.T) {
	store := &memStore{recs: map[string]domain.BondRecord{
		"frax": {Name: "frax", Type: domain.StableAsset},
	}}
	cache := &memCache{}
	deps := testDeps(chain.NewPool(nil))
	deps.Store = store
	deps.Cache = cache

	a := New(testConfig(), discard)
	require.NoError(t, a.SyncMode(context.Background(), deps))

	stored, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "dai", stored[0].Name)
	assert.Equal(t, "ohm_dai_lp", stored[1].Name)

	require.Len(t, cache.summaries, 2)
	assert.True(t, cache.summaries[1].IsLP)
}

func TestSyncModeRequiresStore(t *testing.T) {
	a := New(testConfig(), discard)
	assert.Error(t, a.SyncMode(context.Background(), testDeps(chain.NewPool(nil))))
}

func TestLoadRegistryFromStore(t *testing.T) {
	cfg := testConfig()
	recs, err := catalog.FromConfig(cfg.Bonds, ".")
	require.NoError(t, err)
	store := &memStore{recs: map[string]domain.BondRecord{}}
	require.NoError(t, store.UpsertBatch(context.Background(), recs[:1]))

	cfg.Catalog.Source = "postgres"
	deps := testDeps(chain.NewPool(nil))
	deps.Store = store

	reg, err := New(cfg, discard).loadRegistry(context.Background(), deps)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	deps.Store = nil
	_, err = New(cfg, discard).loadRegistry(context.Background(), deps)
	assert.Error(t, err)
}

func TestRunModeRejectsUnknownMode(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = "trade"
	assert.Error(t, New(cfg, discard).runMode(context.Background(), testDeps(chain.NewPool(nil))))
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	r.titles = append(r.titles, title)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

func TestModesSendAlerts(t *testing.T) {
	sender := &recordingSender{}
	pool := chain.NewPool(map[domain.NetworkID]chain.Backend{
		domain.Mainnet: &codeBackend{deployed: map[common.Address]bool{}},
	})
	deps := testDeps(pool)
	deps.Notifier = notify.NewNotifier([]notify.Sender{sender}, nil, discard)
	deps.Store = &memStore{recs: map[string]domain.BondRecord{}}

	a := New(testConfig(), discard)
	require.Error(t, a.CheckMode(context.Background(), deps))
	require.NoError(t, a.SyncMode(context.Background(), deps))
	assert.Equal(t, []string{"Bond catalog check failed", "Bond catalog synced"}, sender.titles)
}
