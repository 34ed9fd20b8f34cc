package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/bondregistry/internal/abisource"
	"github.com/alanyoungcy/bondregistry/internal/config"
	"github.com/alanyoungcy/bondregistry/internal/contract"
	"github.com/alanyoungcy/bondregistry/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func addresses() map[string]config.AddressConfig {
	return map[string]config.AddressConfig{
		"mainnet": {Bond: "0x575409F8d77c12B05feD8B455815f0e54797381c", Reserve: "0x6B175474E89094C44Da98b954EedeAC495271d0F"},
		"testnet": {Bond: "0xDea5668E815dAF058e3ecB30F645b04ad26374Cf", Reserve: "0xB2180448f8945C8Cc8AE9809E67D6bd27d8B2f2C"},
	}
}

func sampleBonds() []config.BondConfig {
	return []config.BondConfig{
		{
			Name:        "ohm_dai_lp",
			DisplayName: "OHM-DAI LP",
			Type:        "lp",
			BondABI:     "abi/BondDepository.json",
			ReserveABI:  "abi/UniswapV2Pair.json",
			LPURL:       "https://app.sushi.com/add",
			Addresses:   addresses(),
		},
		{
			Name:        "dai",
			DisplayName: "DAI",
			Type:        "stable",
			IconPath:    "icons/dai.svg",
			BondABI:     "abi/BondDepository.json",
			Addresses:   addresses(),
		},
	}
}

func TestFromConfig(t *testing.T) {
	recs, err := FromConfig(sampleBonds(), "testdata")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "dai", recs[0].Name, "records are sorted")
	assert.Equal(t, domain.StableAsset, recs[0].Type)
	assert.Contains(t, recs[0].Icon, "<svg")
	assert.Equal(t, "0x6B175474E89094C44Da98b954EedeAC495271d0F", recs[0].Addresses[domain.Mainnet].ReserveAddress)
	assert.Equal(t, domain.LP, recs[1].Type)
}

func TestFromConfigErrors(t *testing.T) {
	bonds := sampleBonds()
	bonds[1].IconPath = "icons/missing.svg"
	_, err := FromConfig(bonds, "testdata")
	assert.Error(t, err)

	bonds = sampleBonds()
	bonds[0].Addresses["polygon"] = config.AddressConfig{}
	_, err = FromConfig(bonds, "testdata")
	assert.ErrorIs(t, err, domain.ErrNetworkNotFound)
}

func TestLoad(t *testing.T) {
	recs, err := FromConfig(sampleBonds(), "testdata")
	require.NoError(t, err)

	loader := NewLoader(abisource.NewResolver("testdata", nil), 2, discard)
	reg, err := loader.Load(context.Background(), recs)
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	dai, err := reg.Get("dai")
	require.NoError(t, err)
	assert.False(t, dai.IsLP())
	assert.Same(t, contract.ERC20, dai.ReserveContract())
	assert.True(t, dai.BondContract().HasMethod("deposit"))

	lp, err := reg.Get("ohm_dai_lp")
	require.NoError(t, err)
	assert.True(t, lp.IsLP())
	assert.True(t, lp.ReserveContract().HasMethod("getReserves"))

	// Both bonds share the single resolved BondDepository interface.
	assert.Same(t, dai.BondContract(), lp.BondContract())
}

type countingResolver struct {
	inner Resolver
	calls atomic.Int32
}

func (c *countingResolver) Resolve(ctx context.Context, ref string) (*contract.Interface, error) {
	c.calls.Add(1)
	return c.inner.Resolve(ctx, ref)
}

func TestLoadResolvesEachReferenceOnce(t *testing.T) {
	recs, err := FromConfig(sampleBonds(), "testdata")
	require.NoError(t, err)

	res := &countingResolver{inner: abisource.NewResolver("testdata", nil)}
	_, err = NewLoader(res, 4, discard).Load(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, int32(2), res.calls.Load())
}

func TestLoadReportsEveryBadBond(t *testing.T) {
	bonds := sampleBonds()
	delete(bonds[0].Addresses, "testnet")
	bonds[1].DisplayName = ""
	recs, err := FromConfig(bonds, "testdata")
	require.NoError(t, err)

	_, err = NewLoader(abisource.NewResolver("testdata", nil), 1, discard).Load(context.Background(), recs)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.Contains(t, err.Error(), `bond "ohm_dai_lp"`)
	assert.Contains(t, err.Error(), `bond "dai"`)
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (*contract.Interface, error) {
	return nil, errors.New("bucket unreachable")
}

func TestLoadResolverFailure(t *testing.T) {
	recs, err := FromConfig(sampleBonds(), "testdata")
	require.NoError(t, err)

	_, err = NewLoader(failingResolver{}, 2, discard).Load(context.Background(), recs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unreachable")
}
