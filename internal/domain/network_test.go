package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNetworkID(t *testing.T) {
	cases := map[string]NetworkID{
		"mainnet":   Mainnet,
		" Testnet ": Testnet,
		"1":         Mainnet,
		"4":         Testnet,
	}
	for in, want := range cases {
		got, err := ParseNetworkID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "polygon", "137"} {
		_, err := ParseNetworkID(in)
		assert.ErrorIs(t, err, ErrNetworkNotFound, in)
	}
}

func TestNetworkStringRoundTrip(t *testing.T) {
	for _, n := range AllNetworks() {
		got, err := ParseNetworkID(n.String())
		require.NoError(t, err)
		assert.Equal(t, n, got)
		assert.Equal(t, int64(n), n.ChainID())
	}
	assert.Equal(t, "network(56)", NetworkID(56).String())
}

func TestParseBondType(t *testing.T) {
	lp, err := ParseBondType("LP")
	require.NoError(t, err)
	assert.Equal(t, LP, lp)

	st, err := ParseBondType("stable")
	require.NoError(t, err)
	assert.Equal(t, StableAsset, st)

	_, err = ParseBondType("convertible")
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNetworkAddressesValidate(t *testing.T) {
	ok := NetworkAddresses{
		Mainnet: {BondAddress: "0x0000000000000000000000000000000000000001", ReserveAddress: "0x0000000000000000000000000000000000000002"},
		Testnet: {BondAddress: "0x0000000000000000000000000000000000000003", ReserveAddress: "0x0000000000000000000000000000000000000004"},
	}
	require.NoError(t, ok.Validate())

	partial := ok.Clone()
	delete(partial, Mainnet)
	err := partial.Validate()
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "missing addresses for mainnet")

	// The clone is independent of the original.
	require.NoError(t, ok.Validate())
}
