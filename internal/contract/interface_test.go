package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/bondregistry/internal/domain"
)

const depositABI = `[{"inputs":[{"name":"amount","type":"uint256"},{"name":"maxPrice","type":"uint256"},{"name":"depositor","type":"address"}],"name":"deposit","outputs":[{"name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}]`

func TestERC20IsParsedOnce(t *testing.T) {
	require.NotNil(t, ERC20)
	assert.Equal(t, "IERC20", ERC20.Name)
	for _, m := range []string{"balanceOf", "allowance", "approve", "transfer", "transferFrom", "totalSupply", "decimals"} {
		assert.True(t, ERC20.HasMethod(m), "missing %s", m)
	}
	assert.Contains(t, ERC20.ABI.Events, "Transfer")
}

func TestParseInterfaceBareArray(t *testing.T) {
	iface, err := ParseInterface("BondDepository", []byte(depositABI))
	require.NoError(t, err)
	assert.True(t, iface.HasMethod("deposit"))
	assert.False(t, iface.HasMethod("redeem"))
	assert.Equal(t, []byte(depositABI), iface.Raw)
}

func TestParseInterfaceArtifact(t *testing.T) {
	doc := `{"contractName":"BondDepository","abi":` + depositABI + `,"bytecode":"0x"}`
	iface, err := ParseInterface("BondDepository", []byte(doc))
	require.NoError(t, err)
	assert.True(t, iface.HasMethod("deposit"))
}

func TestParseInterfaceRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":         "   ",
		"not json":      "deposit(uint256)",
		"no abi field":  `{"contractName":"X"}`,
		"no methods":    `[]`,
		"only an event": `[{"anonymous":false,"inputs":[],"name":"Ping","type":"event"}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseInterface("X", []byte(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedABI)
		})
	}
}

func TestMustParseInterfacePanics(t *testing.T) {
	assert.Panics(t, func() { MustParseInterface("X", []byte("{")) })
}
