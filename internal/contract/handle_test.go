package contract

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// stubBackend answers eth_call with a canned payload. Methods it does not
// override panic through the nil embedded interface.
type stubBackend struct {
	bind.ContractBackend
	output []byte
	calls  []ethereum.CallMsg
}

func (s *stubBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	s.calls = append(s.calls, call)
	return s.output, nil
}

func (s *stubBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func TestBindHoldsAddressInterfaceAndConnection(t *testing.T) {
	addr := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	conn := ReadOnly(&stubBackend{})

	h := Bind(addr, ERC20, conn)
	assert.Equal(t, addr, h.Address())
	assert.Same(t, ERC20, h.Interface())
	assert.Equal(t, conn, h.Connection())
	assert.True(t, h.Connection().IsReadOnly())
}

func TestHandleCallUnpacksOutputs(t *testing.T) {
	out, err := ERC20.ABI.Methods["decimals"].Outputs.Pack(uint8(18))
	require.NoError(t, err)

	backend := &stubBackend{output: out}
	addr := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	h := Bind(addr, ERC20, ReadOnly(backend))

	var res []any
	require.NoError(t, h.Call(context.Background(), &res, "decimals"))
	require.Len(t, res, 1)
	assert.Equal(t, uint8(18), res[0])

	require.Len(t, backend.calls, 1)
	require.NotNil(t, backend.calls[0].To)
	assert.Equal(t, addr, *backend.calls[0].To)
}

func TestHandleCallUnknownMethod(t *testing.T) {
	h := Bind(common.Address{}, ERC20, ReadOnly(&stubBackend{}))
	var res []any
	assert.Error(t, h.Call(context.Background(), &res, "mint"))
}

func TestHandleTransactRequiresSigner(t *testing.T) {
	backend := &stubBackend{}
	h := Bind(common.Address{}, ERC20, ReadOnly(backend))

	tx, err := h.Transact(context.Background(), "approve", common.Address{}, big.NewInt(1))
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, domain.ErrReadOnlyConnection)
	assert.Empty(t, backend.calls)
}

func TestSigningConnection(t *testing.T) {
	opts := &bind.TransactOpts{From: common.HexToAddress("0x00000000000000000000000000000000000000aa")}
	conn := Signing(&stubBackend{}, opts)
	assert.False(t, conn.IsReadOnly())
	assert.Same(t, opts, conn.Signer)
}

func TestHandleWithoutBackend(t *testing.T) {
	addr := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	var res []any
	err := Bind(addr, ERC20, ReadOnly(nil)).Call(context.Background(), &res, "decimals")
	assert.ErrorIs(t, err, domain.ErrNoBackend)
	assert.Empty(t, res)

	opts := &bind.TransactOpts{From: common.HexToAddress("0x00000000000000000000000000000000000000aa")}
	tx, err := Bind(addr, ERC20, Signing(nil, opts)).Transact(context.Background(), "approve", common.Address{}, big.NewInt(1))
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, domain.ErrNoBackend)
}
