package contract

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// Handle is a contract bound to one address, one interface, and one
// connection. Creating a handle performs no I/O.
type Handle struct {
	address common.Address
	iface   *Interface
	conn    Connection
	bound   *bind.BoundContract
}

// Bind creates a new handle. Every call returns a distinct value.
func Bind(address common.Address, iface *Interface, conn Connection) *Handle {
	return &Handle{
		address: address,
		iface:   iface,
		conn:    conn,
		bound:   bind.NewBoundContract(address, iface.ABI, conn.Backend, conn.Backend, conn.Backend),
	}
}

// Address returns the bound contract address.
func (h *Handle) Address() common.Address { return h.address }

// Interface returns the bound ABI descriptor.
func (h *Handle) Interface() *Interface { return h.iface }

// Connection returns the connection the handle calls through.
func (h *Handle) Connection() Connection { return h.conn }

// Call invokes a constant method and unpacks its outputs into out. It fails
// with domain.ErrNoBackend when the connection has no RPC backend.
func (h *Handle) Call(ctx context.Context, out *[]any, method string, args ...any) error {
	if h.conn.Backend == nil {
		return fmt.Errorf("contract: call %s.%s at %s: %w", h.iface.Name, method, h.address.Hex(), domain.ErrNoBackend)
	}
	opts := &bind.CallOpts{Context: ctx}
	if h.conn.Signer != nil {
		opts.From = h.conn.Signer.From
	}
	if err := h.bound.Call(opts, out, method, args...); err != nil {
		return fmt.Errorf("contract: call %s.%s at %s: %w", h.iface.Name, method, h.address.Hex(), err)
	}
	return nil
}

// Transact submits a state-changing method call. It fails with
// domain.ErrReadOnlyConnection when the handle has no signer and with
// domain.ErrNoBackend when the connection has no RPC backend.
func (h *Handle) Transact(ctx context.Context, method string, args ...any) (*types.Transaction, error) {
	if h.conn.IsReadOnly() {
		return nil, fmt.Errorf("contract: transact %s.%s: %w", h.iface.Name, method, domain.ErrReadOnlyConnection)
	}
	if h.conn.Backend == nil {
		return nil, fmt.Errorf("contract: transact %s.%s at %s: %w", h.iface.Name, method, h.address.Hex(), domain.ErrNoBackend)
	}
	opts := *h.conn.Signer
	opts.Context = ctx
	tx, err := h.bound.Transact(&opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("contract: transact %s.%s at %s: %w", h.iface.Name, method, h.address.Hex(), err)
	}
	return tx, nil
}
