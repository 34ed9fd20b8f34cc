// Package chain manages the RPC backends behind contract connections.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/bondregistry/internal/contract"
	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// Backend is what a network needs from its RPC client: contract calls plus
// chain id discovery.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// Pool holds one backend per network. Networks without a configured endpoint
// get a nil backend: handles can still be built for them but not invoked.
type Pool struct {
	backends map[domain.NetworkID]Backend
	closers  []func()
}

// NewPool wraps pre-built backends, typically in tests.
func NewPool(backends map[domain.NetworkID]Backend) *Pool {
	p := &Pool{backends: make(map[domain.NetworkID]Backend, len(backends))}
	for n, b := range backends {
		p.backends[n] = b
	}
	return p
}

// Dial connects to every endpoint and verifies that the node reports the
// chain id of its network.
func Dial(ctx context.Context, endpoints map[domain.NetworkID]string, logger *slog.Logger) (*Pool, error) {
	p := &Pool{backends: make(map[domain.NetworkID]Backend, len(endpoints))}
	for network, url := range endpoints {
		if url == "" {
			continue
		}
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("chain: dial %s: %w", network, err)
		}
		p.closers = append(p.closers, client.Close)

		if err := checkChainID(ctx, network, client); err != nil {
			p.Close()
			return nil, err
		}
		p.backends[network] = client
		logger.Info("chain: connected",
			slog.String("network", network.String()),
			slog.Int64("chain_id", network.ChainID()),
		)
	}
	return p, nil
}

func checkChainID(ctx context.Context, network domain.NetworkID, b Backend) error {
	id, err := b.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain: %s chain id: %w", network, err)
	}
	if id.Int64() != network.ChainID() {
		return fmt.Errorf("chain: %s endpoint reports chain id %s, want %d", network, id, network.ChainID())
	}
	return nil
}

// Connected reports whether network has a live backend.
func (p *Pool) Connected(network domain.NetworkID) bool {
	return p.backends[network] != nil
}

// Backend returns the backend for network, or nil if none is configured.
func (p *Pool) Backend(network domain.NetworkID) Backend {
	return p.backends[network]
}

// ReadOnly returns a call-only connection for network.
func (p *Pool) ReadOnly(network domain.NetworkID) (contract.Connection, error) {
	if !network.Valid() {
		return contract.Connection{}, fmt.Errorf("chain: %s: %w", network, domain.ErrNetworkNotFound)
	}
	return contract.ReadOnly(p.backends[network]), nil
}

// Signing returns a connection that signs with key under network's chain id.
func (p *Pool) Signing(network domain.NetworkID, key *ecdsa.PrivateKey) (contract.Connection, error) {
	if !network.Valid() {
		return contract.Connection{}, fmt.Errorf("chain: %s: %w", network, domain.ErrNetworkNotFound)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(network.ChainID()))
	if err != nil {
		return contract.Connection{}, fmt.Errorf("chain: transactor for %s: %w", network, err)
	}
	return contract.Signing(p.backends[network], opts), nil
}

// HasCode reports whether a contract is deployed at addr on network.
func (p *Pool) HasCode(ctx context.Context, network domain.NetworkID, addr common.Address) (bool, error) {
	b := p.backends[network]
	if b == nil {
		return false, fmt.Errorf("chain: %s has no endpoint: %w", network, domain.ErrNetworkNotFound)
	}
	code, err := b.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("chain: code at %s on %s: %w", addr.Hex(), network, err)
	}
	return len(code) > 0, nil
}

// Close releases every dialled client.
func (p *Pool) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}
