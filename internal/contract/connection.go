package contract

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

// Connection is the capability a handle calls through: a chain backend and,
// for signing connections, the transactor options of the signing account.
type Connection struct {
	Backend bind.ContractBackend
	Signer  *bind.TransactOpts
}

// ReadOnly returns a connection that can only issue calls.
func ReadOnly(backend bind.ContractBackend) Connection {
	return Connection{Backend: backend}
}

// Signing returns a connection that can also submit transactions.
func Signing(backend bind.ContractBackend, signer *bind.TransactOpts) Connection {
	return Connection{Backend: backend, Signer: signer}
}

// IsReadOnly reports whether the connection lacks a signer.
func (c Connection) IsReadOnly() bool { return c.Signer == nil }
