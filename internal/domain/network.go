package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// NetworkID identifies a target chain. The numeric value is the EVM chain ID.
type NetworkID int64

const (
	Mainnet NetworkID = 1
	Testnet NetworkID = 4
)

// AllNetworks lists every supported network in a stable order. Bond address
// maps must cover all of them.
func AllNetworks() []NetworkID {
	return []NetworkID{Mainnet, Testnet}
}

// ChainID returns the EVM chain id of the network.
func (n NetworkID) ChainID() int64 { return int64(n) }

// Valid reports whether n is one of the supported networks.
func (n NetworkID) Valid() bool {
	switch n {
	case Mainnet, Testnet:
		return true
	}
	return false
}

func (n NetworkID) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	default:
		return "network(" + strconv.FormatInt(int64(n), 10) + ")"
	}
}

// ParseNetworkID accepts a network name ("mainnet") or its decimal chain id ("1").
func ParseNetworkID(s string) (NetworkID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, n := range AllNetworks() {
		if s == n.String() {
			return n, nil
		}
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n := NetworkID(v); n.Valid() {
			return n, nil
		}
	}
	return 0, fmt.Errorf("unknown network %q: %w", s, ErrNetworkNotFound)
}
