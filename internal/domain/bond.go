package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// BondType tags the two bond variants.
type BondType int

const (
	StableAsset BondType = iota
	LP
)

func (t BondType) String() string {
	switch t {
	case StableAsset:
		return "stable"
	case LP:
		return "lp"
	default:
		return fmt.Sprintf("bondtype(%d)", int(t))
	}
}

// ParseBondType is the inverse of BondType.String.
func ParseBondType(s string) (BondType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stable", "stableasset", "stable_asset":
		return StableAsset, nil
	case "lp":
		return LP, nil
	}
	return 0, fmt.Errorf("unknown bond type %q: %w", s, ErrConfig)
}

// BondAddresses holds the contracts a bond uses on one network.
type BondAddresses struct {
	ReserveAddress string `json:"reserve_address"`
	BondAddress    string `json:"bond_address"`
}

// Validate checks both addresses are well-formed EVM addresses.
func (a BondAddresses) Validate() error {
	var errs []string
	if !common.IsHexAddress(a.BondAddress) {
		errs = append(errs, fmt.Sprintf("bond address %q is not a valid address", a.BondAddress))
	}
	if !common.IsHexAddress(a.ReserveAddress) {
		errs = append(errs, fmt.Sprintf("reserve address %q is not a valid address", a.ReserveAddress))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(errs, "; "), ErrConfig)
	}
	return nil
}

// NetworkAddresses maps every supported network to its bond addresses.
type NetworkAddresses map[NetworkID]BondAddresses

// Validate enforces that the map is total over AllNetworks and that every
// entry holds valid addresses. All problems are reported together.
func (m NetworkAddresses) Validate() error {
	var errs []string
	for _, n := range AllNetworks() {
		addrs, ok := m[n]
		if !ok {
			errs = append(errs, fmt.Sprintf("missing addresses for %s", n))
			continue
		}
		if err := addrs.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", n, err))
		}
	}
	for n := range m {
		if !n.Valid() {
			errs = append(errs, fmt.Sprintf("unsupported network %s", n))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("network addresses: %s: %w", strings.Join(errs, "; "), ErrConfig)
	}
	return nil
}

// Clone returns an independent copy of the map.
func (m NetworkAddresses) Clone() NetworkAddresses {
	out := make(NetworkAddresses, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// BondRecord is the static configuration of one bond as stored in the
// catalog. ABI fields hold references resolved by an ABI source, not the
// documents themselves.
type BondRecord struct {
	Name        string
	DisplayName string
	Type        BondType
	Icon        string
	LPURL       string
	BondABI     string
	ReserveABI  string
	Addresses   NetworkAddresses
}

// BondSummary is the serialisable view of a constructed bond.
type BondSummary struct {
	Name        string                   `json:"name"`
	DisplayName string                   `json:"display_name"`
	Type        string                   `json:"type"`
	IsLP        bool                     `json:"is_lp"`
	Icon        string                   `json:"icon,omitempty"`
	LPURL       string                   `json:"lp_url,omitempty"`
	BondABI     string                   `json:"bond_abi"`
	ReserveABI  string                   `json:"reserve_abi"`
	Networks    map[string]BondAddresses `json:"networks"`
}
