// Package bond describes the bonds the application can sell and hands out
// contract handles for them.
//
// A Descriptor is one of two closed variants: an LP bond, whose reserve is a
// pool token with a caller-supplied ABI, or a stable-asset bond, whose
// reserve always uses the standard ERC-20 interface. Descriptors are
// immutable once constructed and safe for concurrent use.
package bond

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/bondregistry/internal/contract"
	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// Opts holds the fields shared by every bond variant.
type Opts struct {
	Name         string
	DisplayName  string
	Icon         string // SVG markup
	BondContract *contract.Interface
	NetworkAddrs domain.NetworkAddresses
}

// LPOpts configures an LP bond.
type LPOpts struct {
	Opts
	ReserveContract *contract.Interface
	LPURL           string
}

// StableOpts configures a stable-asset bond. The reserve interface is not
// configurable.
type StableOpts struct {
	Opts
}

// Descriptor describes one bond and its contracts on every network.
type Descriptor struct {
	name         string
	displayName  string
	typ          domain.BondType
	icon         string
	bondContract *contract.Interface
	networkAddrs domain.NetworkAddresses

	// set only for LP bonds
	reserveContract *contract.Interface
	lpURL           string
}

// NewLP constructs an LP bond descriptor.
func NewLP(opts LPOpts) (*Descriptor, error) {
	errs := validateOpts(opts.Opts)
	if opts.ReserveContract == nil {
		errs = append(errs, "reserve contract interface is required")
	} else if len(opts.ReserveContract.ABI.Methods) == 0 {
		errs = append(errs, "reserve contract interface declares no methods")
	}
	if opts.LPURL != "" {
		if u, err := url.Parse(opts.LPURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("lp url %q is not an absolute http(s) url", opts.LPURL))
		}
	}
	if len(errs) > 0 {
		return nil, configError(opts.Name, errs)
	}

	d := newDescriptor(domain.LP, opts.Opts)
	d.reserveContract = opts.ReserveContract
	d.lpURL = opts.LPURL
	return d, nil
}

// NewStable constructs a stable-asset bond descriptor whose reserve uses
// contract.ERC20.
func NewStable(opts StableOpts) (*Descriptor, error) {
	if errs := validateOpts(opts.Opts); len(errs) > 0 {
		return nil, configError(opts.Name, errs)
	}
	return newDescriptor(domain.StableAsset, opts.Opts), nil
}

func newDescriptor(typ domain.BondType, opts Opts) *Descriptor {
	return &Descriptor{
		name:         opts.Name,
		displayName:  opts.DisplayName,
		typ:          typ,
		icon:         opts.Icon,
		bondContract: opts.BondContract,
		networkAddrs: opts.NetworkAddrs.Clone(),
	}
}

func validateOpts(opts Opts) []string {
	var errs []string
	if strings.TrimSpace(opts.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	if strings.TrimSpace(opts.DisplayName) == "" {
		errs = append(errs, "display name must not be empty")
	}
	if opts.BondContract == nil {
		errs = append(errs, "bond contract interface is required")
	} else if len(opts.BondContract.ABI.Methods) == 0 {
		errs = append(errs, "bond contract interface declares no methods")
	}
	if err := opts.NetworkAddrs.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	return errs
}

func configError(name string, errs []string) error {
	return fmt.Errorf("bond %q: %s: %w", name, strings.Join(errs, "; "), domain.ErrConfig)
}

// Name returns the unique machine key of the bond.
func (d *Descriptor) Name() string { return d.name }

// DisplayName returns the human-readable label.
func (d *Descriptor) DisplayName() string { return d.displayName }

// Type returns the bond variant.
func (d *Descriptor) Type() domain.BondType { return d.typ }

// Icon returns the SVG markup of the bond icon.
func (d *Descriptor) Icon() string { return d.icon }

// BondContract returns the bond contract interface.
func (d *Descriptor) BondContract() *contract.Interface { return d.bondContract }

// LPURL returns the liquidity pool page; empty for stable bonds.
func (d *Descriptor) LPURL() string { return d.lpURL }

// IsLP reports whether the bond is backed by a liquidity-pool token.
func (d *Descriptor) IsLP() bool { return d.typ == domain.LP }

// NetworkAddrs returns a copy of the per-network addresses; changing it does
// not affect the descriptor.
func (d *Descriptor) NetworkAddrs() domain.NetworkAddresses { return d.networkAddrs.Clone() }

// ReserveContract returns the reserve token interface for the variant.
func (d *Descriptor) ReserveContract() *contract.Interface {
	switch d.typ {
	case domain.LP:
		return d.reserveContract
	default:
		return contract.ERC20
	}
}

// Addresses returns the bond's addresses on network.
func (d *Descriptor) Addresses(network domain.NetworkID) (domain.BondAddresses, error) {
	addrs, ok := d.networkAddrs[network]
	if !ok {
		return domain.BondAddresses{}, fmt.Errorf("bond %q on %s: %w", d.name, network, domain.ErrNetworkNotFound)
	}
	return addrs, nil
}

// ContractForBond returns a new handle to the bond contract on network.
// Handles are not cached.
func (d *Descriptor) ContractForBond(network domain.NetworkID, conn contract.Connection) (*contract.Handle, error) {
	addrs, err := d.Addresses(network)
	if err != nil {
		return nil, err
	}
	return contract.Bind(common.HexToAddress(addrs.BondAddress), d.bondContract, conn), nil
}

// ContractForReserve returns a new handle to the reserve token on network.
func (d *Descriptor) ContractForReserve(network domain.NetworkID, conn contract.Connection) (*contract.Handle, error) {
	addrs, err := d.Addresses(network)
	if err != nil {
		return nil, err
	}
	return contract.Bind(common.HexToAddress(addrs.ReserveAddress), d.ReserveContract(), conn), nil
}

// Summary returns the serialisable view of d.
func (d *Descriptor) Summary() domain.BondSummary {
	networks := make(map[string]domain.BondAddresses, len(d.networkAddrs))
	for n, a := range d.networkAddrs {
		networks[n.String()] = a
	}
	return domain.BondSummary{
		Name:        d.name,
		DisplayName: d.displayName,
		Type:        d.typ.String(),
		IsLP:        d.IsLP(),
		Icon:        d.icon,
		LPURL:       d.lpURL,
		BondABI:     d.bondContract.Name,
		ReserveABI:  d.ReserveContract().Name,
		Networks:    networks,
	}
}
