// Package catalog builds the bond registry from stored bond records.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/bondregistry/internal/bond"
	"github.com/alanyoungcy/bondregistry/internal/config"
	"github.com/alanyoungcy/bondregistry/internal/contract"
	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// Resolver loads contract interfaces by reference.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (*contract.Interface, error)
}

// Loader turns bond records into descriptors.
type Loader struct {
	resolver    Resolver
	concurrency int
	logger      *slog.Logger
}

// NewLoader creates a Loader that resolves at most concurrency ABI documents
// at a time.
func NewLoader(resolver Resolver, concurrency int, logger *slog.Logger) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		resolver:    resolver,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "catalog")),
	}
}

// Load resolves every referenced ABI once and builds the registry. Every
// failing bond is reported in the returned error.
func (l *Loader) Load(ctx context.Context, recs []domain.BondRecord) (*bond.Registry, error) {
	ifaces, err := l.resolveAll(ctx, recs)
	if err != nil {
		return nil, err
	}

	var (
		descs []*bond.Descriptor
		errs  []error
	)
	for _, rec := range recs {
		d, err := build(rec, ifaces)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if rec.Type == domain.StableAsset && rec.ReserveABI != "" && !strings.EqualFold(rec.ReserveABI, "erc20") {
			l.logger.Warn("catalog: reserve_abi ignored for stable bond",
				slog.String("bond", rec.Name),
				slog.String("reserve_abi", rec.ReserveABI),
			)
		}
		descs = append(descs, d)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog: %w", errors.Join(errs...))
	}

	reg, err := bond.NewRegistry(descs...)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	l.logger.Info("catalog: loaded",
		slog.Int("bonds", reg.Len()),
		slog.Int("lp", len(reg.OfType(domain.LP))),
		slog.Int("interfaces", len(ifaces)),
	)
	return reg, nil
}

func (l *Loader) resolveAll(ctx context.Context, recs []domain.BondRecord) (map[string]*contract.Interface, error) {
	refs := make(map[string]struct{})
	for _, rec := range recs {
		if rec.BondABI != "" {
			refs[rec.BondABI] = struct{}{}
		}
		if rec.Type == domain.LP && rec.ReserveABI != "" {
			refs[rec.ReserveABI] = struct{}{}
		}
	}

	var (
		mu  sync.Mutex
		out = make(map[string]*contract.Interface, len(refs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for ref := range refs {
		g.Go(func() error {
			iface, err := l.resolver.Resolve(gctx, ref)
			if err != nil {
				return fmt.Errorf("catalog: resolve %s: %w", ref, err)
			}
			mu.Lock()
			out[ref] = iface
			mu.Unlock()
			l.logger.Debug("catalog: interface resolved",
				slog.String("ref", ref),
				slog.Int("methods", len(iface.ABI.Methods)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func build(rec domain.BondRecord, ifaces map[string]*contract.Interface) (*bond.Descriptor, error) {
	opts := bond.Opts{
		Name:         rec.Name,
		DisplayName:  rec.DisplayName,
		Icon:         rec.Icon,
		BondContract: ifaces[rec.BondABI],
		NetworkAddrs: rec.Addresses,
	}
	switch rec.Type {
	case domain.LP:
		return bond.NewLP(bond.LPOpts{
			Opts:            opts,
			ReserveContract: ifaces[rec.ReserveABI],
			LPURL:           rec.LPURL,
		})
	case domain.StableAsset:
		return bond.NewStable(bond.StableOpts{Opts: opts})
	default:
		return nil, fmt.Errorf("bond %q: type %s: %w", rec.Name, rec.Type, domain.ErrConfig)
	}
}

// FromConfig converts [[bonds]] tables into records. Icons given by path are
// read relative to baseDir.
func FromConfig(bonds []config.BondConfig, baseDir string) ([]domain.BondRecord, error) {
	recs := make([]domain.BondRecord, 0, len(bonds))
	for _, b := range bonds {
		typ, err := domain.ParseBondType(b.Type)
		if err != nil {
			return nil, fmt.Errorf("catalog: bond %q: %w", b.Name, err)
		}

		icon := b.Icon
		if icon == "" && b.IconPath != "" {
			path := b.IconPath
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("catalog: bond %q icon: %w", b.Name, err)
			}
			icon = string(data)
		}

		addrs := make(domain.NetworkAddresses, len(b.Addresses))
		for name, a := range b.Addresses {
			n, err := domain.ParseNetworkID(name)
			if err != nil {
				return nil, fmt.Errorf("catalog: bond %q: %w", b.Name, err)
			}
			addrs[n] = domain.BondAddresses{BondAddress: a.Bond, ReserveAddress: a.Reserve}
		}

		recs = append(recs, domain.BondRecord{
			Name:        b.Name,
			DisplayName: b.DisplayName,
			Type:        typ,
			Icon:        icon,
			LPURL:       b.LPURL,
			BondABI:     b.BondABI,
			ReserveABI:  b.ReserveABI,
			Addresses:   addrs,
		})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	return recs, nil
}
