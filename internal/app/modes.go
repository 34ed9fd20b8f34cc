package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/bondregistry/internal/bond"
	"github.com/alanyoungcy/bondregistry/internal/catalog"
	"github.com/alanyoungcy/bondregistry/internal/contract"
	"github.com/alanyoungcy/bondregistry/internal/domain"
	"github.com/alanyoungcy/bondregistry/internal/notify"
	"github.com/alanyoungcy/bondregistry/internal/server"
	"github.com/alanyoungcy/bondregistry/internal/server/handler"
)

// ServeMode loads the catalog, publishes the snapshot, and serves the HTTP
// API until ctx is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	reg, err := a.loadRegistry(ctx, deps)
	if err != nil {
		return err
	}
	if deps.Cache != nil {
		if err := deps.Cache.Replace(ctx, reg.Summaries()); err != nil {
			a.logger.WarnContext(ctx, "catalog snapshot not published",
				slog.String("error", err.Error()),
			)
		}
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, server.Handlers{
		Health: handler.NewHealthHandler(reg, deps.Chain, a.logger),
		Bonds:  handler.NewBondHandler(reg, deps.Chain, a.logger),
	}, a.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// CheckMode builds contract handles for every bond on every network and,
// where an RPC endpoint is configured, verifies that code is deployed at
// each address.
func (a *App) CheckMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting check mode")

	reg, err := a.loadRegistry(ctx, deps)
	if err != nil {
		return err
	}
	if err := a.checkRegistry(ctx, reg, deps); err != nil {
		a.alert(ctx, deps, notify.EventCheckFailed, "Bond catalog check failed", err.Error())
		return fmt.Errorf("app: check: %w", err)
	}
	a.logger.InfoContext(ctx, "catalog check passed", slog.Int("bonds", reg.Len()))
	return nil
}

func (a *App) checkRegistry(ctx context.Context, reg *bond.Registry, deps *Dependencies) error {
	var problems []error
	for _, network := range domain.AllNetworks() {
		conn, err := a.connection(network, deps)
		if err != nil {
			return err
		}
		live := deps.Chain.Connected(network)
		if !live {
			a.logger.InfoContext(ctx, "no rpc endpoint, skipping code checks",
				slog.String("network", network.String()),
			)
		}

		for _, d := range reg.All() {
			bondHandle, err := d.ContractForBond(network, conn)
			if err != nil {
				problems = append(problems, err)
				continue
			}
			reserveHandle, err := d.ContractForReserve(network, conn)
			if err != nil {
				problems = append(problems, err)
				continue
			}
			if !live {
				continue
			}
			for _, h := range []*contract.Handle{bondHandle, reserveHandle} {
				ok, err := deps.Chain.HasCode(ctx, network, h.Address())
				if err != nil {
					problems = append(problems, fmt.Errorf("bond %s: %w", d.Name(), err))
					continue
				}
				if !ok {
					problems = append(problems, fmt.Errorf("bond %s: no %s contract at %s on %s",
						d.Name(), h.Interface().Name, h.Address().Hex(), network))
				}
			}
			a.logger.DebugContext(ctx, "bond checked",
				slog.String("bond", d.Name()),
				slog.String("network", network.String()),
				slog.String("bond_address", bondHandle.Address().Hex()),
				slog.String("reserve_address", reserveHandle.Address().Hex()),
			)
		}
	}
	return errors.Join(problems...)
}

// connection prefers a signing connection when a key is configured.
func (a *App) connection(network domain.NetworkID, deps *Dependencies) (contract.Connection, error) {
	if deps.SigningKey != nil {
		return deps.Chain.Signing(network, deps.SigningKey)
	}
	return deps.Chain.ReadOnly(network)
}

// SyncMode writes the configured catalog to PostgreSQL, removes bonds that
// are no longer configured, and republishes the Redis snapshot.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sync mode")

	if deps.Store == nil {
		return fmt.Errorf("app: sync: postgres is not configured")
	}
	if len(a.cfg.Bonds) == 0 {
		return fmt.Errorf("app: sync: no [[bonds]] configured")
	}
	recs, err := catalog.FromConfig(a.cfg.Bonds, a.cfg.Catalog.ABIDir)
	if err != nil {
		return err
	}
	reg, err := deps.Loader.Load(ctx, recs)
	if err != nil {
		return err
	}

	if err := deps.Store.UpsertBatch(ctx, recs); err != nil {
		return fmt.Errorf("app: sync: %w", err)
	}
	removed, err := pruneStore(ctx, deps.Store, recs)
	if err != nil {
		return fmt.Errorf("app: sync: %w", err)
	}

	if deps.Cache != nil {
		if err := deps.Cache.Replace(ctx, reg.Summaries()); err != nil {
			return fmt.Errorf("app: sync: %w", err)
		}
	}

	a.logger.InfoContext(ctx, "catalog synced",
		slog.Int("bonds", len(recs)),
		slog.Int("removed", removed),
		slog.Bool("snapshot", deps.Cache != nil),
	)
	a.alert(ctx, deps, notify.EventCatalogSynced, "Bond catalog synced",
		fmt.Sprintf("%d bonds written, %d removed", len(recs), removed))
	return nil
}

// alert delivers an event; delivery failures are logged, never returned.
func (a *App) alert(ctx context.Context, deps *Dependencies, event notify.Event, title, message string) {
	if err := deps.Notifier.Notify(ctx, event, title, message); err != nil {
		a.logger.WarnContext(ctx, "alert not delivered",
			slog.String("event", string(event)),
			slog.String("error", err.Error()),
		)
	}
}

// pruneStore deletes stored bonds missing from keep.
func pruneStore(ctx context.Context, store domain.BondStore, keep []domain.BondRecord) (int, error) {
	names := make(map[string]struct{}, len(keep))
	for _, rec := range keep {
		names[rec.Name] = struct{}{}
	}
	stored, err := store.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, rec := range stored {
		if _, ok := names[rec.Name]; ok {
			continue
		}
		if err := store.Delete(ctx, rec.Name); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// loadRegistry reads bond records from the configured source and builds
// the registry.
func (a *App) loadRegistry(ctx context.Context, deps *Dependencies) (*bond.Registry, error) {
	var (
		recs []domain.BondRecord
		err  error
	)
	switch a.cfg.Catalog.Source {
	case "postgres":
		if deps.Store == nil {
			return nil, fmt.Errorf("app: catalog source postgres but no store is wired")
		}
		recs, err = deps.Store.List(ctx)
	default:
		recs, err = catalog.FromConfig(a.cfg.Bonds, a.cfg.Catalog.ABIDir)
	}
	if err != nil {
		return nil, fmt.Errorf("app: load catalog: %w", err)
	}

	reg, err := deps.Loader.Load(ctx, recs)
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "catalog loaded",
		slog.String("source", a.cfg.Catalog.Source),
		slog.Int("bonds", reg.Len()),
	)
	return reg, nil
}
