package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// BondStore implements domain.BondStore.
type BondStore struct {
	pool *pgxpool.Pool
}

// NewBondStore creates a new BondStore.
func NewBondStore(pool *pgxpool.Pool) *BondStore {
	return &BondStore{pool: pool}
}

const upsertBond = `
	INSERT INTO bonds (name, display_name, bond_type, icon, lp_url, bond_abi, reserve_abi, addresses)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (name) DO UPDATE SET
		display_name = EXCLUDED.display_name,
		bond_type    = EXCLUDED.bond_type,
		icon         = EXCLUDED.icon,
		lp_url       = EXCLUDED.lp_url,
		bond_abi     = EXCLUDED.bond_abi,
		reserve_abi  = EXCLUDED.reserve_abi,
		addresses    = EXCLUDED.addresses,
		updated_at   = NOW()`

const selectBond = `
	SELECT name, display_name, bond_type, icon, lp_url, bond_abi, reserve_abi, addresses
	FROM bonds`

// Upsert inserts or replaces one bond.
func (s *BondStore) Upsert(ctx context.Context, rec domain.BondRecord) error {
	args, err := bondArgs(rec)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, upsertBond, args...); err != nil {
		return fmt.Errorf("postgres: upsert bond %s: %w", rec.Name, err)
	}
	return nil
}

// UpsertBatch upserts every record in one transaction.
func (s *BondStore) UpsertBatch(ctx context.Context, recs []domain.BondRecord) error {
	if len(recs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range recs {
		args, err := bondArgs(rec)
		if err != nil {
			return err
		}
		batch.Queue(upsertBond, args...)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin bond batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: upsert %d bonds: %w", len(recs), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit bond batch: %w", err)
	}
	return nil
}

// GetByName returns the named bond or domain.ErrNotFound.
func (s *BondStore) GetByName(ctx context.Context, name string) (domain.BondRecord, error) {
	rec, err := scanBond(s.pool.QueryRow(ctx, selectBond+" WHERE name = $1", name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BondRecord{}, fmt.Errorf("postgres: get bond %s: %w", name, domain.ErrNotFound)
		}
		return domain.BondRecord{}, fmt.Errorf("postgres: get bond %s: %w", name, err)
	}
	return rec, nil
}

// List returns every bond ordered by name.
func (s *BondStore) List(ctx context.Context) ([]domain.BondRecord, error) {
	rows, err := s.pool.Query(ctx, selectBond+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("postgres: list bonds: %w", err)
	}
	defer rows.Close()

	var list []domain.BondRecord
	for rows.Next() {
		rec, err := scanBond(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan bond: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

// Delete removes the named bond. Deleting a missing bond returns
// domain.ErrNotFound.
func (s *BondStore) Delete(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM bonds WHERE name = $1", name)
	if err != nil {
		return fmt.Errorf("postgres: delete bond %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: delete bond %s: %w", name, domain.ErrNotFound)
	}
	return nil
}

func bondArgs(rec domain.BondRecord) ([]any, error) {
	addrs, err := encodeAddresses(rec.Addresses)
	if err != nil {
		return nil, fmt.Errorf("postgres: bond %s: %w", rec.Name, err)
	}
	return []any{
		rec.Name, rec.DisplayName, rec.Type.String(), rec.Icon, rec.LPURL,
		rec.BondABI, rec.ReserveABI, addrs,
	}, nil
}

// encodeAddresses stores addresses keyed by network name so the column
// stays readable.
func encodeAddresses(m domain.NetworkAddresses) ([]byte, error) {
	byName := make(map[string]domain.BondAddresses, len(m))
	for n, a := range m {
		byName[n.String()] = a
	}
	return json.Marshal(byName)
}

func decodeAddresses(data []byte) (domain.NetworkAddresses, error) {
	var byName map[string]domain.BondAddresses
	if err := json.Unmarshal(data, &byName); err != nil {
		return nil, err
	}
	out := make(domain.NetworkAddresses, len(byName))
	for name, a := range byName {
		n, err := domain.ParseNetworkID(name)
		if err != nil {
			return nil, err
		}
		out[n] = a
	}
	return out, nil
}

func scanBond(row pgx.Row) (domain.BondRecord, error) {
	var (
		rec   domain.BondRecord
		typ   string
		addrs []byte
	)
	if err := row.Scan(
		&rec.Name, &rec.DisplayName, &typ, &rec.Icon, &rec.LPURL,
		&rec.BondABI, &rec.ReserveABI, &addrs,
	); err != nil {
		return domain.BondRecord{}, err
	}
	t, err := domain.ParseBondType(typ)
	if err != nil {
		return domain.BondRecord{}, err
	}
	rec.Type = t
	if rec.Addresses, err = decodeAddresses(addrs); err != nil {
		return domain.BondRecord{}, fmt.Errorf("bond %s addresses: %w", rec.Name, err)
	}
	return rec, nil
}

var _ domain.BondStore = (*BondStore)(nil)
