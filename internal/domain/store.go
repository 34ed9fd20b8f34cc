package domain

import "context"

// BondStore persists bond catalog records.
type BondStore interface {
	Upsert(ctx context.Context, rec BondRecord) error
	UpsertBatch(ctx context.Context, recs []BondRecord) error
	GetByName(ctx context.Context, name string) (BondRecord, error)
	List(ctx context.Context) ([]BondRecord, error)
	Delete(ctx context.Context, name string) error
}
