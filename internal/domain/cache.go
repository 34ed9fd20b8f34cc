package domain

import "context"

// CatalogCache publishes bond summaries for readers outside this process.
type CatalogCache interface {
	Set(ctx context.Context, summary BondSummary) error
	Get(ctx context.Context, name string) (BondSummary, error)
	Names(ctx context.Context) ([]string, error)
	// Replace swaps the published catalog for summaries, dropping entries
	// that are no longer present.
	Replace(ctx context.Context, summaries []BondSummary) error
}
