package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// DefaultSnapshotTTL applies when the configured TTL is zero.
const DefaultSnapshotTTL = 24 * time.Hour

// CatalogCache implements domain.CatalogCache.
//
// Key schema:
//
//	bond:{name}  - string holding the JSON BondSummary
//	bond:index   - set of published bond names
type CatalogCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCatalogCache creates a CatalogCache whose entries expire after ttl.
func NewCatalogCache(c *Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &CatalogCache{rdb: c.rdb, ttl: ttl}
}

const indexKey = "bond:index"

func bondKey(name string) string { return "bond:" + name }

// Set publishes one summary and adds it to the index.
func (cc *CatalogCache) Set(ctx context.Context, summary domain.BondSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("redis: marshal bond %s: %w", summary.Name, err)
	}
	pipe := cc.rdb.TxPipeline()
	pipe.Set(ctx, bondKey(summary.Name), data, cc.ttl)
	pipe.SAdd(ctx, indexKey, summary.Name)
	pipe.Expire(ctx, indexKey, cc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set bond %s: %w", summary.Name, err)
	}
	return nil
}

// Get returns the published summary or domain.ErrNotFound.
func (cc *CatalogCache) Get(ctx context.Context, name string) (domain.BondSummary, error) {
	data, err := cc.rdb.Get(ctx, bondKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.BondSummary{}, fmt.Errorf("redis: bond %s: %w", name, domain.ErrNotFound)
		}
		return domain.BondSummary{}, fmt.Errorf("redis: get bond %s: %w", name, err)
	}
	var s domain.BondSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.BondSummary{}, fmt.Errorf("redis: unmarshal bond %s: %w", name, err)
	}
	return s, nil
}

// Names returns the indexed bond names, sorted.
func (cc *CatalogCache) Names(ctx context.Context) ([]string, error) {
	names, err := cc.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list bonds: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Replace publishes summaries atomically and removes bonds missing from
// the new set.
func (cc *CatalogCache) Replace(ctx context.Context, summaries []domain.BondSummary) error {
	old, err := cc.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("redis: read bond index: %w", err)
	}

	keep := make(map[string]struct{}, len(summaries))
	payloads := make(map[string][]byte, len(summaries))
	for _, s := range summaries {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("redis: marshal bond %s: %w", s.Name, err)
		}
		keep[s.Name] = struct{}{}
		payloads[s.Name] = data
	}

	pipe := cc.rdb.TxPipeline()
	for _, name := range stale(old, keep) {
		pipe.Del(ctx, bondKey(name))
	}
	pipe.Del(ctx, indexKey)
	for name, data := range payloads {
		pipe.Set(ctx, bondKey(name), data, cc.ttl)
		pipe.SAdd(ctx, indexKey, name)
	}
	if len(payloads) > 0 {
		pipe.Expire(ctx, indexKey, cc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: replace catalog: %w", err)
	}
	return nil
}

// stale returns the names in old that are not in keep, sorted.
func stale(old []string, keep map[string]struct{}) []string {
	var out []string
	for _, name := range old {
		if _, ok := keep[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

var _ domain.CatalogCache = (*CatalogCache)(nil)
