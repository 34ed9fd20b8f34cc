package bond

import (
	"fmt"
	"sort"

	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// Registry is an immutable, name-indexed set of bond descriptors.
type Registry struct {
	byName map[string]*Descriptor
	sorted []*Descriptor
}

// NewRegistry indexes descs by name. Duplicate names are a configuration
// error.
func NewRegistry(descs ...*Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Descriptor, len(descs))}
	for _, d := range descs {
		if d == nil {
			continue
		}
		if _, dup := r.byName[d.name]; dup {
			return nil, fmt.Errorf("bond registry: duplicate bond %q: %w", d.name, domain.ErrConfig)
		}
		r.byName[d.name] = d
		r.sorted = append(r.sorted, d)
	}
	sort.Slice(r.sorted, func(i, j int) bool { return r.sorted[i].name < r.sorted[j].name })
	return r, nil
}

// Get returns the named bond or domain.ErrNotFound.
func (r *Registry) Get(name string) (*Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("bond registry: %q: %w", name, domain.ErrNotFound)
	}
	return d, nil
}

// Len returns the number of bonds.
func (r *Registry) Len() int { return len(r.sorted) }

// All returns every bond sorted by name.
func (r *Registry) All() []*Descriptor {
	return append([]*Descriptor(nil), r.sorted...)
}

// OfType returns the bonds of one variant, sorted by name.
func (r *Registry) OfType(t domain.BondType) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.sorted {
		if d.typ == t {
			out = append(out, d)
		}
	}
	return out
}

// Summaries returns the serialisable view of every bond.
func (r *Registry) Summaries() []domain.BondSummary {
	out := make([]domain.BondSummary, 0, len(r.sorted))
	for _, d := range r.sorted {
		out = append(out, d.Summary())
	}
	return out
}
