// Package owner resolves the entities carousels are attached to.
//
// A Registry maps owner kind ids to a named kind and an Accessor that
// checks the entity exists and returns a display label for it.
package owner

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/tendant/simple-carousel/pkg/carousel"
)

// Accessor looks up one entity of a kind
type Accessor interface {
	// Lookup returns the display label of the entity, or
	// carousel.ErrOwnerNotFound when it does not exist.
	Lookup(ctx context.Context, id int64) (string, error)
}

// AccessorFunc adapts a function to the Accessor interface
type AccessorFunc func(ctx context.Context, id int64) (string, error)

// Lookup calls f
func (f AccessorFunc) Lookup(ctx context.Context, id int64) (string, error) {
	return f(ctx, id)
}

// Any accepts every positive id and labels it "<kind> #<id>"
func Any(kind string) Accessor {
	return AccessorFunc(func(ctx context.Context, id int64) (string, error) {
		if id <= 0 {
			return "", carousel.ErrOwnerNotFound
		}
		return fmt.Sprintf("%s #%d", kind, id), nil
	})
}

// Static accepts only the ids in labels
func Static(labels map[int64]string) Accessor {
	return AccessorFunc(func(ctx context.Context, id int64) (string, error) {
		label, ok := labels[id]
		if !ok {
			return "", carousel.ErrOwnerNotFound
		}
		return label, nil
	})
}

type entry struct {
	kind     carousel.OwnerKind
	accessor Accessor
}

// Registry implements carousel.OwnerResolver
type Registry struct {
	mu    sync.RWMutex
	kinds map[int64]entry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[int64]entry)}
}

// Register adds or replaces an owner kind
func (r *Registry) Register(kind carousel.OwnerKind, accessor Accessor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.kinds[kind.ID] = entry{kind: kind, accessor: accessor}
}

// Kind returns the kind registered under id
func (r *Registry) Kind(id int64) (carousel.OwnerKind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.kinds[id]
	return e.kind, ok
}

// Kinds returns the registered kinds ordered by id
func (r *Registry) Kinds() []carousel.OwnerKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]carousel.OwnerKind, 0, len(r.kinds))
	for _, e := range r.kinds {
		kinds = append(kinds, e.kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].ID < kinds[j].ID })
	return kinds
}

// ResolveOwner checks that ref names an existing entity of a known kind
func (r *Registry) ResolveOwner(ctx context.Context, ref carousel.OwnerRef) (*carousel.Owner, error) {
	r.mu.RLock()
	e, ok := r.kinds[ref.KindID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown owner kind %d", carousel.ErrOwnerNotFound, ref.KindID)
	}

	label, err := e.accessor.Lookup(ctx, ref.ID)
	if err != nil {
		return nil, err
	}

	return &carousel.Owner{Kind: e.kind, ID: ref.ID, Label: label}, nil
}

// KindSpec is one entry of an owner kind list
type KindSpec struct {
	ID    int64
	Name  string
	Table string
}

// ParseKinds parses "1=product:products,2=category" into kind specs.
// The table part is optional.
func ParseKinds(s string) ([]KindSpec, error) {
	var specs []KindSpec
	seen := make(map[int64]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idPart, rest, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid owner kind %q: expected id=name", part)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid owner kind id in %q", part)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate owner kind id %d", id)
		}
		seen[id] = true

		name, table, _ := strings.Cut(rest, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("owner kind %d has no name", id)
		}
		specs = append(specs, KindSpec{ID: id, Name: name, Table: strings.TrimSpace(table)})
	}
	return specs, nil
}
