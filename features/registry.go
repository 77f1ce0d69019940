// Package features holds the feature registry: the fixed, ordered list of
// attribute names every other package indexes by position.
package features

import (
	"errors"
	"fmt"
	"go/token"
)

var (
	ErrEmptyName     = errors.New("features: empty attribute name")
	ErrDuplicateName = errors.New("features: duplicate attribute name")
	// ErrInvalidName is returned for names that cannot be used as a struct
	// field in generated code.
	ErrInvalidName = errors.New("features: attribute name is not a Go identifier")
	ErrUnknownName = errors.New("features: unknown attribute name")
)

// Registry is an immutable ordered set of attribute names.
type Registry struct {
	names []string
	index map[string]int
}

// NewRegistry builds a registry from names in the given order.
func NewRegistry(names []string) (*Registry, error) {
	r := &Registry{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		switch {
		case n == "":
			return nil, fmt.Errorf("column %d: %w", i, ErrEmptyName)
		case !token.IsIdentifier(n):
			return nil, fmt.Errorf("%q: %w", n, ErrInvalidName)
		}
		if _, dup := r.index[n]; dup {
			return nil, fmt.Errorf("%q: %w", n, ErrDuplicateName)
		}
		r.names[i] = n
		r.index[n] = i
	}
	return r, nil
}

func (r *Registry) Len() int { return len(r.names) }

func (r *Registry) Name(i int) string { return r.names[i] }

// Index returns the position of name.
func (r *Registry) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Lookup is Index with an error suitable for returning to callers.
func (r *Registry) Lookup(name string) (int, error) {
	i, ok := r.index[name]
	if !ok {
		return -1, fmt.Errorf("%q: %w", name, ErrUnknownName)
	}
	return i, nil
}

// Names returns a copy of the names in registry order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Subset maps positions to names, preserving the order of idx.
func (r *Registry) Subset(idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = r.names[i]
	}
	return out
}
