// Package catalog is the read-only item catalog collaborator: the declared
// kind and expiry-tracking flag per catalog code. Composition authoring and
// reconciliation validation both consult it.
package catalog

import "context"

// Kind classifies a catalog entry within the composition hierarchy.
type Kind string

const (
	KindKit    Kind = "KIT"
	KindModule Kind = "MODULE"
	KindItem   Kind = "ITEM"
)

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindKit, KindModule, KindItem:
		return true
	}
	return false
}

// Entry is one catalog row.
type Entry struct {
	Code          string
	Name          string
	Kind          Kind
	ExpiryTracked bool
}

// Catalog is the lookup interface consumed by the core. Implementations
// return sentinel.ErrNotFound for unknown codes.
type Catalog interface {
	Entry(ctx context.Context, code string) (Entry, error)
	Kind(ctx context.Context, code string) (Kind, error)
	ExpiryTracked(ctx context.Context, code string) (bool, error)
}
