package composition

import (
	"context"

	"kitstock/internal/treecode"
)

// Store persists composition nodes. Implementations return
// sentinel.ErrNotFound for missing treecodes and sentinel.ErrConflict when
// inserting an occupied treecode.
type Store interface {
	Insert(ctx context.Context, node Node) error
	Get(ctx context.Context, tc treecode.Treecode) (Node, error)
	ListScenario(ctx context.Context, scenario int) ([]Node, error)
	ListSubtree(ctx context.Context, root treecode.Treecode) ([]Node, error)
	UpdateQuantity(ctx context.Context, tc treecode.Treecode, stdQty int) error
	DeleteSubtree(ctx context.Context, root treecode.Treecode) (int, error)
}
