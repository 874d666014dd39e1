package ledger

import (
	"context"

	"kitstock/internal/address"
)

// Store persists stock lines. Lookups by exact address; writes carry
// absolute counter values, so concurrent writers to the same address must
// hold its lock first. Implementations return sentinel.ErrNotFound for
// missing lines.
type Store interface {
	Get(ctx context.Context, addr address.StockAddress) (StockLine, error)
	Upsert(ctx context.Context, line StockLine) error
	ListScenario(ctx context.Context, scenario int) ([]StockLine, error)
}
