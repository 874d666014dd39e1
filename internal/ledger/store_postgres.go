package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kitstock/internal/address"
	"kitstock/pkg/platform/sentinel"
	txcontext "kitstock/pkg/platform/tx"
)

// PostgresStore persists stock lines in PostgreSQL. The delimited address
// string appears only here, at the persistence boundary; everything above
// this layer works with the structured address.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, addr address.StockAddress) (StockLine, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	row := exec.QueryRowContext(ctx, `
		SELECT address, owner_treecode, qty_in, qty_out
		FROM stock_lines WHERE address = $1`,
		addr.Encode())

	var (
		line    StockLine
		encoded string
	)
	if err := row.Scan(&encoded, &line.OwnerTreecode, &line.QtyIn, &line.QtyOut); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StockLine{}, sentinel.ErrNotFound
		}
		return StockLine{}, fmt.Errorf("load stock line: %w", err)
	}
	decoded, err := address.Decode(encoded)
	if err != nil {
		return StockLine{}, fmt.Errorf("stored address %q: %w", encoded, err)
	}
	line.Address = decoded
	return line, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, line StockLine) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO stock_lines (address, scenario, owner_treecode, qty_in, qty_out)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE
		SET owner_treecode = EXCLUDED.owner_treecode,
		    qty_in  = EXCLUDED.qty_in,
		    qty_out = EXCLUDED.qty_out`,
		line.Address.Encode(), line.Address.Scenario, line.OwnerTreecode, line.QtyIn, line.QtyOut)
	if err != nil {
		return fmt.Errorf("upsert stock line: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListScenario(ctx context.Context, scenario int) ([]StockLine, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT address, owner_treecode, qty_in, qty_out
		FROM stock_lines WHERE scenario = $1
		ORDER BY address`,
		scenario)
	if err != nil {
		return nil, fmt.Errorf("list stock lines: %w", err)
	}
	defer rows.Close()

	var out []StockLine
	for rows.Next() {
		var (
			line    StockLine
			encoded string
		)
		if err := rows.Scan(&encoded, &line.OwnerTreecode, &line.QtyIn, &line.QtyOut); err != nil {
			return nil, fmt.Errorf("scan stock line: %w", err)
		}
		decoded, err := address.Decode(encoded)
		if err != nil {
			return nil, fmt.Errorf("stored address %q: %w", encoded, err)
		}
		line.Address = decoded
		out = append(out, line)
	}
	return out, rows.Err()
}
