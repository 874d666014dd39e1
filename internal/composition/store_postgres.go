package composition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"kitstock/internal/catalog"
	"kitstock/internal/treecode"
	"kitstock/pkg/platform/sentinel"
	txcontext "kitstock/pkg/platform/tx"
)

// PostgresStore persists composition nodes in PostgreSQL. Treecodes are
// stored in the 11-digit fixed-width form, so LIKE on a whole-segment prefix
// is an exact subtree match.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, node Node) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO composition_nodes (treecode, scenario, kind, code, std_qty)
		VALUES ($1, $2, $3, $4, $5)`,
		node.Treecode.String(), node.Scenario, string(node.Kind), node.Code, node.StdQty)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert composition node: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, tc treecode.Treecode) (Node, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	row := exec.QueryRowContext(ctx, `
		SELECT treecode, scenario, kind, code, std_qty
		FROM composition_nodes WHERE treecode = $1`,
		tc.String())
	return scanNode(row)
}

func (s *PostgresStore) ListScenario(ctx context.Context, scenario int) ([]Node, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT treecode, scenario, kind, code, std_qty
		FROM composition_nodes
		WHERE scenario = $1
		ORDER BY treecode`,
		scenario)
	if err != nil {
		return nil, fmt.Errorf("list scenario nodes: %w", err)
	}
	return collectNodes(rows)
}

func (s *PostgresStore) ListSubtree(ctx context.Context, root treecode.Treecode) ([]Node, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT treecode, scenario, kind, code, std_qty
		FROM composition_nodes
		WHERE treecode LIKE $1
		ORDER BY treecode`,
		subtreePattern(root))
	if err != nil {
		return nil, fmt.Errorf("list subtree nodes: %w", err)
	}
	return collectNodes(rows)
}

func (s *PostgresStore) UpdateQuantity(ctx context.Context, tc treecode.Treecode, stdQty int) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE composition_nodes SET std_qty = $2 WHERE treecode = $1`,
		tc.String(), stdQty)
	if err != nil {
		return fmt.Errorf("update node quantity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteSubtree(ctx context.Context, root treecode.Treecode) (int, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		DELETE FROM composition_nodes WHERE treecode LIKE $1`,
		subtreePattern(root))
	if err != nil {
		return 0, fmt.Errorf("delete subtree: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete subtree count: %w", err)
	}
	return int(n), nil
}

// subtreePattern cuts the fixed-width code at the last non-zero segment
// boundary, so the LIKE prefix matches whole segments only.
func subtreePattern(root treecode.Treecode) string {
	s := root.String()
	switch root.Level() {
	case treecode.LevelPrimary:
		return s[:5] + "%"
	case treecode.LevelSecondary:
		return s[:8] + "%"
	default:
		return s
	}
}

func scanNode(row *sql.Row) (Node, error) {
	var (
		n    Node
		code string
		kind string
	)
	if err := row.Scan(&code, &n.Scenario, &kind, &n.Code, &n.StdQty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Node{}, sentinel.ErrNotFound
		}
		return Node{}, fmt.Errorf("load composition node: %w", err)
	}
	tc, err := treecode.Parse(code)
	if err != nil {
		return Node{}, fmt.Errorf("stored treecode %q: %w", code, err)
	}
	n.Treecode = tc
	n.Kind = catalog.Kind(kind)
	return n, nil
}

func collectNodes(rows *sql.Rows) ([]Node, error) {
	defer rows.Close()
	var out []Node
	for rows.Next() {
		var (
			n    Node
			code string
			kind string
		)
		if err := rows.Scan(&code, &n.Scenario, &kind, &n.Code, &n.StdQty); err != nil {
			return nil, fmt.Errorf("scan composition node: %w", err)
		}
		tc, err := treecode.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("stored treecode %q: %w", code, err)
		}
		n.Treecode = tc
		n.Kind = catalog.Kind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}
