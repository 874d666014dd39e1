package audit

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "kitstock/pkg/platform/tx"
)

// PostgresStore persists audit events. Appends join the commit transaction
// when one is carried in ctx, so movements and their records land atomically.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, e Event) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO audit_events
			(id, occurred_at, scenario, address, item, direction,
			 quantity, discrepancy, remarks, document_ref, operator)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.Timestamp, e.Scenario, e.Address, e.Item, e.Direction,
		e.Quantity, e.Discrepancy, e.Remarks, e.DocumentReference, e.Operator)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByAddress(ctx context.Context, address string) ([]Event, error) {
	return s.list(ctx, `
		SELECT id, occurred_at, scenario, address, item, direction,
		       quantity, discrepancy, remarks, document_ref, operator
		FROM audit_events WHERE address = $1
		ORDER BY occurred_at, id`, address)
}

func (s *PostgresStore) ListByDocument(ctx context.Context, documentReference string) ([]Event, error) {
	return s.list(ctx, `
		SELECT id, occurred_at, scenario, address, item, direction,
		       quantity, discrepancy, remarks, document_ref, operator
		FROM audit_events WHERE document_ref = $1
		ORDER BY occurred_at, id`, documentReference)
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]Event, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	rows, err := exec.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.Scenario, &e.Address, &e.Item, &e.Direction,
			&e.Quantity, &e.Discrepancy, &e.Remarks, &e.DocumentReference, &e.Operator,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
