package scenario

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"kitstock/pkg/platform/sentinel"
	txcontext "kitstock/pkg/platform/tx"
)

// PostgresStore persists scenarios in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, sc Scenario) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO scenarios (id, name, active)
		VALUES ($1, $2, $3)`,
		sc.ID, sc.Name, sc.Active)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert scenario: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int) (Scenario, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	row := exec.QueryRowContext(ctx, `
		SELECT id, name, active FROM scenarios WHERE id = $1`, id)

	var sc Scenario
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Scenario{}, sentinel.ErrNotFound
		}
		return Scenario{}, fmt.Errorf("load scenario: %w", err)
	}
	return sc, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Scenario, error) {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, name, active FROM scenarios ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	var out []Scenario
	for rows.Next() {
		var sc Scenario
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Active); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetActive(ctx context.Context, id int, active bool) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE scenarios SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("update scenario: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
