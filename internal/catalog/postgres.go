package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kitstock/pkg/platform/sentinel"
	txcontext "kitstock/pkg/platform/tx"
)

// Postgres reads the catalog from the shared relational store.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed catalog.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (c *Postgres) Entry(ctx context.Context, code string) (Entry, error) {
	exec := txcontext.ExecutorFrom(ctx, c.db)
	row := exec.QueryRowContext(ctx, `
		SELECT code, name, kind, expiry_tracked
		FROM catalog_entries
		WHERE code = $1`,
		normalize(code))

	var e Entry
	if err := row.Scan(&e.Code, &e.Name, &e.Kind, &e.ExpiryTracked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, sentinel.ErrNotFound
		}
		return Entry{}, fmt.Errorf("load catalog entry: %w", err)
	}
	return e, nil
}

func (c *Postgres) Kind(ctx context.Context, code string) (Kind, error) {
	e, err := c.Entry(ctx, code)
	if err != nil {
		return "", err
	}
	return e.Kind, nil
}

func (c *Postgres) ExpiryTracked(ctx context.Context, code string) (bool, error) {
	e, err := c.Entry(ctx, code)
	if err != nil {
		return false, err
	}
	return e.ExpiryTracked, nil
}
