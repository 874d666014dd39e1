//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema is applied once per container so every store test finds its tables.
const schema = `
CREATE TABLE IF NOT EXISTS catalog_entries (
	code           TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	kind           TEXT NOT NULL,
	expiry_tracked BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS scenarios (
	id     INTEGER PRIMARY KEY,
	name   TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS composition_nodes (
	treecode TEXT PRIMARY KEY,
	scenario INTEGER NOT NULL,
	kind     TEXT NOT NULL,
	code     TEXT NOT NULL,
	std_qty  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS composition_nodes_scenario_idx
	ON composition_nodes (scenario);

CREATE TABLE IF NOT EXISTS stock_lines (
	address        TEXT PRIMARY KEY,
	scenario       INTEGER NOT NULL,
	owner_treecode TEXT NOT NULL DEFAULT '',
	qty_in         INTEGER NOT NULL DEFAULT 0,
	qty_out        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS stock_lines_scenario_idx
	ON stock_lines (scenario);

CREATE TABLE IF NOT EXISTS audit_events (
	id           UUID PRIMARY KEY,
	occurred_at  TIMESTAMPTZ NOT NULL,
	scenario     INTEGER NOT NULL,
	address      TEXT NOT NULL,
	item         TEXT NOT NULL,
	direction    TEXT NOT NULL,
	quantity     INTEGER NOT NULL,
	discrepancy  INTEGER NOT NULL DEFAULT 0,
	remarks      TEXT NOT NULL DEFAULT '',
	document_ref TEXT NOT NULL DEFAULT '',
	operator     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_address_idx
	ON audit_events (address);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// schema already applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new PostgreSQL container and applies the
// schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("kitstock"),
		tcpostgres.WithUsername("kitstock"),
		tcpostgres.WithPassword("kitstock"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Cleanup is left to the singleton Manager; Ryuk reaps the container.

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables empties the named tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	stmt := fmt.Sprintf("TRUNCATE TABLE %s", strings.Join(tables, ", "))
	if _, err := p.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
