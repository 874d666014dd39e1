package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"kitstock/pkg/derrors"
	"kitstock/pkg/platform/sentinel"
	txcontext "kitstock/pkg/platform/tx"

	"github.com/lib/pq"
)

const defaultCommitTxTimeout = 10 * time.Second

// commitPostgresTx runs a reconciliation commit inside one Postgres
// transaction. The transaction travels in the context, so ledger and audit
// stores write through it without signature changes.
type commitPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newCommitPostgresTx(db *sql.DB) *commitPostgresTx {
	return &commitPostgresTx{db: db}
}

func (t *commitPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return derrors.Wrap(err, derrors.CodePersistenceFailure, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultCommitTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyTxErr(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classifyTxErr(err)
	}
	return nil
}

// classifyTxErr maps serialization and lock contention onto the retryable
// sentinel so the commit retry policy picks them up.
func classifyTxErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "serialization_failure", "deadlock_detected", "lock_not_available":
			return sentinel.ErrConflict
		}
	}
	return err
}
