package main

import (
	"context"
	"database/sql"
	"time"

	"bidrag/internal/behandling/service"
	"bidrag/internal/behandling/store"
	id "bidrag/pkg/domain"
	dErrors "bidrag/pkg/domain-errors"
	txcontext "bidrag/pkg/platform/tx"
)

const defaultCaseTxTimeout = 5 * time.Second

// casePostgresTx runs a behandling mutation in one SQL transaction. The row
// is locked on load, and the transaction travels in the context so the audit
// outbox commits with the behandling.
type casePostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newCasePostgresTx(db *sql.DB, timeout time.Duration) *casePostgresTx {
	return &casePostgresTx{db: db, timeout: timeout}
}

func (t *casePostgresTx) RunInTx(ctx context.Context, _ id.CaseID, fn func(ctx context.Context, store service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultCaseTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return t.wrap(ctx, err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), store.NewPostgresTx(tx)); err != nil {
		if ctx.Err() != nil && !dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: deadline exceeded")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return t.wrap(ctx, err, "failed to commit transaction")
	}
	return nil
}

func (t *casePostgresTx) wrap(ctx context.Context, err error, msg string) error {
	if ctx.Err() != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: deadline exceeded")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
