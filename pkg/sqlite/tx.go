package sqlite

import (
	"context"
	"fmt"
	"time"

	"sqlitekit/pkg/dberr"
	"sqlitekit/pkg/retry"
)

// Transaction statements are issued as literal SQL on the handle's single
// connection rather than through the pool's transaction objects, so the
// statements fn issues through the same handle run inside the transaction.
const (
	beginStmt    = "BEGIN TRANSACTION"
	commitStmt   = "END TRANSACTION"
	rollbackStmt = "ROLLBACK TRANSACTION"
)

// Transaction runs fn inside a transaction. On fn success the transaction
// is committed; on fn failure it is rolled back and fn's error is returned
// (a rollback failure is attached to the message, the original error stays
// matchable with errors.Is). BEGIN is retried on transient lock contention.
//
// Nested calls are not guarded against; the engine's own transaction
// nesting rules apply.
func (db *DB) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.conn == nil {
		return dberr.Wrap(dberr.ErrNotOpen, "transaction")
	}
	if fn == nil {
		return dberr.Wrap(dberr.ErrInvalidArgument, "transaction: function required")
	}

	if err := db.begin(ctx); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		// Roll back even when ctx is already done, otherwise the
		// connection is left inside an open transaction.
		rbCtx := context.WithoutCancel(ctx)
		if _, rbErr := db.conn.ExecContext(rbCtx, rollbackStmt); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if _, err := db.conn.ExecContext(ctx, commitStmt); err != nil {
		return dberr.Wrap(dberr.Driver(err), "commit")
	}
	return nil
}

func (db *DB) begin(ctx context.Context) error {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = db.opts.RetryAttempts
	cfg.InitialDelay = 10 * time.Millisecond
	cfg.MaxDelay = 500 * time.Millisecond

	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, beginStmt)
		return err
	})
	if err != nil {
		return dberr.Wrap(dberr.Driver(err), "begin transaction")
	}
	return nil
}

// Transact runs fn inside a transaction and returns its result, discarding
// it when the transaction rolls back.
func Transact[T any](ctx context.Context, db *DB, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := db.Transaction(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
