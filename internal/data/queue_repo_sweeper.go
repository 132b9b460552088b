package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/data/pgxutil"
)

// Advisory lock namespace for sweeper operations.
// Using two-arg pg_try_advisory_xact_lock(major, minor) for proper namespacing.
// Major key 1000 is reserved for jobscout sweeper operations.
const (
	advisoryLockSweeperMajor   = 1000
	advisoryLockSweeperReclaim = 1 // minor key for ReclaimExpired
	advisoryLockSweeperDelete  = 2 // minor key for DeleteOldItems
)

const reclaimBatchSize = 100

// ReclaimExpired resets processing items whose claim lease has lapsed back
// to pending so a crashed worker cannot permanently stall a lineage.
// Processes up to batchSize items per call and uses an advisory lock so
// concurrent sweepers do not conflict.
func (r *QueueRepo) ReclaimExpired(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		return 0, errors.New("batch size must be greater than zero")
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)",
				advisoryLockSweeperMajor, advisoryLockSweeperReclaim).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			now := r.timeProvider.Now().UTC()
			res, err := tx.ExecContext(ctx, `
				UPDATE queue_items
				SET status = 'pending',
				    claim_expires_at = NULL,
				    updated_at = $1
				WHERE id IN (
					SELECT id FROM queue_items
					WHERE status = 'processing'
					  AND claim_expires_at IS NOT NULL
					  AND claim_expires_at < $1
					ORDER BY claim_expires_at
					LIMIT $2
				)
			`, now, batchSize)
			if err != nil {
				return fmt.Errorf("reclaim expired items: %w", err)
			}

			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}

// DeleteOldItems deletes terminal items with the given status older than
// maxAge. Processes up to batchSize items per call to prevent long locks and
// I/O spikes.
func (r *QueueRepo) DeleteOldItems(ctx context.Context, params core.DeleteOldItemsParams) (int64, error) {
	if !params.Status.Terminal() {
		return 0, fmt.Errorf("status %q is not terminal", params.Status)
	}
	if params.BatchSize <= 0 {
		return 0, errors.New("batch size must be greater than zero")
	}
	if params.MaxAge <= 0 {
		return 0, errors.New("max age must be greater than zero")
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)",
				advisoryLockSweeperMajor, advisoryLockSweeperDelete).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			cutoff := r.timeProvider.Now().Add(-params.MaxAge).UTC()
			res, err := tx.ExecContext(ctx, `
				DELETE FROM queue_items
				WHERE id IN (
					SELECT id FROM queue_items
					WHERE status = $1
					  AND updated_at < $2
					ORDER BY updated_at
					LIMIT $3
				)
			`, params.Status, cutoff, params.BatchSize)
			if err != nil {
				return fmt.Errorf("delete old items: %w", err)
			}

			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}
