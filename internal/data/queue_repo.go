package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/data/pgxutil"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
)

// notifyChannel is the pg_notify channel workers listen on for new items.
const notifyChannel = "queue_item_added"

// QueueRepoConfig holds configuration options for the queue repository.
type QueueRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// QueueRepo provides database operations for queue items. It implements
// core.QueueRepository and core.SweeperRepository.
type QueueRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewQueueRepo creates a new QueueRepo instance with the given database connection and configuration.
func NewQueueRepo(db *sql.DB, cfg QueueRepoConfig) *QueueRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &QueueRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const itemColumns = `
  id,
  type,
  url,
  status,
  tracking_id,
  ancestry,
  spawn_depth,
  operation_hint,
  discovered_from,
  company_name,
  reanalyze,
  retry_count,
  max_retries,
  wait_count,
  last_error,
  error_class,
  reasons,
  scheduled_at,
  claim_expires_at,
  created_at,
  updated_at
`

const defaultMaxRetries = 3

// Create persists a new queue item as pending and notifies waiting workers.
// A concurrent duplicate within the lineage trips the spawn-safety unique
// index and surfaces as a conflict error.
func (r *QueueRepo) Create(ctx context.Context, params core.CreateItemParams) (*model.QueueItem, error) {
	if !params.Type.Valid() {
		return nil, apperrors.Validationf("invalid item type: %q", params.Type)
	}

	ancestry, err := json.Marshal(nonNilAncestry(params.Ancestry))
	if err != nil {
		return nil, fmt.Errorf("marshal ancestry: %w", err)
	}

	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	now := r.timeProvider.Now().UTC()
	id := uuid.New().String()

	var item *model.QueueItem
	txErr := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			rows, qerr := tx.Query(ctx, `
				INSERT INTO queue_items(
					id, type, url, status, tracking_id, ancestry, spawn_depth,
					operation_hint, discovered_from, company_name, reanalyze,
					max_retries, scheduled_at, created_at, updated_at
				)
				VALUES ($1,$2,$3,'pending',$4,$5,$6,NULLIF($7,''),$8,$9,$10,$11,$12,$12,$12)
				RETURNING `+itemColumns,
				id, params.Type, params.URL, params.TrackingID, ancestry,
				params.SpawnDepth, params.OperationHint, params.DiscoveredFrom,
				params.CompanyName, params.Reanalyze, maxRetries, now,
			)
			if qerr != nil {
				return fmt.Errorf("insert queue item: %w", qerr)
			}
			created, cerr := collectItemFromRows(rows)
			rows.Close()
			if cerr != nil {
				return fmt.Errorf("collect queue item: %w", cerr)
			}

			if _, execErr := tx.Exec(ctx, `SELECT pg_notify($1::text, $2::text)`, notifyChannel, created.ID); execErr != nil {
				return fmt.Errorf("send item notification: %w", execErr)
			}

			item = created
			return nil
		},
	})
	if txErr != nil {
		if isUniqueViolation(txErr) {
			return nil, apperrors.Conflict("duplicate work")
		}
		return nil, txErr
	}
	return item, nil
}

// GetByID retrieves a queue item by its ID.
func (r *QueueRepo) GetByID(ctx context.Context, id string) (*model.QueueItem, error) {
	var item *model.QueueItem
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, `
			SELECT `+itemColumns+`
			FROM queue_items
			WHERE id = $1
		`, id)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		item, qerr = collectItemFromRows(rows)
		return qerr
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item: %w", err)
	}
	return item, nil
}

// SQL used by ClaimNext to atomically claim the next pending item.
const claimNextUpdateSQL = `
  WITH cte AS (
    SELECT id FROM queue_items
    WHERE status = 'pending' AND scheduled_at <= $1
    ORDER BY scheduled_at ASC, created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE queue_items q
  SET
    status = 'processing',
    claim_expires_at = $2,
    updated_at = $3
  FROM cte
  WHERE q.id = cte.id
  RETURNING q.id, q.type, q.url, q.status, q.tracking_id, q.ancestry, q.spawn_depth, q.operation_hint, q.discovered_from, q.company_name, q.reanalyze, q.retry_count, q.max_retries, q.wait_count, q.last_error, q.error_class, q.reasons, q.scheduled_at, q.claim_expires_at, q.created_at, q.updated_at`

// ClaimNext atomically claims the next eligible pending item. Expired claims
// are reclaimed first so a crashed worker cannot stall the queue between
// sweeper passes.
func (r *QueueRepo) ClaimNext(ctx context.Context, leaseSeconds int) (*model.QueueItem, error) {
	if leaseSeconds <= 0 {
		return nil, errors.New("leaseSeconds must be positive")
	}

	if _, err := r.ReclaimExpired(ctx, reclaimBatchSize); err != nil {
		return nil, fmt.Errorf("reclaim expired items: %w", err)
	}

	var item *model.QueueItem
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			now := r.timeProvider.Now()
			claimExpiresAt := now.Add(time.Duration(leaseSeconds) * time.Second)

			rows, qerr := tx.Query(ctx, claimNextUpdateSQL, now.UTC(), claimExpiresAt.UTC(), now.UTC())
			if qerr != nil {
				return fmt.Errorf("claim item: %w", qerr)
			}
			defer rows.Close()

			claimed, cerr := collectItemFromRows(rows)
			if errors.Is(cerr, pgx.ErrNoRows) {
				return model.ErrNoItemsAvailable
			}
			if cerr != nil {
				return fmt.Errorf("claim item: %w", cerr)
			}
			item = claimed
			return nil
		},
	})
	if err != nil {
		if errors.Is(err, model.ErrNoItemsAvailable) {
			return nil, model.ErrNoItemsAvailable
		}
		return nil, err
	}
	return item, nil
}

// WaitForNotification blocks until a new queue item is announced or the
// context is done.
func (r *QueueRepo) WaitForNotification(ctx context.Context) error {
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	quoted := pgx.Identifier{notifyChannel}.Sanitize()
	if _, execErr := conn.ExecContext(ctx, "LISTEN "+quoted); execErr != nil {
		return fmt.Errorf("listen %s: %w", notifyChannel, execErr)
	}
	defer func() {
		if _, execErr := conn.ExecContext(context.Background(), "UNLISTEN "+quoted); execErr != nil {
			_ = execErr
		}
	}()

	return conn.Raw(func(dc any) error {
		sc, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		_, notifyErr := sc.Conn().WaitForNotification(ctx)
		return notifyErr
	})
}

// Requeue releases a claimed item back to pending with a delay. CountRetry
// bumps retry_count and records the error, CountWait bumps wait_count for a
// dependency wait, and neither is a plain stage-progression reschedule.
func (r *QueueRepo) Requeue(ctx context.Context, params core.RequeueParams) (bool, error) {
	now := r.timeProvider.Now().UTC()
	scheduledAt := now.Add(params.Delay)

	var query string
	args := []any{params.ID, scheduledAt, now}
	switch {
	case params.CountRetry:
		query = `
			UPDATE queue_items
			SET status = 'pending',
			    retry_count = retry_count + 1,
			    last_error = $4,
			    error_class = $5,
			    claim_expires_at = NULL,
			    scheduled_at = $2,
			    updated_at = $3
			WHERE id = $1 AND status = 'processing'
		`
		args = append(args, params.LastError, params.ErrorClass)
	case params.CountWait:
		query = `
			UPDATE queue_items
			SET status = 'pending',
			    wait_count = wait_count + 1,
			    claim_expires_at = NULL,
			    scheduled_at = $2,
			    updated_at = $3
			WHERE id = $1 AND status = 'processing'
		`
	default:
		query = `
			UPDATE queue_items
			SET status = 'pending',
			    claim_expires_at = NULL,
			    scheduled_at = $2,
			    updated_at = $3
			WHERE id = $1 AND status = 'processing'
		`
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("requeue item: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("requeue rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// MarkTerminal moves a claimed item to a terminal status with its reasons.
func (r *QueueRepo) MarkTerminal(ctx context.Context, params core.TerminalParams) (bool, error) {
	if !params.Status.Terminal() {
		return false, fmt.Errorf("status %q is not terminal", params.Status)
	}

	reasons, err := json.Marshal(nonNilReasons(params.Reasons))
	if err != nil {
		return false, fmt.Errorf("marshal reasons: %w", err)
	}

	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE queue_items
		SET status = $2,
		    reasons = $3,
		    last_error = $4,
		    error_class = $5,
		    claim_expires_at = NULL,
		    updated_at = $6
		WHERE id = $1 AND status = 'processing'
	`, params.ID, params.Status, reasons, params.LastError, params.ErrorClass, now)
	if err != nil {
		return false, fmt.Errorf("mark item terminal: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("terminal rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// HasActiveDuplicate reports whether a pending or processing item already
// exists for the same (url, type). With a tracking id the check is scoped
// to that lineage; with an empty one it spans all lineages.
func (r *QueueRepo) HasActiveDuplicate(ctx context.Context, params core.DuplicateLookupParams) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM queue_items
			WHERE ($1 = '' OR tracking_id = $1)
			  AND url = $2
			  AND type = $3
			  AND status IN ('pending', 'processing')
		)
	`, params.TrackingID, params.URL, params.Type).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active duplicate: %w", err)
	}
	return exists, nil
}

// FindLineageFailure returns a failed item in the lineage with the same
// (url, type, error_class), or nil when no such failure exists.
func (r *QueueRepo) FindLineageFailure(ctx context.Context, params core.LineageFailureParams) (*model.QueueItem, error) {
	var item *model.QueueItem
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, `
			SELECT `+itemColumns+`
			FROM queue_items
			WHERE tracking_id = $1
			  AND url = $2
			  AND type = $3
			  AND status = 'failed'
			  AND error_class = $4
			ORDER BY updated_at DESC
			LIMIT 1
		`, params.TrackingID, params.URL, params.Type, params.ErrorClass)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		item, qerr = collectItemFromRows(rows)
		return qerr
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find lineage failure: %w", err)
	}
	return item, nil
}

// Stats returns per-status counts for queue items of the given type.
func (r *QueueRepo) Stats(ctx context.Context, itemType model.ItemType) (*model.QueueStats, error) {
	var s model.QueueStats
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'pending')    AS pending,
    count(*) FILTER (WHERE status = 'processing') AS processing,
    count(*) FILTER (WHERE status = 'filtered')   AS filtered,
    count(*) FILTER (WHERE status = 'skipped')    AS skipped,
    count(*) FILTER (WHERE status = 'success')    AS success,
    count(*) FILTER (WHERE status = 'failed')     AS failed
  FROM queue_items
  WHERE type = $1
  `, itemType).Scan(
		&s.Pending,
		&s.Processing,
		&s.Filtered,
		&s.Skipped,
		&s.Success,
		&s.Failed,
	)
	if err != nil {
		return nil, fmt.Errorf("get queue stats: %w", err)
	}
	return &s, nil
}

func nonNilAncestry(in []model.AncestryEntry) []model.AncestryEntry {
	if in == nil {
		return []model.AncestryEntry{}
	}
	return in
}

func nonNilReasons(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// collectItemFromRows collects a single item from pgx rows.
func collectItemFromRows(rows pgx.Rows) (*model.QueueItem, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	item, err := scanItemFromRow(rows)
	if err != nil {
		return nil, err
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return item, nil
}

type itemRowScanner interface {
	Scan(dest ...any) error
}

type itemRowData struct {
	ancestry, reasons []byte

	operationHint  sql.NullString
	discoveredFrom sql.NullString
	companyName    sql.NullString
	lastError      sql.NullString
	errorClass     sql.NullString
	claimExpiresAt sql.NullTime
}

func (d *itemRowData) scanInto(scanner itemRowScanner, item *model.QueueItem) error {
	return scanner.Scan(
		&item.ID,
		&item.Type,
		&item.URL,
		&item.Status,
		&item.TrackingID,
		&d.ancestry,
		&item.SpawnDepth,
		&d.operationHint,
		&d.discoveredFrom,
		&d.companyName,
		&item.Reanalyze,
		&item.RetryCount,
		&item.MaxRetries,
		&item.WaitCount,
		&d.lastError,
		&d.errorClass,
		&d.reasons,
		&item.ScheduledAt,
		&d.claimExpiresAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
}

func (d *itemRowData) apply(item *model.QueueItem) error {
	if len(d.ancestry) > 0 {
		if err := json.Unmarshal(d.ancestry, &item.Ancestry); err != nil {
			return fmt.Errorf("unmarshal ancestry: %w", err)
		}
	}
	if len(d.reasons) > 0 {
		if err := json.Unmarshal(d.reasons, &item.Reasons); err != nil {
			return fmt.Errorf("unmarshal reasons: %w", err)
		}
	}
	if d.operationHint.Valid {
		item.OperationHint = d.operationHint.String
	}
	item.DiscoveredFrom = cloneNullableString(d.discoveredFrom)
	item.CompanyName = cloneNullableString(d.companyName)
	item.LastError = cloneNullableString(d.lastError)
	item.ErrorClass = cloneNullableString(d.errorClass)
	item.ClaimExpiresAt = cloneNullableTime(d.claimExpiresAt)
	return nil
}

func scanItemFromRow(scanner itemRowScanner) (*model.QueueItem, error) {
	item := &model.QueueItem{}
	var data itemRowData
	if err := data.scanInto(scanner, item); err != nil {
		return nil, err
	}
	if err := data.apply(item); err != nil {
		return nil, err
	}
	return item, nil
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
