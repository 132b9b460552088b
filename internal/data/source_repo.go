package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
)

// SourceRepo provides database operations for registered job sources.
type SourceRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// SourceRepoConfig holds configuration options for the source repository.
type SourceRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// NewSourceRepo creates a new SourceRepo instance.
func NewSourceRepo(db *sql.DB, cfg SourceRepoConfig) *SourceRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &SourceRepo{DB: db, timeProvider: tp, logger: cfg.Logger}
}

const sourceColumns = `
  id,
  url,
  source_type,
  status,
  confidence,
  consecutive_failures,
  last_scraped_at,
  created_at,
  updated_at
`

// Create registers a new source. A second registration of the same URL is a
// conflict.
func (r *SourceRepo) Create(ctx context.Context, req *model.CreateSourceRequest) (*model.SourceRecord, error) {
	if req == nil {
		return nil, errors.New("create source request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	status := req.Status
	if status == "" {
		status = model.SourceStatusPendingValidation
	}
	confidence := req.Confidence
	if confidence == "" {
		confidence = model.ConfidenceLow
	}

	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO sources (id, url, source_type, status, confidence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING `+sourceColumns,
		uuid.New().String(), req.URL, req.SourceType, status, confidence, now,
	)

	record, err := scanSourceRecord(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("source already registered")
		}
		return nil, fmt.Errorf("create source: %w", err)
	}
	return record, nil
}

// GetByID retrieves a source by id.
func (r *SourceRepo) GetByID(ctx context.Context, id string) (*model.SourceRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+sourceColumns+`
		FROM sources
		WHERE id = $1
	`, id)

	record, err := scanSourceRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return record, nil
}

// GetByURL retrieves a source by normalized URL. Returns (nil, nil) when absent.
func (r *SourceRepo) GetByURL(ctx context.Context, url string) (*model.SourceRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+sourceColumns+`
		FROM sources
		WHERE url = $1
	`, url)

	record, err := scanSourceRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get source by url: %w", err)
	}
	return record, nil
}

// ListDue returns active sources whose last scrape is older than the scrape
// interval, never-scraped sources first.
func (r *SourceRepo) ListDue(ctx context.Context, interval time.Duration, limit int) ([]*model.SourceRecord, error) {
	cutoff := r.timeProvider.Now().Add(-interval).UTC()
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+sourceColumns+`
		FROM sources
		WHERE status = 'active'
		  AND (last_scraped_at IS NULL OR last_scraped_at < $1)
		ORDER BY last_scraped_at ASC NULLS FIRST
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list due sources: %w", err)
	}
	defer rows.Close()

	var out []*model.SourceRecord
	for rows.Next() {
		record, scanErr := scanSourceRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan due source: %w", scanErr)
		}
		out = append(out, record)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list due sources: %w", rowsErr)
	}
	return out, nil
}

// RecordSuccess resets the failure streak and stamps last_scraped_at. A
// source still pending validation becomes active on its first good scrape.
func (r *SourceRepo) RecordSuccess(ctx context.Context, id string) (*model.SourceRecord, error) {
	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		UPDATE sources
		SET consecutive_failures = 0,
		    last_scraped_at = $2,
		    status = CASE WHEN status = 'pending_validation' THEN 'active' ELSE status END,
		    updated_at = $2
		WHERE id = $1
		RETURNING `+sourceColumns,
		id, now,
	)

	record, err := scanSourceRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("record source success: %w", err)
	}
	return record, nil
}

// RecordFailure increments the failure streak and disables the source once
// the streak reaches disableThreshold.
func (r *SourceRepo) RecordFailure(ctx context.Context, id string, disableThreshold int) (*model.SourceRecord, error) {
	if disableThreshold <= 0 {
		return nil, errors.New("disable threshold must be positive")
	}

	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		UPDATE sources
		SET consecutive_failures = consecutive_failures + 1,
		    status = CASE WHEN consecutive_failures + 1 >= $2 AND status = 'active'
		                  THEN 'disabled' ELSE status END,
		    updated_at = $3
		WHERE id = $1
		RETURNING `+sourceColumns,
		id, disableThreshold, now,
	)

	record, err := scanSourceRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("record source failure: %w", err)
	}
	return record, nil
}

type sourceScanner interface {
	Scan(dest ...any) error
}

func scanSourceRecord(scanner sourceScanner) (*model.SourceRecord, error) {
	record := &model.SourceRecord{}
	var lastScrapedAt sql.NullTime

	if err := scanner.Scan(
		&record.ID,
		&record.URL,
		&record.SourceType,
		&record.Status,
		&record.Confidence,
		&record.ConsecutiveFailures,
		&lastScrapedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}

	record.LastScrapedAt = cloneNullableTime(lastScrapedAt)
	return record, nil
}
