package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
)

// CompanyRepo provides database operations for company records, keyed by
// the normalized company key (registrable domain or name slug).
type CompanyRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// CompanyRepoConfig holds configuration options for the company repository.
type CompanyRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// NewCompanyRepo creates a new CompanyRepo instance.
func NewCompanyRepo(db *sql.DB, cfg CompanyRepoConfig) *CompanyRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &CompanyRepo{DB: db, timeProvider: tp, logger: cfg.Logger}
}

const companyColumns = `
  key,
  name,
  website,
  raw_pages,
  info,
  summary,
  status,
  fetched_at,
  extracted_at,
  analyzed_at,
  created_at,
  updated_at
`

// GetByKey retrieves a company record. Returns (nil, nil) when absent.
func (r *CompanyRepo) GetByKey(ctx context.Context, key string) (*model.CompanyRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+companyColumns+`
		FROM companies
		WHERE key = $1
	`, key)

	record, err := scanCompanyRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return record, nil
}

// CreatePending inserts a pending record if none exists. ON CONFLICT DO
// NOTHING makes creation idempotent under concurrent spawners; exactly one
// caller observes created=true.
func (r *CompanyRepo) CreatePending(ctx context.Context, params core.CreateCompanyParams) (*model.CompanyRecord, bool, error) {
	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO companies (key, name, website, status, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), 'pending', $4, $4)
		ON CONFLICT (key) DO NOTHING
		RETURNING `+companyColumns,
		params.Key, params.Name, params.Website, now,
	)

	record, err := scanCompanyRecord(row)
	if err == nil {
		return record, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("create company: %w", err)
	}

	existing, err := r.GetByKey(ctx, params.Key)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("company %q vanished after conflicting insert", params.Key)
	}
	return existing, false, nil
}

// SetRawPages stores the fetched page bodies and stamps the fetch stage.
func (r *CompanyRepo) SetRawPages(ctx context.Context, key string, pages []string) error {
	payload, err := json.Marshal(pages)
	if err != nil {
		return fmt.Errorf("marshal raw pages: %w", err)
	}

	now := r.timeProvider.Now().UTC()
	_, err = r.DB.ExecContext(ctx, `
		UPDATE companies
		SET raw_pages = $2,
		    fetched_at = $3,
		    updated_at = $3
		WHERE key = $1
	`, key, payload, now)
	if err != nil {
		return fmt.Errorf("set raw pages: %w", err)
	}
	return nil
}

// SetInfo stores the extracted structured company info.
func (r *CompanyRepo) SetInfo(ctx context.Context, key string, info *model.CompanyFields) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal company info: %w", err)
	}

	now := r.timeProvider.Now().UTC()
	_, err = r.DB.ExecContext(ctx, `
		UPDATE companies
		SET info = $2,
		    extracted_at = $3,
		    updated_at = $3
		WHERE key = $1
	`, key, payload, now)
	if err != nil {
		return fmt.Errorf("set company info: %w", err)
	}
	return nil
}

// SetSummary stores the analysis summary and stamps the analyze stage.
func (r *CompanyRepo) SetSummary(ctx context.Context, key, summary string) error {
	now := r.timeProvider.Now().UTC()
	_, err := r.DB.ExecContext(ctx, `
		UPDATE companies
		SET summary = $2,
		    analyzed_at = $3,
		    updated_at = $3
		WHERE key = $1
	`, key, summary, now)
	if err != nil {
		return fmt.Errorf("set company summary: %w", err)
	}
	return nil
}

// TransitionStatus performs a conditional status update. The write only
// lands when the record is currently in params.From, which is what makes a
// concurrent second analyzer lose cleanly.
func (r *CompanyRepo) TransitionStatus(ctx context.Context, params core.CompanyStatusTransition) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE companies
		SET status = $3,
		    updated_at = $4
		WHERE key = $1 AND status = $2
	`, params.Key, params.From, params.To, now)
	if err != nil {
		return false, fmt.Errorf("transition company status: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

type companyScanner interface {
	Scan(dest ...any) error
}

func scanCompanyRecord(scanner companyScanner) (*model.CompanyRecord, error) {
	record := &model.CompanyRecord{}
	var website, summary sql.NullString
	var rawPages, info []byte
	var fetchedAt, extractedAt, analyzedAt sql.NullTime

	if err := scanner.Scan(
		&record.Key,
		&record.Name,
		&website,
		&rawPages,
		&info,
		&summary,
		&record.Status,
		&fetchedAt,
		&extractedAt,
		&analyzedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if website.Valid {
		record.Website = website.String
	}
	if summary.Valid {
		record.Summary = summary.String
	}
	if len(rawPages) > 0 {
		if err := json.Unmarshal(rawPages, &record.RawPages); err != nil {
			return nil, fmt.Errorf("unmarshal raw pages: %w", err)
		}
	}
	if len(info) > 0 {
		if err := json.Unmarshal(info, &record.Info); err != nil {
			return nil, fmt.Errorf("unmarshal company info: %w", err)
		}
	}
	record.FetchedAt = cloneNullableTime(fetchedAt)
	record.ExtractedAt = cloneNullableTime(extractedAt)
	record.AnalyzedAt = cloneNullableTime(analyzedAt)
	return record, nil
}
