package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// JobRecordRepo provides database operations for job records, keyed by
// normalized URL. Stage writes use COALESCE so a populated stage field is
// never clobbered; only analysis may be overwritten for re-analysis.
type JobRecordRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// JobRecordRepoConfig holds configuration options for the job record repository.
type JobRecordRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// NewJobRecordRepo creates a new JobRecordRepo instance.
func NewJobRecordRepo(db *sql.DB, cfg JobRecordRepoConfig) *JobRecordRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &JobRecordRepo{DB: db, timeProvider: tp, logger: cfg.Logger}
}

const jobRecordColumns = `
  url,
  company_name,
  scraped_data,
  filter_result,
  analysis,
  scraped_at,
  filtered_at,
  analyzed_at,
  created_at,
  updated_at
`

// GetByURL retrieves a job record. Returns (nil, nil) when no record exists;
// a missing record is the resolver's signal to start the pipeline.
func (r *JobRecordRepo) GetByURL(ctx context.Context, url string) (*model.JobRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+jobRecordColumns+`
		FROM job_records
		WHERE url = $1
	`, url)

	record, err := scanJobRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job record: %w", err)
	}
	return record, nil
}

// EnsureExists creates an empty record for the URL if none exists and
// returns the current record either way.
func (r *JobRecordRepo) EnsureExists(ctx context.Context, url, companyName string) (*model.JobRecord, error) {
	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO job_records (url, company_name, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $3)
		ON CONFLICT (url) DO UPDATE
		SET company_name = COALESCE(job_records.company_name, EXCLUDED.company_name)
		RETURNING `+jobRecordColumns,
		url, companyName, now,
	)

	record, err := scanJobRecord(row)
	if err != nil {
		return nil, fmt.Errorf("ensure job record: %w", err)
	}
	return record, nil
}

// SetScraped stores the extracted job fields. A record that already carries
// scraped data keeps it.
func (r *JobRecordRepo) SetScraped(ctx context.Context, url string, fields *model.JobFields) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal scraped data: %w", err)
	}

	now := r.timeProvider.Now().UTC()
	_, err = r.DB.ExecContext(ctx, `
		UPDATE job_records
		SET scraped_data = COALESCE(scraped_data, $2),
		    company_name = COALESCE(company_name, NULLIF($3, '')),
		    scraped_at = COALESCE(scraped_at, $4),
		    updated_at = $4
		WHERE url = $1
	`, url, payload, fields.CompanyName, now)
	if err != nil {
		return fmt.Errorf("set scraped data: %w", err)
	}
	return nil
}

// SetFilter stores the strike filter verdict.
func (r *JobRecordRepo) SetFilter(ctx context.Context, url string, result *model.FilterResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal filter result: %w", err)
	}

	now := r.timeProvider.Now().UTC()
	_, err = r.DB.ExecContext(ctx, `
		UPDATE job_records
		SET filter_result = COALESCE(filter_result, $2),
		    filtered_at = COALESCE(filtered_at, $3),
		    updated_at = $3
		WHERE url = $1
	`, url, payload, now)
	if err != nil {
		return fmt.Errorf("set filter result: %w", err)
	}
	return nil
}

// SetAnalysis stores the match analysis. Unlike the other stages this write
// overwrites, so an explicit re-analysis request can land a fresh verdict.
func (r *JobRecordRepo) SetAnalysis(ctx context.Context, url string, analysis *model.MatchAnalysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	now := r.timeProvider.Now().UTC()
	_, err = r.DB.ExecContext(ctx, `
		UPDATE job_records
		SET analysis = $2,
		    analyzed_at = $3,
		    updated_at = $3
		WHERE url = $1
	`, url, payload, now)
	if err != nil {
		return fmt.Errorf("set analysis: %w", err)
	}
	return nil
}

type jobRecordScanner interface {
	Scan(dest ...any) error
}

func scanJobRecord(scanner jobRecordScanner) (*model.JobRecord, error) {
	record := &model.JobRecord{}
	var companyName sql.NullString
	var scrapedData, filterResult, analysis []byte
	var scrapedAt, filteredAt, analyzedAt sql.NullTime

	if err := scanner.Scan(
		&record.URL,
		&companyName,
		&scrapedData,
		&filterResult,
		&analysis,
		&scrapedAt,
		&filteredAt,
		&analyzedAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if companyName.Valid {
		record.CompanyName = companyName.String
	}
	if len(scrapedData) > 0 {
		if err := json.Unmarshal(scrapedData, &record.ScrapedData); err != nil {
			return nil, fmt.Errorf("unmarshal scraped data: %w", err)
		}
	}
	if len(filterResult) > 0 {
		if err := json.Unmarshal(filterResult, &record.Filter); err != nil {
			return nil, fmt.Errorf("unmarshal filter result: %w", err)
		}
	}
	if len(analysis) > 0 {
		if err := json.Unmarshal(analysis, &record.Analysis); err != nil {
			return nil, fmt.Errorf("unmarshal analysis: %w", err)
		}
	}
	record.ScrapedAt = cloneNullableTime(scrapedAt)
	record.FilteredAt = cloneNullableTime(filteredAt)
	record.AnalyzedAt = cloneNullableTime(analyzedAt)
	return record, nil
}
