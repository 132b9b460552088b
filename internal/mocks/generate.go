// Package mocks provides mock implementations for testing the jobscout pipeline.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the repository and collaborator interfaces in internal/core. The mocks are
// generated using go:generate directives and provide a fluent API for setting
// up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockQueueRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(item, nil)
package mocks

// Generate mock for QueueRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=queue_repository_mock.go github.com/jobscout/jobscout/internal/core QueueRepository

// Generate mock for SweeperRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=sweeper_repository_mock.go github.com/jobscout/jobscout/internal/core SweeperRepository

// Generate mock for JobRecordRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_record_repository_mock.go github.com/jobscout/jobscout/internal/core JobRecordRepository

// Generate mock for CompanyRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=company_repository_mock.go github.com/jobscout/jobscout/internal/core CompanyRepository

// Generate mock for SourceRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=source_repository_mock.go github.com/jobscout/jobscout/internal/core SourceRepository

// Generate mock for SeenURLCache interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=seen_url_cache_mock.go github.com/jobscout/jobscout/internal/core SeenURLCache

// Generate mock for Scraper interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=scraper_mock.go github.com/jobscout/jobscout/internal/core Scraper

// Generate mock for Extractor interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=extractor_mock.go github.com/jobscout/jobscout/internal/core Extractor
