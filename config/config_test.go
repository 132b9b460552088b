package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:  "single service - worker",
			input: "worker",
			expected: map[ServiceMode]bool{
				ServiceModeWorker: true,
			},
		},
		{
			name:  "single service - scheduler",
			input: "scheduler",
			expected: map[ServiceMode]bool{
				ServiceModeScheduler: true,
			},
		},
		{
			name:  "all services",
			input: "worker,scheduler,sweeper",
			expected: map[ServiceMode]bool{
				ServiceModeWorker:    true,
				ServiceModeScheduler: true,
				ServiceModeSweeper:   true,
			},
		},
		{
			name:  "services with spaces",
			input: " worker , sweeper ",
			expected: map[ServiceMode]bool{
				ServiceModeWorker:  true,
				ServiceModeSweeper: true,
			},
		},
		{
			name:  "duplicate services",
			input: "worker,worker,scheduler",
			expected: map[ServiceMode]bool{
				ServiceModeWorker:    true,
				ServiceModeScheduler: true,
			},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only commas",
			input:       ",,,",
			expectError: true,
		},
		{
			name:        "invalid service name",
			input:       "worker,http",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("ParseServices(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseServices(%q) unexpected error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseServices(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Services != "worker" {
		t.Errorf("Services default = %q, want worker", cfg.Services)
	}
	if !cfg.IsWorkerEnabled() {
		t.Error("worker should be enabled by default")
	}
	if cfg.IsSchedulerEnabled() || cfg.IsSweeperEnabled() {
		t.Error("scheduler and sweeper should be disabled by default")
	}
	if cfg.Postgres.Name != "jobscout" {
		t.Errorf("Postgres.Name default = %q, want jobscout", cfg.Postgres.Name)
	}
	if cfg.Worker.Concurrency != 4 {
		t.Errorf("Worker.Concurrency default = %d, want 4", cfg.Worker.Concurrency)
	}
	if cfg.Worker.LeaseSeconds() != 300 {
		t.Errorf("Worker.LeaseSeconds() = %d, want 300", cfg.Worker.LeaseSeconds())
	}
	if cfg.Pipeline.MaxSpawnDepth != 10 {
		t.Errorf("Pipeline.MaxSpawnDepth default = %d, want 10", cfg.Pipeline.MaxSpawnDepth)
	}
	if cfg.Filter.StrikeThreshold != 3 {
		t.Errorf("Filter.StrikeThreshold default = %d, want 3", cfg.Filter.StrikeThreshold)
	}
	if cfg.Sweeper.FilteredMaxAge != 720*time.Hour {
		t.Errorf("Sweeper.FilteredMaxAge default = %v, want 720h", cfg.Sweeper.FilteredMaxAge)
	}
}

func TestSanitizeGuardrails(t *testing.T) {
	cfg := AppConfig{
		Worker:    WorkerConfig{Concurrency: 0, Lease: time.Second, IdleInterval: 0},
		Scheduler: SchedulerConfig{ScrapeInterval: time.Second, BatchSize: 0},
		Sweeper:   SweeperConfig{Interval: time.Second, BatchSize: 100_000},
		Pipeline:  PipelineConfig{MaxSpawnDepth: 0, RetryBaseDelay: time.Minute, RetryMaxDelay: time.Second},
		Filter:    FilterConfig{StrikeThreshold: 0, HardSalaryFloor: 100_000, SoftSalaryFloor: 50_000},
	}
	cfg.Sanitize()

	if cfg.Worker.Concurrency != 1 {
		t.Errorf("Worker.Concurrency = %d, want 1", cfg.Worker.Concurrency)
	}
	if cfg.Worker.Lease != 30*time.Second {
		t.Errorf("Worker.Lease = %v, want 30s", cfg.Worker.Lease)
	}
	if cfg.Scheduler.ScrapeInterval != time.Minute {
		t.Errorf("Scheduler.ScrapeInterval = %v, want 1m", cfg.Scheduler.ScrapeInterval)
	}
	if cfg.Sweeper.BatchSize != 10000 {
		t.Errorf("Sweeper.BatchSize = %d, want 10000", cfg.Sweeper.BatchSize)
	}
	if cfg.Pipeline.RetryMaxDelay != cfg.Pipeline.RetryBaseDelay {
		t.Errorf("Pipeline.RetryMaxDelay = %v, want %v", cfg.Pipeline.RetryMaxDelay, cfg.Pipeline.RetryBaseDelay)
	}
	if cfg.Filter.SoftSalaryFloor != cfg.Filter.HardSalaryFloor {
		t.Errorf("Filter.SoftSalaryFloor = %d, want %d", cfg.Filter.SoftSalaryFloor, cfg.Filter.HardSalaryFloor)
	}
}

func TestFilterEngineConfigAppliesKnobs(t *testing.T) {
	f := FilterConfig{
		StrikeThreshold:          4,
		HardSalaryFloor:          100_000,
		SoftSalaryFloor:          140_000,
		PreferredExperienceYears: 3,
		MinDescriptionChars:      100,
		BuzzwordStrikeCount:      2,
	}
	cfg := f.EngineConfig()

	if cfg.StrikeThreshold != 4 {
		t.Errorf("StrikeThreshold = %d, want 4", cfg.StrikeThreshold)
	}
	if cfg.HardSalaryFloor != 100_000 {
		t.Errorf("HardSalaryFloor = %d, want 100000", cfg.HardSalaryFloor)
	}
	if len(cfg.GoodTechKeywords) == 0 {
		t.Error("keyword lists should keep their stock defaults")
	}
}

func TestProfileConfigTrims(t *testing.T) {
	p := ProfileConfig{
		Skills:           []string{" go ", "", "postgres"},
		PreferredTitles:  []string{"Staff Engineer "},
		MinYearsRelevant: 7,
		Summary:          "  backend generalist  ",
	}
	profile := p.Profile()

	if !reflect.DeepEqual(profile.Skills, []string{"go", "postgres"}) {
		t.Errorf("Skills = %v", profile.Skills)
	}
	if !reflect.DeepEqual(profile.PreferredTitles, []string{"Staff Engineer"}) {
		t.Errorf("PreferredTitles = %v", profile.PreferredTitles)
	}
	if profile.Summary != "backend generalist" {
		t.Errorf("Summary = %q", profile.Summary)
	}
}
