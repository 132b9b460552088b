package config

import (
	"strings"
	"time"

	"github.com/jobscout/jobscout/internal/domain/filter"
	"github.com/jobscout/jobscout/internal/domain/model"
)

// PipelineConfig contains queue pipeline behavior configuration.
type PipelineConfig struct {
	// MaxSpawnDepth bounds how deep a spawn chain may grow.
	MaxSpawnDepth int `env:"PIPELINE_MAX_SPAWN_DEPTH" envDefault:"10"`

	// DefaultMaxRetries is the retry budget for submitted items that do not
	// specify their own.
	DefaultMaxRetries int `env:"PIPELINE_DEFAULT_MAX_RETRIES" envDefault:"3"`

	// MaxWaits bounds how many dependency-wait requeues an item may take.
	MaxWaits int `env:"PIPELINE_MAX_WAITS" envDefault:"60"`

	// DependencyDelay is the requeue delay while waiting on a dependency.
	DependencyDelay time.Duration `env:"PIPELINE_DEPENDENCY_DELAY" envDefault:"1m"`

	// RetryBaseDelay is the first retry backoff; it doubles per retry.
	RetryBaseDelay time.Duration `env:"PIPELINE_RETRY_BASE_DELAY" envDefault:"30s"`

	// RetryMaxDelay caps the retry backoff.
	RetryMaxDelay time.Duration `env:"PIPELINE_RETRY_MAX_DELAY" envDefault:"30m"`

	// CompanyFreshness is how long a healthy company record stays fresh
	// before re-analysis.
	CompanyFreshness time.Duration `env:"PIPELINE_COMPANY_FRESHNESS" envDefault:"720h"` // 30 days

	// SourceDisableThreshold disables a source after this many consecutive
	// scrape failures.
	SourceDisableThreshold int `env:"PIPELINE_SOURCE_DISABLE_THRESHOLD" envDefault:"5"`

	// SeenURLTTL is how long a discovered posting URL stays in the
	// best-effort dedupe cache.
	SeenURLTTL time.Duration `env:"PIPELINE_SEEN_URL_TTL" envDefault:"168h"` // 7 days
}

// Sanitize applies guardrails to pipeline configuration values.
func (p *PipelineConfig) Sanitize() {
	if p.MaxSpawnDepth < 1 {
		p.MaxSpawnDepth = 1
	}
	if p.DefaultMaxRetries < 0 {
		p.DefaultMaxRetries = 0
	}
	if p.MaxWaits < 1 {
		p.MaxWaits = 1
	}
	if p.DependencyDelay < time.Second {
		p.DependencyDelay = time.Second
	}
	if p.RetryBaseDelay < time.Second {
		p.RetryBaseDelay = time.Second
	}
	if p.RetryMaxDelay < p.RetryBaseDelay {
		p.RetryMaxDelay = p.RetryBaseDelay
	}
	if p.CompanyFreshness < time.Hour {
		p.CompanyFreshness = time.Hour
	}
	if p.SourceDisableThreshold < 1 {
		p.SourceDisableThreshold = 1
	}
	if p.SeenURLTTL < time.Minute {
		p.SeenURLTTL = time.Minute
	}
}

// FilterConfig contains the tunable strike filter parameters. Keyword lists
// keep their code defaults; only the numeric knobs are exposed as env vars.
type FilterConfig struct {
	// StrikeThreshold fails a job when total strikes reach it.
	StrikeThreshold int `env:"FILTER_STRIKE_THRESHOLD" envDefault:"3"`

	// HardSalaryFloor rejects outright when the stated ceiling is below it.
	HardSalaryFloor int `env:"FILTER_HARD_SALARY_FLOOR" envDefault:"120000"`

	// SoftSalaryFloor adds strikes when the stated ceiling is below it.
	SoftSalaryFloor int `env:"FILTER_SOFT_SALARY_FLOOR" envDefault:"150000"`

	// PreferredExperienceYears strikes postings asking for less.
	PreferredExperienceYears int `env:"FILTER_PREFERRED_EXPERIENCE_YEARS" envDefault:"5"`

	// MinDescriptionChars strikes postings with thinner descriptions.
	MinDescriptionChars int `env:"FILTER_MIN_DESCRIPTION_CHARS" envDefault:"200"`

	// BuzzwordStrikeCount is how many buzzword hits earn a strike.
	BuzzwordStrikeCount int `env:"FILTER_BUZZWORD_STRIKE_COUNT" envDefault:"5"`
}

// Sanitize applies guardrails to filter configuration values.
func (f *FilterConfig) Sanitize() {
	if f.StrikeThreshold < 1 {
		f.StrikeThreshold = 1
	}
	if f.HardSalaryFloor < 0 {
		f.HardSalaryFloor = 0
	}
	if f.SoftSalaryFloor < f.HardSalaryFloor {
		f.SoftSalaryFloor = f.HardSalaryFloor
	}
	if f.MinDescriptionChars < 0 {
		f.MinDescriptionChars = 0
	}
	if f.BuzzwordStrikeCount < 1 {
		f.BuzzwordStrikeCount = 1
	}
}

// EngineConfig builds a filter engine configuration from the stock rule set
// with the tunable knobs applied.
func (f *FilterConfig) EngineConfig() filter.Config {
	cfg := filter.DefaultConfig()
	cfg.StrikeThreshold = f.StrikeThreshold
	cfg.HardSalaryFloor = f.HardSalaryFloor
	cfg.SoftSalaryFloor = f.SoftSalaryFloor
	cfg.PreferredExperienceYears = f.PreferredExperienceYears
	cfg.MinDescriptionChars = f.MinDescriptionChars
	cfg.BuzzwordStrikeCount = f.BuzzwordStrikeCount
	return cfg
}

// ProfileConfig describes the user profile jobs are scored against.
type ProfileConfig struct {
	// Skills is the comma-separated skill list the analyzer matches on.
	Skills []string `env:"PROFILE_SKILLS" envDefault:"go,postgres,kubernetes"`

	// PreferredTitles biases analysis toward these titles.
	PreferredTitles []string `env:"PROFILE_PREFERRED_TITLES" envDefault:""`

	// MinYearsRelevant is the experience the profile claims.
	MinYearsRelevant int `env:"PROFILE_MIN_YEARS_RELEVANT" envDefault:"5"`

	// Summary is a short free-text profile summary fed to the analyzer.
	Summary string `env:"PROFILE_SUMMARY" envDefault:""`
}

// Profile builds the match profile handed to the analyzer.
func (p *ProfileConfig) Profile() *model.MatchProfile {
	return &model.MatchProfile{
		Skills:           trimAll(p.Skills),
		PreferredTitles:  trimAll(p.PreferredTitles),
		MinYearsRelevant: p.MinYearsRelevant,
		Summary:          strings.TrimSpace(p.Summary),
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
