// Package filter implements the strike filter engine: a pure function from
// extracted job fields to a pass/fail verdict with itemized reasons.
//
// Evaluation runs in two phases. Hard rules all run first; if any fired the
// job is rejected immediately and no strikes accumulate. Otherwise every
// strike rule contributes weighted points and the job passes while the total
// stays under the threshold. Every firing rule is recorded, pass or fail, so
// callers can always explain the verdict.
package filter

import (
	"fmt"
	"strings"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// Config holds the filter rule parameters. Zero values are not usable;
// start from DefaultConfig and override.
type Config struct {
	// StrikeThreshold fails the job when total strikes reach it.
	StrikeThreshold int

	// HardSalaryFloor rejects outright when the stated salary ceiling is
	// below it. A missing salary never rejects.
	HardSalaryFloor int

	// SoftSalaryFloor adds strikes when the stated ceiling is below it.
	SoftSalaryFloor int

	// PreferredExperienceYears strikes postings asking for less.
	PreferredExperienceYears int

	// MinDescriptionChars strikes postings with thinner descriptions.
	MinDescriptionChars int

	// BuzzwordStrikeCount is how many buzzword hits earn a strike.
	BuzzwordStrikeCount int

	ExcludedTitleKeywords     []string
	ExcludedSeniorityKeywords []string
	ScamKeywords              []string
	ClearanceKeywords         []string
	ExcludedCompanies         []string
	AllowedHybridCities       []string

	BadTechKeywords    []string
	GoodTechKeywords   []string
	WeakRemoteKeywords []string
	BuzzwordKeywords   []string

	// SeniorityMismatchStrikes maps a title keyword to its strike weight,
	// for levels that are wrong-but-not-fatal (e.g. director-level roles).
	SeniorityMismatchStrikes map[string]int
}

// DefaultConfig returns the stock rule set.
func DefaultConfig() Config {
	return Config{
		StrikeThreshold:          3,
		HardSalaryFloor:          120_000,
		SoftSalaryFloor:          150_000,
		PreferredExperienceYears: 5,
		MinDescriptionChars:      200,
		BuzzwordStrikeCount:      5,
		ExcludedTitleKeywords: []string{
			"sales", "account executive", "recruiter", "human resources",
			"hr generalist", "customer support", "support engineer", "success manager",
		},
		ExcludedSeniorityKeywords: []string{"junior", "intern", "internship", "associate", "entry level", "entry-level"},
		ScamKeywords:              []string{"commission only", "commission-only", "mlm", "multi-level marketing", "unlimited earning potential"},
		ClearanceKeywords:         []string{"security clearance", "ts/sci", "relocation required", "must relocate"},
		AllowedHybridCities:       []string{},
		BadTechKeywords:           []string{"ruby", "rails", "php", "wordpress", "coldfusion", "vb.net", "sharepoint"},
		GoodTechKeywords:          []string{"go", "golang", "rust", "kubernetes", "postgres", "terraform", "kafka"},
		WeakRemoteKeywords:        []string{"remote-friendly", "remote possible", "occasional remote", "flexible work arrangement"},
		BuzzwordKeywords: []string{
			"rockstar", "ninja", "guru", "fast-paced", "wear many hats",
			"work hard play hard", "synergy", "self-starter", "hustle",
		},
		SeniorityMismatchStrikes: map[string]int{
			"lead":      1,
			"manager":   1,
			"director":  2,
			"vp":        2,
			"executive": 2,
		},
	}
}

// Engine evaluates job fields against a fixed rule configuration.
type Engine struct {
	cfg Config
}

// NewEngine constructs a filter engine from the given configuration.
func NewEngine(cfg Config) *Engine {
	if cfg.StrikeThreshold <= 0 {
		cfg.StrikeThreshold = DefaultConfig().StrikeThreshold
	}
	return &Engine{cfg: cfg}
}

// Evaluate runs both phases and returns the full verdict.
func (e *Engine) Evaluate(fields *model.JobFields) model.FilterResult {
	if fields == nil {
		return model.FilterResult{
			Passed: false,
			Rejections: []model.Rejection{{
				Kind:     model.RejectionHard,
				Category: "input",
				Rule:     "missing_fields",
				Reason:   "no extracted fields to evaluate",
			}},
		}
	}

	if hard := e.hardRejections(fields); len(hard) > 0 {
		return model.FilterResult{Passed: false, Rejections: hard}
	}

	strikes := e.strikeRejections(fields)
	total := 0
	for _, s := range strikes {
		total += s.Points
	}

	return model.FilterResult{
		Passed:       total < e.cfg.StrikeThreshold,
		Rejections:   strikes,
		TotalStrikes: total,
	}
}

// hardRejections evaluates every hard rule and returns all that fired.
// All hard rules run so a rejected job reports every fatal reason at once.
func (e *Engine) hardRejections(fields *model.JobFields) []model.Rejection {
	var out []model.Rejection
	title := strings.ToLower(fields.Title)
	description := strings.ToLower(fields.Description)
	haystack := title + " " + description

	if kw := firstMatch(title, e.cfg.ExcludedTitleKeywords); kw != "" {
		out = append(out, hardRejection("job_type", "excluded_title",
			fmt.Sprintf("title matches excluded job type %q", kw)))
	}
	if kw := firstMatch(title, e.cfg.ExcludedSeniorityKeywords); kw != "" {
		out = append(out, hardRejection("seniority", "excluded_seniority",
			fmt.Sprintf("title matches excluded seniority %q", kw)))
	}
	if ceiling, ok := fields.SalaryCeiling(); ok && ceiling < e.cfg.HardSalaryFloor {
		out = append(out, hardRejection("salary", "below_hard_floor",
			fmt.Sprintf("salary ceiling %d below hard floor %d", ceiling, e.cfg.HardSalaryFloor)))
	}
	if kw := firstMatch(haystack, e.cfg.ScamKeywords); kw != "" {
		out = append(out, hardRejection("compensation_model", "commission_or_mlm",
			fmt.Sprintf("posting matches scam keyword %q", kw)))
	}
	if kw := firstMatch(haystack, e.cfg.ClearanceKeywords); kw != "" {
		out = append(out, hardRejection("requirements", "clearance_or_relocation",
			fmt.Sprintf("posting matches disqualifying requirement %q", kw)))
	}
	if rej, violated := e.remotePolicyViolation(fields); violated {
		out = append(out, rej)
	}
	if kw := firstMatch(strings.ToLower(fields.CompanyName), e.cfg.ExcludedCompanies); kw != "" {
		out = append(out, hardRejection("company", "excluded_company",
			fmt.Sprintf("company matches exclusion %q", kw)))
	}

	return out
}

// remotePolicyViolation rejects onsite roles and hybrid roles outside the
// allowed cities. An unknown policy is treated as missing data (neutral
// here; the weak-remote-language strike covers vague postings).
func (e *Engine) remotePolicyViolation(fields *model.JobFields) (model.Rejection, bool) {
	switch fields.RemotePolicy {
	case model.RemotePolicyOnsite:
		return hardRejection("remote_policy", "onsite_only", "role is onsite only"), true
	case model.RemotePolicyHybrid:
		city := strings.ToLower(strings.TrimSpace(fields.HybridCity))
		for _, allowed := range e.cfg.AllowedHybridCities {
			if city == strings.ToLower(allowed) {
				return model.Rejection{}, false
			}
		}
		return hardRejection("remote_policy", "hybrid_city_not_allowed",
			fmt.Sprintf("hybrid role in %q is not in the allowed city list", fields.HybridCity)), true
	default:
		return model.Rejection{}, false
	}
}

func (e *Engine) strikeRejections(fields *model.JobFields) []model.Rejection {
	var out []model.Rejection
	add := func(category, rule, reason string, points int) {
		out = append(out, model.Rejection{
			Kind:     model.RejectionStrike,
			Category: category,
			Rule:     rule,
			Reason:   reason,
			Points:   points,
		})
	}

	title := strings.ToLower(fields.Title)
	description := strings.ToLower(fields.Description)
	stack := strings.ToLower(strings.Join(fields.TechStack, " ") + " " + description)

	// Bad tech fires once per category regardless of how many keywords hit.
	badTech := allMatches(stack, e.cfg.BadTechKeywords)
	if len(badTech) > 0 {
		add("tech_stack", "bad_tech",
			fmt.Sprintf("undesirable tech: %s", strings.Join(badTech, ", ")), 2)
	} else if len(e.cfg.GoodTechKeywords) > 0 && firstMatch(stack, e.cfg.GoodTechKeywords) == "" {
		add("tech_stack", "no_good_tech", "no preferred tech found in posting", 1)
	}

	if ceiling, ok := fields.SalaryCeiling(); ok && ceiling < e.cfg.SoftSalaryFloor {
		add("salary", "below_soft_floor",
			fmt.Sprintf("salary ceiling %d below preferred %d", ceiling, e.cfg.SoftSalaryFloor), 2)
	}

	if fields.ExperienceYears != nil && *fields.ExperienceYears < e.cfg.PreferredExperienceYears {
		add("experience", "below_preferred",
			fmt.Sprintf("asks for %d years, preferred %d+", *fields.ExperienceYears, e.cfg.PreferredExperienceYears), 1)
	}

	for kw, points := range e.cfg.SeniorityMismatchStrikes {
		if containsWord(title, kw) {
			add("seniority", "level_mismatch",
				fmt.Sprintf("title suggests %q level", kw), points)
		}
	}

	if fields.RemotePolicy == model.RemotePolicyUnknown || fields.RemotePolicy == "" {
		add("remote_policy", "unstated_remote", "posting does not state a remote policy", 1)
	} else if kw := firstMatch(description, e.cfg.WeakRemoteKeywords); kw != "" {
		add("remote_policy", "weak_remote_language",
			fmt.Sprintf("weak remote commitment: %q", kw), 1)
	}

	if len(strings.TrimSpace(fields.Description)) < e.cfg.MinDescriptionChars {
		add("description", "too_short",
			fmt.Sprintf("description under %d characters", e.cfg.MinDescriptionChars), 1)
	}

	if n := countMatches(description, e.cfg.BuzzwordKeywords); n >= e.cfg.BuzzwordStrikeCount {
		add("description", "buzzword_density",
			fmt.Sprintf("%d buzzword hits", n), 1)
	}

	return out
}

func hardRejection(category, rule, reason string) model.Rejection {
	return model.Rejection{
		Kind:     model.RejectionHard,
		Category: category,
		Rule:     rule,
		Reason:   reason,
	}
}

// firstMatch returns the first keyword contained in the haystack, or "".
// Both sides are expected lowercased by the caller for keywords that come
// from config (config keywords are lowered here defensively).
func firstMatch(haystack string, keywords []string) string {
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if strings.Contains(haystack, k) {
			return k
		}
	}
	return ""
}

func allMatches(haystack string, keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if containsWord(haystack, k) {
			out = append(out, k)
		}
	}
	return out
}

func countMatches(haystack string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		n += strings.Count(haystack, k)
	}
	return n
}

// containsWord matches a keyword on word boundaries so "go" does not match
// "mongodb". Multi-word keywords fall back to substring matching.
func containsWord(haystack, keyword string) bool {
	if strings.ContainsRune(keyword, ' ') {
		return strings.Contains(haystack, keyword)
	}
	start := 0
	for {
		idx := strings.Index(haystack[start:], keyword)
		if idx < 0 {
			return false
		}
		abs := start + idx
		end := abs + len(keyword)
		beforeOK := abs == 0 || !isWordChar(haystack[abs-1])
		afterOK := end >= len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		start = abs + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_' || b >= 'A' && b <= 'Z'
}
