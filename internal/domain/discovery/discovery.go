// Package discovery validates candidate source URLs against known ATS
// signatures and extracts job posting URLs from source listing payloads.
package discovery

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/jobscout/jobscout/internal/domain/model"
	"github.com/jobscout/jobscout/internal/urlutil"
)

// Detection is the result of matching a URL against source-type signatures.
type Detection struct {
	SourceType model.SourceType
	Confidence model.SourceConfidence
}

// Detect classifies a candidate source URL. Known ATS hosts detect with high
// confidence, structural hints (feeds, API paths) with medium, and anything
// else falls back to a low-confidence generic HTML page.
func Detect(rawURL string) (Detection, error) {
	normalized, err := urlutil.Normalize(rawURL)
	if err != nil {
		return Detection{}, fmt.Errorf("detect source type: %w", err)
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return Detection{}, fmt.Errorf("detect source type: %w", err)
	}

	host := u.Hostname()
	path := strings.ToLower(u.Path)

	switch {
	case host == "boards.greenhouse.io" || host == "boards-api.greenhouse.io" ||
		strings.HasSuffix(host, ".greenhouse.io"):
		return Detection{SourceType: model.SourceTypeGreenhouse, Confidence: model.ConfidenceHigh}, nil
	case host == "jobs.lever.co" || host == "api.lever.co":
		return Detection{SourceType: model.SourceTypeLever, Confidence: model.ConfidenceHigh}, nil
	case strings.HasSuffix(host, ".myworkdayjobs.com") || strings.HasSuffix(host, ".wd1.myworkdaysite.com"):
		return Detection{SourceType: model.SourceTypeWorkday, Confidence: model.ConfidenceHigh}, nil
	case strings.HasSuffix(path, ".rss") || strings.HasSuffix(path, ".atom") ||
		strings.HasSuffix(path, "/feed") || strings.HasSuffix(path, "/rss"):
		return Detection{SourceType: model.SourceTypeRSS, Confidence: model.ConfidenceMedium}, nil
	case strings.Contains(path, "/api/") || strings.HasSuffix(path, ".json"):
		return Detection{SourceType: model.SourceTypeAPI, Confidence: model.ConfidenceMedium}, nil
	default:
		return Detection{SourceType: model.SourceTypeGenericHTML, Confidence: model.ConfidenceLow}, nil
	}
}

// Evaluator abstracts JMESPath operations for testability.
type Evaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

type jmespathLibEvaluator struct{}

func (j jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (j jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// listingExprs maps each JSON-shaped source type to the JMESPath expression
// that pulls job URLs out of its listing payload.
var listingExprs = map[model.SourceType]string{
	model.SourceTypeGreenhouse: "jobs[].absolute_url",
	model.SourceTypeLever:      "[].hostedUrl",
	model.SourceTypeWorkday:    "jobPostings[].externalPath",
	model.SourceTypeAPI:        "jobs[].url",
}

// hrefPattern pulls link targets out of HTML and XML listing bodies.
var hrefPattern = regexp.MustCompile(`(?i)(?:href="([^"]+)"|<link>([^<]+)</link>)`)

// ExtractorOptions groups dependencies for Extractor.
type ExtractorOptions struct {
	// Evaluator overrides the JMESPath engine, for tests.
	Evaluator Evaluator
}

// Extractor turns a raw source listing body into normalized job URLs.
type Extractor struct {
	jems Evaluator
}

// NewExtractor constructs an Extractor.
func NewExtractor(opts ExtractorOptions) *Extractor {
	jems := opts.Evaluator
	if jems == nil {
		jems = jmespathLibEvaluator{}
	}
	return &Extractor{jems: jems}
}

// JobURLs extracts the job posting URLs from a listing body. JSON sources
// are queried with a per-type JMESPath expression; RSS and generic HTML fall
// back to link scanning. Relative paths resolve against the source URL, and
// the result is normalized and deduplicated in listing order.
func (e *Extractor) JobURLs(sourceType model.SourceType, sourceURL string, body []byte) ([]string, error) {
	base, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url %q: %w", sourceURL, err)
	}

	var raw []string
	if expr, ok := listingExprs[sourceType]; ok {
		raw, err = e.jsonURLs(expr, body)
		if err != nil {
			return nil, err
		}
	} else {
		raw = scanLinks(body)
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, candidate := range raw {
		resolved := candidate
		if ref, perr := url.Parse(candidate); perr == nil && !ref.IsAbs() {
			resolved = base.ResolveReference(ref).String()
		}
		normalized, nerr := urlutil.Normalize(resolved)
		if nerr != nil {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out, nil
}

func (e *Extractor) jsonURLs(expr string, body []byte) ([]string, error) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parse listing json: %w", err)
	}
	result, err := e.jems.Evaluate(expr, data)
	if err != nil {
		return nil, fmt.Errorf("evaluate listing expression %q: %w", expr, err)
	}
	items, ok := result.([]any)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// scanLinks collects href and <link> targets that look like job postings.
func scanLinks(body []byte) []string {
	matches := hrefPattern.FindAllStringSubmatch(string(body), -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		target := m[1]
		if target == "" {
			target = m[2]
		}
		target = strings.TrimSpace(target)
		if target == "" || strings.HasPrefix(target, "#") || strings.HasPrefix(target, "mailto:") {
			continue
		}
		lower := strings.ToLower(target)
		if strings.Contains(lower, "/job") || strings.Contains(lower, "/careers/") ||
			strings.Contains(lower, "/positions/") || strings.Contains(lower, "/openings/") {
			out = append(out, target)
		}
	}
	return out
}
