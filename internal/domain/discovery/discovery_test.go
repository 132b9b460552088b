package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobscout/jobscout/internal/domain/model"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		wantType       model.SourceType
		wantConfidence model.SourceConfidence
	}{
		{
			name:           "greenhouse board",
			url:            "https://boards.greenhouse.io/acme",
			wantType:       model.SourceTypeGreenhouse,
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "greenhouse api",
			url:            "https://boards-api.greenhouse.io/v1/boards/acme/jobs",
			wantType:       model.SourceTypeGreenhouse,
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "lever board",
			url:            "https://jobs.lever.co/acme",
			wantType:       model.SourceTypeLever,
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "workday board",
			url:            "https://acme.myworkdayjobs.com/en-US/External",
			wantType:       model.SourceTypeWorkday,
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "rss feed",
			url:            "https://acme.example/careers/feed",
			wantType:       model.SourceTypeRSS,
			wantConfidence: model.ConfidenceMedium,
		},
		{
			name:           "json api",
			url:            "https://acme.example/api/v2/postings",
			wantType:       model.SourceTypeAPI,
			wantConfidence: model.ConfidenceMedium,
		},
		{
			name:           "generic careers page",
			url:            "https://acme.example/careers",
			wantType:       model.SourceTypeGenericHTML,
			wantConfidence: model.ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det, err := Detect(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, det.SourceType)
			assert.Equal(t, tt.wantConfidence, det.Confidence)
		})
	}
}

func TestDetect_InvalidURL(t *testing.T) {
	_, err := Detect("   ")
	assert.Error(t, err)
}

func TestJobURLs_Greenhouse(t *testing.T) {
	body := []byte(`{
		"jobs": [
			{"id": 1, "absolute_url": "https://boards.greenhouse.io/acme/jobs/100"},
			{"id": 2, "absolute_url": "https://boards.greenhouse.io/acme/jobs/101"},
			{"id": 3, "absolute_url": "https://boards.greenhouse.io/acme/jobs/100"}
		]
	}`)

	ex := NewExtractor(ExtractorOptions{})
	urls, err := ex.JobURLs(model.SourceTypeGreenhouse, "https://boards.greenhouse.io/acme", body)
	require.NoError(t, err)

	// Duplicates collapse, listing order preserved.
	assert.Equal(t, []string{
		"https://boards.greenhouse.io/acme/jobs/100",
		"https://boards.greenhouse.io/acme/jobs/101",
	}, urls)
}

func TestJobURLs_LeverTopLevelArray(t *testing.T) {
	body := []byte(`[
		{"id": "a", "hostedUrl": "https://jobs.lever.co/acme/a"},
		{"id": "b", "hostedUrl": "https://jobs.lever.co/acme/b"}
	]`)

	ex := NewExtractor(ExtractorOptions{})
	urls, err := ex.JobURLs(model.SourceTypeLever, "https://api.lever.co/v0/postings/acme", body)
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestJobURLs_WorkdayRelativePaths(t *testing.T) {
	body := []byte(`{
		"jobPostings": [
			{"externalPath": "/en-US/External/job/Remote/Engineer_R100"},
			{"externalPath": "/en-US/External/job/Remote/Engineer_R101"}
		]
	}`)

	ex := NewExtractor(ExtractorOptions{})
	urls, err := ex.JobURLs(model.SourceTypeWorkday, "https://acme.myworkdayjobs.com/wday/cxs/acme/External/jobs", body)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.Equal(t, "https://acme.myworkdayjobs.com/en-US/External/job/Remote/Engineer_R100", urls[0])
}

func TestJobURLs_GenericHTML(t *testing.T) {
	body := []byte(`<html><body>
		<a href="/jobs/42">Engineer</a>
		<a href="https://acme.example/jobs/43">Another</a>
		<a href="/about">About us</a>
		<a href="#top">Top</a>
	</body></html>`)

	ex := NewExtractor(ExtractorOptions{})
	urls, err := ex.JobURLs(model.SourceTypeGenericHTML, "https://acme.example/careers", body)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://acme.example/jobs/42",
		"https://acme.example/jobs/43",
	}, urls)
}

func TestJobURLs_RSSLinks(t *testing.T) {
	body := []byte(`<rss><channel>
		<item><link>https://acme.example/jobs/50</link></item>
		<item><link>https://acme.example/jobs/51</link></item>
	</channel></rss>`)

	ex := NewExtractor(ExtractorOptions{})
	urls, err := ex.JobURLs(model.SourceTypeRSS, "https://acme.example/careers/feed", body)
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestJobURLs_BadJSON(t *testing.T) {
	ex := NewExtractor(ExtractorOptions{})
	_, err := ex.JobURLs(model.SourceTypeGreenhouse, "https://boards.greenhouse.io/acme", []byte("<html>"))
	assert.Error(t, err)
}

type fixedEvaluator struct {
	result any
	err    error
}

func (f fixedEvaluator) Validate(string) error { return nil }
func (f fixedEvaluator) Evaluate(string, any) (any, error) {
	return f.result, f.err
}

func TestJobURLs_NonListResultIsEmpty(t *testing.T) {
	ex := NewExtractor(ExtractorOptions{Evaluator: fixedEvaluator{result: "not-a-list"}})
	urls, err := ex.JobURLs(model.SourceTypeAPI, "https://acme.example/api/jobs", []byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, urls)
}
