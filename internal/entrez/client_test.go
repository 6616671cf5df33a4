package entrez

import (
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aldendirks/mycotool/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("testing.(*T).Run"),
		goleak.IgnoreTopFunction("runtime.gopark"),
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}

// setupHTTPMock activates httpmock and returns a cleanup function.
func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

// createTestConfig returns a client config with fast settings for tests.
func createTestConfig(opts ...func(*Config)) Config {
	cfg := DefaultConfig()
	cfg.Email = "test@example.org"
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

const esearchURL = `=~^https://eutils\.ncbi\.nlm\.nih\.gov/entrez/eutils/esearch\.fcgi`
const efetchURL = `=~^https://eutils\.ncbi\.nlm\.nih\.gov/entrez/eutils/efetch\.fcgi`

func TestNewClientAppliesDefaults(t *testing.T) {
	client := NewClient(Config{})

	assert.Equal(t, DefaultConfig().Email, client.config.Email)
	assert.Equal(t, DefaultConfig().BaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultConfig().BatchSize, client.config.BatchSize)
	assert.Equal(t, DefaultConfig().Timeout, client.config.Timeout)
}

func TestNewClientRateDependsOnAPIKey(t *testing.T) {
	withoutKey := NewClient(createTestConfig())
	withKey := NewClient(createTestConfig(func(c *Config) { c.APIKey = "secret" }))

	assert.InDelta(t, 3.0, float64(withoutKey.limiter.Limit()), 0.01)
	assert.InDelta(t, 10.0, float64(withKey.limiter.Limit()), 0.01)
}

func TestESearchBuildsRequest(t *testing.T) {
	setupHTTPMock(t)

	var gotQuery map[string]string
	httpmock.RegisterResponder("GET", esearchURL,
		func(req *http.Request) (*http.Response, error) {
			gotQuery = map[string]string{
				"db":      req.URL.Query().Get("db"),
				"term":    req.URL.Query().Get("term"),
				"retmax":  req.URL.Query().Get("retmax"),
				"retmode": req.URL.Query().Get("retmode"),
				"email":   req.URL.Query().Get("email"),
				"tool":    req.URL.Query().Get("tool"),
			}
			return httpmock.NewStringResponse(200,
				`{"esearchresult": {"count": "2", "idlist": ["101", "102"]}}`), nil
		})

	client := NewClient(createTestConfig())
	result, err := client.ESearch(t.Context(), "Pseudorhizina[Organism] AND internal[All Fields]", 2)
	require.NoError(t, err)

	assert.Equal(t, "nucleotide", gotQuery["db"])
	assert.Equal(t, "Pseudorhizina[Organism] AND internal[All Fields]", gotQuery["term"])
	assert.Equal(t, "2", gotQuery["retmax"])
	assert.Equal(t, "json", gotQuery["retmode"])
	assert.Equal(t, "test@example.org", gotQuery["email"])
	assert.Equal(t, "mycotool", gotQuery["tool"])

	assert.Equal(t, 2, result.Count)
	assert.Equal(t, []string{"101", "102"}, result.IDs)
}

func TestESearchSendsAPIKey(t *testing.T) {
	setupHTTPMock(t)

	var gotKey string
	httpmock.RegisterResponder("GET", esearchURL,
		func(req *http.Request) (*http.Response, error) {
			gotKey = req.URL.Query().Get("api_key")
			return httpmock.NewStringResponse(200,
				`{"esearchresult": {"count": "0", "idlist": []}}`), nil
		})

	client := NewClient(createTestConfig(func(c *Config) { c.APIKey = "secret" }))
	_, err := client.ESearch(t.Context(), "query", 0)
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
}

func TestESearchMalformedResponse(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", esearchURL,
		httpmock.NewStringResponder(200, `<html>down for maintenance</html>`))

	client := NewClient(createTestConfig())
	_, err := client.ESearch(t.Context(), "query", 0)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryJSONParsing))
}

func TestESearchNonNumericCount(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", esearchURL,
		httpmock.NewStringResponder(200, `{"esearchresult": {"count": "many", "idlist": []}}`))

	client := NewClient(createTestConfig())
	_, err := client.ESearch(t.Context(), "query", 0)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryJSONParsing))
}

func TestESearchErrorCategories(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		category   errors.ErrorCategory
	}{
		{"server error", 500, errors.CategoryNetwork},
		{"unauthorized", 401, errors.CategoryConfiguration},
		{"rate limited", 429, errors.CategoryLimit},
		{"not found", 404, errors.CategoryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHTTPMock(t)
			httpmock.RegisterResponder("GET", esearchURL,
				httpmock.NewStringResponder(tt.statusCode, `error`))

			client := NewClient(createTestConfig())
			_, err := client.ESearch(t.Context(), "query", 0)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, tt.category),
				"status %d should map to category %s", tt.statusCode, tt.category)
		})
	}
}

func TestEFetchPostsIDsAsForm(t *testing.T) {
	setupHTTPMock(t)

	var gotForm map[string]string
	httpmock.RegisterResponder("POST", efetchURL,
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseForm())
			gotForm = map[string]string{
				"db":      req.PostFormValue("db"),
				"id":      req.PostFormValue("id"),
				"rettype": req.PostFormValue("rettype"),
				"retmode": req.PostFormValue("retmode"),
			}
			return httpmock.NewStringResponse(200, ">AB1.1 Test record\nACGT\n"), nil
		})

	client := NewClient(createTestConfig())
	text, err := client.EFetch(t.Context(), []string{"101", "102"}, "fasta", "text")
	require.NoError(t, err)

	assert.Equal(t, "nucleotide", gotForm["db"])
	assert.Equal(t, "101,102", gotForm["id"])
	assert.Equal(t, "fasta", gotForm["rettype"])
	assert.Equal(t, "text", gotForm["retmode"])
	assert.Equal(t, ">AB1.1 Test record\nACGT\n", text)
}

func TestEFetchEmptyIDs(t *testing.T) {
	setupHTTPMock(t)

	client := NewClient(createTestConfig())
	text, err := client.EFetch(t.Context(), nil, "fasta", "text")
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, 0, httpmock.GetTotalCallCount(), "empty id list should not hit the API")
}
