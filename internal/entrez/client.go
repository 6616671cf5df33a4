// Package entrez provides a client for the NCBI Entrez E-utilities, used to
// search and download nucleotide sequences from GenBank.
package entrez

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/aldendirks/mycotool/internal/conf"
	"github.com/aldendirks/mycotool/internal/errors"
	"github.com/aldendirks/mycotool/internal/logging"
)

// Package-level logger specific to entrez service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	// Define log file path relative to working directory
	logFilePath := filepath.Join("logs", "entrez.log")
	initialLevel := slog.LevelDebug // Set desired initial level
	serviceLevelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "entrez", serviceLevelVar)
	if err != nil {
		// Fallback: Log error to standard log and potentially disable service logging
		log.Printf("FATAL: Failed to initialize entrez file logger at %s: %v. Service logging disabled.", logFilePath, err)
		// Set logger to a disabled handler to prevent nil panics, but respects level var
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "entrez")
		closeLogger = func() error { return nil } // No-op closer
	}
}

// Client provides access to the NCBI Entrez E-utilities
type Client struct {
	config      Config
	httpClient  *http.Client
	limiter     *rate.Limiter
	debug       bool      // Enable debug logging
	firstCallMu sync.Once // Track first successful API call
}

// NewClient creates a new Entrez client. Requests are paced to the NCBI
// courtesy limit of 3 per second, or 10 per second when an API key is set.
func NewClient(config Config) *Client {
	// Use defaults for missing config values
	if config.Email == "" {
		config.Email = DefaultConfig().Email
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.BatchSize < 1 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	requestsPerSecond := 3.0
	if config.APIKey != "" {
		requestsPerSecond = 10.0
	}

	// Get global debug setting
	settings := conf.GetSettings()
	debug := settings != nil && settings.Debug

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		debug:   debug,
	}

	logger.Info("Entrez client initialized",
		"base_url", config.BaseURL,
		"email", config.Email,
		"api_key_configured", config.APIKey != "",
		"requests_per_second", requestsPerSecond,
		"debug", debug)

	return client
}

// Close cleans up client resources
func (c *Client) Close() {
	logger.Info("Closing Entrez client")

	// Close the logger if it was successfully initialized
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			// Use standard log since our logger might be closing
			log.Printf("Error closing entrez logger: %v", err)
		}
	}
}

// params returns the query parameters sent with every E-utilities request
func (c *Client) params() url.Values {
	values := url.Values{}
	values.Set("db", "nucleotide")
	values.Set("tool", "mycotool")
	values.Set("email", c.config.Email)
	if c.config.APIKey != "" {
		values.Set("api_key", c.config.APIKey)
	}
	return values
}

// ESearch runs an esearch query against the nucleotide database and returns
// the total hit count plus up to retmax matching ids.
func (c *Client) ESearch(ctx context.Context, query string, retmax int) (*SearchResult, error) {
	// Apply timeout to API request
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	values := c.params()
	values.Set("term", query)
	values.Set("retmax", strconv.Itoa(retmax))
	values.Set("retmode", "json")

	requestURL := fmt.Sprintf("%s/esearch.fcgi?%s", c.config.BaseURL, values.Encode())

	body, err := c.doRequest(reqCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	var response esearchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		// Log first 500 chars of response to debug parsing issues
		responsePreview := string(body)
		if len(responsePreview) > 500 {
			responsePreview = responsePreview[:500] + "..."
		}
		logger.Error("Failed to parse esearch response",
			"error", err,
			"url", requestURL,
			"response_size", len(body),
			"response_preview", responsePreview)
		return nil, errors.Newf("failed to parse esearch response: %w", err).
			Category(errors.CategoryJSONParsing).
			Context("operation", "esearch").
			Component("entrez").
			Build()
	}

	count, err := strconv.Atoi(response.Result.Count)
	if err != nil {
		return nil, errors.Newf("esearch count %q is not a number", response.Result.Count).
			Category(errors.CategoryJSONParsing).
			Context("operation", "esearch").
			Component("entrez").
			Build()
	}

	logger.Debug("esearch complete",
		"query", query,
		"retmax", retmax,
		"count", count,
		"ids", len(response.Result.IDList))

	return &SearchResult{Count: count, IDs: response.Result.IDList}, nil
}

// EFetch retrieves records for the given ids in the requested format, for
// example rettype "fasta" or "gb" with retmode "text". Ids travel in the
// request body so large id lists do not overflow the URL.
func (c *Client) EFetch(ctx context.Context, ids []string, rettype, retmode string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}

	// Apply timeout to API request
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	values := c.params()
	values.Set("id", strings.Join(ids, ","))
	values.Set("rettype", rettype)
	values.Set("retmode", retmode)

	requestURL := fmt.Sprintf("%s/efetch.fcgi", c.config.BaseURL)

	body, err := c.doRequest(reqCtx, http.MethodPost, requestURL, values)
	if err != nil {
		return "", err
	}

	logger.Debug("efetch complete",
		"ids", len(ids),
		"rettype", rettype,
		"response_size", len(body))

	return string(body), nil
}

// doRequest performs a rate limited HTTP request and returns the raw
// response body. A non-nil form is sent urlencoded in the request body.
func (c *Client) doRequest(ctx context.Context, method, requestURL string, form url.Values) ([]byte, error) {
	// Rate limiting
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryNetwork).
			Context("operation", "rate_limit_wait").
			Component("entrez").
			Build()
	}

	var body io.Reader = http.NoBody
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	// Create request
	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("url", requestURL).
			Component("entrez").
			Build()
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	// Log request if debug enabled
	if c.debug {
		logger.Debug("Entrez API request", "method", method, "url", requestURL)
	}

	// Execute request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Entrez API request failed",
			"error", err,
			"method", method,
			"url", requestURL)
		return nil, errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("url", requestURL).
			Component("entrez").
			Build()
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			// Log error but don't propagate it
			_ = err
		}
	}()

	// Read response body
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("Failed to read response body",
			"error", err,
			"url", requestURL,
			"status_code", resp.StatusCode)
		return nil, errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Context("status_code", resp.StatusCode).
			Component("entrez").
			Build()
	}

	// Check for errors
	if resp.StatusCode >= 400 {
		logger.Error("Entrez API error",
			"status_code", resp.StatusCode,
			"url", requestURL,
			"response_body", string(bodyBytes))
		return nil, errors.Newf("Entrez API error (status %d): %s", resp.StatusCode, http.StatusText(resp.StatusCode)).
			Category(getErrorCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("url", requestURL).
			Component("entrez").
			Build()
	}

	// Log first successful API call to confirm the service is reachable
	c.firstCallMu.Do(func() {
		logger.Info("Entrez API reachable",
			"first_successful_request", requestURL)
	})

	return bodyBytes, nil
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case 401, 403:
		// Authentication/authorization errors - these are critical for user attention
		return errors.CategoryConfiguration
	case 429:
		// Rate limiting
		return errors.CategoryLimit
	case 404:
		return errors.CategoryNotFound
	default:
		return errors.CategoryNetwork
	}
}
