package mycobank

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
	"strings"
	"sync"
	"time"

	"github.com/aldendirks/mycotool/internal/conf"
	"github.com/aldendirks/mycotool/internal/errors"
	"github.com/aldendirks/mycotool/internal/logging"
)

// Package-level logger specific to mycobank service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	// Define log file path relative to working directory
	logFilePath := filepath.Join("logs", "mycobank.log")
	initialLevel := slog.LevelDebug // Set desired initial level
	serviceLevelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "mycobank", serviceLevelVar)
	if err != nil {
		// Fallback: Log error to standard log and disable service file logging
		log.Printf("FATAL: Failed to initialize mycobank file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "mycobank")
		closeLogger = func() error { return nil } // No-op closer
	}
}

// searchResponse is the envelope returned by the taxon names search endpoint.
// Point lookups return a bare TaxonName instead.
type searchResponse struct {
	Items []TaxonName `json:"items"`
}

// Client provides methods for querying the MycoBank taxon names web service.
// Requests are neither cached nor retried: batch searches are already coarse,
// and a failed call is reported to the caller as-is so the resolution pipeline
// can record an honest per-name status.
type Client struct {
	config      Config
	httpClient  *http.Client
	debug       bool      // Enable debug logging
	firstCallMu sync.Once // Track first successful API call
}

// NewClient creates a new MycoBank API client
func NewClient(config Config) (*Client, error) {
	if config.AccessToken == "" {
		return nil, errors.Newf("MycoBank access token is required").
			Category(errors.CategoryConfiguration).
			Component("mycobank").
			Build()
	}

	// Use defaults for missing config values
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.NameDetailsURL == "" {
		config.NameDetailsURL = DefaultConfig().NameDetailsURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	// Get global debug setting
	settings := conf.GetSettings()
	debug := settings != nil && settings.Debug

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		debug: debug,
	}

	logger.Info("MycoBank client initialized",
		"base_url", config.BaseURL,
		"timeout", config.Timeout,
		"debug", debug,
		"access_token_configured", config.AccessToken != "")

	return client, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	logger.Info("Closing MycoBank client")

	if closeLogger != nil {
		logger.Debug("Closing MycoBank service log file")
		if err := closeLogger(); err != nil {
			// Use standard log since our logger might be closing
			log.Printf("Error closing MycoBank logger: %v", err)
		}
	}
}

// SearchNames queries the taxon names endpoint with a starts-with filter over
// every name in the batch. The server matches prefixes, so the response may
// contain records for names beyond those queried; callers narrow the result
// per name.
func (c *Client) SearchNames(ctx context.Context, names []string) ([]TaxonName, error) {
	if len(names) == 0 {
		return nil, nil
	}

	// Apply timeout to API request
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	predicates := make([]string, 0, len(names))
	for _, name := range names {
		predicates = append(predicates, fmt.Sprintf("name startWith '%s'", name))
	}
	query := url.Values{}
	query.Set("filter", strings.Join(predicates, " or "))
	requestURL := fmt.Sprintf("%s?%s", c.config.BaseURL, query.Encode())

	var result searchResponse
	if err := c.doRequest(reqCtx, http.MethodGet, requestURL, &result); err != nil {
		return nil, err
	}

	logger.Debug("MycoBank name search completed",
		"queried_names", len(names),
		"records", len(result.Items))

	return result.Items, nil
}

// GetName retrieves a single taxon name record by its identifier. Used to
// follow a synonymy link to the currently accepted name.
func (c *Client) GetName(ctx context.Context, id json.Number) (*TaxonName, error) {
	if id.String() == "" {
		return nil, errors.Newf("taxon name id is required").
			Category(errors.CategoryValidation).
			Context("operation", "get_name").
			Component("mycobank").
			Build()
	}

	// Apply timeout to API request
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	requestURL := fmt.Sprintf("%s/%s", c.config.BaseURL, id.String())

	var record TaxonName
	if err := c.doRequest(reqCtx, http.MethodGet, requestURL, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

// NameDetailsPage returns the MycoBank website URL for a record's MycoBank
// number, suitable for presenting to users alongside a name.
func (c *Client) NameDetailsPage(mycobankNr json.Number) string {
	return c.config.NameDetailsURL + mycobankNr.String()
}

// doRequest performs an HTTP request with bearer auth and decodes the JSON response
func (c *Client) doRequest(ctx context.Context, method, requestURL string, result any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, requestURL, http.NoBody)
	if err != nil {
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("url", requestURL).
			Component("mycobank").
			Build()
	}

	// Add authentication header
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Accept", "application/json")

	if c.debug {
		logger.Debug("MycoBank API request",
			"method", method,
			"url", requestURL,
			"has_access_token", c.config.AccessToken != "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("MycoBank API request failed",
			"error", err,
			"method", method,
			"url", requestURL)
		return errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("url", requestURL).
			Component("mycobank").
			Build()
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			// Log error but don't propagate it
			_ = err
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("Failed to read response body",
			"error", err,
			"url", requestURL,
			"status_code", resp.StatusCode)
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Context("status_code", resp.StatusCode).
			Component("mycobank").
			Build()
	}

	if resp.StatusCode >= 400 {
		// Log authentication failures specially
		if resp.StatusCode == 401 || resp.StatusCode == 403 {
			logger.Error("MycoBank API authentication failed",
				"status_code", resp.StatusCode,
				"url", requestURL,
				"access_token_configured", c.config.AccessToken != "",
				"message", "Check your MycoBank access token in the configuration")
		} else {
			logger.Error("MycoBank API error",
				"status_code", resp.StatusCode,
				"url", requestURL,
				"response_body", string(bodyBytes))
		}

		return errors.Newf("MycoBank API error (status %d): %s", resp.StatusCode, string(bodyBytes)).
			Category(getErrorCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("url", requestURL).
			Component("mycobank").
			Build()
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			// Log first 500 chars of response to debug parsing issues
			responsePreview := string(bodyBytes)
			if len(responsePreview) > 500 {
				responsePreview = responsePreview[:500] + "..."
			}

			logger.Error("Failed to parse MycoBank API response",
				"error", err,
				"url", requestURL,
				"response_size", len(bodyBytes),
				"response_preview", responsePreview)
			return errors.Newf("failed to parse response: %w", err).
				Category(errors.CategoryJSONParsing).
				Context("url", requestURL).
				Context("response_size", len(bodyBytes)).
				Component("mycobank").
				Build()
		}
	}

	duration := time.Since(start)

	if resp.StatusCode == http.StatusOK {
		// Log first successful API call to confirm authentication
		c.firstCallMu.Do(func() {
			logger.Info("MycoBank API authentication successful",
				"first_successful_request", requestURL,
				"message", "MycoBank access token is valid and working")
		})

		if c.debug {
			logger.Debug("MycoBank API response",
				"status_code", resp.StatusCode,
				"url", requestURL,
				"duration_ms", duration.Milliseconds(),
				"response_size", len(bodyBytes))
		}
	}

	return nil
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case 401, 403:
		// Authentication errors need user attention on the token
		return errors.CategoryConfiguration
	case 429:
		// Rate limiting
		return errors.CategoryLimit
	case 404:
		return errors.CategoryNotFound
	case 500, 502, 503, 504:
		// Server errors
		return errors.CategoryNetwork
	default:
		return errors.CategoryNetwork
	}
}
