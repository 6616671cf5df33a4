// Package inaturalist provides a client for the iNaturalist API, used to
// download ITS barcoded observations for a taxon.
package inaturalist

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
	"sync"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/aldendirks/mycotool/internal/conf"
	"github.com/aldendirks/mycotool/internal/errors"
	"github.com/aldendirks/mycotool/internal/logging"
)

// Package-level logger specific to inaturalist service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	// Define log file path relative to working directory
	logFilePath := filepath.Join("logs", "inaturalist.log")
	initialLevel := slog.LevelDebug // Set desired initial level
	serviceLevelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "inaturalist", serviceLevelVar)
	if err != nil {
		// Fallback: Log error to standard log and potentially disable service logging
		log.Printf("FATAL: Failed to initialize inaturalist file logger at %s: %v. Service logging disabled.", logFilePath, err)
		// Set logger to a disabled handler to prevent nil panics, but respects level var
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "inaturalist")
		closeLogger = func() error { return nil } // No-op closer
	}
}

// Client provides access to the iNaturalist API
type Client struct {
	config      Config
	httpClient  *http.Client
	placeCache  *cache.Cache
	limiter     *rate.Limiter
	debug       bool      // Enable debug logging
	firstCallMu sync.Once // Track first successful API call
}

// NewClient creates a new iNaturalist client. Observation page requests are
// paced by the configured delay, place lookups are cached for the lifetime
// of the client.
func NewClient(config Config) *Client {
	// Use defaults for missing config values
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.PerPage < 1 || config.PerPage > MaxPerPage {
		config.PerPage = DefaultConfig().PerPage
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
		placeCache: cache.New(cache.NoExpiration, cache.NoExpiration),
		limiter:    rate.NewLimiter(rate.Every(config.Delay), 1),
		debug:      debug,
	}

	logger.Info("iNaturalist client initialized",
		"base_url", config.BaseURL,
		"per_page", config.PerPage,
		"delay_ms", config.Delay.Milliseconds(),
		"debug", debug)

	return client
}

// Close cleans up client resources
func (c *Client) Close() {
	logger.Info("Closing iNaturalist client",
		"cached_places", c.placeCache.ItemCount())

	// Close the logger if it was successfully initialized
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			// Use standard log since our logger might be closing
			log.Printf("Error closing inaturalist logger: %v", err)
		}
	}
}

// Observations fetches one page of observations for a taxon. Page fetches
// are paced by the configured delay.
func (c *Client) Observations(ctx context.Context, taxonID string, page int) (*ObservationsPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryNetwork).
			Context("operation", "page_delay_wait").
			Component("inaturalist").
			Build()
	}

	// Apply timeout to API request
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	values := url.Values{}
	values.Set("taxon_id", taxonID)
	values.Set("page", strconv.Itoa(page))
	values.Set("per_page", strconv.Itoa(c.config.PerPage))

	requestURL := fmt.Sprintf("%s/observations?%s", c.config.BaseURL, values.Encode())

	var response ObservationsPage
	if err := c.doRequest(reqCtx, requestURL, &response); err != nil {
		return nil, err
	}

	logger.Debug("Fetched observations page",
		"taxon_id", taxonID,
		"page", page,
		"results", len(response.Results),
		"total_results", response.TotalResults)

	return &response, nil
}

// Place looks up a place record by id. Results are cached for the lifetime
// of the client, including misses and failures so a bad place id is only
// requested once.
func (c *Client) Place(ctx context.Context, placeID int) (*Place, error) {
	cacheKey := strconv.Itoa(placeID)

	// Check cache first
	if cached, found := c.placeCache.Get(cacheKey); found {
		place, _ := cached.(*Place)
		return place, nil
	}

	// Apply timeout to API request
	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	requestURL := fmt.Sprintf("%s/places/%d", c.config.BaseURL, placeID)

	var response placesResponse
	if err := c.doRequest(reqCtx, requestURL, &response); err != nil {
		c.placeCache.Set(cacheKey, (*Place)(nil), cache.DefaultExpiration)
		return nil, err
	}
	if len(response.Results) == 0 {
		c.placeCache.Set(cacheKey, (*Place)(nil), cache.DefaultExpiration)
		return nil, nil
	}

	place := &response.Results[0]
	c.placeCache.Set(cacheKey, place, cache.DefaultExpiration)
	return place, nil
}

// doRequest performs an HTTP GET and decodes the JSON response into result
func (c *Client) doRequest(ctx context.Context, requestURL string, result any) error {
	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Component("inaturalist").
			Build()
	}
	req.Header.Set("Accept", "application/json")

	// Log request if debug enabled
	if c.debug {
		logger.Debug("iNaturalist API request", "url", requestURL)
	}

	// Execute request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("iNaturalist API request failed",
			"error", err,
			"url", requestURL)
		return errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Component("inaturalist").
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
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", requestURL).
			Context("status_code", resp.StatusCode).
			Component("inaturalist").
			Build()
	}

	// Check for errors
	if resp.StatusCode >= 400 {
		logger.Error("iNaturalist API error",
			"status_code", resp.StatusCode,
			"url", requestURL,
			"response_body", string(bodyBytes))
		return errors.Newf("iNaturalist API error (status %d): %s", resp.StatusCode, http.StatusText(resp.StatusCode)).
			Category(getErrorCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("url", requestURL).
			Component("inaturalist").
			Build()
	}

	// Parse successful response
	if err := json.Unmarshal(bodyBytes, result); err != nil {
		// Log first 500 chars of response to debug parsing issues
		responsePreview := string(bodyBytes)
		if len(responsePreview) > 500 {
			responsePreview = responsePreview[:500] + "..."
		}
		logger.Error("Failed to parse iNaturalist API response",
			"error", err,
			"url", requestURL,
			"response_size", len(bodyBytes),
			"response_preview", responsePreview)
		return errors.Newf("failed to parse response: %w", err).
			Category(errors.CategoryJSONParsing).
			Context("url", requestURL).
			Context("response_size", len(bodyBytes)).
			Component("inaturalist").
			Build()
	}

	// Log first successful API call to confirm the service is reachable
	c.firstCallMu.Do(func() {
		logger.Info("iNaturalist API reachable",
			"first_successful_request", requestURL)
	})

	return nil
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case 401, 403:
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
