package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/artic-browser/pkg/cache"
	"github.com/Sternrassler/artic-browser/pkg/logging"
	"github.com/Sternrassler/artic-browser/pkg/ratelimit"
)

// DefaultBaseURL is the public Art Institute of Chicago API.
const DefaultBaseURL = "https://api.artic.edu/api/v1"

// DefaultPageSize is the number of rows shown per page.
const DefaultPageSize = 12

// maxBodyBytes bounds a single page response.
const maxBodyBytes = 8 << 20

// Client fetches pages of artwork records.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	cache      *cache.Manager
	throttle   *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the catalog API, without the /artworks suffix.
	BaseURL string

	// UserAgent identifies the application to the catalog.
	UserAgent string

	// PageSize is used when FetchPage is called with a non-positive size.
	PageSize int

	// Timeout bounds every single request.
	Timeout time.Duration

	// Retry controls retries of failed requests. The default is one attempt.
	Retry RetryConfig

	// Redis enables the response cache when non-nil.
	Redis *redis.Client

	// Throttle gates requests when non-nil.
	Throttle *ratelimit.Tracker

	// HTTPClient overrides the default transport (tests, proxies).
	HTTPClient *http.Client
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		PageSize:  DefaultPageSize,
		Timeout:   15 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    base,
		throttle:   cfg.Throttle,
		config:     cfg,
		logger:     logging.NewLogger("catalog-client"),
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// PageSize returns the configured default page size.
func (c *Client) PageSize() int {
	return c.config.PageSize
}

// PageURL builds the request URL for a 1-based page number.
func (c *Client) PageURL(pageNumber, pageSize int) *url.URL {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = c.config.PageSize
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/artworks"
	q := url.Values{}
	q.Set("page", strconv.Itoa(pageNumber))
	q.Set("limit", strconv.Itoa(pageSize))
	q.Set("fields", strings.Join(Fields, ","))
	u.RawQuery = q.Encode()
	return &u
}

// FetchPage fetches one page of records. Any failure is a *FetchError that
// matches ErrFetchFailure.
func (c *Client) FetchPage(ctx context.Context, pageNumber, pageSize int) (*Page, error) {
	u := c.PageURL(pageNumber, pageSize)

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	page, err := decodePage(body)
	if err != nil {
		catalogErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		c.logger.Error().Err(err).Str("url", u.String()).Msg("Malformed catalog response")
		return nil, &FetchError{
			URL:        u.String(),
			StatusCode: http.StatusOK,
			ErrorClass: ErrorClassDecode,
			Message:    "malformed page envelope",
			Err:        err,
		}
	}

	c.logger.Debug().
		Int("page", pageNumber).
		Int("records", page.Len()).
		Int("total", page.Pagination.Total).
		Msg("Page fetched")

	return page, nil
}

// get performs the GET with throttling, caching and retry, and returns the body.
func (c *Client) get(ctx context.Context, u *url.URL) ([]byte, error) {
	start := time.Now()
	defer func() {
		catalogRequestDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	cacheKey := cache.CacheKey{Endpoint: u.Path, QueryParams: u.Query()}
	var cached *cache.CacheEntry
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil && !entry.IsExpired():
			c.logger.Debug().Str("key", cacheKey.String()).Msg("Serving page from cache")
			catalogRequestsTotal.WithLabelValues("cached").Inc()
			return entry.Data, nil
		case err == nil:
			cached = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("key", cacheKey.String()).Msg("Cache get error")
		}
	}

	var body []byte
	err := retryWithBackoff(ctx, c.config.Retry, c.logger, func() (ErrorClass, error) {
		data, errClass, err := c.attempt(ctx, u, cacheKey, cached)
		if err != nil {
			catalogErrorsTotal.WithLabelValues(string(errClass)).Inc()
			return errClass, err
		}
		body = data
		return "", nil
	})
	if err != nil {
		c.logger.Error().Err(err).Str("url", u.String()).Msg("Catalog request failed")
		return nil, err
	}
	return body, nil
}

// attempt performs a single HTTP round trip.
func (c *Client) attempt(ctx context.Context, u *url.URL, key cache.CacheKey, cached *cache.CacheEntry) ([]byte, ErrorClass, error) {
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx); err != nil {
			return nil, ErrorClassRateLimit, &FetchError{
				URL:        u.String(),
				ErrorClass: ErrorClassRateLimit,
				Message:    "request throttled",
				Err:        err,
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, ErrorClassClient, &FetchError{URL: u.String(), ErrorClass: ErrorClassClient, Message: "create request", Err: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("AIC-User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	if cache.ShouldMakeConditionalRequest(cached) {
		cache.AddConditionalHeaders(req, cached)
		cache.ConditionalRequestsSent.Inc()
	}

	c.logger.Debug().Str("url", u.String()).Msg("Executing catalog request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		catalogRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, ErrorClassNetwork, &FetchError{
			URL:        u.String(),
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	catalogRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if c.throttle != nil {
		if err := c.throttle.UpdateFromHeaders(resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update quota from headers")
		}
	}

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		cache.NotModifiedResponses.Inc()
		if err := c.cache.Refresh(ctx, key, cached, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		c.logger.Debug().Str("url", u.String()).Msg("304 Not Modified - using cache")
		return cached.Data, "", nil
	}

	if errClass := classifyStatus(resp.StatusCode); errClass != "" {
		c.logger.Warn().
			Str("url", u.String()).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Catalog request error")
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, errClass, &FetchError{
			URL:        u.String(),
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, ErrorClassNetwork, &FetchError{
			URL:        u.String(),
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read body",
			Err:        err,
		}
	}

	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry := cache.NewEntry(resp.StatusCode, resp.Header, data)
		if err := c.cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return data, "", nil
}

// classifyStatus categorizes a response status. Returns "" for success.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	case status < 200 || status >= 300:
		// 1xx and unexpected 3xx are not pages
		return ErrorClassClient
	default:
		return ""
	}
}

// decodePage parses a page envelope.
func decodePage(body []byte) (*Page, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("envelope has no data array")
	}
	if env.Pagination == nil {
		return nil, fmt.Errorf("envelope has no pagination block")
	}

	records := make([]Record, len(*env.Data))
	for i, w := range *env.Data {
		records[i] = w.record()
	}

	return &Page{Records: records, Pagination: *env.Pagination}, nil
}
