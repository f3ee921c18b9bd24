package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrQuotaExhausted is returned by Wait while the reported quota is critical.
var ErrQuotaExhausted = errors.New("catalog quota exhausted")

// Prometheus metrics for request throttling.
var (
	quotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_quota_remaining",
		Help: "Requests remaining in the catalog's current rate limit window",
	})

	quotaBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_quota_blocks_total",
		Help: "Total number of requests refused due to an exhausted quota",
	})

	quotaThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_quota_throttles_total",
		Help: "Total number of requests issued while the quota was low",
	})
)

// Config holds the token bucket configuration.
type Config struct {
	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64

	// Burst is the number of requests allowed back to back.
	Burst int
}

// DefaultConfig stays within the public AIC API allowance of 60 requests per minute.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 1,
		Burst:             3,
	}
}

// Tracker gates catalog requests.
type Tracker struct {
	mu     sync.Mutex
	bucket *rate.Limiter
	state  QuotaState
	logger zerolog.Logger
}

// NewTracker creates a new request tracker.
func NewTracker(cfg Config, logger zerolog.Logger) *Tracker {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &Tracker{
		bucket: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger: logger,
	}
}

// State returns the last reported quota.
func (t *Tracker) State() QuotaState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Wait blocks until a request may be sent. It refuses immediately with
// ErrQuotaExhausted while the server-reported quota is critical.
func (t *Tracker) Wait(ctx context.Context) error {
	state := t.State()

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Catalog quota critical - refusing request")
		quotaBlocksTotal.Inc()
		return fmt.Errorf("%w: resets in %s", ErrQuotaExhausted, state.TimeUntilReset().Round(time.Second))
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Catalog quota low")
		quotaThrottlesTotal.Inc()
	}

	if err := t.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("wait for request slot: %w", err)
	}
	return nil
}

// UpdateFromHeaders records the quota from a response. Responses without
// quota headers leave the state untouched.
func (t *Tracker) UpdateFromHeaders(headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	state := QuotaState{
		Known:      true,
		Remaining:  remain,
		LastUpdate: time.Now(),
	}

	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
		state.Limit = limit
	}

	if resetStr := headers.Get(HeaderReset); resetStr != "" {
		reset, err := strconv.ParseInt(resetStr, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}
		state.ResetAt = resetTime(state.LastUpdate, reset)
	}

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	quotaRemaining.Set(float64(remain))

	t.logger.Debug().
		Int("remaining", state.Remaining).
		Int("limit", state.Limit).
		Time("reset_at", state.ResetAt).
		Msg("Catalog quota updated")

	return nil
}

// resetTime interprets the reset header either as seconds until reset or as
// a Unix timestamp; both conventions are in use.
func resetTime(now time.Time, v int64) time.Time {
	const unixCutoff = 1_000_000_000
	if v >= unixCutoff {
		return time.Unix(v, 0)
	}
	return now.Add(time.Duration(v) * time.Second)
}
