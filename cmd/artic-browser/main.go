package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/term"

	"github.com/Sternrassler/artic-browser/pkg/catalog"
	"github.com/Sternrassler/artic-browser/pkg/logging"
	"github.com/Sternrassler/artic-browser/pkg/metrics"
	"github.com/Sternrassler/artic-browser/pkg/pagination"
	"github.com/Sternrassler/artic-browser/pkg/ratelimit"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// options are the flag values shared by all commands.
type options struct {
	baseURL     string
	userAgent   string
	pageSize    int
	timeout     time.Duration
	retries     int
	rate        float64
	redisURL    string
	metricsAddr string
	logLevel    string
	logFile     string
}

// stdoutIsTerminal decides between the browser and plain output.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// stdoutWidth returns the terminal width, or 0 when unknown.
var stdoutWidth = func() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// stack is the wired catalog client and page store.
type stack struct {
	client  *catalog.Client
	store   *pagination.Store
	redis   *redis.Client
	metrics *metrics.Server
}

func (o *options) build(ctx context.Context) (*stack, error) {
	logger := logging.NewLogger("main")
	s := &stack{}

	cfg := catalog.DefaultConfig(o.userAgent)
	cfg.BaseURL = o.baseURL
	cfg.PageSize = o.pageSize
	cfg.Timeout = o.timeout
	cfg.Retry.MaxAttempts = o.retries
	cfg.Throttle = ratelimit.NewTracker(ratelimit.Config{
		RequestsPerSecond: o.rate,
		Burst:             ratelimit.DefaultConfig().Burst,
	}, logging.NewLogger("throttle"))

	if o.redisURL != "" {
		rdb, err := newRedisClient(o.redisURL)
		if err != nil {
			return nil, err
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", o.redisURL, err)
		}
		logger.Info().Str("redis", o.redisURL).Msg("Response cache enabled")
		s.redis = rdb
		cfg.Redis = rdb
	}

	client, err := catalog.New(cfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	s.client = client

	storeCfg := pagination.DefaultConfig()
	storeCfg.PageSize = client.PageSize()
	if budget := o.timeout * time.Duration(max(o.retries, 1)) * 2; budget > storeCfg.Timeout {
		storeCfg.Timeout = budget
	}
	store, err := pagination.NewStore(client, storeCfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create page store: %w", err)
	}
	s.store = store

	if o.metricsAddr != "" {
		srv, err := metrics.Listen(o.metricsAddr)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("start metrics listener: %w", err)
		}
		s.metrics = srv
	}

	logger.Info().
		Str("base_url", o.baseURL).
		Int("page_size", storeCfg.PageSize).
		Dur("timeout", o.timeout).
		Int("attempts", max(o.retries, 1)).
		Msg("Catalog browser configured")

	return s, nil
}

// Close releases the Redis connection and the metrics listener.
func (s *stack) Close() {
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.metrics.Shutdown(ctx)
	}
	if s.redis != nil {
		s.redis.Close()
	}
}

// newRedisClient accepts a redis:// URL or a bare host:port.
func newRedisClient(addr string) (*redis.Client, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
