package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/artic-browser/pkg/catalog"
	"github.com/Sternrassler/artic-browser/pkg/logging"
)

// ErrStaleLoad is returned for a load that was superseded by a newer one.
var ErrStaleLoad = errors.New("page load superseded by a newer request")

var pageLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "catalog_page_loads_total",
	Help: "Page store loads by result (ok, error, stale)",
}, []string{"result"})

// PageFetcher fetches a single page. *catalog.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageNumber, pageSize int) (*catalog.Page, error)
}

// Config holds page store configuration.
type Config struct {
	// PageSize is the initial number of rows per page.
	PageSize int

	// Timeout bounds a whole load, including any client retries.
	Timeout time.Duration
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		PageSize: catalog.DefaultPageSize,
		Timeout:  30 * time.Second,
	}
}

// Ticket identifies one load. Only the newest ticket may complete.
type Ticket struct {
	Seq        uint64
	PageNumber int
	PageSize   int
}

// Snapshot is a consistent view of the store.
type Snapshot struct {
	Records      []catalog.Record
	PageNumber   int
	PageSize     int
	RowOffset    int
	TotalRecords int
	TotalPages   int
	Loading      bool
	Loaded       bool
}

// FirstRow is the 1-based index of the first displayed row, 0 when empty.
func (s Snapshot) FirstRow() int {
	if len(s.Records) == 0 {
		return 0
	}
	return s.RowOffset + 1
}

// LastRow is the 1-based index of the last displayed row, 0 when empty.
func (s Snapshot) LastRow() int {
	if len(s.Records) == 0 {
		return 0
	}
	return s.RowOffset + len(s.Records)
}

// HasPrev reports whether a previous page exists.
func (s Snapshot) HasPrev() bool {
	return s.PageNumber > 1
}

// HasNext reports whether a next page exists.
func (s Snapshot) HasNext() bool {
	return s.PageNumber < s.TotalPages
}

// Store holds the currently displayed page. It keeps exactly one page of
// records; every successful load replaces page, total and cursor together.
type Store struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger

	mu         sync.RWMutex
	records    []catalog.Record
	pageNumber int
	pageSize   int
	nextSize   int
	rowOffset  int
	total      int
	loaded     bool
	seq        uint64
	inFlight   context.CancelFunc
}

// NewStore creates a page store backed by fetcher.
func NewStore(fetcher PageFetcher, cfg Config) (*Store, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("page fetcher is required")
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("page size must be >= 1 (got %d)", cfg.PageSize)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	return &Store{
		fetcher:    fetcher,
		config:     cfg,
		logger:     logging.NewLogger("page-store"),
		pageNumber: 1,
		pageSize:   cfg.PageSize,
		nextSize:   cfg.PageSize,
	}, nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	records := make([]catalog.Record, len(s.records))
	copy(records, s.records)
	return Snapshot{
		Records:      records,
		PageNumber:   s.pageNumber,
		PageSize:     s.pageSize,
		RowOffset:    s.rowOffset,
		TotalRecords: s.total,
		TotalPages:   catalog.TotalPages(s.total, s.pageSize),
		Loading:      s.inFlight != nil,
		Loaded:       s.loaded,
	}
}

// SetPageSize requests a new number of rows per page for subsequent loads.
// Sizes below 1 are ignored. It does not fetch. The displayed page keeps its
// size until a load at the new size succeeds; if that load fails the request
// is dropped.
func (s *Store) SetPageSize(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSize = n
}

// PageSize returns the size of the displayed page.
func (s *Store) PageSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageSize
}

// NextPageSize returns the rows per page the next load will request.
func (s *Store) NextPageSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSize
}

// Begin starts a load of pageNumber: it issues a new ticket, cancels the
// previous in-flight load and marks the store loading. The returned context
// must be used for the fetch.
func (s *Store) Begin(ctx context.Context, pageNumber int) (Ticket, context.Context) {
	if pageNumber < 1 {
		pageNumber = 1
	}

	loadCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight != nil {
		s.inFlight()
	}
	s.seq++
	s.inFlight = cancel

	t := Ticket{Seq: s.seq, PageNumber: pageNumber, PageSize: s.nextSize}

	s.logger.Debug().
		Uint64("seq", t.Seq).
		Int("page", t.PageNumber).
		Int("page_size", t.PageSize).
		Msg("Page load started")

	return t, loadCtx
}

// Fetch runs the fetch for a ticket.
func (s *Store) Fetch(ctx context.Context, t Ticket) (*catalog.Page, error) {
	return s.fetcher.FetchPage(ctx, t.PageNumber, t.PageSize)
}

// Complete applies the result of a load. A ticket that is no longer the
// newest is discarded with ErrStaleLoad and leaves the store untouched. On
// a fetch error the last good page stays, a pending size change is dropped
// and the error is returned.
func (s *Store) Complete(t Ticket, page *catalog.Page, fetchErr error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Seq != s.seq {
		pageLoadsTotal.WithLabelValues("stale").Inc()
		s.logger.Debug().
			Uint64("seq", t.Seq).
			Uint64("latest", s.seq).
			Int("page", t.PageNumber).
			Msg("Discarding stale page load")
		return s.snapshotLocked(), ErrStaleLoad
	}

	if s.inFlight != nil {
		s.inFlight()
		s.inFlight = nil
	}

	if fetchErr == nil && page == nil {
		fetchErr = fmt.Errorf("%w: fetcher returned no page", catalog.ErrFetchFailure)
	}
	if fetchErr != nil {
		s.nextSize = s.pageSize
		pageLoadsTotal.WithLabelValues("error").Inc()
		s.logger.Error().
			Err(fetchErr).
			Int("page", t.PageNumber).
			Int("page_size", t.PageSize).
			Msg("Failed to load page; keeping last page")
		return s.snapshotLocked(), fetchErr
	}

	s.records = page.Records
	s.pageNumber = t.PageNumber
	s.pageSize = t.PageSize
	s.rowOffset = (t.PageNumber - 1) * t.PageSize
	s.total = page.Pagination.Total
	s.loaded = true

	pageLoadsTotal.WithLabelValues("ok").Inc()
	s.logger.Info().
		Int("page", t.PageNumber).
		Int("records", len(page.Records)).
		Int("total", s.total).
		Msg("Page loaded")

	return s.snapshotLocked(), nil
}

// LoadPage loads pageNumber and returns the resulting snapshot. Concurrent
// calls are allowed: a newer call cancels an older one and only the newest
// result is applied; older calls return ErrStaleLoad.
func (s *Store) LoadPage(ctx context.Context, pageNumber int) (Snapshot, error) {
	t, loadCtx := s.Begin(ctx, pageNumber)
	page, err := s.Fetch(loadCtx, t)
	return s.Complete(t, page, err)
}

// PageContaining returns the 1-based page that shows the row at rowOffset
// (0-based) when pages hold pageSize rows.
func PageContaining(rowOffset, pageSize int) int {
	if pageSize < 1 || rowOffset < 0 {
		return 1
	}
	return rowOffset/pageSize + 1
}
