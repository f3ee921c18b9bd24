package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/artic-browser/pkg/catalog"
	"github.com/Sternrassler/artic-browser/pkg/logging"
)

// BatchConfig holds batch fetcher configuration.
type BatchConfig struct {
	// MaxConcurrency is the number of pages fetched in parallel. The client's
	// throttle still bounds the request rate.
	MaxConcurrency int

	// Timeout per page fetch.
	Timeout time.Duration
}

// DefaultBatchConfig returns the default batch configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 3,
		Timeout:        15 * time.Second,
	}
}

// pageResult is the outcome of one page fetch.
type pageResult struct {
	pageNumber int
	page       *catalog.Page
	err        error
}

// BatchFetcher fetches a range of pages with a worker pool. It is used for
// non-interactive export and never touches a Store.
type BatchFetcher struct {
	fetcher PageFetcher
	config  BatchConfig
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher(fetcher PageFetcher, config BatchConfig) *BatchFetcher {
	def := DefaultBatchConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = def.MaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}

	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchRange fetches pages from..to (inclusive, 1-based) of pageSize rows.
// The first page is fetched alone to learn the page count; to is clamped to
// it. Pages come back in order. The first failure cancels the remaining
// fetches and is returned.
func (bf *BatchFetcher) FetchRange(ctx context.Context, from, to, pageSize int) ([]*catalog.Page, error) {
	if from < 1 {
		from = 1
	}
	if to < from {
		return nil, fmt.Errorf("invalid page range %d..%d", from, to)
	}

	logger := logging.NewLogger("batch-fetcher")
	start := time.Now()

	first, err := bf.fetch(ctx, from, pageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", from, err)
	}

	if last := catalog.TotalPages(first.Pagination.Total, pageSize); to > last {
		to = max(last, from)
	}

	pages := make([]*catalog.Page, to-from+1)
	pages[0] = first
	if to == from {
		return pages, nil
	}

	logger.Info().
		Int("from", from).
		Int("to", to).
		Int("workers", bf.config.MaxConcurrency).
		Msg("Starting parallel page fetch")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan int)
	results := make(chan pageResult)

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(ctx, pageSize, queue, results, &wg)
	}

	go func() {
		defer close(queue)
		for n := from + 1; n <= to; n++ {
			select {
			case queue <- n:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("fetch page %d: %w", r.pageNumber, r.err)
				cancel()
			}
			continue
		}
		pages[r.pageNumber-from] = r.page
	}
	if firstErr != nil {
		return nil, firstErr
	}

	logger.Info().
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return pages, nil
}

func (bf *BatchFetcher) fetch(ctx context.Context, n, pageSize int) (*catalog.Page, error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	page, err := bf.fetcher.FetchPage(pageCtx, n, pageSize)
	if err == nil && page == nil {
		err = fmt.Errorf("%w: fetcher returned no page", catalog.ErrFetchFailure)
	}
	return page, err
}

// worker processes page numbers from the queue.
func (bf *BatchFetcher) worker(ctx context.Context, pageSize int, queue <-chan int, results chan<- pageResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for n := range queue {
		page, err := bf.fetch(ctx, n, pageSize)
		select {
		case results <- pageResult{pageNumber: n, page: page, err: err}:
		case <-ctx.Done():
			return
		}
	}
}
