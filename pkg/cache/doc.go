// Package cache provides an optional Redis-backed cache of catalog page
// responses.
//
// Entries keep the response body plus the validators the catalog sent
// (ETag, Last-Modified) and an expiry derived from Cache-Control max-age
// or Expires. A fresh entry is served without touching the network. A stale
// entry is kept in Redis for StaleGrace so the client can revalidate it with
// a conditional request; a 304 Not Modified refreshes the expiry and serves
// the cached body.
//
// # Basic Usage
//
//	manager := cache.NewManager(redis.NewClient(&redis.Options{Addr: "localhost:6379"}))
//
//	key := cache.CacheKey{
//		Endpoint:    "/api/v1/artworks",
//		QueryParams: url.Values{"page": []string{"2"}, "limit": []string{"12"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the catalog, then
//		_ = manager.Set(ctx, key, cache.NewEntry(resp.StatusCode, resp.Header, body))
//	}
//
// # Metrics
//
//   - catalog_cache_hits_total - Cache hits
//   - catalog_cache_misses_total - Cache misses
//   - catalog_cache_size_bytes - Bytes written to the cache
//   - catalog_conditional_requests_total - Conditional requests sent
//   - catalog_304_responses_total - Conditional request successes
//   - catalog_cache_errors_total{operation} - Cache operation errors
//
// Only catalog data is cached. Selection state is never written here.
package cache
