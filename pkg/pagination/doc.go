// Package pagination holds the page store of the catalog browser.
//
// The store keeps exactly one page of records in memory together with the
// cursor (page number, page size, row offset) and the total record count the
// catalog reported. Each load receives a monotonically increasing ticket;
// starting a new load cancels the previous one, and a response whose ticket
// is no longer the newest is discarded instead of overwriting newer data.
//
// Example usage:
//
//	store, err := pagination.NewStore(catalogClient, pagination.DefaultConfig())
//	snap, err := store.LoadPage(ctx, 2)
//	if errors.Is(err, pagination.ErrStaleLoad) {
//		// a newer load already replaced this one
//	}
//
// Event-loop callers split a load in three steps so the fetch can run off
// the loop:
//
//	ticket, loadCtx := store.Begin(ctx, 3)
//	page, err := store.Fetch(loadCtx, ticket) // in a goroutine
//	snap, err := store.Complete(ticket, page, err)
//
// BatchFetcher fetches a range of pages in parallel for export; it shares
// the PageFetcher interface but not the store's one-page state.
package pagination
