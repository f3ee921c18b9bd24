// Package selection keeps the browser's cross-page selection consistent.
//
// A Set holds the identifiers of every record the user selected during the
// session, independent of which page is loaded. The visible selection of a
// page is never stored: Reconciler.Visible derives it from the page and the
// Set, so the two cannot drift apart. Toggles reported for the current page
// are reconciled in both directions (checked rows are added, unchecked rows
// of that page are removed) and never touch records of other pages.
// BulkSelector selects the first N rows of the current page.
//
// Set, Reconciler and BulkSelector are not safe for concurrent use; they
// belong to the session's control loop.
package selection
