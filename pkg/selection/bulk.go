package selection

import (
	"strconv"
	"strings"

	"github.com/Sternrassler/artic-browser/pkg/catalog"
)

// BulkSelector selects the first N rows of the current page.
type BulkSelector struct {
	reconciler *Reconciler
}

// NewBulkSelector returns a bulk selector that writes through r.
func NewBulkSelector(r *Reconciler) *BulkSelector {
	if r == nil {
		panic("reconciler cannot be nil")
	}
	return &BulkSelector{reconciler: r}
}

// SelectFirstN makes the first n records of page the visible selection.
// n is clamped to [0, len(page)]. Their ids are merged into the set and the
// other rows of page are deselected; records of other pages are untouched.
func (b *BulkSelector) SelectFirstN(page []catalog.Record, n int) []catalog.Record {
	n = clamp(n, 0, len(page))

	first := page[:n]
	ids := make([]int, len(first))
	for i, rec := range first {
		ids[i] = rec.ID
	}
	b.reconciler.set.AddAll(ids...)

	b.reconciler.logger.Debug().
		Int("requested", n).
		Int("page_rows", len(page)).
		Msg("Bulk select")

	return b.reconciler.Apply(page, first)
}

// ParseCount reads a user-typed row count leniently: anything that is not a
// non-negative number yields 0. Fractions are truncated.
func ParseCount(input string) int {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0
	}

	if n, err := strconv.Atoi(input); err == nil {
		return max(n, 0)
	}

	f, err := strconv.ParseFloat(input, 64)
	if err != nil || f != f || f < 0 {
		return 0
	}
	if f > float64(maxCount) {
		return maxCount
	}
	return int(f)
}

// maxCount caps absurd inputs before they are clamped to the page length.
const maxCount = 1 << 30

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}
