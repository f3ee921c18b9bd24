package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/artic-browser/pkg/catalog"
)

func records(ids ...int) []catalog.Record {
	out := make([]catalog.Record, len(ids))
	for i, id := range ids {
		out[i] = catalog.Record{ID: id}
	}
	return out
}

func ids(recs []catalog.Record) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestNewReconciler_NilSetPanics(t *testing.T) {
	assert.Panics(t, func() { NewReconciler(nil) })
}

func TestReconciler_VisibleKeepsPageOrder(t *testing.T) {
	r := NewReconciler(NewSet(30, 10, 99))

	visible := r.Visible(records(10, 20, 30))

	assert.Equal(t, []int{10, 30}, ids(visible))
}

func TestReconciler_Apply(t *testing.T) {
	r := NewReconciler(NewSet(1, 2, 100))
	page := records(1, 2, 3, 4)

	visible := r.Apply(page, records(2, 3))

	assert.Equal(t, []int{2, 3}, ids(visible))
	assert.False(t, r.Set().Contains(1), "unchecked row on the page is removed")
	assert.True(t, r.Set().Contains(3), "checked row is added")
	assert.True(t, r.Set().Contains(100), "rows of other pages are untouched")
}

func TestReconciler_ApplyEmptyClearsOnlyCurrentPage(t *testing.T) {
	r := NewReconciler(NewSet(1, 2, 50, 51))

	visible := r.Apply(records(1, 2, 3), nil)

	assert.Empty(t, visible)
	assert.Equal(t, []int{50, 51}, r.Set().IDs())
}

func TestReconciler_SelectionSurvivesNavigation(t *testing.T) {
	r := NewReconciler(NewSet())
	pageA := records(1, 2, 3)
	pageB := records(4, 5, 6)

	r.Toggle(pageA, 2)

	// Navigate to B: nothing visible there.
	assert.Empty(t, r.Visible(pageB))

	// Back to A: still checked.
	assert.Equal(t, []int{2}, ids(r.Visible(pageA)))
}

func TestReconciler_UncheckOnOnePageLeavesOtherPage(t *testing.T) {
	r := NewReconciler(NewSet())
	pageA := records(1, 2, 3)
	pageB := records(4, 5, 6)

	r.Apply(pageA, pageA)
	r.Apply(pageB, records(5))

	r.Toggle(pageA, 1)

	assert.Equal(t, []int{2, 3}, ids(r.Visible(pageA)))
	assert.Equal(t, []int{5}, ids(r.Visible(pageB)))
}

func TestReconciler_Toggle(t *testing.T) {
	r := NewReconciler(NewSet())
	page := records(1, 2, 3)

	assert.Equal(t, []int{3}, ids(r.Toggle(page, 3)))
	assert.Equal(t, []int{1, 3}, ids(r.Toggle(page, 1)))
	assert.Equal(t, []int{1}, ids(r.Toggle(page, 3)))
}

func TestReconciler_ToggleUnknownIDIsNoop(t *testing.T) {
	r := NewReconciler(NewSet(2))
	page := records(1, 2, 3)

	visible := r.Toggle(page, 42)

	assert.Equal(t, []int{2}, ids(visible))
	assert.False(t, r.Set().Contains(42))
}

func TestReconciler_ToggleAll(t *testing.T) {
	r := NewReconciler(NewSet(2, 77))
	page := records(1, 2, 3)

	visible := r.ToggleAll(page)
	require.Equal(t, []int{1, 2, 3}, ids(visible))

	visible = r.ToggleAll(page)
	assert.Empty(t, visible)
	assert.Equal(t, []int{77}, r.Set().IDs())
}

func TestReconciler_ToggleAllEmptyPage(t *testing.T) {
	r := NewReconciler(NewSet(1))

	assert.Empty(t, r.ToggleAll(nil))
	assert.Equal(t, []int{1}, r.Set().IDs())
}
