package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBulk(ids ...int) (*BulkSelector, *Set) {
	set := NewSet(ids...)
	return NewBulkSelector(NewReconciler(set)), set
}

func TestSelectFirstN(t *testing.T) {
	page := records(10, 11, 12, 13, 14)

	tests := []struct {
		name string
		n    int
		want []int
	}{
		{name: "some", n: 3, want: []int{10, 11, 12}},
		{name: "all", n: 5, want: []int{10, 11, 12, 13, 14}},
		{name: "more than page clamps", n: 500, want: []int{10, 11, 12, 13, 14}},
		{name: "zero", n: 0, want: []int{}},
		{name: "negative clamps to zero", n: -4, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, set := newBulk(99)

			visible := b.SelectFirstN(page, tt.n)

			assert.Equal(t, tt.want, ids(visible))
			assert.True(t, set.Contains(99), "other pages untouched")
			assert.Equal(t, len(tt.want)+1, set.Len())
		})
	}
}

func TestSelectFirstN_ZeroClearsCurrentPageOnly(t *testing.T) {
	b, set := newBulk(10, 11, 200, 201)
	page := records(10, 11, 12)

	visible := b.SelectFirstN(page, ParseCount("abc"))

	assert.Empty(t, visible)
	assert.Equal(t, []int{200, 201}, set.IDs())
}

func TestSelectFirstN_ShrinkingKeepsInvariant(t *testing.T) {
	b, set := newBulk()
	page := records(1, 2, 3, 4)

	b.SelectFirstN(page, 4)
	visible := b.SelectFirstN(page, 2)

	assert.Equal(t, []int{1, 2}, ids(visible))
	assert.Equal(t, []int{1, 2}, set.IDs())
}

func TestSelectFirstN_EmptyPage(t *testing.T) {
	b, set := newBulk(5)

	assert.Empty(t, b.SelectFirstN(nil, 3))
	assert.Equal(t, []int{5}, set.IDs())
}

func TestNewBulkSelector_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewBulkSelector(nil) })
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"   ", 0},
		{"5", 5},
		{" 7 ", 7},
		{"+3", 3},
		{"0", 0},
		{"-2", 0},
		{"abc", 0},
		{"12abc", 0},
		{"4.9", 4},
		{"1e2", 100},
		{"NaN", 0},
		{"-0.5", 0},
		{"99999999999999999999999", maxCount},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCount(tt.input))
		})
	}
}
