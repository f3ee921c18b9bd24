package selection

import (
	"sort"
)

// Set is a set of record identifiers.
type Set struct {
	ids map[int]struct{}
}

// NewSet returns a set holding ids.
func NewSet(ids ...int) *Set {
	s := &Set{ids: make(map[int]struct{}, len(ids))}
	s.AddAll(ids...)
	return s
}

// Add inserts id. Adding a present id is a no-op.
func (s *Set) Add(id int) {
	if s.ids == nil {
		s.ids = make(map[int]struct{})
	}
	s.ids[id] = struct{}{}
}

// Remove deletes id. Removing an absent id is a no-op.
func (s *Set) Remove(id int) {
	delete(s.ids, id)
}

// Contains reports whether id is selected.
func (s *Set) Contains(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// AddAll inserts every id.
func (s *Set) AddAll(ids ...int) {
	for _, id := range ids {
		s.Add(id)
	}
}

// Len returns the number of selected ids.
func (s *Set) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Set) IDs() []int {
	out := make([]int, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Clear removes every id.
func (s *Set) Clear() {
	clear(s.ids)
}
