// Package session holds per-process UI session state that outlives any one
// panel instance, such as which note most recently held focus.
package session

import "sync"

// FocusSlot remembers the last note the user activated. There is one slot
// per process, shared by every panel the host shell opens, so reopening the
// browse view restores focus instead of jumping to the top.
type FocusSlot struct {
	mu sync.Mutex
	id int64
	ok bool
}

// NewFocusSlot returns an empty slot.
func NewFocusSlot() *FocusSlot {
	return &FocusSlot{}
}

// Swap stores id as the focused note and returns the previous occupant.
// The second return is false when the slot was empty.
func (s *FocusSlot) Swap(id int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.id, s.ok
	s.id, s.ok = id, true
	return prev, ok
}

// Peek returns the focused note without changing the slot.
func (s *FocusSlot) Peek() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.ok
}

// Clear empties the slot.
func (s *FocusSlot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id, s.ok = 0, false
}
