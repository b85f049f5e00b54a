package panel

import "github.com/quirelabs/quire/internal/session"

// FocusCoordinator decides whether an active-note emission should snap the
// window back to the top. The last-seen note id lives in the process-wide
// session slot so the decision survives panel restarts.
type FocusCoordinator struct {
	slot      *session.FocusSlot
	lastID    int64
	lastStamp int64
	seen      bool
}

func NewFocusCoordinator(slot *session.FocusSlot) *FocusCoordinator {
	return &FocusCoordinator{slot: slot}
}

// OnActiveNote is called with the active note's id and update stamp on
// every emission. It returns true when the window should scroll to the top:
// the same note re-emitted with a new stamp means its content changed and
// its row moved to the head of the list. A different note becoming active
// never scrolls; re-emissions with nothing changed are ignored.
func (c *FocusCoordinator) OnActiveNote(id, updateAt int64) bool {
	if c.seen && id == c.lastID && updateAt == c.lastStamp {
		return false
	}
	c.lastID, c.lastStamp, c.seen = id, updateAt, true

	prev, ok := c.slot.Swap(id)
	return ok && prev == id
}

// OnActiveCleared records an emission with no active note. The slot empties
// so the note's eventual return reads as a fresh focus, not a refresh in
// place.
func (c *FocusCoordinator) OnActiveCleared() {
	c.lastID, c.lastStamp, c.seen = 0, 0, false
	c.slot.Clear()
}
