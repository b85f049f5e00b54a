package panel

import (
	"testing"

	"github.com/quirelabs/quire/internal/session"
)

func TestSameNoteNewStampScrollsToTop(t *testing.T) {
	t.Parallel()

	c := NewFocusCoordinator(session.NewFocusSlot())

	if c.OnActiveNote(5, 100) {
		t.Fatal("first emission must not scroll")
	}
	if !c.OnActiveNote(5, 200) {
		t.Fatal("same note with new stamp must scroll to top")
	}
}

func TestDifferentNoteDoesNotScroll(t *testing.T) {
	t.Parallel()

	c := NewFocusCoordinator(session.NewFocusSlot())

	c.OnActiveNote(5, 100)
	if c.OnActiveNote(7, 200) {
		t.Fatal("navigating to a different note must not scroll")
	}
	if !c.OnActiveNote(7, 300) {
		t.Fatal("editing the newly active note must scroll")
	}
}

func TestUnchangedEmissionIgnored(t *testing.T) {
	t.Parallel()

	c := NewFocusCoordinator(session.NewFocusSlot())

	c.OnActiveNote(5, 100)
	if c.OnActiveNote(5, 100) {
		t.Fatal("re-emission with an unchanged stamp must not scroll")
	}
}

func TestSlotSurvivesCoordinatorRestart(t *testing.T) {
	t.Parallel()

	slot := session.NewFocusSlot()

	first := NewFocusCoordinator(slot)
	first.OnActiveNote(5, 100)

	// A remounted panel shares the process-wide slot, so the same note
	// re-emitting still reads as a refresh-in-place.
	second := NewFocusCoordinator(slot)
	if !second.OnActiveNote(5, 200) {
		t.Fatal("slot state must survive a coordinator restart")
	}
}

func TestClearedActiveResetsFocus(t *testing.T) {
	t.Parallel()

	slot := session.NewFocusSlot()
	c := NewFocusCoordinator(slot)

	c.OnActiveNote(5, 100)
	c.OnActiveCleared()

	if _, ok := slot.Peek(); ok {
		t.Fatal("slot must empty when no note is active")
	}
	if c.OnActiveNote(5, 200) {
		t.Fatal("a note returning after absence is a fresh focus, not a refresh")
	}
	if !c.OnActiveNote(5, 300) {
		t.Fatal("a subsequent edit in place must scroll to top again")
	}
}
