package store

import (
	"context"
	"testing"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()

	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertNoteRequiresActiveBook(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertNote(context.Background(), "orphan"); err != ErrNoActiveBook {
		t.Fatalf("expected ErrNoActiveBook, got %v", err)
	}
}

func TestUpsertNoteActivatesNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateBook(ctx, "journal"); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	id, err := s.UpsertNote(ctx, "<p>hello</p>")
	if err != nil {
		t.Fatalf("failed to upsert note: %v", err)
	}

	active, err := s.ActiveNote(ctx)
	if err != nil {
		t.Fatalf("failed to read active note: %v", err)
	}
	if active == nil || active.ID != id {
		t.Fatalf("expected note %d to be active, got %+v", id, active)
	}
	if active.CreateAt == 0 || active.UpdateAt == 0 {
		t.Fatalf("expected timestamps to be stamped, got %+v", active)
	}
}

func TestFirstBookBecomesActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateBook(ctx, "one")
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	if _, err := s.CreateBook(ctx, "two"); err != nil {
		t.Fatalf("failed to create second book: %v", err)
	}

	active, err := s.ActiveBook(ctx)
	if err != nil {
		t.Fatalf("failed to read active book: %v", err)
	}
	if active == nil || active.ID != first {
		t.Fatalf("expected book %d to stay active, got %+v", first, active)
	}
}

func TestActivateBookClearsActiveNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateBook(ctx, "one"); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	second, err := s.CreateBook(ctx, "two")
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	if _, err := s.UpsertNote(ctx, "text"); err != nil {
		t.Fatalf("failed to upsert note: %v", err)
	}

	if err := s.ActivateBook(ctx, second); err != nil {
		t.Fatalf("failed to activate book: %v", err)
	}

	note, err := s.ActiveNote(ctx)
	if err != nil {
		t.Fatalf("failed to read active note: %v", err)
	}
	if note != nil {
		t.Fatalf("expected no active note after book switch, got %+v", note)
	}
}

func TestDeleteNoteSoftDeletes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateBook(ctx, "journal"); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	id, err := s.UpsertNote(ctx, "doomed")
	if err != nil {
		t.Fatalf("failed to upsert note: %v", err)
	}

	if err := s.DeleteNote(ctx, id); err != nil {
		t.Fatalf("failed to delete note: %v", err)
	}

	n, err := s.NoteByID(ctx, id)
	if err != nil {
		t.Fatalf("expected record to survive soft delete: %v", err)
	}
	if n.Enabled {
		t.Fatal("expected note to be disabled after delete")
	}
	if n.DeleteAt == 0 {
		t.Fatal("expected delete stamp to be set")
	}

	active, err := s.ActiveNote(ctx)
	if err != nil {
		t.Fatalf("failed to read active note: %v", err)
	}
	if active != nil {
		t.Fatalf("expected active note to clear on delete, got %+v", active)
	}
}

func TestQueryNotesSortLimitReverse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateBook(ctx, "journal"); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	stamps := []int64{300, 100, 200}
	for i, stamp := range stamps {
		if _, err := s.PutNote(ctx, &Note{
			BookID:   1,
			Content:  "note",
			Enabled:  true,
			CreateAt: int64(i + 1),
			UpdateAt: stamp,
		}); err != nil {
			t.Fatalf("failed to put note: %v", err)
		}
	}

	notes, err := s.QueryNotes(ctx, Query{Reverse: true, SortKey: SortByUpdated})
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(notes))
	}
	for i := 1; i < len(notes); i++ {
		if notes[i-1].OrderStamp() < notes[i].OrderStamp() {
			t.Fatalf("expected descending order, got %d before %d",
				notes[i-1].OrderStamp(), notes[i].OrderStamp())
		}
	}

	limited, err := s.QueryNotes(ctx, Query{Limit: 2, Reverse: true, SortKey: SortByUpdated})
	if err != nil {
		t.Fatalf("failed to query with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(limited))
	}
	// The limit retains the newest ids, so the oldest note (highest stamp)
	// is the one cut.
	if limited[0].OrderStamp() != 200 || limited[1].OrderStamp() != 100 {
		t.Fatalf("expected stamps [200 100], got [%d %d]",
			limited[0].OrderStamp(), limited[1].OrderStamp())
	}
}

func TestQueryNotesPredicatePanicExcludes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateBook(ctx, "journal"); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	if _, err := s.UpsertNote(ctx, "fine"); err != nil {
		t.Fatalf("failed to upsert note: %v", err)
	}

	notes, err := s.QueryNotes(ctx, Query{
		Match: func(n *Note) bool { panic("boom") },
	})
	if err != nil {
		t.Fatalf("query must not propagate predicate faults: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("expected faulting predicate to exclude all notes, got %d", len(notes))
	}
}

func TestSetSyncResult(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateBook(ctx, "journal"); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	id, err := s.UpsertNote(ctx, "content")
	if err != nil {
		t.Fatalf("failed to upsert note: %v", err)
	}

	n, err := s.NoteByID(ctx, id)
	if err != nil {
		t.Fatalf("failed to read note: %v", err)
	}
	if n.Synced() {
		t.Fatal("fresh note must not read as synced")
	}

	if err := s.SetSyncResult(ctx, id, n.OrderStamp()+1, "success"); err != nil {
		t.Fatalf("failed to record sync result: %v", err)
	}

	n, err = s.NoteByID(ctx, id)
	if err != nil {
		t.Fatalf("failed to re-read note: %v", err)
	}
	if !n.Synced() {
		t.Fatalf("expected note to read as synced, got %+v", n)
	}
}

func TestWatchEmitsOnMutation(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("failed to watch: %v", err)
	}

	if _, err := s.CreateBook(ctx, "journal"); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	seen := map[EventType]bool{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-events:
			seen[ev.Type] = true
		default:
			t.Fatalf("expected buffered emissions, got %d", i)
		}
	}
	if !seen[EventBooksChanged] || !seen[EventActiveChanged] {
		t.Fatalf("expected book and active emissions, got %v", seen)
	}
}

func TestActiveBookFreshStore(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.ActiveBook(context.Background()); err != ErrNoActiveBook {
		t.Fatalf("expected ErrNoActiveBook on a fresh store, got %v", err)
	}
}
