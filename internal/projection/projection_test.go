package projection

import (
	"context"
	"testing"

	"github.com/quirelabs/quire/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.DiskStore, int64) {
	t.Helper()

	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	book, err := s.CreateBook(context.Background(), "inbox")
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	return NewEngine(s, nil), s, book
}

func putNote(t *testing.T, s *store.DiskStore, n store.Note) int64 {
	t.Helper()
	id, err := s.PutNote(context.Background(), &n)
	if err != nil {
		t.Fatalf("put note: %v", err)
	}
	return id
}

func TestProjectOrdersNewestFirst(t *testing.T) {
	eng, s, book := newTestEngine(t)

	a := putNote(t, s, store.Note{BookID: book, Content: "<p>a</p>", Enabled: true, UpdateAt: 100})
	b := putNote(t, s, store.Note{BookID: book, Content: "<p>b</p>", Enabled: true, UpdateAt: 300})
	c := putNote(t, s, store.Note{BookID: book, Content: "<p>c</p>", Enabled: true, UpdateAt: 200})

	rows, err := eng.Project(context.Background(), Inputs{Book: book, Limit: 10})
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	want := []int64{b, c, a}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, id := range want {
		if rows[i].NoteID != id {
			t.Fatalf("row %d: expected note %d, got %d", i, id, rows[i].NoteID)
		}
	}
}

func TestProjectLimitKeepsNewestIDs(t *testing.T) {
	eng, s, book := newTestEngine(t)

	// Selection is capped newest-id-first before the descending sort, so a
	// truncated page always contains the latest records even when an older
	// note carries a fresher update stamp.
	putNote(t, s, store.Note{BookID: book, Content: "<p>old</p>", Enabled: true, UpdateAt: 900})
	kept := putNote(t, s, store.Note{BookID: book, Content: "<p>new</p>", Enabled: true, UpdateAt: 100})

	rows, err := eng.Project(context.Background(), Inputs{Book: book, Limit: 1})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(rows) != 1 || rows[0].NoteID != kept {
		t.Fatalf("expected only note %d, got %+v", kept, rows)
	}
}

func TestProjectNewNoteVisibleWithinLimit(t *testing.T) {
	eng, s, book := newTestEngine(t)

	putNote(t, s, store.Note{BookID: book, Content: "<p>old</p>", Enabled: true, UpdateAt: 100})

	created, err := s.UpsertNote(context.Background(), "<p>fresh</p>")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rows, err := eng.Project(context.Background(), Inputs{Book: book, Limit: 1})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(rows) != 1 || rows[0].NoteID != created {
		t.Fatalf("expected newly created note %d in limited page, got %+v", created, rows)
	}
}

func TestProjectSkipsDisabledAndOtherBooks(t *testing.T) {
	eng, s, book := newTestEngine(t)

	other, err := s.CreateBook(context.Background(), "archive")
	if err != nil {
		t.Fatalf("create book: %v", err)
	}

	want := putNote(t, s, store.Note{BookID: book, Content: "<p>mine</p>", Enabled: true, UpdateAt: 10})
	putNote(t, s, store.Note{BookID: book, Content: "<p>gone</p>", Enabled: false, UpdateAt: 20})
	putNote(t, s, store.Note{BookID: other, Content: "<p>elsewhere</p>", Enabled: true, UpdateAt: 30})

	rows, err := eng.Project(context.Background(), Inputs{Book: book, Limit: 10})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(rows) != 1 || rows[0].NoteID != want {
		t.Fatalf("expected only note %d, got %+v", want, rows)
	}
}

func TestProjectSearchFiltersContent(t *testing.T) {
	eng, s, book := newTestEngine(t)

	want := putNote(t, s, store.Note{BookID: book, Content: "<p>grocery list</p>", Enabled: true, UpdateAt: 10})
	putNote(t, s, store.Note{BookID: book, Content: "<p>meeting notes</p>", Enabled: true, UpdateAt: 20})

	rows, err := eng.Project(context.Background(), Inputs{
		Book:          book,
		SearchText:    "grocery",
		SearchEnabled: true,
		Limit:         10,
	})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(rows) != 1 || rows[0].NoteID != want {
		t.Fatalf("expected only note %d, got %+v", want, rows)
	}

	// Matching is a literal, case-sensitive substring test.
	rows, err = eng.Project(context.Background(), Inputs{
		Book:          book,
		SearchText:    "Grocery",
		SearchEnabled: true,
		Limit:         10,
	})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows for mismatched case, got %d", len(rows))
	}

	// Search text is ignored while the toggle is off.
	rows, err = eng.Project(context.Background(), Inputs{
		Book:       book,
		SearchText: "grocery",
		Limit:      10,
	})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows with search disabled, got %d", len(rows))
	}
}

func TestProjectDisabledBookYieldsNothing(t *testing.T) {
	eng, s, book := newTestEngine(t)

	putNote(t, s, store.Note{BookID: book, Content: "<p>hidden</p>", Enabled: true, UpdateAt: 10})

	if err := s.SetBookEnabled(context.Background(), book, false); err != nil {
		t.Fatalf("disable book: %v", err)
	}

	rows, err := eng.Project(context.Background(), Inputs{Book: book, Limit: 10})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows for disabled book, got %d", len(rows))
	}
}

func TestProjectRowFields(t *testing.T) {
	eng, s, book := newTestEngine(t)

	id := putNote(t, s, store.Note{
		BookID:   book,
		Content:  "<h1>Hello</h1><p>World</p><p>Extra</p>",
		Enabled:  true,
		UpdateAt: 500,
		SyncAt:   500,
		Reason:   "success",
	})

	rows, err := eng.Project(context.Background(), Inputs{Book: book, Limit: 10})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	r := rows[0]
	if r.NoteID != id || r.Title != "Hello" || r.Summary != "World\nExtra" {
		t.Fatalf("unexpected row: %+v", r)
	}
	if r.LastAt != 500 || !r.InSync || r.Reason != "success" {
		t.Fatalf("unexpected sync fields: %+v", r)
	}
}

func TestProjectStaleSyncStamp(t *testing.T) {
	eng, s, book := newTestEngine(t)

	putNote(t, s, store.Note{
		BookID:   book,
		Content:  "<p>edited since sync</p>",
		Enabled:  true,
		UpdateAt: 900,
		SyncAt:   500,
		Reason:   "success",
	})

	rows, err := eng.Project(context.Background(), Inputs{Book: book, Limit: 10})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if rows[0].InSync {
		t.Fatal("expected note edited after its sync stamp to read as out of sync")
	}
}

func TestProjectIdempotent(t *testing.T) {
	eng, s, book := newTestEngine(t)

	putNote(t, s, store.Note{BookID: book, Content: "<p>a</p>", Enabled: true, UpdateAt: 100})
	putNote(t, s, store.Note{BookID: book, Content: "<p>b</p>", Enabled: true, UpdateAt: 200})

	in := Inputs{Book: book, Limit: 10}
	first, err := eng.Project(context.Background(), in)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	second, err := eng.Project(context.Background(), in)
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestNextSequencesIncrease(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	a, b := eng.Next(), eng.Next()
	if b <= a {
		t.Fatalf("expected increasing sequence, got %d then %d", a, b)
	}
}
