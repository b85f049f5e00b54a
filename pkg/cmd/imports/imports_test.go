package imports

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/quirelabs/quire/internal/state"
	"github.com/quirelabs/quire/internal/store"
)

func TestSplitFrontmatter(t *testing.T) {
	content, meta := splitFrontmatter("---\ncreated: 2024-01-02\nupdated: 2024-02-03 10:00\n---\n# Title\n\nBody\n")

	if meta["created"] != "2024-01-02" {
		t.Fatalf("created = %q", meta["created"])
	}
	if meta["updated"] != "2024-02-03 10:00" {
		t.Fatalf("updated = %q", meta["updated"])
	}
	if content != "# Title\n\nBody\n" {
		t.Fatalf("content = %q", content)
	}
}

func TestSplitFrontmatterAbsent(t *testing.T) {
	content, meta := splitFrontmatter("# Title\n\nBody\n")
	if len(meta) != 0 {
		t.Fatalf("meta = %v", meta)
	}
	if content != "# Title\n\nBody\n" {
		t.Fatalf("content = %q", content)
	}
}

func TestSplitFrontmatterUnclosed(t *testing.T) {
	raw := "---\ncreated: 2024-01-02\n# Title\n"
	content, meta := splitFrontmatter(raw)
	if len(meta) != 0 {
		t.Fatalf("meta = %v", meta)
	}
	if content != raw {
		t.Fatalf("content = %q", content)
	}
}

func TestImportFilePreservesTimestamps(t *testing.T) {
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	bookID, err := st.CreateBook(ctx, "inbox")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "note.md")
	raw := "---\ncreated: 2024-01-02\nupdated: 2024-02-03\n---\n# Imported\n\nBody\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	s := &state.State{Store: st}
	if err := importFile(ctx, s, bookID, path); err != nil {
		t.Fatal(err)
	}

	notes, err := st.QueryNotes(ctx, store.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}

	n := notes[0]
	if n.BookID != bookID {
		t.Fatalf("book = %d", n.BookID)
	}
	if n.Content != "# Imported\n\nBody\n" {
		t.Fatalf("content = %q", n.Content)
	}
	if n.CreateAt == 0 || n.UpdateAt == 0 {
		t.Fatalf("timestamps not preserved: create=%d update=%d", n.CreateAt, n.UpdateAt)
	}
	if n.UpdateAt <= n.CreateAt {
		t.Fatalf("update %d should be after create %d", n.UpdateAt, n.CreateAt)
	}
}
