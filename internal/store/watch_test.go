package store

import (
	"context"
	"testing"
	"time"
)

func TestWatchFSEmitsOnExternalWrite(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A second handle on the same directory stands in for another process;
	// its broker emissions never reach the first handle, so any event seen
	// below came through the filesystem.
	writer, err := Open(dir)
	if err != nil {
		t.Fatalf("failed to open writer store: %v", err)
	}
	defer writer.Close()

	if _, err := writer.CreateBook(ctx, "shared"); err != nil {
		t.Fatalf("failed to create book: %v", err)
	}
	if _, err := writer.UpsertNote(ctx, "<p>seed</p>"); err != nil {
		t.Fatalf("failed to seed note: %v", err)
	}

	reader, err := Open(dir)
	if err != nil {
		t.Fatalf("failed to open reader store: %v", err)
	}
	defer reader.Close()

	events, err := reader.Watch(ctx)
	if err != nil {
		t.Fatalf("failed to watch: %v", err)
	}
	if err := reader.WatchFS(ctx); err != nil {
		t.Fatalf("failed to start filesystem watch: %v", err)
	}

	if _, err := writer.UpsertNote(ctx, "<p>from elsewhere</p>"); err != nil {
		t.Fatalf("failed to write externally: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == EventNotesChanged {
				return
			}
		case <-deadline:
			t.Fatal("expected a notes-changed emission for an external write")
		}
	}
}
