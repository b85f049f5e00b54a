// Package track records coarse usage events (panel opened, note focused,
// search toggled) for later review. Tracking is best-effort: a failed write
// never disturbs the panel.
package track

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Tracker receives usage events. Implementations must be safe for concurrent
// use and must not block the caller.
type Tracker interface {
	Event(name string, fields map[string]any)
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Event(string, map[string]any) {}
func (Noop) Close() error                 { return nil }

type record struct {
	At     string         `json:"at"`
	Name   string         `json:"name"`
	Fields map[string]any `json:"fields,omitempty"`
}

// FileTracker appends events as JSON lines to a file under dir.
type FileTracker struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// OpenFile creates dir if needed and opens the event log for appending.
func OpenFile(dir string) (*FileTracker, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(
		filepath.Join(dir, "events.jsonl"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0o644,
	)
	if err != nil {
		return nil, err
	}
	return &FileTracker{f: f, enc: json.NewEncoder(f)}, nil
}

func (t *FileTracker) Event(name string, fields map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Encode errors are swallowed: tracking must never surface a fault.
	_ = t.enc.Encode(record{
		At:     time.Now().UTC().Format(time.RFC3339),
		Name:   name,
		Fields: fields,
	})
}

func (t *FileTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.f.Close()
}
