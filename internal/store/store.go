// Package store persists notes and books and emits change events so the
// browsing panel can recompute its projection reactively.
package store

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotFound     = errors.New("store: not found")
	ErrNoActiveBook = errors.New("store: no active book")
)

// SortKey selects the field QueryNotes orders by.
type SortKey int

const (
	// SortByUpdated orders by the note's order stamp (update, falling back
	// to create, then delete).
	SortByUpdated SortKey = iota
	SortByCreated
	SortByID
)

// Query describes a note selection. Match runs against every candidate note;
// a nil Match selects everything. Limit <= 0 means unbounded. Results are
// sorted ascending by SortKey unless Reverse is set.
type Query struct {
	Match   func(*Note) bool
	Limit   int
	Reverse bool
	SortKey SortKey
}

// EventType describes the nature of a store change notification.
type EventType int

const (
	// EventNotesChanged indicates note records were created, edited, or
	// removed and any derived projection should be recomputed.
	EventNotesChanged EventType = iota

	// EventBooksChanged signals the book catalog changed.
	EventBooksChanged

	// EventActiveChanged signals the active note or book selection moved.
	EventActiveChanged
)

// Event is emitted by Store.Watch whenever the underlying data changes.
type Event struct {
	Type EventType
}

// Store is the contract the panel requires from the persistence layer. All
// mutations are fire-and-forget from the panel's perspective: their outcome
// becomes visible through the next Watch emission.
type Store interface {
	ActiveNote(ctx context.Context) (*Note, error)
	ActiveBook(ctx context.Context) (*Book, error)
	QueryNotes(ctx context.Context, q Query) ([]*Note, error)
	NoteByID(ctx context.Context, id int64) (*Note, error)
	Books(ctx context.Context) ([]*Book, error)

	UpsertNote(ctx context.Context, content string) (int64, error)
	UpdateNote(ctx context.Context, id int64, content string) error
	PutNote(ctx context.Context, n *Note) (int64, error)
	DeleteNote(ctx context.Context, id int64) error
	ActivateNote(ctx context.Context, id int64) error
	ResyncNote(ctx context.Context, id int64) error
	SetSyncResult(ctx context.Context, id int64, syncAt int64, reason string) error

	CreateBook(ctx context.Context, name string) (int64, error)
	ActivateBook(ctx context.Context, id int64) error
	SetBookEnabled(ctx context.Context, id int64, enabled bool) error

	Watch(ctx context.Context) (<-chan Event, error)
	Close() error
}

// broker fans out events to every active Watch subscriber. Emissions never
// block a mutation: a subscriber that stops draining loses events, and the
// next emission it does receive forces a full reprojection anyway.
type broker struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newBroker() *broker {
	return &broker{subs: make(map[chan Event]struct{})}
}

func (b *broker) subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (b *broker) emit(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
