package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"
)

const (
	notesBucket = "notes"
	booksBucket = "books"
	stateBucket = "state"

	activeKey = "state/active"
	seqKey    = "state/seq"
)

// activeState records the current selection. It lives in the store rather
// than the UI so every component observes the same selection reactively.
type activeState struct {
	NoteID int64 `json:"note_id"`
	BookID int64 `json:"book_id"`
}

// DiskStore is a Store backed by a diskv key-value directory. Values are
// JSON; keys are bucketed as notes/<id>, books/<id>, and state/<name>.
type DiskStore struct {
	d      *diskv.Diskv
	base   string
	broker *broker

	mu sync.Mutex // guards id allocation and active read-modify-write
}

// Open creates or opens a disk store rooted at base.
func Open(base string) (*DiskStore, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("store: base directory cannot be empty")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base directory: %w", err)
	}

	d := diskv.New(diskv.Options{
		BasePath:          base,
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      1024 * 1024, // 1MB
	})

	return &DiskStore{d: d, base: base, broker: newBroker()}, nil
}

func keyToPath(key string) *diskv.PathKey {
	parts := strings.Split(key, "/")
	last := len(parts) - 1
	return &diskv.PathKey{
		Path:     parts[:last],
		FileName: parts[last] + ".json",
	}
}

func pathToKey(pk *diskv.PathKey) string {
	name := strings.TrimSuffix(pk.FileName, ".json")
	if len(pk.Path) == 0 {
		return name
	}
	return strings.Join(pk.Path, "/") + "/" + name
}

func noteKey(id int64) string { return notesBucket + "/" + strconv.FormatInt(id, 10) }
func bookKey(id int64) string { return booksBucket + "/" + strconv.FormatInt(id, 10) }

func (s *DiskStore) readNote(key string) (*Note, error) {
	val, err := s.d.Read(key)
	if err != nil {
		return nil, ErrNotFound
	}
	n := &Note{}
	if err := json.Unmarshal(val, n); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return n, nil
}

func (s *DiskStore) readBook(key string) (*Book, error) {
	val, err := s.d.Read(key)
	if err != nil {
		return nil, ErrNotFound
	}
	b := &Book{}
	if err := json.Unmarshal(val, b); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return b, nil
}

func (s *DiskStore) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.d.Write(key, data)
}

func (s *DiskStore) nextID() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var seq int64
	if val, err := s.d.Read(seqKey); err == nil {
		seq, _ = strconv.ParseInt(strings.TrimSpace(string(val)), 10, 64)
	}
	seq++
	if err := s.d.Write(seqKey, []byte(strconv.FormatInt(seq, 10))); err != nil {
		return 0, err
	}
	return seq, nil
}

func (s *DiskStore) active() activeState {
	var a activeState
	if val, err := s.d.Read(activeKey); err == nil {
		_ = json.Unmarshal(val, &a)
	}
	return a
}

func (s *DiskStore) setActive(mutate func(*activeState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.active()
	mutate(&a)
	return s.write(activeKey, a)
}

func (s *DiskStore) ActiveNote(ctx context.Context) (*Note, error) {
	a := s.active()
	if a.NoteID == 0 {
		return nil, nil
	}
	n, err := s.readNote(noteKey(a.NoteID))
	if err != nil {
		return nil, nil
	}
	return n, nil
}

func (s *DiskStore) ActiveBook(ctx context.Context) (*Book, error) {
	a := s.active()
	if a.BookID == 0 {
		return nil, ErrNoActiveBook
	}
	b, err := s.readBook(bookKey(a.BookID))
	if err != nil {
		return nil, ErrNoActiveBook
	}
	return b, nil
}

func (s *DiskStore) NoteByID(ctx context.Context, id int64) (*Note, error) {
	return s.readNote(noteKey(id))
}

func (s *DiskStore) QueryNotes(ctx context.Context, q Query) ([]*Note, error) {
	var all []*Note
	for key := range s.d.KeysPrefix(notesBucket+"/", ctx.Done()) {
		n, err := s.readNote(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "store: %s: %v\n", key, err)
			continue
		}
		all = append(all, n)
	}
	return RunQuery(all, q), nil
}

func (s *DiskStore) Books(ctx context.Context) ([]*Book, error) {
	var all []*Book
	for key := range s.d.KeysPrefix(booksBucket+"/", ctx.Done()) {
		b, err := s.readBook(key)
		if err != nil {
			continue
		}
		all = append(all, b)
	}
	sortBooks(all)
	return all, nil
}

// UpsertNote creates a note with the given content in the active book and
// makes it the active note.
func (s *DiskStore) UpsertNote(ctx context.Context, content string) (int64, error) {
	book, err := s.ActiveBook(ctx)
	if err != nil {
		return 0, err
	}

	id, err := s.nextID()
	if err != nil {
		return 0, err
	}

	now := NowMillis()
	n := &Note{
		ID:       id,
		BookID:   book.ID,
		Content:  content,
		Enabled:  true,
		CreateAt: now,
		UpdateAt: now,
	}
	if err := s.write(noteKey(id), n); err != nil {
		return 0, err
	}
	if err := s.setActive(func(a *activeState) { a.NoteID = id }); err != nil {
		return 0, err
	}

	s.broker.emit(Event{Type: EventNotesChanged})
	s.broker.emit(Event{Type: EventActiveChanged})
	return id, nil
}

// UpdateNote replaces a note's content, stamps the edit, and clears the sync
// reason so the row reads as "syncing" until the next sync result lands.
func (s *DiskStore) UpdateNote(ctx context.Context, id int64, content string) error {
	n, err := s.readNote(noteKey(id))
	if err != nil {
		return err
	}

	n.Content = content
	n.UpdateAt = NowMillis()
	n.Reason = ""
	if err := s.write(noteKey(id), n); err != nil {
		return err
	}

	s.broker.emit(Event{Type: EventNotesChanged})
	if s.active().NoteID == id {
		s.broker.emit(Event{Type: EventActiveChanged})
	}
	return nil
}

// PutNote stores a fully-formed note, allocating an id when none is set.
// Import paths use this to preserve original timestamps.
func (s *DiskStore) PutNote(ctx context.Context, n *Note) (int64, error) {
	if n.ID == 0 {
		id, err := s.nextID()
		if err != nil {
			return 0, err
		}
		n.ID = id
	}
	if err := s.write(noteKey(n.ID), n); err != nil {
		return 0, err
	}
	s.broker.emit(Event{Type: EventNotesChanged})
	return n.ID, nil
}

// DeleteNote soft-deletes: the record survives with a delete stamp so the
// sync layer can propagate the removal.
func (s *DiskStore) DeleteNote(ctx context.Context, id int64) error {
	n, err := s.readNote(noteKey(id))
	if err != nil {
		return err
	}

	n.Enabled = false
	n.DeleteAt = NowMillis()
	if err := s.write(noteKey(id), n); err != nil {
		return err
	}

	if s.active().NoteID == id {
		if err := s.setActive(func(a *activeState) { a.NoteID = 0 }); err != nil {
			return err
		}
		s.broker.emit(Event{Type: EventActiveChanged})
	}

	s.broker.emit(Event{Type: EventNotesChanged})
	return nil
}

func (s *DiskStore) ActivateNote(ctx context.Context, id int64) error {
	if _, err := s.readNote(noteKey(id)); err != nil {
		return err
	}
	if err := s.setActive(func(a *activeState) { a.NoteID = id }); err != nil {
		return err
	}
	s.broker.emit(Event{Type: EventActiveChanged})
	return nil
}

// ResyncNote clears the failure reason so the note reads as "syncing" again
// and re-emits; the sync client picks the note up from the change feed.
func (s *DiskStore) ResyncNote(ctx context.Context, id int64) error {
	n, err := s.readNote(noteKey(id))
	if err != nil {
		return err
	}

	n.Reason = ""
	if err := s.write(noteKey(id), n); err != nil {
		return err
	}

	s.broker.emit(Event{Type: EventNotesChanged})
	return nil
}

func (s *DiskStore) SetSyncResult(ctx context.Context, id int64, syncAt int64, reason string) error {
	n, err := s.readNote(noteKey(id))
	if err != nil {
		return err
	}

	n.SyncAt = syncAt
	n.Reason = reason
	if err := s.write(noteKey(id), n); err != nil {
		return err
	}

	s.broker.emit(Event{Type: EventNotesChanged})
	return nil
}

// CreateBook adds a book and activates it when nothing else is active.
func (s *DiskStore) CreateBook(ctx context.Context, name string) (int64, error) {
	id, err := s.nextID()
	if err != nil {
		return 0, err
	}

	b := &Book{ID: id, Name: name, Enabled: true}
	if err := s.write(bookKey(id), b); err != nil {
		return 0, err
	}

	if s.active().BookID == 0 {
		if err := s.setActive(func(a *activeState) { a.BookID = id }); err != nil {
			return 0, err
		}
		s.broker.emit(Event{Type: EventActiveChanged})
	}

	s.broker.emit(Event{Type: EventBooksChanged})
	return id, nil
}

func (s *DiskStore) ActivateBook(ctx context.Context, id int64) error {
	if _, err := s.readBook(bookKey(id)); err != nil {
		return err
	}
	if err := s.setActive(func(a *activeState) {
		a.BookID = id
		a.NoteID = 0
	}); err != nil {
		return err
	}
	s.broker.emit(Event{Type: EventActiveChanged})
	return nil
}

func (s *DiskStore) SetBookEnabled(ctx context.Context, id int64, enabled bool) error {
	b, err := s.readBook(bookKey(id))
	if err != nil {
		return err
	}

	b.Enabled = enabled
	if err := s.write(bookKey(id), b); err != nil {
		return err
	}

	s.broker.emit(Event{Type: EventBooksChanged})
	s.broker.emit(Event{Type: EventNotesChanged})
	return nil
}

func (s *DiskStore) Watch(ctx context.Context) (<-chan Event, error) {
	return s.broker.subscribe(ctx), nil
}

func (s *DiskStore) Close() error {
	return nil
}

func sortBooks(books []*Book) {
	sort.Slice(books, func(i, j int) bool {
		return books[i].ID < books[j].ID
	})
}
