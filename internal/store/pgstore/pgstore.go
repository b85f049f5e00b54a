// Package pgstore provides a Postgres-backed note store for setups where the
// store directory cannot be shared (multiple machines against one database).
// Change notifications ride on LISTEN/NOTIFY so panels on every connection
// reproject when any of them mutates.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quirelabs/quire/internal/store"
)

const notifyChannel = "quire_changes"

const schema = `
create table if not exists books (
	id bigserial primary key,
	name text not null,
	enabled boolean not null default true
);
create table if not exists notes (
	id bigserial primary key,
	book_id bigint not null references books(id),
	content text not null default '',
	enabled boolean not null default true,
	create_at bigint not null default 0,
	update_at bigint not null default 0,
	delete_at bigint not null default 0,
	sync_at bigint not null default 0,
	reason text not null default ''
);
create table if not exists active_state (
	slot boolean primary key default true,
	note_id bigint not null default 0,
	book_id bigint not null default 0
);
insert into active_state (slot) values (true) on conflict do nothing;
`

// PGStore implements store.Store over a pgx connection pool.
type PGStore struct {
	pool *pgxpool.Pool

	listenOnce sync.Once
	events     chan store.Event
	subs       struct {
		sync.Mutex
		m map[chan store.Event]struct{}
	}
}

// Open connects to dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: migrate: %w", err)
	}
	s := &PGStore{pool: pool}
	s.subs.m = make(map[chan store.Event]struct{})
	return s, nil
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PGStore) notify(ctx context.Context, t store.EventType) {
	// Local subscribers hear about the change immediately; pg_notify fans it
	// out to every other connected process.
	s.fanout(store.Event{Type: t})
	_, _ = s.pool.Exec(ctx, "select pg_notify($1, $2)", notifyChannel, kindName(t))
}

func kindName(t store.EventType) string {
	switch t {
	case store.EventBooksChanged:
		return "books"
	case store.EventActiveChanged:
		return "active"
	default:
		return "notes"
	}
}

func kindType(name string) store.EventType {
	switch name {
	case "books":
		return store.EventBooksChanged
	case "active":
		return store.EventActiveChanged
	default:
		return store.EventNotesChanged
	}
}

func (s *PGStore) fanout(ev store.Event) {
	s.subs.Lock()
	defer s.subs.Unlock()
	for ch := range s.subs.m {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Watch subscribes to change events. The first subscriber starts the
// LISTEN loop; it survives individual subscriber cancellation.
func (s *PGStore) Watch(ctx context.Context) (<-chan store.Event, error) {
	s.listenOnce.Do(func() {
		go s.listen(context.Background())
	})

	ch := make(chan store.Event, 16)
	s.subs.Lock()
	s.subs.m[ch] = struct{}{}
	s.subs.Unlock()

	go func() {
		<-ctx.Done()
		s.subs.Lock()
		delete(s.subs.m, ch)
		s.subs.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (s *PGStore) listen(ctx context.Context) {
	for {
		conn, err := s.pool.Acquire(ctx)
		if err != nil {
			return
		}

		if _, err := conn.Exec(ctx, "listen "+notifyChannel); err != nil {
			conn.Release()
			return
		}

		for {
			notification, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				break
			}
			s.fanout(store.Event{Type: kindType(notification.Payload)})
		}
		conn.Release()

		if ctx.Err() != nil {
			return
		}
	}
}

func (s *PGStore) ActiveNote(ctx context.Context) (*store.Note, error) {
	var id int64
	if err := s.pool.QueryRow(ctx,
		"select note_id from active_state where slot").Scan(&id); err != nil {
		return nil, nil
	}
	if id == 0 {
		return nil, nil
	}
	n, err := s.NoteByID(ctx, id)
	if err != nil {
		return nil, nil
	}
	return n, nil
}

func (s *PGStore) ActiveBook(ctx context.Context) (*store.Book, error) {
	var id int64
	if err := s.pool.QueryRow(ctx,
		"select book_id from active_state where slot").Scan(&id); err != nil {
		return nil, store.ErrNoActiveBook
	}
	if id == 0 {
		return nil, store.ErrNoActiveBook
	}

	b := &store.Book{}
	err := s.pool.QueryRow(ctx,
		"select id, name, enabled from books where id = $1", id).
		Scan(&b.ID, &b.Name, &b.Enabled)
	if err != nil {
		return nil, store.ErrNoActiveBook
	}
	return b, nil
}

func (s *PGStore) NoteByID(ctx context.Context, id int64) (*store.Note, error) {
	n := &store.Note{}
	err := s.pool.QueryRow(ctx,
		`select id, book_id, content, enabled, create_at, update_at, delete_at, sync_at, reason
		 from notes where id = $1`, id).
		Scan(&n.ID, &n.BookID, &n.Content, &n.Enabled,
			&n.CreateAt, &n.UpdateAt, &n.DeleteAt, &n.SyncAt, &n.Reason)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// QueryNotes fetches candidates ordered by the requested key in SQL, then
// applies the Go-side predicate and limit. The predicate cannot be pushed
// down, so the limit has to be applied after filtering here as well.
func (s *PGStore) QueryNotes(ctx context.Context, q store.Query) ([]*store.Note, error) {
	rows, err := s.pool.Query(ctx,
		`select id, book_id, content, enabled, create_at, update_at, delete_at, sync_at, reason
		 from notes order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []*store.Note
	for rows.Next() {
		n := &store.Note{}
		if err := rows.Scan(&n.ID, &n.BookID, &n.Content, &n.Enabled,
			&n.CreateAt, &n.UpdateAt, &n.DeleteAt, &n.SyncAt, &n.Reason); err != nil {
			return nil, err
		}
		all = append(all, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return store.RunQuery(all, q), nil
}

func (s *PGStore) Books(ctx context.Context) ([]*store.Book, error) {
	rows, err := s.pool.Query(ctx, "select id, name, enabled from books order by id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []*store.Book
	for rows.Next() {
		b := &store.Book{}
		if err := rows.Scan(&b.ID, &b.Name, &b.Enabled); err != nil {
			return nil, err
		}
		all = append(all, b)
	}
	return all, rows.Err()
}

func (s *PGStore) UpsertNote(ctx context.Context, content string) (int64, error) {
	book, err := s.ActiveBook(ctx)
	if err != nil {
		return 0, err
	}

	now := store.NowMillis()
	var id int64
	err = s.pool.QueryRow(ctx,
		`insert into notes (book_id, content, enabled, create_at, update_at)
		 values ($1, $2, true, $3, $3) returning id`,
		book.ID, content, now).Scan(&id)
	if err != nil {
		return 0, err
	}

	if _, err := s.pool.Exec(ctx,
		"update active_state set note_id = $1 where slot", id); err != nil {
		return 0, err
	}

	s.notify(ctx, store.EventNotesChanged)
	s.notify(ctx, store.EventActiveChanged)
	return id, nil
}

func (s *PGStore) UpdateNote(ctx context.Context, id int64, content string) error {
	tag, err := s.pool.Exec(ctx,
		"update notes set content = $1, update_at = $2, reason = '' where id = $3",
		content, store.NowMillis(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	s.notify(ctx, store.EventNotesChanged)
	return nil
}

func (s *PGStore) PutNote(ctx context.Context, n *store.Note) (int64, error) {
	if n.ID == 0 {
		err := s.pool.QueryRow(ctx,
			`insert into notes (book_id, content, enabled, create_at, update_at, delete_at, sync_at, reason)
			 values ($1, $2, $3, $4, $5, $6, $7, $8) returning id`,
			n.BookID, n.Content, n.Enabled, n.CreateAt, n.UpdateAt,
			n.DeleteAt, n.SyncAt, n.Reason).Scan(&n.ID)
		if err != nil {
			return 0, err
		}
	} else {
		_, err := s.pool.Exec(ctx,
			`insert into notes (id, book_id, content, enabled, create_at, update_at, delete_at, sync_at, reason)
			 values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 on conflict (id) do update set
			   book_id = excluded.book_id, content = excluded.content,
			   enabled = excluded.enabled, create_at = excluded.create_at,
			   update_at = excluded.update_at, delete_at = excluded.delete_at,
			   sync_at = excluded.sync_at, reason = excluded.reason`,
			n.ID, n.BookID, n.Content, n.Enabled, n.CreateAt, n.UpdateAt,
			n.DeleteAt, n.SyncAt, n.Reason)
		if err != nil {
			return 0, err
		}
	}

	s.notify(ctx, store.EventNotesChanged)
	return n.ID, nil
}

func (s *PGStore) DeleteNote(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		"update notes set enabled = false, delete_at = $1 where id = $2",
		store.NowMillis(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	if _, err := s.pool.Exec(ctx,
		"update active_state set note_id = 0 where slot and note_id = $1", id); err != nil {
		return err
	}

	s.notify(ctx, store.EventNotesChanged)
	s.notify(ctx, store.EventActiveChanged)
	return nil
}

func (s *PGStore) ActivateNote(ctx context.Context, id int64) error {
	if _, err := s.NoteByID(ctx, id); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		"update active_state set note_id = $1 where slot", id); err != nil {
		return err
	}
	s.notify(ctx, store.EventActiveChanged)
	return nil
}

func (s *PGStore) ResyncNote(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "update notes set reason = '' where id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	s.notify(ctx, store.EventNotesChanged)
	return nil
}

func (s *PGStore) SetSyncResult(ctx context.Context, id int64, syncAt int64, reason string) error {
	tag, err := s.pool.Exec(ctx,
		"update notes set sync_at = $1, reason = $2 where id = $3", syncAt, reason, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	s.notify(ctx, store.EventNotesChanged)
	return nil
}

func (s *PGStore) CreateBook(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx,
		"insert into books (name, enabled) values ($1, true) returning id", name).
		Scan(&id); err != nil {
		return 0, err
	}

	if _, err := s.pool.Exec(ctx,
		"update active_state set book_id = $1 where slot and book_id = 0", id); err != nil {
		return 0, err
	}

	s.notify(ctx, store.EventBooksChanged)
	return id, nil
}

func (s *PGStore) ActivateBook(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		"update active_state set book_id = $1, note_id = 0 where slot", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	s.notify(ctx, store.EventActiveChanged)
	return nil
}

func (s *PGStore) SetBookEnabled(ctx context.Context, id int64, enabled bool) error {
	tag, err := s.pool.Exec(ctx,
		"update books set enabled = $1 where id = $2", enabled, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	s.notify(ctx, store.EventBooksChanged)
	s.notify(ctx, store.EventNotesChanged)
	return nil
}
