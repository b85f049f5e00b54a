package store

import "time"

// Note is a single rich-text record inside a book. Timestamps are unix
// milliseconds; zero means absent. Reason is the opaque code reported by the
// last synchronization attempt; "success" is the only value that counts as a
// successful sync, an empty string means a sync is still pending.
type Note struct {
	ID       int64  `json:"id"`
	BookID   int64  `json:"book_id"`
	Content  string `json:"content"`
	Enabled  bool   `json:"enabled"`
	CreateAt int64  `json:"create_at"`
	UpdateAt int64  `json:"update_at,omitempty"`
	DeleteAt int64  `json:"delete_at,omitempty"`
	SyncAt   int64  `json:"sync_at,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Book groups notes. Notes in a disabled book are invisible regardless of
// their own enabled flag.
type Book struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// OrderStamp returns the timestamp a note is ordered by: the update stamp
// when present, otherwise creation, otherwise deletion.
func (n *Note) OrderStamp() int64 {
	if n.UpdateAt != 0 {
		return n.UpdateAt
	}
	if n.CreateAt != 0 {
		return n.CreateAt
	}
	return n.DeleteAt
}

// Synced reports whether the note's last sync covers its latest edit.
func (n *Note) Synced() bool {
	return n.SyncAt != 0 && n.SyncAt >= n.OrderStamp()
}

func NowMillis() int64 {
	return time.Now().UnixMilli()
}
