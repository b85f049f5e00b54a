package sync

// notePayload is the wire form of a note pushed to the sync server.
type notePayload struct {
	NoteID   int64  `json:"note_id"`
	BookID   int64  `json:"book_id"`
	UserID   int32  `json:"user_id"`
	Content  string `json:"content"`
	CreateAt int64  `json:"create_at"`
	UpdateAt int64  `json:"update_at"`
	DeleteAt int64  `json:"delete_at"`
}

// pushResponse carries an optional server-supplied failure reason. When the
// server stays silent a generic reason is recorded instead.
type pushResponse struct {
	Reason string `json:"reason"`
}
