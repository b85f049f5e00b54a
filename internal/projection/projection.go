// Package projection derives the rows the browse panel displays from the
// note store. A projection is a pure function of the store contents and the
// panel inputs (active book, search text, page limit), so re-running it on
// any store event converges the view.
package projection

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/quirelabs/quire/internal/markup"
	"github.com/quirelabs/quire/internal/store"
)

// Row is one rendered list entry. LastAt is the note's ordering stamp and
// drives the reverse-chronological sort.
type Row struct {
	NoteID  int64
	Title   string
	Summary string
	LastAt  int64
	InSync  bool
	Reason  string
}

// Inputs selects which notes a projection covers.
type Inputs struct {
	Book          int64
	SearchText    string
	SearchEnabled bool
	Limit         int
}

// SummaryRunes caps row summaries.
const SummaryRunes = 20

// Engine computes row projections. It is safe for concurrent use; each
// Project call carries a monotonically increasing sequence number so callers
// can discard results that finished out of order.
type Engine struct {
	store     store.Store
	extractor markup.Extractor
	seq       atomic.Uint64
}

func NewEngine(s store.Store, e markup.Extractor) *Engine {
	if e == nil {
		e = markup.NewBlockExtractor()
	}
	return &Engine{store: s, extractor: e}
}

// Next reserves a sequence number for a projection about to start. Results
// bearing a number lower than the latest reserved one are stale.
func (e *Engine) Next() uint64 {
	return e.seq.Add(1)
}

// Project computes the rows for in. Notes are matched in stable id order,
// capped at in.Limit, then sorted newest-first by ordering stamp. Disabled
// notes and notes of disabled books never appear; when search is enabled
// only notes whose raw content contains the search text as a literal,
// case-sensitive substring match.
func (e *Engine) Project(ctx context.Context, in Inputs) ([]Row, error) {
	if enabled, err := e.bookEnabled(ctx, in.Book); err != nil || !enabled {
		return nil, err
	}

	notes, err := e.store.QueryNotes(ctx, store.Query{
		Match: func(n *store.Note) bool {
			if !n.Enabled || n.BookID != in.Book {
				return false
			}
			if in.SearchEnabled && in.SearchText != "" {
				return strings.Contains(n.Content, in.SearchText)
			}
			return true
		},
		Limit:   in.Limit,
		SortKey: store.SortByUpdated,
		Reverse: true,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, e.row(n))
	}
	return rows, nil
}

func (e *Engine) bookEnabled(ctx context.Context, id int64) (bool, error) {
	books, err := e.store.Books(ctx)
	if err != nil {
		return false, err
	}
	for _, b := range books {
		if b.ID == id {
			return b.Enabled, nil
		}
	}
	return false, nil
}

func (e *Engine) row(n *store.Note) Row {
	blocks := e.extractor.ExtractBlocks(n.Content)
	return Row{
		NoteID:  n.ID,
		Title:   markup.Title(blocks),
		Summary: markup.Summary(blocks, SummaryRunes),
		LastAt:  n.OrderStamp(),
		InSync:  n.Synced(),
		Reason:  n.Reason,
	}
}
