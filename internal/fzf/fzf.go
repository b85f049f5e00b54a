// Package fzf provides fuzzy selection over the note store for the quick
// open command.
package fzf

import (
	"context"
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/quirelabs/quire/internal/markup"
	"github.com/quirelabs/quire/internal/store"
	"github.com/quirelabs/quire/utils"
)

// FuzzyFinder encapsulates fuzzy selection over notes in the active book.
type FuzzyFinder struct {
	store     store.Store
	extractor markup.Extractor
	Header    string
	notes     []*store.Note
}

func NewFuzzyFinder(st store.Store, extractor markup.Extractor, header string) *FuzzyFinder {
	return &FuzzyFinder{store: st, extractor: extractor, Header: header}
}

// Run selects a note and returns its id. When activate is set the selected
// note also becomes the active note.
func (f *FuzzyFinder) Run(ctx context.Context, activate bool) (int64, error) {
	idx, err := f.find(ctx, "")
	if err != nil {
		f.handleFuzzySelectError(err)
		return 0, err
	}

	id := f.notes[idx].ID
	if activate {
		if err := f.store.ActivateNote(ctx, id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// RunWithQuery seeds the finder with an initial query.
func (f *FuzzyFinder) RunWithQuery(ctx context.Context, query string, activate bool) (int64, error) {
	idx, err := f.find(ctx, query)
	if err != nil {
		f.handleFuzzySelectError(err)
		return 0, err
	}

	id := f.notes[idx].ID
	if activate {
		if err := f.store.ActivateNote(ctx, id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (f *FuzzyFinder) find(ctx context.Context, query string) (int, error) {
	book, err := f.store.ActiveBook(ctx)
	if err != nil {
		return -1, err
	}

	notes, err := f.store.QueryNotes(ctx, store.Query{
		Match:   func(n *store.Note) bool { return n.Enabled && n.BookID == book.ID },
		Reverse: true,
	})
	if err != nil {
		return -1, fmt.Errorf("error listing notes: %w", err)
	}
	f.notes = notes

	return f.fuzzySelectNote(query)
}

func (f *FuzzyFinder) fuzzySelectNote(query string) (int, error) {
	options := []fuzzyfinder.Option{
		fuzzyfinder.WithPreviewWindow(f.renderPreview),
	}

	if query != "" {
		options = append(options, fuzzyfinder.WithQuery(query))
	}

	if f.Header != "" {
		options = append(options, fuzzyfinder.WithHeader(f.Header))
	}

	var labels []string
	for _, n := range f.notes {
		blocks := f.extractor.ExtractBlocks(n.Content)
		title := markup.Title(blocks)
		if title == "" {
			title = "untitled"
		}

		labels = append(labels, fmt.Sprintf(
			"%s [%s]",
			title,
			utils.RelativeTime(n.OrderStamp()),
		))
	}

	return fuzzyfinder.Find(f.notes, func(i int) string {
		return labels[i]
	}, options...)
}

func (f *FuzzyFinder) renderPreview(i, w, h int) string {
	if i == -1 {
		return ""
	}

	return utils.RenderMarkupPreview(f.notes[i].Content, w)
}

func (f *FuzzyFinder) handleFuzzySelectError(err error) {
	if err == fuzzyfinder.ErrAbort {
		fmt.Println("No note selected")
	} else {
		fmt.Println("Error selecting note:", err)
	}
}
