// Package panel implements the note browsing panel: a reactive, windowed,
// searchable, reverse-chronological list over the note store with live sync
// status per row.
package panel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/erikgeiser/promptkit/selection"

	"github.com/quirelabs/quire/internal/projection"
	"github.com/quirelabs/quire/internal/state"
	"github.com/quirelabs/quire/internal/store"
	"github.com/quirelabs/quire/internal/tui/panel/submodels"
	"github.com/quirelabs/quire/utils"
)

// Options season the panel at startup.
type Options struct {
	// InitialSearch pre-populates and enables search.
	InitialSearch string

	// DeleteMode starts the panel with the per-row delete affordance on.
	DeleteMode bool

	// DisableSearch removes the search affordance.
	DisableSearch bool

	// DisableDelete removes delete mode and the per-row delete affordance.
	DisableDelete bool
}

// storeEventMsg carries one store change notification. ok is false when the
// watch channel closed.
type storeEventMsg struct {
	event store.Event
	ok    bool
}

// projectionMsg is the result of one asynchronous projection pass. seq ties
// the result to the inputs it was computed from; stale results are dropped.
type projectionMsg struct {
	seq    uint64
	rows   []projection.Row
	book   *store.Book
	books  []*store.Book
	active *store.Note
	err    error
}

type Model struct {
	state  *state.State
	keys   *panelKeyMap
	pager  *Pager
	window Window
	focus  *FocusCoordinator

	searchInput   submodels.InputModel
	searching     bool
	searchText    string
	searchEnabled bool

	bookSelect *selection.Model[string]
	showBooks  bool

	rows    []projection.Row
	books   []*store.Book
	book    *store.Book
	cursor  int
	preview string
	status  string

	deleteMode     bool
	supportsSearch bool
	supportsDelete bool
	width          int
	height         int

	issued uint64
	events <-chan store.Event
	ctx    context.Context
}

func NewModel(s *state.State, opts Options) (*Model, error) {
	ctx := context.Background()

	events, err := s.Store.Watch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to watch store: %w", err)
	}

	input := submodels.NewInputModel()
	input.Input.Placeholder = "search notes"

	m := &Model{
		state:          s,
		keys:           newPanelKeyMap(),
		pager:          NewPager(0),
		focus:          NewFocusCoordinator(s.Session),
		searchInput:    input,
		deleteMode:     opts.DeleteMode && !opts.DisableDelete,
		supportsSearch: !opts.DisableSearch,
		supportsDelete: !opts.DisableDelete,
		events:         events,
		ctx:            ctx,
	}

	if opts.InitialSearch != "" && m.supportsSearch {
		m.searchText = opts.InitialSearch
		m.searchEnabled = true
		m.searchInput.Input.SetValue(opts.InitialSearch)
	}

	return m, nil
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.project(), m.searchInput.Init())
}

// waitForEvent blocks on the store's change feed and re-arms after every
// message, the fsnotify-to-message pattern.
func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		return storeEventMsg{event: e, ok: ok}
	}
}

// project kicks off an asynchronous projection pass over a snapshot of the
// current inputs. The sequence number makes the newest pass win: results
// from superseded passes are discarded on arrival.
func (m *Model) project() tea.Cmd {
	seq := m.state.Projection.Next()
	m.issued = seq

	var (
		ctx           = m.ctx
		st            = m.state.Store
		eng           = m.state.Projection
		searchText    = m.searchText
		searchEnabled = m.searchEnabled
		limit         = m.pager.Limit()
	)

	return func() tea.Msg {
		msg := projectionMsg{seq: seq}

		book, err := st.ActiveBook(ctx)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.book = book

		if msg.books, err = st.Books(ctx); err != nil {
			msg.err = err
			return msg
		}

		msg.rows, err = eng.Project(ctx, projection.Inputs{
			Book:          book.ID,
			SearchText:    searchText,
			SearchEnabled: searchEnabled,
			Limit:         limit,
		})
		if err != nil {
			msg.err = err
			return msg
		}

		// The active note may legitimately be absent.
		if active, err := st.ActiveNote(ctx); err == nil {
			msg.active = active
		}
		return msg
	}
}

// mutate issues a fire-and-forget store intent. Its outcome surfaces only
// through the next change-feed emission.
func (m *Model) mutate(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		_ = fn(ctx)
		return nil
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h, v := appStyle.GetFrameSize()
		m.window.Height = msg.Height - v - 1
		m.pager.Resize(m.window.Height)
		m.searchInput.Input.Width = (msg.Width - h) / 2
		return m, m.project()

	case storeEventMsg:
		if !msg.ok {
			return m, nil
		}
		return m, tea.Batch(m.waitForEvent(), m.project())

	case projectionMsg:
		return m.applyProjection(msg)

	case tea.KeyMsg:
		switch {
		case m.searching:
			return m.handleSearchUpdate(msg)
		case m.showBooks:
			return m.handleBooksUpdate(msg)
		default:
			return m.handleDefaultUpdate(msg)
		}
	}

	return m, nil
}

func (m *Model) applyProjection(msg projectionMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.issued {
		// A newer pass was issued while this one was in flight.
		return m, nil
	}

	if msg.err != nil {
		// No active book or a failed read renders the empty state, never
		// stale rows.
		m.rows = nil
		m.book = nil
		m.preview = ""
		if !errors.Is(msg.err, store.ErrNoActiveBook) {
			m.status = statusStyle(fmt.Sprintf("store error: %v", msg.err))
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.book == nil || m.book.ID != msg.book.ID {
		m.pager.OnBookChanged()
		m.window.ScrollTop = 0
		m.cursor = 0
		// Rerun with the reset limit when the stale one was larger.
		if m.pager.Limit() < len(msg.rows) {
			cmd = m.project()
		}
	}
	m.book = msg.book
	m.books = msg.books
	m.rows = msg.rows
	m.status = ""

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.window.Clamp(len(m.rows))

	if msg.active == nil {
		m.focus.OnActiveCleared()
	} else if m.focus.OnActiveNote(msg.active.ID, msg.active.UpdateAt) {
		m.window.ScrollTop = 0
		m.cursor = 0
	}

	m.handlePreview()
	return m, cmd
}

func (m *Model) handleSearchUpdate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.exitAltView):
		m.searching = false
		m.searchEnabled = false
		m.searchText = ""
		m.searchInput.Input.Blur()
		m.searchInput.Input.SetValue("")
		return m, m.project()

	case key.Matches(msg, m.keys.submitAltView):
		m.searching = false
		m.searchText = m.searchInput.Input.Value()
		m.searchEnabled = m.searchText != ""
		m.searchInput.Input.Blur()
		m.trackEvent("search_submitted", nil)
		return m, m.project()
	}

	var cmd tea.Cmd
	m.searchInput.Input, cmd = m.searchInput.Input.Update(msg)
	return m, cmd
}

func (m *Model) handleBooksUpdate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.exitAltView):
		m.showBooks = false
		return m, nil

	case key.Matches(msg, m.keys.submitAltView):
		m.showBooks = false
		name, err := m.bookSelect.Value()
		if err != nil {
			return m, nil
		}
		for _, b := range m.books {
			if b.Name == name {
				id := b.ID
				m.trackEvent("book_switched", map[string]any{"book": id})
				return m, m.mutate(func(ctx context.Context) error {
					return m.state.Store.ActivateBook(ctx, id)
				})
			}
		}
		return m, nil
	}

	_, cmd := m.bookSelect.Update(msg)
	return m, cmd
}

func (m *Model) handleDefaultUpdate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.cursorUp):
		return m, m.moveCursor(-1)

	case key.Matches(msg, m.keys.cursorDown):
		return m, m.moveCursor(1)

	case key.Matches(msg, m.keys.halfPageUp):
		return m, m.scrollBy(-m.window.Height / 2)

	case key.Matches(msg, m.keys.halfPageDown):
		return m, m.scrollBy(m.window.Height / 2)

	case key.Matches(msg, m.keys.openNote):
		if row, ok := m.selectedRow(); ok {
			id := row.NoteID
			m.trackEvent("note_opened", map[string]any{"note": id})
			return m, m.mutate(func(ctx context.Context) error {
				return m.state.Store.ActivateNote(ctx, id)
			})
		}

	case key.Matches(msg, m.keys.newNote):
		m.trackEvent("note_created", nil)
		return m, m.createNote()

	case key.Matches(msg, m.keys.toggleDeleteMode):
		if m.supportsDelete {
			m.deleteMode = !m.deleteMode
		}

	case key.Matches(msg, m.keys.deleteNote):
		if !m.supportsDelete || !m.deleteMode {
			break
		}
		if row, ok := m.selectedRow(); ok {
			id := row.NoteID
			m.trackEvent("note_deleted", map[string]any{"note": id})
			return m, m.deleteNote(id)
		}

	case key.Matches(msg, m.keys.resyncNote):
		if row, ok := m.selectedRow(); ok {
			return m, m.resyncNote(row)
		}

	case key.Matches(msg, m.keys.search):
		if !m.supportsSearch {
			break
		}
		m.searching = true
		m.searchInput.Input.Focus()
		return m, nil

	case key.Matches(msg, m.keys.showBooks):
		return m, m.openBookSelect()
	}

	return m, nil
}

func (m *Model) moveCursor(delta int) tea.Cmd {
	if len(m.rows) == 0 {
		return nil
	}

	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.window.ScrollRowIntoView(m.cursor, len(m.rows))
	m.handlePreview()
	return m.maybeGrow()
}

func (m *Model) scrollBy(lines int) tea.Cmd {
	m.window.ScrollTop += lines
	m.window.Clamp(len(m.rows))

	// Keep the cursor inside the viewport.
	start, end := m.window.VisibleRange(len(m.rows))
	if m.cursor < start {
		m.cursor = start
	}
	if end > 0 && m.cursor >= end {
		m.cursor = end - 1
	}
	m.handlePreview()
	return m.maybeGrow()
}

// maybeGrow raises the scroll-to-bottom event when the window sits exactly
// on its bottom edge and reprojects with the grown limit.
func (m *Model) maybeGrow() tea.Cmd {
	if len(m.rows) == 0 || !m.window.AtBottom(len(m.rows)) {
		return nil
	}
	m.pager.OnScrolledToBottom()
	return m.project()
}

func (m *Model) selectedRow() (projection.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return projection.Row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) createNote() tea.Cmd {
	syncer := m.state.Syncer
	st := m.state.Store
	return m.mutate(func(ctx context.Context) error {
		id, err := st.UpsertNote(ctx, "")
		if err != nil {
			return err
		}
		if syncer != nil {
			syncer.PushAsync(ctx, id)
		}
		return nil
	})
}

func (m *Model) deleteNote(id int64) tea.Cmd {
	syncer := m.state.Syncer
	st := m.state.Store
	return m.mutate(func(ctx context.Context) error {
		if err := st.DeleteNote(ctx, id); err != nil {
			return err
		}
		if syncer != nil {
			syncer.PushAsync(ctx, id)
		}
		return nil
	})
}

func (m *Model) resyncNote(row projection.Row) tea.Cmd {
	id := row.NoteID
	m.trackEvent("note_resynced", map[string]any{"note": id})

	syncer := m.state.Syncer
	st := m.state.Store
	return m.mutate(func(ctx context.Context) error {
		if syncer != nil {
			return syncer.Resync(ctx, id)
		}
		return st.ResyncNote(ctx, id)
	})
}

func (m *Model) openBookSelect() tea.Cmd {
	if len(m.books) == 0 {
		return nil
	}

	names := make([]string, 0, len(m.books))
	for _, b := range m.books {
		names = append(names, b.Name)
	}

	sel := selection.New("Switch book", names)
	sel.Filter = nil
	m.bookSelect = selection.NewModel(sel)
	m.showBooks = true
	return m.bookSelect.Init()
}

func (m *Model) handlePreview() {
	row, ok := m.selectedRow()
	if !ok {
		m.preview = ""
		return
	}

	n, err := m.state.Store.NoteByID(m.ctx, row.NoteID)
	if err != nil {
		m.preview = ""
		return
	}
	m.preview = utils.RenderMarkupPreview(n.Content, m.width/2)
}

func (m *Model) trackEvent(name string, fields map[string]any) {
	if m.state.Tracker != nil {
		m.state.Tracker.Event(name, fields)
	}
}

func (m *Model) View() string {
	if m.book == nil {
		return appStyle.Render(emptyStyle.Render(
			"nothing here yet\n\ncreate a book with: quire books add <name>",
		))
	}

	list := listStyle.Width(m.width / 2).Render(m.renderList())

	if m.showBooks && m.bookSelect != nil {
		overlay := previewStyle.Render(m.bookSelect.View())
		return appStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, list, overlay))
	}

	preview := previewStyle.Render(
		lipgloss.NewStyle().
			Height(m.window.Height).
			MaxHeight(m.window.Height).
			Render(fmt.Sprintf("%s\n%s", titleStyle.Render("Preview"), m.preview)),
	)

	return appStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, list, preview))
}

// renderList materializes only the rows intersecting the viewport plus
// overscan. Row identity follows the note id, so recomputed row values
// reuse their on-screen slot across passes.
func (m *Model) renderList() string {
	var b strings.Builder

	header := titleStyle.Render(m.book.Name)
	if m.deleteMode {
		header += "  " + syncFailedStyle.Render("[delete mode]")
	}
	if m.searchEnabled {
		header += "  " + statusStyle(fmt.Sprintf("/%s", m.searchText))
	}
	b.WriteString(header)
	b.WriteString("\n")

	if m.searching {
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}

	if len(m.rows) == 0 {
		b.WriteString(emptyStyle.Render("nothing here yet"))
		return b.String()
	}

	width := m.width/2 - 2
	start, end := m.window.VisibleRange(len(m.rows))
	for i := start; i < end; i++ {
		b.WriteString(renderRow(m.rows[i], i == m.cursor, m.deleteMode, width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Run starts the panel and blocks until the user quits.
func Run(s *state.State, opts Options) error {
	m, err := NewModel(s, opts)
	if err != nil {
		return err
	}

	if _, err := tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithAltScreen()).Run(); err != nil {
		if strings.Contains(err.Error(), "resource temporarily unavailable") {
			os.Exit(0)
		} else {
			log.Fatalf("Error running program: %v", err)
		}
	}

	return nil
}
