package panel

import "github.com/charmbracelet/bubbles/key"

type panelKeyMap struct {
	cursorUp         key.Binding
	cursorDown       key.Binding
	halfPageUp       key.Binding
	halfPageDown     key.Binding
	openNote         key.Binding
	newNote          key.Binding
	deleteNote       key.Binding
	toggleDeleteMode key.Binding
	resyncNote       key.Binding
	search           key.Binding
	showBooks        key.Binding
	submitAltView    key.Binding
	exitAltView      key.Binding
	quit             key.Binding
}

func newPanelKeyMap() *panelKeyMap {
	return &panelKeyMap{
		cursorUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		cursorDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		halfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "half page up"),
		),
		halfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "half page down"),
		),
		openNote: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "open"),
		),
		newNote: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "create"),
		),
		deleteNote: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete (delete mode)"),
		),
		toggleDeleteMode: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "toggle delete mode"),
		),
		resyncNote: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "retry sync"),
		),
		search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		showBooks: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "books"),
		),
		submitAltView: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "submit (alt view)"),
		),
		exitAltView: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "exit alt view"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
