package browse

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/state"
	"github.com/quirelabs/quire/internal/tui/panel"
)

func NewCmdBrowse(s *state.State) *cobra.Command {
	var searchFlag string
	var deleteFlag bool

	cmd := &cobra.Command{
		Use:     "browse",
		Aliases: []string{"b", "ls"},
		Short:   "Browse the notes in the active book.",
		Long: heredoc.Doc(`
			Opens the interactive note browser for the active book. Notes are
			listed newest first and the list refreshes whenever the underlying
			data changes, including edits made from another terminal.

			Press / to search, B to switch books, C to create, and D to toggle
			delete mode.
		`),
		Example: heredoc.Doc(`
			quire browse
			quire browse --search groceries
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return panel.Run(s, panel.Options{
				InitialSearch: searchFlag,
				DeleteMode:    deleteFlag,
			})
		},
	}

	cmd.Flags().
		StringVarP(&searchFlag, "search", "s", "", "Start with an active search query")
	cmd.Flags().
		BoolVarP(&deleteFlag, "delete-mode", "d", false, "Start in delete mode")

	return cmd
}
