package open

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/fzf"
	"github.com/quirelabs/quire/internal/state"
)

func NewCmdOpen(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:     "open [query]",
		Aliases: []string{"o"},
		Short:   "Fuzzy find a note and make it active.",
		Long: heredoc.Doc(`
			Opens a fuzzy finder over the notes in the active book, newest
			first, with a rendered preview. The selected note becomes the
			active note, which scrolls the browser to it.
		`),
		Example: heredoc.Doc(`
			quire open
			quire open groceries
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			finder := fzf.NewFuzzyFinder(s.Store, s.Extractor, "Select a note to open")

			var (
				id  int64
				err error
			)
			if len(args) == 1 {
				id, err = finder.RunWithQuery(ctx, args[0], true)
			} else {
				id, err = finder.Run(ctx, true)
			}
			if err == fuzzyfinder.ErrAbort {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("Opened note %d\n", id)
			return nil
		},
	}
}
