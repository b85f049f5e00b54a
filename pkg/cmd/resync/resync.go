package resync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/state"
	"github.com/quirelabs/quire/internal/store"
	"github.com/quirelabs/quire/utils"
)

func NewCmdResync(s *state.State) *cobra.Command {
	var allFlag bool

	cmd := &cobra.Command{
		Use:     "resync [id]",
		Aliases: []string{"rs"},
		Short:   "Retry synchronization for a note.",
		Long: heredoc.Doc(`
			Clears a note's sync failure and pushes it again. With --all every
			note whose last sync attempt failed is retried. Requires a sync
			endpoint and token in the config; run 'quire auth login' first.
		`),
		Example: heredoc.Doc(`
			quire resync 42
			quire resync --all
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.Syncer == nil {
				return fmt.Errorf("sync is not configured, run 'quire auth login' first")
			}
			if allFlag {
				return runAll(s)
			}
			if len(args) != 1 {
				return fmt.Errorf("a note id is required unless --all is set")
			}

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid note id %q", args[0])
			}
			return runOne(s, id)
		},
	}

	cmd.Flags().
		BoolVarP(&allFlag, "all", "a", false, "Retry every note whose last sync failed")

	return cmd
}

func runOne(s *state.State, id int64) error {
	ctx := context.Background()

	if err := s.Store.ResyncNote(ctx, id); err != nil {
		return err
	}
	if err := s.Syncer.Push(ctx, id); err != nil {
		return err
	}

	n, err := s.Store.NoteByID(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Note %d: %s\n", id, utils.ReasonText(n.Reason))
	return nil
}

func runAll(s *state.State) error {
	ctx := context.Background()

	failed, err := s.Store.QueryNotes(ctx, store.Query{
		Match: func(n *store.Note) bool {
			return n.Reason != "" && n.Reason != "success"
		},
	})
	if err != nil {
		return err
	}
	if len(failed) == 0 {
		fmt.Println("Nothing to resync")
		return nil
	}

	for _, n := range failed {
		if err := s.Store.ResyncNote(ctx, n.ID); err != nil {
			fmt.Printf("Note %d: %s\n", n.ID, err)
			continue
		}
		if err := s.Syncer.Push(ctx, n.ID); err != nil {
			fmt.Printf("Note %d: %s\n", n.ID, err)
		}
	}
	fmt.Printf("Retried %d notes\n", len(failed))
	return nil
}
