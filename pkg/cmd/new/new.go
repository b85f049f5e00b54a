package new

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quirelabs/quire/internal/state"
)

func NewCmdNew(s *state.State) *cobra.Command {
	var pasteFlag bool

	cmd := &cobra.Command{
		Use:     "new [content]",
		Aliases: []string{"n", "add"},
		Short:   "Create a note in the active book.",
		Long: heredoc.Doc(`
			Creates a note in the active book and activates it. Content comes
			from the arguments, from the clipboard with --paste, or from stdin
			when piped in. The first block of the note becomes its title in the
			browser.
		`),
		Example: heredoc.Doc(`
			quire new "# Groceries" "milk, eggs, bread"
			quire new --paste
			cat draft.md | quire new
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := resolveContent(args, pasteFlag)
			if err != nil {
				return err
			}
			return run(s, content)
		},
	}

	cmd.Flags().
		BoolVarP(&pasteFlag, "paste", "p", false, "Use the clipboard as the note content")

	return cmd
}

func resolveContent(args []string, paste bool) (string, error) {
	if paste {
		content, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("failed to read clipboard: %w", err)
		}
		return content, nil
	}

	if len(args) > 0 {
		return strings.Join(args, "\n\n"), nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	return "", errors.New("no content given, try 'quire new [content]'")
}

func run(s *state.State, content string) error {
	ctx := context.Background()

	id, err := s.Store.UpsertNote(ctx, content)
	if err != nil {
		return err
	}

	if err := s.Store.ActivateNote(ctx, id); err != nil {
		return err
	}

	if s.Syncer != nil {
		if err := s.Syncer.Push(ctx, id); err != nil {
			fmt.Fprintf(os.Stderr, "warning: sync failed: %s\n", err)
		}
	}

	fmt.Printf("Created note %d\n", id)
	return nil
}
