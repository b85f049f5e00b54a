package books

import (
	"context"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/erikgeiser/promptkit/selection"
	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/state"
	"github.com/quirelabs/quire/internal/store"
	"github.com/quirelabs/quire/utils"
)

func NewCmdBooks(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "books",
		Aliases: []string{"book", "bk"},
		Short:   "List and manage books.",
		Long: heredoc.Doc(`
			Lists the books in the store. The active book is marked with an
			asterisk; disabled books show up but their notes are hidden from
			the browser until re-enabled.
		`),
		Example: heredoc.Doc(`
			quire books
			quire books add journal
			quire books switch
			quire books disable journal
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(s)
		},
	}

	cmd.AddCommand(
		newCmdAdd(s),
		newCmdSwitch(s),
		newCmdEnable(s, true),
		newCmdEnable(s, false),
	)

	return cmd
}

func runList(s *state.State) error {
	ctx := context.Background()

	books, err := s.Store.Books(ctx)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Println("No books yet. Create one with: quire books add <name>")
		return nil
	}

	active, err := s.Store.ActiveBook(ctx)
	if err != nil && err != store.ErrNoActiveBook {
		return err
	}

	for _, b := range books {
		marker := " "
		if active != nil && b.ID == active.ID {
			marker = "*"
		}
		suffix := ""
		if !b.Enabled {
			suffix = " (disabled)"
		}
		fmt.Printf("%s %s%s\n", marker, b.Name, suffix)
	}
	return nil
}

func newCmdAdd(s *state.State) *cobra.Command {
	var activateFlag bool

	cmd := &cobra.Command{
		Use:     "add [name]",
		Aliases: []string{"a", "create"},
		Short:   "Create a new book.",
		Example: "quire books add journal --activate",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := utils.ValidateInput(args[0]); err != nil {
				return err
			}

			ctx := context.Background()
			id, err := s.Store.CreateBook(ctx, args[0])
			if err != nil {
				return err
			}
			if activateFlag {
				if err := s.Store.ActivateBook(ctx, id); err != nil {
					return err
				}
			}
			fmt.Printf("Created book %q\n", args[0])
			return nil
		},
	}

	cmd.Flags().
		BoolVarP(&activateFlag, "activate", "a", false, "Make the new book active")

	return cmd
}

func newCmdSwitch(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:     "switch [name]",
		Aliases: []string{"sw", "use"},
		Short:   "Change the active book.",
		Long: heredoc.Doc(`
			Switches the active book. With a name argument the switch happens
			directly; without one an interactive picker is shown.
		`),
		Example: heredoc.Doc(`
			quire books switch journal
			quire books switch
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			books, err := s.Store.Books(ctx)
			if err != nil {
				return err
			}
			if len(books) == 0 {
				return fmt.Errorf("no books to switch to")
			}

			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				name, err = pickBook(books)
				if err != nil {
					return err
				}
			}

			for _, b := range books {
				if b.Name == name {
					if err := s.Store.ActivateBook(ctx, b.ID); err != nil {
						return err
					}
					fmt.Printf("Switched to %q\n", b.Name)
					return nil
				}
			}
			return fmt.Errorf("no book named %q", name)
		},
	}
}

func pickBook(books []*store.Book) (string, error) {
	names := make([]string, 0, len(books))
	for _, b := range books {
		names = append(names, b.Name)
	}

	sel := selection.New("Switch to which book?", names)
	sel.PageSize = 10

	choice, err := sel.RunPrompt()
	if err != nil {
		return "", err
	}
	return choice, nil
}

func newCmdEnable(s *state.State, enable bool) *cobra.Command {
	use, short := "enable", "Re-enable a disabled book."
	if !enable {
		use, short = "disable", "Hide a book's notes from the browser."
	}

	return &cobra.Command{
		Use:     use + " [name]",
		Short:   short,
		Example: "quire books " + use + " journal",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			books, err := s.Store.Books(ctx)
			if err != nil {
				return err
			}
			for _, b := range books {
				if strings.EqualFold(b.Name, args[0]) {
					if err := s.Store.SetBookEnabled(ctx, b.ID, enable); err != nil {
						return err
					}
					fmt.Printf("Book %q %sd\n", b.Name, use)
					return nil
				}
			}
			return fmt.Errorf("no book named %q", args[0])
		},
	}
}
