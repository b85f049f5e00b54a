package initialize

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/erikgeiser/promptkit/selection"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quirelabs/quire/internal/config"
	"github.com/quirelabs/quire/internal/state"
)

func NewCmdInit(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:     "initialize",
		Aliases: []string{"i", "init"},
		Short:   "Initialize quire.",
		Long: heredoc.Doc(`
			Walks through setting up the configuration: the storage backend,
			the markup extractor used for note titles and summaries, and the
			optional sync endpoint. Also creates a first book when the store
			has none.
		`),
		Example: "quire init",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(s)
		},
	}
}

func run(s *state.State) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("init needs an interactive terminal")
	}

	backend, err := pick("Storage backend", config.ValidBackends)
	if err != nil {
		return err
	}
	s.Config.Backend = backend

	if backend == config.BackendPostgres {
		dsn, err := prompt("Postgres DSN: ")
		if err != nil {
			return err
		}
		s.Config.DSN = dsn
	}

	extractor, err := pick("Markup extractor", config.ValidExtractors)
	if err != nil {
		return err
	}
	s.Config.Extractor = extractor

	endpoint, err := prompt("Sync endpoint (blank to keep notes local): ")
	if err != nil {
		return err
	}
	s.Config.Sync.Endpoint = endpoint

	if err := s.Config.Save(); err != nil {
		return err
	}

	if err := ensureFirstBook(s); err != nil {
		return err
	}

	fmt.Println("Config written to", s.Config.GetConfigPath())
	if endpoint != "" {
		fmt.Println("Run 'quire auth login' to enable sync.")
	}
	return nil
}

func pick(title string, valid map[string]bool) (string, error) {
	choices := make([]string, 0, len(valid))
	for name := range valid {
		choices = append(choices, name)
	}
	sort.Strings(choices)

	sel := selection.New(title, choices)
	sel.Filter = nil

	return sel.RunPrompt()
}

func prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func ensureFirstBook(s *state.State) error {
	ctx := context.Background()

	books, err := s.Store.Books(ctx)
	if err != nil {
		return err
	}
	if len(books) > 0 {
		return nil
	}

	name, err := prompt("Name for your first book [notes]: ")
	if err != nil {
		return err
	}
	if name == "" {
		name = "notes"
	}

	id, err := s.Store.CreateBook(ctx, name)
	if err != nil {
		return err
	}
	return s.Store.ActivateBook(ctx, id)
}
