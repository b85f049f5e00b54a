package imports

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/quirelabs/quire/internal/state"
	"github.com/quirelabs/quire/internal/store"
)

func NewCmdImport(s *state.State) *cobra.Command {
	var bookFlag string

	cmd := &cobra.Command{
		Use:     "import [files...]",
		Aliases: []string{"imp"},
		Short:   "Import markdown files as notes.",
		Long: heredoc.Doc(`
			Imports each file as a note into the active book, or into the book
			named with --book. A frontmatter block with created/updated fields
			preserves the original timestamps; most common date formats are
			accepted. Files without frontmatter are stamped with the file's
			modification time.
		`),
		Example: heredoc.Doc(`
			quire import notes/*.md
			quire import --book journal 2024-01-02.md
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(s, args, bookFlag)
		},
	}

	cmd.Flags().
		StringVarP(&bookFlag, "book", "b", "", "Import into this book instead of the active one")

	return cmd
}

func run(s *state.State, paths []string, bookName string) error {
	ctx := context.Background()

	book, err := resolveBook(ctx, s, bookName)
	if err != nil {
		return err
	}

	imported := 0
	for _, path := range paths {
		if err := importFile(ctx, s, book.ID, path); err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %s\n", path, err)
			continue
		}
		imported++
	}

	fmt.Printf("Imported %d of %d files into %q\n", imported, len(paths), book.Name)
	return nil
}

func resolveBook(ctx context.Context, s *state.State, name string) (*store.Book, error) {
	if name == "" {
		return s.Store.ActiveBook(ctx)
	}

	books, err := s.Store.Books(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range books {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("no book named %q", name)
}

func importFile(ctx context.Context, s *state.State, bookID int64, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	content, meta := splitFrontmatter(string(data))

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	createAt := info.ModTime().UnixMilli()
	updateAt := int64(0)

	if raw, ok := meta["created"]; ok {
		if t, err := dateparse.ParseAny(raw); err == nil {
			createAt = t.UnixMilli()
		}
	}
	if raw, ok := meta["updated"]; ok {
		if t, err := dateparse.ParseAny(raw); err == nil {
			updateAt = t.UnixMilli()
		}
	}

	_, err = s.Store.PutNote(ctx, &store.Note{
		BookID:   bookID,
		Content:  content,
		Enabled:  true,
		CreateAt: createAt,
		UpdateAt: updateAt,
	})
	return err
}

// splitFrontmatter peels a leading "---" delimited yaml block off the
// content. Anything that does not parse as frontmatter is left untouched.
func splitFrontmatter(content string) (string, map[string]string) {
	meta := map[string]string{}

	rest, found := strings.CutPrefix(content, "---\n")
	if !found {
		return content, meta
	}

	head, body, found := strings.Cut(rest, "\n---\n")
	if !found {
		return content, meta
	}

	raw := map[string]interface{}{}
	if err := yaml.Unmarshal([]byte(head), &raw); err != nil {
		return content, meta
	}
	for key, value := range raw {
		meta[strings.ToLower(key)] = strings.TrimSpace(fmt.Sprint(value))
	}

	return strings.TrimPrefix(body, "\n"), meta
}
