package root

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/constants"
	"github.com/quirelabs/quire/internal/state"
	"github.com/quirelabs/quire/pkg/cmd/auth"
	"github.com/quirelabs/quire/pkg/cmd/backup"
	"github.com/quirelabs/quire/pkg/cmd/books"
	"github.com/quirelabs/quire/pkg/cmd/browse"
	"github.com/quirelabs/quire/pkg/cmd/imports"
	"github.com/quirelabs/quire/pkg/cmd/initialize"
	"github.com/quirelabs/quire/pkg/cmd/new"
	"github.com/quirelabs/quire/pkg/cmd/open"
	"github.com/quirelabs/quire/pkg/cmd/resync"
)

func NewCmdRoot(s *state.State) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     "quire",
		Aliases: []string{"qr"},
		Short:   "Reactive note browsing from the terminal.",
		Long: heredoc.Doc(`
			Quire keeps rich-text notes in books and browses them newest
			first, with live search, sync status, and a rendered preview.
			Running quire with no arguments opens the browser.
		`),
		Version: constants.Version,
		RunE:    browse.NewCmdBrowse(s).RunE,
	}

	cmd.AddCommand(
		initialize.NewCmdInit(s),
		browse.NewCmdBrowse(s),
		new.NewCmdNew(s),
		open.NewCmdOpen(s),
		books.NewCmdBooks(s),
		imports.NewCmdImport(s),
		resync.NewCmdResync(s),
		backup.NewCmdBackup(s),
		auth.NewCmdAuth(s),
	)

	return cmd, nil
}
