package auth

import (
	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/state"
	"github.com/quirelabs/quire/pkg/cmd/auth/login"
	"github.com/quirelabs/quire/pkg/cmd/auth/logout"
)

func NewCmdAuth(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate against the sync server.",
	}

	cmd.AddCommand(
		login.NewCmdLogin(s),
		logout.NewCmdLogout(s),
	)

	return cmd
}
