package logout

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/state"
)

func NewCmdLogout(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored sync access token.",
		Long: heredoc.Doc(`
			Removes the access token from the config. Notes stay local; sync
			resumes after the next login.
		`),
		Example: "quire auth logout",
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.Config.Sync.Token == "" {
				fmt.Println("Not logged in.")
				return nil
			}
			if err := s.Config.ChangeToken(""); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}
