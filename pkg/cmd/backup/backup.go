package backup

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/backup"
	"github.com/quirelabs/quire/internal/config"
	"github.com/quirelabs/quire/internal/state"
)

func NewCmdBackup(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:     "backup",
		Aliases: []string{"bak"},
		Short:   "Archive the store and upload it to S3.",
		Long: heredoc.Doc(`
			Packs the on-disk store into a tar.gz archive and uploads it to the
			S3 bucket named in the config. Credentials come from the config
			when set, otherwise from the standard AWS environment and
			credential files.
		`),
		Example: "quire backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if s.Config.Backend != config.BackendDiskv {
				return fmt.Errorf("backup archives the disk store, use pg_dump for the %s backend", s.Config.Backend)
			}

			up, err := backup.NewUploader(ctx, s.Config.Backup)
			if err != nil {
				return err
			}

			key, err := backup.Run(ctx, up, s.Config.Backup, s.Config.StoreDir)
			if err != nil {
				return err
			}

			fmt.Printf("Uploaded s3://%s/%s\n", s.Config.Backup.Bucket, key)
			return nil
		},
	}
}
