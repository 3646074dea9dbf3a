package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/M3PH1S69/warehouse-monitoring/internal/backup"
	"github.com/M3PH1S69/warehouse-monitoring/internal/db"
)

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	var dir string
	var keep int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a database snapshot into the backup directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Backup.Dir
			}
			if !cmd.Flags().Changed("keep") {
				keep = cfg.Backup.Keep
			}

			database, err := db.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			info, err := backup.NewRunner(database, dir, keep).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written: %s (%d bytes)\n", info.File, info.Size)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "o", "", "backup directory (overrides config)")
	cmd.Flags().IntVar(&keep, "keep", 0, "number of backups to keep, 0 keeps all (overrides config)")
	return cmd
}
