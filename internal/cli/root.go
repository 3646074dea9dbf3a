// Package cli implements the warehouse command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/M3PH1S69/warehouse-monitoring/internal/config"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
	DBPath     string
}

// load reads the configuration, letting --db override the database path.
func (o *RootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath, o.EnvFile)
	if err != nil {
		return nil, err
	}
	if o.DBPath != "" {
		cfg.Database.Path = o.DBPath
	}
	return cfg, nil
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "warehouse",
		Short: "Warehouse inventory tracker",
		Long: `Tracks devices, their categories and every stock movement in and out
of the warehouse, with a dashboard over current stock and the last 30 days.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded into the environment if present")
	cmd.PersistentFlags().StringVarP(&opts.DBPath, "db", "d", "", "SQLite database path (overrides config)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewClientCommand())

	return cmd
}
