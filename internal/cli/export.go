package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/M3PH1S69/warehouse-monitoring/internal/db"
	"github.com/M3PH1S69/warehouse-monitoring/internal/export"
	"github.com/M3PH1S69/warehouse-monitoring/internal/store"
)

// NewExportCommand creates the export command and its subcommands.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export devices or transactions as CSV",
	}
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	var query string
	devices := &cobra.Command{
		Use:   "devices",
		Short: "Export devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExport(cmd, rootOpts, output, func(w io.Writer, q store.Querier) error {
				list, err := store.ListDevices(cmd.Context(), q, store.DeviceFilter{Query: query})
				if err != nil {
					return err
				}
				return export.Devices(w, list)
			})
		},
	}
	devices.Flags().StringVarP(&query, "query", "q", "", "only devices matching this search term")

	var filter store.TransactionFilter
	transactions := &cobra.Command{
		Use:   "transactions",
		Short: "Export transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExport(cmd, rootOpts, output, func(w io.Writer, q store.Querier) error {
				list, err := store.ListTransactions(cmd.Context(), q, filter)
				if err != nil {
					return err
				}
				return export.Transactions(w, list)
			})
		},
	}
	transactions.Flags().StringVar(&filter.DeviceID, "device", "", "only this device")
	transactions.Flags().StringVar(&filter.Type, "type", "", "only in or out")
	transactions.Flags().StringVar(&filter.From, "from", "", "first date, YYYY-MM-DD")
	transactions.Flags().StringVar(&filter.To, "to", "", "last date, YYYY-MM-DD")

	cmd.AddCommand(devices, transactions)
	return cmd
}

func withExport(cmd *cobra.Command, rootOpts *RootOptions, output string, write func(io.Writer, store.Querier) error) error {
	cfg, err := rootOpts.load()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.Database.Path); err != nil {
		return fmt.Errorf("database %s: %w", cfg.Database.Path, err)
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	w := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return write(w, database)
}
