package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/M3PH1S69/warehouse-monitoring/internal/client"
	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

type clientOptions struct {
	Server   string
	Token    string
	Email    string
	Password string
	JSON     bool
}

// connect returns an API client, logging in first unless a token was given.
func (o *clientOptions) connect(cmd *cobra.Command) (*client.Client, error) {
	if o.Token != "" {
		return client.New(o.Server, client.WithToken(o.Token)), nil
	}
	if o.Email == "" || o.Password == "" {
		return nil, fmt.Errorf("either --token or --email and WAREHOUSE_PASSWORD are required")
	}
	c := client.New(o.Server)
	if _, err := c.Login(cmd.Context(), o.Email, o.Password); err != nil {
		return nil, err
	}
	return c, nil
}

// NewClientCommand creates the client command, which talks to a running
// server over HTTP.
func NewClientCommand() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Query or update a running server",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Password == "" {
				opts.Password = os.Getenv("WAREHOUSE_PASSWORD")
			}
			if opts.Token == "" {
				opts.Token = os.Getenv("WAREHOUSE_TOKEN")
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.Server, "server", "s", "http://localhost:8080", "server base URL")
	flags.StringVar(&opts.Token, "token", "", "bearer token (or WAREHOUSE_TOKEN)")
	flags.StringVarP(&opts.Email, "email", "e", "", "login email")
	flags.BoolVar(&opts.JSON, "json", false, "print raw JSON")

	cmd.AddCommand(newStatsCommand(opts), newDevicesCommand(opts), newRecordCommand(opts))
	return cmd
}

func newStatsCommand(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			s, err := c.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			if opts.JSON {
				return printJSON(cmd.OutOrStdout(), s)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Total items\t%d\n", s.TotalItems)
			fmt.Fprintf(tw, "Low stock\t%d\n", s.LowStockItems)
			fmt.Fprintf(tw, "Out of stock\t%d\n", s.OutOfStockItems)
			fmt.Fprintf(tw, "Normal\t%d\n", s.NormalItems)
			fmt.Fprintf(tw, "Damaged\t%d\n", s.DamagedItems)
			fmt.Fprintf(tw, "In (30 days)\t%d\n", s.ItemsIn)
			fmt.Fprintf(tw, "Out (30 days)\t%d\n", s.ItemsOut)
			fmt.Fprintf(tw, "Transactions (30 days)\t%d\n", s.RecentTransactions)
			for _, ct := range s.Categories {
				fmt.Fprintf(tw, "  %s\t%d\n", ct.Name, ct.Quantity)
			}
			return tw.Flush()
		},
	}
}

func newDevicesCommand(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices [search]",
		Short: "List devices",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			var query string
			if len(args) == 1 {
				query = args[0]
			}
			devices, err := c.ListDevices(cmd.Context(), query)
			if err != nil {
				return err
			}
			if opts.JSON {
				return printJSON(cmd.OutOrStdout(), devices)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBRAND\tCATEGORY\tQTY\tSTATUS")
			for _, d := range devices {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", d.ID, d.Name, d.Brand, d.CategoryName, d.Quantity, d.Status)
			}
			return tw.Flush()
		},
	}
}

func newRecordCommand(opts *clientOptions) *cobra.Command {
	var in model.TransactionInput

	cmd := &cobra.Command{
		Use:   "record <in|out> <device-id> <quantity>",
		Short: "Record a stock movement",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Type, in.DeviceID = args[0], args[1]
			if _, err := fmt.Sscan(args[2], &in.Quantity); err != nil {
				return fmt.Errorf("quantity %q: %w", args[2], err)
			}
			if in.TransactionDate == "" {
				in.TransactionDate = time.Now().Format(model.DateLayout)
			}

			c, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			tx, err := c.RecordTransaction(cmd.Context(), in)
			if err != nil {
				return err
			}
			if opts.JSON {
				return printJSON(cmd.OutOrStdout(), tx)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %s %d x %s on %s\n", tx.ID, tx.Type, tx.Quantity, tx.DeviceID, tx.TransactionDate)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in.ID, "id", "", "transaction id (generated if empty)")
	flags.StringVar(&in.TransactionDate, "date", "", "transaction date, YYYY-MM-DD (default today)")
	flags.StringVar(&in.UserName, "user", "", "recording user (default the logged in user)")
	flags.StringVar(&in.Destination, "destination", "", "destination of outgoing stock")
	flags.StringVar(&in.Recipient, "recipient", "", "recipient of outgoing stock")
	flags.StringVar(&in.Source, "source", "", "source of incoming stock")
	flags.StringVar(&in.Sender, "sender", "", "sender of incoming stock")
	flags.StringSliceVar(&in.RegistrationNumbers, "serial", nil, "registration numbers, repeatable")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
