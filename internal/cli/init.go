package cli

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/M3PH1S69/warehouse-monitoring/internal/config"
	"github.com/M3PH1S69/warehouse-monitoring/internal/db"
	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
	"github.com/M3PH1S69/warehouse-monitoring/internal/store"
)

const generatedPasswordLength = 16

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and the first administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load()
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.Database.Path); err == nil {
				return fmt.Errorf("database %s already exists", cfg.Database.Path)
			}
			database, err := initDatabase(cmd.Context(), cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return database.Close()
		},
	}
}

// openDatabase opens the configured database, creating it with an
// administrator account first if the file does not exist yet.
func openDatabase(ctx context.Context, cfg *config.Config, out io.Writer) (*sql.DB, error) {
	if _, err := os.Stat(cfg.Database.Path); errors.Is(err, os.ErrNotExist) {
		database, err := initDatabase(ctx, cfg, out)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(out)
		return database, nil
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return database, nil
}

// initDatabase creates a new database, applies the schema and creates the
// administrator with a generated password. On failure the file is removed.
func initDatabase(ctx context.Context, cfg *config.Config, out io.Writer) (_ *sql.DB, err error) {
	path := cfg.Database.Path
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err != nil {
			database.Close()
			os.Remove(path)
		}
	}()

	if err := db.EnsureSchema(database); err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	password, err := generatePassword(generatedPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("generating password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	admin, err := store.CreateUser(ctx, database, cfg.Auth.AdminName, cfg.Auth.AdminEmail, string(hash), model.RoleAdministrator)
	if err != nil {
		return nil, fmt.Errorf("creating administrator: %w", err)
	}

	printInitResult(out, path, admin.Email, password)
	return database, nil
}

func printInitResult(out io.Writer, dbPath, email, password string) {
	fmt.Fprintf(out, "Database created: %s\n", dbPath)
	fmt.Fprintln(out, "Schema initialized.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Administrator account created:")
	fmt.Fprintf(out, "  Email:    %s\n", email)
	fmt.Fprintf(out, "  Password: %s\n", password)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Save this password, it cannot be recovered.")
	fmt.Fprintln(out, "It can be changed after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
