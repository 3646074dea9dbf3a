package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", ""))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "warehouse", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{
		{"serve"}, {"init"}, {"backup"},
		{"export", "devices"}, {"export", "transactions"},
		{"client", "stats"}, {"client", "devices"}, {"client", "record"},
	} {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			sub, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "d", dbFlag.Shorthand)

	envFlag := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFlag)
	assert.Equal(t, ".env", envFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestInitExportBackup(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "warehouse.db")

	out, err := run(t, "init", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Administrator account created")
	assert.Contains(t, out, "admin@warehouse.local")
	assert.FileExists(t, dbPath)

	_, err = run(t, "init", "--db", dbPath)
	assert.ErrorContains(t, err, "already exists")

	out, err = run(t, "export", "devices", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "id,name,category,brand,quantity,status,condition,description\n", out)

	csvPath := filepath.Join(dir, "tx.csv")
	_, err = run(t, "export", "transactions", "--db", dbPath, "-o", csvPath)
	require.NoError(t, err)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id,date,type,device_id"))

	backups := filepath.Join(dir, "backups")
	out, err = run(t, "backup", "--db", dbPath, "--dir", backups)
	require.NoError(t, err)
	assert.Contains(t, out, "Backup written")
	entries, err := os.ReadDir(backups)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportMissingDatabase(t *testing.T) {
	_, err := run(t, "export", "devices", "--db", filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestRecordRejectsBadQuantity(t *testing.T) {
	_, err := run(t, "client", "record", "in", "DEV001", "many", "--token", "x")
	assert.ErrorContains(t, err, "quantity")
}

func TestClientRequiresCredentials(t *testing.T) {
	t.Setenv("WAREHOUSE_PASSWORD", "")
	t.Setenv("WAREHOUSE_TOKEN", "")
	_, err := run(t, "client", "stats")
	assert.ErrorContains(t, err, "--token")
}

func TestGeneratePassword(t *testing.T) {
	p, err := generatePassword(generatedPasswordLength)
	require.NoError(t, err)
	assert.Len(t, p, generatedPasswordLength)

	q, err := generatePassword(generatedPasswordLength)
	require.NoError(t, err)
	assert.NotEqual(t, p, q)
}
