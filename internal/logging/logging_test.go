package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerSplitsByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	log := slog.New(NewHandler(&out, &errOut, slog.LevelInfo))

	log.Debug("hidden")
	log.Info("device created", "device", "DEV001")
	log.Warn("publish failed")
	log.Error("consistency failure", "transaction", "TXN001")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "device=DEV001")
	assert.Contains(t, out.String(), "publish failed")
	assert.NotContains(t, out.String(), "consistency failure")
	assert.Contains(t, errOut.String(), "transaction=TXN001")
}

func TestHandlerKeepsAttrsAndGroups(t *testing.T) {
	var out, errOut bytes.Buffer
	log := slog.New(NewHandler(&out, &errOut, slog.LevelDebug)).With("component", "ledger").WithGroup("tx")

	log.Debug("recorded", "id", "TXN001")
	log.Error("failed", "id", "TXN002")

	assert.Contains(t, out.String(), "component=ledger")
	assert.Contains(t, out.String(), "tx.id=TXN001")
	assert.Contains(t, errOut.String(), "component=ledger")
	assert.Contains(t, errOut.String(), "tx.id=TXN002")
}

func TestSetupWritesFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "warehouse.log")
	cleanup, err := Setup(path, slog.LevelWarn)
	require.NoError(t, err)

	slog.Info("skipped")
	slog.Warn("low stock", "device", "DEV001")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "device=DEV001")
	assert.NotContains(t, string(data), "skipped")
}

func TestSetupBadPath(t *testing.T) {
	_, err := Setup(filepath.Join(t.TempDir(), "missing", "warehouse.log"), slog.LevelInfo)
	assert.Error(t, err)
}
