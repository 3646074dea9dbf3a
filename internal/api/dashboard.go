package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
	"github.com/M3PH1S69/warehouse-monitoring/internal/stats"
	"github.com/M3PH1S69/warehouse-monitoring/internal/store"
)

// DashboardHandler serves the aggregated inventory overview.
type DashboardHandler struct {
	DB    *sql.DB
	Clock func() time.Time
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	now := h.Clock()
	devices, err := store.ListDevices(r.Context(), h.DB, store.DeviceFilter{})
	if err != nil {
		storeError(w, err, "failed to list devices")
		return
	}

	// Only the window's transactions contribute, so skip older history.
	start, _ := stats.Window(now)
	txs, err := store.ListTransactions(r.Context(), h.DB, store.TransactionFilter{
		From: start.Format(model.DateLayout),
	})
	if err != nil {
		storeError(w, err, "failed to list transactions")
		return
	}

	jsonResponse(w, http.StatusOK, stats.Compute(devices, txs, now))
}
