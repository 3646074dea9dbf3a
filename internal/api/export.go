package api

import (
	"bytes"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/M3PH1S69/warehouse-monitoring/internal/export"
	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
	"github.com/M3PH1S69/warehouse-monitoring/internal/store"
)

// ExportHandler serves CSV downloads.
type ExportHandler struct {
	DB    *sql.DB
	Clock func() time.Time
}

// Devices handles GET /api/export/devices.csv.
func (h *ExportHandler) Devices(w http.ResponseWriter, r *http.Request) {
	devices, err := store.ListDevices(r.Context(), h.DB, store.DeviceFilter{Query: r.URL.Query().Get("q")})
	if err != nil {
		storeError(w, err, "failed to list devices")
		return
	}

	var buf bytes.Buffer
	if err := export.Devices(&buf, devices); err != nil {
		slog.Error("failed to export devices", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to export devices")
		return
	}
	h.attach(w, "devices", buf.Bytes())
}

// Transactions handles GET /api/export/transactions.csv. Accepts the same
// filters as the transaction listing.
func (h *ExportHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	filter, ok := transactionFilter(w, r)
	if !ok {
		return
	}
	txs, err := store.ListTransactions(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err, "failed to list transactions")
		return
	}

	var buf bytes.Buffer
	if err := export.Transactions(&buf, txs); err != nil {
		slog.Error("failed to export transactions", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to export transactions")
		return
	}
	h.attach(w, "transactions", buf.Bytes())
}

// attach writes data as a dated CSV download. The body is buffered so a
// failed export still gets a JSON error instead of a truncated file.
func (h *ExportHandler) attach(w http.ResponseWriter, name string, data []byte) {
	filename := fmt.Sprintf("%s-%s.csv", name, h.Clock().Format(model.DateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
