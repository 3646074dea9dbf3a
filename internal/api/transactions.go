package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/M3PH1S69/warehouse-monitoring/internal/ledger"
	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
	"github.com/M3PH1S69/warehouse-monitoring/internal/store"
)

// maxListLimit caps ?limit= on transaction listings.
const maxListLimit = 1000

// TransactionsHandler handles stock movement endpoints.
type TransactionsHandler struct {
	DB     *sql.DB
	Ledger *ledger.Ledger
}

// Create handles POST /api/transactions. The recording user defaults to the
// caller when user_name is omitted.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.TransactionInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	if in.UserName == "" && claims != nil {
		in.UserName = claims.Name
	}

	tx, err := h.Ledger.RecordTransaction(r.Context(), in)
	if err != nil {
		storeError(w, err, "failed to record transaction")
		return
	}
	jsonResponse(w, http.StatusCreated, tx)
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := store.GetTransaction(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "failed to get transaction")
		return
	}
	jsonResponse(w, http.StatusOK, tx)
}

// List handles GET /api/transactions. Supports ?device_id=, ?type=, ?from=,
// ?to= and ?limit=.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := transactionFilter(w, r)
	if !ok {
		return
	}
	h.list(w, r, filter)
}

// ListForDevice handles GET /api/devices/{id}/transactions.
func (h *TransactionsHandler) ListForDevice(w http.ResponseWriter, r *http.Request) {
	filter, ok := transactionFilter(w, r)
	if !ok {
		return
	}
	filter.DeviceID = r.PathValue("id")

	exists, err := store.DeviceExists(r.Context(), h.DB, filter.DeviceID)
	if err != nil {
		storeError(w, err, "failed to check device")
		return
	}
	if !exists {
		jsonError(w, http.StatusNotFound, "device not found")
		return
	}
	h.list(w, r, filter)
}

func (h *TransactionsHandler) list(w http.ResponseWriter, r *http.Request, filter store.TransactionFilter) {
	txs, err := store.ListTransactions(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, txs)
}

// transactionFilter parses listing query parameters, writing a 400 and
// returning false when one is malformed.
func transactionFilter(w http.ResponseWriter, r *http.Request) (store.TransactionFilter, bool) {
	query := r.URL.Query()
	f := store.TransactionFilter{
		DeviceID: query.Get("device_id"),
		Type:     query.Get("type"),
		From:     query.Get("from"),
		To:       query.Get("to"),
	}

	if f.Type != "" && f.Type != model.TransactionIn && f.Type != model.TransactionOut {
		jsonError(w, http.StatusBadRequest, "type must be in or out")
		return f, false
	}
	for name, v := range map[string]string{"from": f.From, "to": f.To} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, v); err != nil {
			jsonError(w, http.StatusBadRequest, name+" must be YYYY-MM-DD")
			return f, false
		}
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return f, false
		}
		f.Limit = min(n, maxListLimit)
	}
	return f, true
}
