package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/M3PH1S69/warehouse-monitoring/internal/store"
)

// Error codes carried in every error body next to the message.
const (
	codeValidation   = "validation"
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeRateLimited  = "rate_limited"
	codeConsistency  = "consistency_failure"
	codeUnavailable  = "unavailable"
	codeInternal     = "internal"
)

var statusCodes = map[int]string{
	http.StatusBadRequest:            codeValidation,
	http.StatusUnauthorized:          codeUnauthorized,
	http.StatusForbidden:             codeForbidden,
	http.StatusNotFound:              codeNotFound,
	http.StatusConflict:              codeConflict,
	http.StatusRequestEntityTooLarge: codeValidation,
	http.StatusTooManyRequests:       codeRateLimited,
	http.StatusServiceUnavailable:    codeUnavailable,
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response with the code implied by status.
func jsonError(w http.ResponseWriter, status int, message string) {
	code, ok := statusCodes[status]
	if !ok {
		code = codeInternal
	}
	jsonResponse(w, status, errorBody{Error: message, Code: code})
}

// storeError maps an error from the store or ledger to its HTTP outcome.
// what describes the failed action for logs.
func storeError(w http.ResponseWriter, err error, what string) {
	var ve *store.ValidationError
	var ce *store.ConsistencyError
	var pe *store.PersistenceError
	switch {
	case errors.As(err, &ve):
		jsonError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &ce):
		slog.Error(what, "error", err, "transaction", ce.TransactionID, "device", ce.DeviceID, "rolled_back", ce.RolledBack)
		jsonResponse(w, http.StatusInternalServerError, errorBody{
			Error: "stock record and device quantity disagreed; nothing was saved",
			Code:  codeConsistency,
		})
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.As(err, &pe):
		slog.Error(what, "error", err)
		jsonError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		slog.Error(what, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path value as an integer.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}
