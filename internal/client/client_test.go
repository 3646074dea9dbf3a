package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "password" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials", "code": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok-123",
			"user":  model.User{ID: 1, Email: req["email"], Name: "Admin", Role: model.RoleAdministrator},
		})
	})
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token", "code": "unauthorized"})
				return
			}
			h(w, r)
		}
	}
	mux.HandleFunc("GET /api/dashboard", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.DashboardStats{TotalItems: 28, Categories: []model.CategoryTotal{{Name: "Laptop", Quantity: 28}}})
	}))
	mux.HandleFunc("GET /api/devices", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.Device{{ID: "DEV001", Name: r.URL.Query().Get("q")}})
	}))
	mux.HandleFunc("POST /api/transactions", authed(func(w http.ResponseWriter, r *http.Request) {
		var in model.TransactionInput
		json.NewDecoder(r.Body).Decode(&in)
		if in.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity: must be greater than zero", "code": "validation"})
			return
		}
		writeJSON(w, http.StatusCreated, model.Transaction{ID: in.ID, DeviceID: in.DeviceID, Type: in.Type, Quantity: in.Quantity})
	}))
	mux.HandleFunc("GET /api/transactions", authed(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeJSON(w, http.StatusOK, []model.Transaction{{ID: q.Get("limit"), DeviceID: q.Get("device_id")}})
	}))
	mux.HandleFunc("GET /api/categories/{id}/deletable", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "404" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category 404: not found", "code": "not_found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deletable": r.PathValue("id") == "2", "device_count": 0})
	}))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func loggedIn(t *testing.T) *Client {
	t.Helper()
	c := New(newServer(t).URL + "/")
	_, err := c.Login(context.Background(), "admin@warehouse.local", "password")
	require.NoError(t, err)
	return c
}

func TestLoginStoresToken(t *testing.T) {
	c := New(newServer(t).URL)

	user, err := c.Login(context.Background(), "admin@warehouse.local", "password")
	require.NoError(t, err)
	assert.Equal(t, "admin@warehouse.local", user.Email)
	assert.Equal(t, "tok-123", c.Token())
}

func TestLoginFailure(t *testing.T) {
	c := New(newServer(t).URL)

	_, err := c.Login(context.Background(), "admin@warehouse.local", "nope")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "unauthorized", apiErr.Code)
	assert.Equal(t, "invalid credentials", apiErr.Message)
	assert.Empty(t, c.Token())
}

func TestUnauthenticatedCall(t *testing.T) {
	c := New(newServer(t).URL)

	_, err := c.Dashboard(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestDashboard(t *testing.T) {
	s, err := loggedIn(t).Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 28, s.TotalItems)
	require.Len(t, s.Categories, 1)
	assert.Equal(t, "Laptop", s.Categories[0].Name)
}

func TestListDevicesPassesQuery(t *testing.T) {
	devices, err := loggedIn(t).ListDevices(context.Background(), "lenovo")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "lenovo", devices[0].Name)
}

func TestRecordTransactionFillsID(t *testing.T) {
	tx, err := loggedIn(t).RecordTransaction(context.Background(), model.TransactionInput{
		DeviceID: "DEV001", Type: model.TransactionIn, Quantity: 5, TransactionDate: "2024-06-10",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tx.ID, "TXN-"), "got id %q", tx.ID)
	assert.Equal(t, 5, tx.Quantity)
}

func TestRecordTransactionValidationError(t *testing.T) {
	_, err := loggedIn(t).RecordTransaction(context.Background(), model.TransactionInput{
		ID: "TXN001", DeviceID: "DEV001", Type: model.TransactionIn,
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "validation", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "quantity")
}

func TestListTransactionsParams(t *testing.T) {
	txs, err := loggedIn(t).ListTransactions(context.Background(), "DEV001", 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "DEV001", txs[0].DeviceID)
	assert.Equal(t, "10", txs[0].ID)
}

func TestCanDeleteCategory(t *testing.T) {
	c := loggedIn(t)
	ctx := context.Background()

	ok, err := c.CanDeleteCategory(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CanDeleteCategory(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.CanDeleteCategory(ctx, 404)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "not_found", apiErr.Code)
}

func TestNewTransactionIDUnique(t *testing.T) {
	assert.NotEqual(t, NewTransactionID(), NewTransactionID())
}
