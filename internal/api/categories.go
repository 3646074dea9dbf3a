package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
	"github.com/M3PH1S69/warehouse-monitoring/internal/store"
)

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	DB *sql.DB
}

type categoryRequest struct {
	Name string `json:"name"`
}

type deletableResponse struct {
	Deletable   bool `json:"deletable"`
	DeviceCount int  `json:"device_count"`
}

// List handles GET /api/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// Create handles POST /api/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := store.CreateCategory(r.Context(), h.DB, strings.TrimSpace(req.Name))
	if err != nil {
		storeError(w, err, "failed to create category")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("category created", "user", claims.Email, "category", c.Name)
	jsonResponse(w, http.StatusCreated, c)
}

// Get handles GET /api/categories/{id}.
func (h *CategoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	c, err := store.GetCategory(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get category")
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Update handles PUT /api/categories/{id}.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := store.UpdateCategory(r.Context(), h.DB, id, strings.TrimSpace(req.Name))
	if err != nil {
		storeError(w, err, "failed to update category")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("category renamed", "user", claims.Email, "category_id", id, "name", c.Name)
	jsonResponse(w, http.StatusOK, c)
}

// Delete handles DELETE /api/categories/{id}. Categories that still have
// devices are refused with 409.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	err := store.DeleteCategory(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrInUse) {
		jsonError(w, http.StatusConflict, "category still has devices")
		return
	}
	if err != nil {
		storeError(w, err, "failed to delete category")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("category deleted", "user", claims.Email, "category_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// Deletable handles GET /api/categories/{id}/deletable.
func (h *CategoriesHandler) Deletable(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	// 404 for unknown categories rather than a misleading "deletable".
	c, err := store.GetCategory(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get category")
		return
	}

	ok, err = store.CanDeleteCategory(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to check category")
		return
	}
	jsonResponse(w, http.StatusOK, deletableResponse{Deletable: ok, DeviceCount: c.DeviceCount})
}
