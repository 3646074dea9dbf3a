package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/M3PH1S69/warehouse-monitoring/internal/imaging"
	"github.com/M3PH1S69/warehouse-monitoring/internal/model"
	"github.com/M3PH1S69/warehouse-monitoring/internal/store"
)

// DevicesHandler handles device endpoints.
type DevicesHandler struct {
	DB     *sql.DB
	Images *imaging.Processor
}

type deviceRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CategoryID  int64  `json:"category_id"`
	Brand       string `json:"brand"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
	Condition   string `json:"condition"`
	Description string `json:"description"`
}

func (req deviceRequest) device() model.Device {
	return model.Device{
		ID:          req.ID,
		Name:        req.Name,
		CategoryID:  req.CategoryID,
		Brand:       req.Brand,
		Quantity:    req.Quantity,
		Status:      req.Status,
		Condition:   req.Condition,
		Description: req.Description,
	}
}

// List handles GET /api/devices. Supports ?q=, ?category_id= and ?status=.
func (h *DevicesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.DeviceFilter{
		Query:  query.Get("q"),
		Status: query.Get("status"),
	}
	if v := query.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		filter.CategoryID = id
	}

	devices, err := store.ListDevices(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err, "failed to list devices")
		return
	}
	if devices == nil {
		devices = []model.Device{}
	}
	jsonResponse(w, http.StatusOK, devices)
}

// Create handles POST /api/devices.
func (h *DevicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := store.CreateDevice(r.Context(), h.DB, req.device())
	if err != nil {
		storeError(w, err, "failed to create device")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("device created", "user", claims.Email, "device", d.ID, "quantity", d.Quantity)
	jsonResponse(w, http.StatusCreated, d)
}

// Get handles GET /api/devices/{id}.
func (h *DevicesHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := store.GetDevice(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "failed to get device")
		return
	}
	jsonResponse(w, http.StatusOK, d)
}

// Update handles PUT /api/devices/{id}. The quantity field is ignored.
func (h *DevicesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := req.device()
	update.ID = r.PathValue("id")

	d, err := store.UpdateDevice(r.Context(), h.DB, update)
	if err != nil {
		storeError(w, err, "failed to update device")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("device updated", "user", claims.Email, "device", d.ID)
	jsonResponse(w, http.StatusOK, d)
}

// Delete handles DELETE /api/devices/{id}.
func (h *DevicesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := store.DeleteDevice(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrInUse) {
		jsonError(w, http.StatusConflict, "device has recorded transactions")
		return
	}
	if err != nil {
		storeError(w, err, "failed to delete device")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("device deleted", "user", claims.Email, "device", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "device deleted"})
}

// UploadImage handles PUT /api/devices/{id}/image. Accepts a multipart
// form with an "image" field or a raw image body.
func (h *DevicesHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	r.Body = http.MaxBytesReader(w, r.Body, h.Images.MaxBytes+1<<20)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.Images.MaxBytes); err != nil {
			jsonError(w, http.StatusRequestEntityTooLarge, "file too large or invalid form")
			return
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			jsonError(w, http.StatusBadRequest, "image field required")
			return
		}
		defer file.Close()
		src = file
	}

	photo, err := h.Images.Process(src)
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, imaging.ErrTooLarge), errors.As(err, &maxErr):
		jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	case err != nil:
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetDeviceImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		storeError(w, err, "failed to save image")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("device image uploaded", "user", claims.Email, "device", id, "bytes", len(photo.Data))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/devices/{id}/image.
func (h *DevicesHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetDeviceImage(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "failed to get image")
		return
	}
	if mime == "" {
		mime = "application/octet-stream"
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
