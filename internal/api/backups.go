package api

import (
	"log/slog"
	"net/http"

	"github.com/M3PH1S69/warehouse-monitoring/internal/backup"
)

// BackupsHandler exposes on-demand database backups. A nil Runner means
// backups are disabled.
type BackupsHandler struct {
	Runner *backup.Runner
}

// List handles GET /api/backups.
func (h *BackupsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Runner == nil {
		jsonError(w, http.StatusServiceUnavailable, "backups are disabled")
		return
	}

	backups, err := h.Runner.List()
	if err != nil {
		slog.Error("failed to list backups", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if backups == nil {
		backups = []backup.Info{}
	}
	jsonResponse(w, http.StatusOK, backups)
}

// Create handles POST /api/backups.
func (h *BackupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Runner == nil {
		jsonError(w, http.StatusServiceUnavailable, "backups are disabled")
		return
	}

	info, err := h.Runner.Run(r.Context())
	if err != nil {
		slog.Error("backup failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("backup created", "user", claims.Email, "file", info.File, "size", info.Size)
	jsonResponse(w, http.StatusCreated, info)
}
