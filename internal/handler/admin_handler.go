package handler

import (
	"net/http"
	"path/filepath"

	"spadoc/internal/container"
	"spadoc/pkg/errors"
)

// AdminHandler handles maintenance actions on the data directory
type AdminHandler struct {
	container *container.Container
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(container *container.Container) *AdminHandler {
	return &AdminHandler{
		container: container,
	}
}

// BackupResponse names the snapshot a backup created
type BackupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Backup  string `json:"backup"`
}

// Backup handles POST /admin/backup
func (h *AdminHandler) Backup(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	dest, err := h.container.Store.Backup()
	if err != nil {
		writeError(w, errors.NewInternalError("Backup failed", err), logger)
		return
	}
	writeJSON(w, http.StatusOK, BackupResponse{
		Success: true,
		Message: "Backup created",
		Backup:  filepath.Base(dest),
	}, logger)
}
