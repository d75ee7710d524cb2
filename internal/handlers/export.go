package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goaltrackr/apiserver/internal/services"
)

const exportNotFound = "export not found"

// ExportHandler creates and serves JSON snapshots of the caller's data.
type ExportHandler struct {
	exportService *services.ExportService
}

func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// ExportRouter registers export routes on the given router.
func ExportRouter(r chi.Router, exportService *services.ExportService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewExportHandler(exportService)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", handler.CreateExport)
		r.Route("/{exportID}", func(r chi.Router) {
			r.Get("/", handler.GetExport)
			r.Delete("/", handler.DeleteExport)
		})
	})
}

func (h *ExportHandler) CreateExport(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	export, err := h.exportService.Create(r.Context(), caller)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, export)
}

func (h *ExportHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rc, err := h.exportService.Open(r.Context(), caller.ID, chi.URLParam(r, "exportID"))
	if err != nil {
		writeServiceError(w, r, err, exportNotFound)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.WarnContext(r.Context(), "export stream interrupted", "error", err)
	}
}

func (h *ExportHandler) DeleteExport(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.exportService.Delete(r.Context(), caller.ID, chi.URLParam(r, "exportID")); err != nil {
		writeServiceError(w, r, err, exportNotFound)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Export deleted"})
}
