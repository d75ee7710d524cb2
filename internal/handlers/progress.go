package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goaltrackr/apiserver/internal/services"
)

// ProgressHandler provides HTTP handlers for progress notes. The goal and
// note are selected with the goalId and noteId query parameters.
type ProgressHandler struct {
	progressService *services.ProgressService
}

func NewProgressHandler(progressService *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// ProgressRouter registers progress routes on the given router.
func ProgressRouter(r chi.Router, progressService *services.ProgressService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewProgressHandler(progressService)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", handler.ListNotes)
		r.Post("/", handler.CreateNote)
		r.Delete("/", handler.DeleteNote)
	})
}

// ListNotes returns the notes of one goal when goalId is given, otherwise the
// caller's most recent notes annotated with their goal titles.
func (h *ProgressHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if goalID := strings.TrimSpace(r.URL.Query().Get("goalId")); goalID != "" {
		notes, err := h.progressService.ListForGoal(r.Context(), goalID, caller.ID)
		if err != nil {
			internalError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, notes)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	notes, err := h.progressService.Recent(r.Context(), caller.ID, limit)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *ProgressHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req NoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.progressService.Create(r.Context(), r.URL.Query().Get("goalId"), caller.ID, req.Content)
	if err != nil {
		writeServiceError(w, r, err, goalNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *ProgressHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.progressService.Delete(r.Context(), r.URL.Query().Get("noteId"), caller.ID); err != nil {
		writeServiceError(w, r, err, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Note deleted"})
}

type NoteRequest struct {
	Content string `json:"content"`
}
