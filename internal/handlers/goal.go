package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goaltrackr/apiserver/internal/services"
	"github.com/goaltrackr/apiserver/types"
)

const goalNotFound = "goal not found"

// GoalHandler provides HTTP handlers for goals. Every handler runs behind the
// auth middleware and only sees the caller's goals.
type GoalHandler struct {
	goalService *services.GoalService
}

func NewGoalHandler(goalService *services.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// GoalRouter registers goal routes on the given router.
func GoalRouter(r chi.Router, goalService *services.GoalService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewGoalHandler(goalService)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", handler.ListGoals)
		r.Post("/", handler.CreateGoal)
		r.Route("/{goalID}", func(r chi.Router) {
			r.Get("/", handler.GetGoal)
			r.Put("/", handler.UpdateGoal)
			r.Delete("/", handler.DeleteGoal)
		})
	})
}

func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	goals, err := h.goalService.List(r.Context(), caller.ID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req GoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input, msg := req.input()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	goal, err := h.goalService.Create(r.Context(), caller.ID, input)
	if err != nil {
		writeServiceError(w, r, err, goalNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	goal, err := h.goalService.Get(r.Context(), chi.URLParam(r, "goalID"), caller.ID)
	if err != nil {
		writeServiceError(w, r, err, goalNotFound)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// UpdateGoal applies the mutable fields present in the body. Fields outside
// GoalRequest, such as id or userId, are ignored.
func (h *GoalHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req GoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch, msg := req.patch()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	goal, err := h.goalService.Update(r.Context(), chi.URLParam(r, "goalID"), caller.ID, patch)
	if err != nil {
		writeServiceError(w, r, err, goalNotFound)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.goalService.Delete(r.Context(), chi.URLParam(r, "goalID"), caller.ID); err != nil {
		writeServiceError(w, r, err, goalNotFound)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Goal deleted"})
}

// GoalRequest is the body accepted by create and update. Dates are strings so
// that absent, blank and malformed values can be told apart.
type GoalRequest struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Category    *types.GoalCategory `json:"category"`
	Status      *types.GoalStatus   `json:"status"`
	StartDate   *string             `json:"startDate"`
	TargetDate  *string             `json:"targetDate"`
}

func (req GoalRequest) input() (services.GoalInput, string) {
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return services.GoalInput{}, "invalid startDate"
	}
	targetDate, err := parseDate(req.TargetDate)
	if err != nil {
		return services.GoalInput{}, "invalid targetDate"
	}

	input := services.GoalInput{
		StartDate:  startDate,
		TargetDate: targetDate,
	}
	if req.Title != nil {
		input.Title = *req.Title
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Category != nil {
		input.Category = *req.Category
	}
	if req.Status != nil {
		input.Status = *req.Status
	}
	return input, ""
}

func (req GoalRequest) patch() (types.GoalPatch, string) {
	patch := types.GoalPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
	}

	if req.StartDate != nil {
		startDate, err := parseDate(req.StartDate)
		if err != nil {
			return types.GoalPatch{}, "invalid startDate"
		}
		if startDate == nil {
			return types.GoalPatch{}, "startDate cannot be empty"
		}
		patch.StartDate = startDate
	}
	if req.TargetDate != nil {
		targetDate, err := parseDate(req.TargetDate)
		if err != nil {
			return types.GoalPatch{}, "invalid targetDate"
		}
		if targetDate == nil {
			return types.GoalPatch{}, "targetDate cannot be empty"
		}
		patch.TargetDate = targetDate
	}
	return patch, ""
}
