package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goaltrackr/apiserver/internal/auth"
	"github.com/goaltrackr/apiserver/internal/services"
	"github.com/goaltrackr/apiserver/internal/store"
	"github.com/goaltrackr/apiserver/types"
)

// AuthHandler provides cookie session endpoints.
type AuthHandler struct {
	userService *services.UserService
	sessions    *auth.Manager
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, sessions *auth.Manager) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		sessions:    sessions,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, sessions *auth.Manager) {
	handler := NewAuthHandler(userService, sessions)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.With(RequireAuth(sessions)).Get("/me", handler.Me)
}

// Register creates an account and starts a session for it.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "user not found")
		return
	}

	if !h.startSession(w, r, user.Identity()) {
		return
	}
	writeJSON(w, http.StatusCreated, UserResponse{User: user.Identity()})
}

// Login verifies credentials and starts a session. Failed logins set no cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeServiceError(w, r, err, "user not found")
		return
	}

	if !h.startSession(w, r, user.Identity()) {
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user.Identity()})
}

// Logout clears the session cookie whether or not a session exists.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearSession(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// Me returns the current user as stored, so a deleted account stops working
// even while its token is unexpired.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetByID(r.Context(), caller.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user.Identity()})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, identity types.Identity) bool {
	token, err := h.sessions.IssueToken(identity)
	if err != nil {
		internalError(w, r, err)
		return false
	}
	h.sessions.AttachSession(w, token)
	return true
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	User types.Identity `json:"user"`
}
