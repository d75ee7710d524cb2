package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goaltrackr/apiserver/internal/auth"
	"github.com/goaltrackr/apiserver/internal/goaltest"
	"github.com/goaltrackr/apiserver/internal/services"
	"github.com/goaltrackr/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

type testEnv struct {
	router  http.Handler
	mem     *goaltest.Store
	objects *goaltest.Objects
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := goaltest.NewStore()
	objects := goaltest.NewObjects()
	router := NewRouter(Dependencies{
		DB:       pinger{},
		Sessions: auth.NewManager("test-secret", auth.SessionTTL, false),
		Users:    services.NewUserService(mem.Users()),
		Goals:    services.NewGoalService(mem.Goals(), nil),
		Progress: services.NewProgressService(mem.Progress(), nil),
		Exports:  services.NewExportService(mem.Goals(), mem.Progress(), objects),
	})
	return &testEnv{router: router, mem: mem, objects: objects}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signUp registers a user and returns the session token and user id.
func (e *testEnv) signUp(t *testing.T, email string) (string, string) {
	t.Helper()
	w := e.do(goaltest.Register(email, "pw", "Test User"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	token, ok := goaltest.SessionToken(w)
	require.True(t, ok)

	var resp struct {
		User types.Identity `json:"user"`
	}
	require.NoError(t, goaltest.Decode(w, &resp))
	return token, resp.User.ID
}

func (e *testEnv) createGoal(t *testing.T, token, title string) types.Goal {
	t.Helper()
	w := e.do(goaltest.JSON(http.MethodPost, "/goals", token, map[string]any{
		"title":      title,
		"startDate":  "2024-01-01",
		"targetDate": "2024-06-01",
	}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var goal types.Goal
	require.NoError(t, goaltest.Decode(w, &goal))
	return goal
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, goaltest.Decode(w, &body))
	return body["error"]
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(goaltest.Register("alice@example.com", "pw", "Alice"))
	require.Equal(t, http.StatusCreated, w.Code)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.NotContains(t, w.Body.String(), cookie.Value)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "alice@example.com")

	w := env.do(goaltest.Register("alice@example.com", "other", "Alice Again"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "user already exists", errorBody(t, w))
	assert.Equal(t, 1, env.mem.UserCount())
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(goaltest.Register("alice@example.com", "", "Alice"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing required fields", errorBody(t, w))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.signUp(t, "alice@example.com")

	w := env.do(goaltest.Login("alice@example.com", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", errorBody(t, w))
	_, ok := goaltest.SessionToken(w)
	assert.False(t, ok)

	w = env.do(goaltest.Login("nobody@example.com", "pw"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(goaltest.Login("alice@example.com", "pw"))
	assert.Equal(t, http.StatusOK, w.Code)
	_, ok = goaltest.SessionToken(w)
	assert.True(t, ok)
}

func TestLogoutAlwaysClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(goaltest.JSON(http.MethodPost, "/auth/logout", "", nil))
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)

	var body map[string]string
	require.NoError(t, goaltest.Decode(w, &body))
	assert.Equal(t, "Logged out successfully", body["message"])
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.signUp(t, "alice@example.com")

	w := env.do(goaltest.JSON(http.MethodGet, "/auth/me", token, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		User types.Identity `json:"user"`
	}
	require.NoError(t, goaltest.Decode(w, &resp))
	assert.Equal(t, userID, resp.User.ID)
	assert.Equal(t, "alice@example.com", resp.User.Email)

	w = env.do(goaltest.JSON(http.MethodGet, "/auth/me", "", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", errorBody(t, w))

	env.mem.DeleteUser(userID)
	w = env.do(goaltest.JSON(http.MethodGet, "/auth/me", token, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGoalsRequireSession(t *testing.T) {
	env := newTestEnv(t)

	for _, req := range []*http.Request{
		goaltest.JSON(http.MethodGet, "/goals", "", nil),
		goaltest.JSON(http.MethodPost, "/goals", "", map[string]string{"title": "x"}),
		goaltest.JSON(http.MethodGet, "/progress", "", nil),
		goaltest.JSON(http.MethodPost, "/exports", "", nil),
		goaltest.JSON(http.MethodGet, "/goals", "garbage", nil),
	} {
		w := env.do(req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, req.URL.Path)
	}
}

func TestCreateGoalDefaultsAndRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.signUp(t, "alice@example.com")

	created := env.createGoal(t, token, "Learn Rust")
	assert.Equal(t, types.CategoryPersonal, created.Category)
	assert.Equal(t, types.StatusNotStarted, created.Status)
	assert.Equal(t, userID, created.UserID)
	assert.False(t, created.CreatedAt.IsZero())

	w := env.do(goaltest.JSON(http.MethodGet, "/goals/"+created.ID, token, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got types.Goal
	require.NoError(t, goaltest.Decode(w, &got))
	assert.Equal(t, "Learn Rust", got.Title)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got.StartDate)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got.TargetDate)
	assert.Equal(t, created.ID, got.ID)
}

func TestCreateGoalValidation(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "alice@example.com")

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{name: "missing dates", body: map[string]any{"title": "Run"}, want: "missing required fields"},
		{name: "bad date", body: map[string]any{"title": "Run", "startDate": "tomorrow", "targetDate": "2024-06-01"}, want: "invalid startDate"},
		{name: "bad category", body: map[string]any{"title": "Run", "category": "Hobby", "startDate": "2024-01-01", "targetDate": "2024-06-01"}, want: "invalid category"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(goaltest.JSON(http.MethodPost, "/goals", token, tc.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, errorBody(t, w))
		})
	}
}

func TestListGoalsNewestFirstAndScoped(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.signUp(t, "alice@example.com")
	bob, _ := env.signUp(t, "bob@example.com")

	env.createGoal(t, alice, "First")
	env.createGoal(t, alice, "Second")
	env.createGoal(t, bob, "Bob's")

	w := env.do(goaltest.JSON(http.MethodGet, "/goals", alice, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var goals []types.Goal
	require.NoError(t, goaltest.Decode(w, &goals))
	require.Len(t, goals, 2)
	assert.Equal(t, "Second", goals[0].Title)
	assert.Equal(t, "First", goals[1].Title)
}

func TestForeignGoalIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.signUp(t, "alice@example.com")
	bob, _ := env.signUp(t, "bob@example.com")
	goal := env.createGoal(t, alice, "Private")

	for _, req := range []*http.Request{
		goaltest.JSON(http.MethodGet, "/goals/"+goal.ID, bob, nil),
		goaltest.JSON(http.MethodPut, "/goals/"+goal.ID, bob, map[string]string{"title": "Mine now"}),
		goaltest.JSON(http.MethodDelete, "/goals/"+goal.ID, bob, nil),
	} {
		w := env.do(req)
		assert.Equal(t, http.StatusNotFound, w.Code, req.Method)
		assert.NotContains(t, w.Body.String(), "Private")
	}

	w := env.do(goaltest.JSON(http.MethodGet, "/goals/"+goal.ID, alice, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got types.Goal
	require.NoError(t, goaltest.Decode(w, &got))
	assert.Equal(t, "Private", got.Title)
}

func TestUpdateGoalIgnoresIdentityFields(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceID := env.signUp(t, "alice@example.com")
	_, bobID := env.signUp(t, "bob@example.com")
	goal := env.createGoal(t, alice, "Learn Rust")

	w := env.do(goaltest.JSON(http.MethodPut, "/goals/"+goal.ID, alice, map[string]any{
		"status": "In progress",
		"userId": bobID,
		"id":     "00000000-0000-0000-0000-000000000000",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated types.Goal
	require.NoError(t, goaltest.Decode(w, &updated))
	assert.Equal(t, types.StatusInProgress, updated.Status)
	assert.Equal(t, aliceID, updated.UserID)
	assert.Equal(t, goal.ID, updated.ID)
	assert.Equal(t, "Learn Rust", updated.Title)

	w = env.do(goaltest.JSON(http.MethodPut, "/goals/"+goal.ID, alice, map[string]any{"targetDate": ""}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "targetDate cannot be empty", errorBody(t, w))
}

func TestDeleteGoalTwice(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "alice@example.com")
	goal := env.createGoal(t, token, "Learn Rust")

	w := env.do(goaltest.JSON(http.MethodDelete, "/goals/"+goal.ID, token, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, goaltest.Decode(w, &body))
	assert.Equal(t, "Goal deleted", body["message"])

	w = env.do(goaltest.JSON(http.MethodDelete, "/goals/"+goal.ID, token, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMalformedGoalIDIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "alice@example.com")

	w := env.do(goaltest.JSON(http.MethodGet, "/goals/not-an-id", token, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "goal not found", errorBody(t, w))
}

func TestCreateNoteOnForeignGoal(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.signUp(t, "alice@example.com")
	bob, _ := env.signUp(t, "bob@example.com")
	goal := env.createGoal(t, alice, "Learn Rust")

	w := env.do(goaltest.JSON(http.MethodPost, "/progress?goalId="+goal.ID, bob, map[string]string{"content": "Day 1 done"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "goal not found", errorBody(t, w))
	assert.Equal(t, 0, env.mem.NoteCount())
}

func TestCreateNoteValidation(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "alice@example.com")
	goal := env.createGoal(t, token, "Learn Rust")

	w := env.do(goaltest.JSON(http.MethodPost, "/progress", token, map[string]string{"content": "Day 1"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing goalId", errorBody(t, w))

	w = env.do(goaltest.JSON(http.MethodPost, "/progress?goalId="+goal.ID, token, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing content", errorBody(t, w))
}

func TestRecentNotesRespectLimit(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "alice@example.com")
	goal := env.createGoal(t, token, "Learn Rust")

	for _, content := range []string{"Day 1", "Day 2", "Day 3"} {
		w := env.do(goaltest.JSON(http.MethodPost, "/progress?goalId="+goal.ID, token, map[string]string{"content": content}))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(goaltest.JSON(http.MethodGet, "/progress?limit=2", token, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var notes []types.ProgressNote
	require.NoError(t, goaltest.Decode(w, &notes))
	require.Len(t, notes, 2)
	assert.Equal(t, "Day 3", notes[0].Content)
	assert.Equal(t, "Day 2", notes[1].Content)
	for _, note := range notes {
		assert.Equal(t, "Learn Rust", note.GoalTitle)
	}

	w = env.do(goaltest.JSON(http.MethodGet, "/progress?limit=abc", token, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(goaltest.JSON(http.MethodGet, "/progress?goalId="+goal.ID, token, nil))
	require.Equal(t, http.StatusOK, w.Code)
	notes = nil
	require.NoError(t, goaltest.Decode(w, &notes))
	assert.Len(t, notes, 3)
}

func TestDeleteNote(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.signUp(t, "alice@example.com")
	bob, _ := env.signUp(t, "bob@example.com")
	goal := env.createGoal(t, alice, "Learn Rust")

	w := env.do(goaltest.JSON(http.MethodPost, "/progress?goalId="+goal.ID, alice, map[string]string{"content": "Day 1"}))
	require.Equal(t, http.StatusCreated, w.Code)
	var note types.ProgressNote
	require.NoError(t, goaltest.Decode(w, &note))

	w = env.do(goaltest.JSON(http.MethodDelete, "/progress", alice, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(goaltest.JSON(http.MethodDelete, "/progress?noteId="+note.ID, bob, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(goaltest.JSON(http.MethodDelete, "/progress?noteId="+note.ID, alice, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, goaltest.Decode(w, &body))
	assert.Equal(t, "Note deleted", body["message"])
}

func TestWrongMethodIsJSON405(t *testing.T) {
	env := newTestEnv(t)

	for _, req := range []*http.Request{
		goaltest.JSON(http.MethodGet, "/auth/logout", "", nil),
		goaltest.JSON(http.MethodDelete, "/auth/me", "", nil),
		goaltest.JSON(http.MethodPatch, "/goals", "", nil),
		goaltest.JSON(http.MethodPut, "/progress", "", nil),
	} {
		w := env.do(req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, req.Method+" "+req.URL.Path)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(goaltest.JSON(http.MethodGet, "/nope", "", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not found", errorBody(t, w))
}

func TestExports(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.signUp(t, "alice@example.com")
	bob, _ := env.signUp(t, "bob@example.com")
	env.createGoal(t, alice, "Learn Rust")

	w := env.do(goaltest.JSON(http.MethodPost, "/exports", alice, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var export types.Export
	require.NoError(t, goaltest.Decode(w, &export))
	assert.Equal(t, 1, export.Goals)

	w = env.do(goaltest.JSON(http.MethodGet, "/exports/"+export.ID, alice, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var snapshot types.ExportSnapshot
	require.NoError(t, goaltest.Decode(w, &snapshot))
	require.Len(t, snapshot.Goals, 1)
	assert.Equal(t, "Learn Rust", snapshot.Goals[0].Title)

	w = env.do(goaltest.JSON(http.MethodGet, "/exports/"+export.ID, bob, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(goaltest.JSON(http.MethodDelete, "/exports/"+export.ID, alice, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.objects.Keys())
}

func TestExportRoutesNotMountedWithoutStorage(t *testing.T) {
	mem := goaltest.NewStore()
	router := NewRouter(Dependencies{
		DB:       pinger{},
		Sessions: auth.NewManager("test-secret", auth.SessionTTL, false),
		Users:    services.NewUserService(mem.Users()),
		Goals:    services.NewGoalService(mem.Goals(), nil),
		Progress: services.NewProgressService(mem.Progress(), nil),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, goaltest.JSON(http.MethodPost, "/exports", "", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	mem := goaltest.NewStore()
	router := NewRouter(Dependencies{
		DB:       pinger{err: errors.New("connection refused")},
		Sessions: auth.NewManager("test-secret", auth.SessionTTL, false),
		Users:    services.NewUserService(mem.Users()),
		Goals:    services.NewGoalService(mem.Goals(), nil),
		Progress: services.NewProgressService(mem.Progress(), nil),
	})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signUp(t, "alice@example.com")
	env.mem.Err = errors.New("pq: relation \"goals\" does not exist")

	w := env.do(goaltest.JSON(http.MethodGet, "/goals", token, nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", errorBody(t, w))
}
