package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goaltrackr/apiserver/internal/services"
	"github.com/goaltrackr/apiserver/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      *string
		want    *time.Time
		wantErr bool
	}{
		{name: "absent"},
		{name: "blank", in: strPtr("  ")},
		{name: "date only", in: strPtr("2024-01-01"), want: ptrTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))},
		{name: "rfc3339 offset", in: strPtr("2024-01-01T10:00:00+02:00"), want: ptrTime(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))},
		{name: "garbage", in: strPtr("next week"), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseDate(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tc.want.Equal(*got))
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{query: "", want: 0},
		{query: "?limit=5", want: 5},
		{query: "?limit=0", wantErr: true},
		{query: "?limit=-3", wantErr: true},
		{query: "?limit=ten", wantErr: true},
	}

	for _, tc := range tests {
		r := httptest.NewRequest(http.MethodGet, "/progress"+tc.query, nil)
		got, err := parseLimit(r)
		if tc.wantErr {
			assert.Error(t, err, tc.query)
			continue
		}
		assert.NoError(t, err, tc.query)
		assert.Equal(t, tc.want, got, tc.query)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst NoteRequest

	r := httptest.NewRequest(http.MethodPost, "/progress", strings.NewReader(""))
	assert.NoError(t, decodeJSON(httptest.NewRecorder(), r, &dst))

	r = httptest.NewRequest(http.MethodPost, "/progress", strings.NewReader(`{"content":`))
	assert.ErrorIs(t, decodeJSON(httptest.NewRecorder(), r, &dst), errInvalidBody)

	r = httptest.NewRequest(http.MethodPost, "/progress", strings.NewReader(`{"content":"Day 1","extra":true}`))
	require.NoError(t, decodeJSON(httptest.NewRecorder(), r, &dst))
	assert.Equal(t, "Day 1", dst.Content)
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{err: &services.ValidationError{Message: "missing content"}, status: http.StatusBadRequest, body: `{"error":"missing content"}`},
		{err: store.ErrNotFound, status: http.StatusNotFound, body: `{"error":"goal not found"}`},
		{err: services.ErrEmailTaken, status: http.StatusConflict, body: `{"error":"user already exists"}`},
		{err: errors.New("dial tcp: connection refused"), status: http.StatusInternalServerError, body: `{"error":"internal server error"}`},
	}

	for _, tc := range tests {
		w := httptest.NewRecorder()
		writeServiceError(w, httptest.NewRequest(http.MethodGet, "/goals", nil), tc.err, "goal not found")
		assert.Equal(t, tc.status, w.Code)
		assert.JSONEq(t, tc.body, w.Body.String())
	}
}

func TestGoalRequestPatchKeepsAllowListOnly(t *testing.T) {
	req := GoalRequest{Title: strPtr("New"), StartDate: strPtr("2024-02-01")}
	patch, msg := req.patch()
	require.Empty(t, msg)
	assert.Equal(t, "New", *patch.Title)
	assert.Nil(t, patch.Status)
	require.NotNil(t, patch.StartDate)
	assert.Nil(t, patch.TargetDate)

	_, msg = GoalRequest{StartDate: strPtr("")}.patch()
	assert.Equal(t, "startDate cannot be empty", msg)
}
