package services

import (
	"context"
	"strings"

	"github.com/goaltrackr/apiserver/internal/store"
	"github.com/goaltrackr/apiserver/types"
)

const (
	DefaultRecentNotes = 10
	MaxRecentNotes     = 100
)

// ProgressRepository defines persistence operations for progress notes.
type ProgressRepository interface {
	ListByGoal(ctx context.Context, goalID, userID string) ([]types.ProgressNote, error)
	ListByOwner(ctx context.Context, userID string) ([]types.ProgressNote, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]types.ProgressNote, error)
	CreateForGoal(ctx context.Context, note types.ProgressNote) (types.ProgressNote, error)
	DeleteForOwner(ctx context.Context, id, userID string) error
}

// ProgressService encapsulates progress note use-cases.
type ProgressService struct {
	repo   ProgressRepository
	events *Events
}

func NewProgressService(repo ProgressRepository, events *Events) *ProgressService {
	return &ProgressService{repo: repo, events: events}
}

// ListForGoal returns the caller's notes on one goal, newest first.
func (s *ProgressService) ListForGoal(ctx context.Context, goalID, userID string) ([]types.ProgressNote, error) {
	if !isUUID(goalID) {
		return []types.ProgressNote{}, nil
	}
	return s.repo.ListByGoal(ctx, goalID, userID)
}

// Recent returns the caller's latest notes across goals with their goal titles.
func (s *ProgressService) Recent(ctx context.Context, userID string, limit int) ([]types.ProgressNote, error) {
	if limit <= 0 {
		limit = DefaultRecentNotes
	}
	if limit > MaxRecentNotes {
		limit = MaxRecentNotes
	}
	return s.repo.ListRecent(ctx, userID, limit)
}

// Create adds a note to a goal the caller owns. A goal that is missing or
// owned by someone else yields store.ErrNotFound and nothing is written.
func (s *ProgressService) Create(ctx context.Context, goalID, userID, content string) (types.ProgressNote, error) {
	if strings.TrimSpace(goalID) == "" {
		return types.ProgressNote{}, invalid("missing goalId")
	}
	if strings.TrimSpace(content) == "" {
		return types.ProgressNote{}, invalid("missing content")
	}
	if !isUUID(goalID) {
		return types.ProgressNote{}, store.ErrNotFound
	}

	note, err := s.repo.CreateForGoal(ctx, types.ProgressNote{
		GoalID:  goalID,
		UserID:  userID,
		Content: content,
	})
	if err != nil {
		return types.ProgressNote{}, err
	}

	s.events.Emit(ctx, types.Event{Type: types.EventProgressCreated, UserID: userID, GoalID: goalID, NoteID: note.ID})
	return note, nil
}

// Delete removes the note if the caller owns it.
func (s *ProgressService) Delete(ctx context.Context, noteID, userID string) error {
	if strings.TrimSpace(noteID) == "" {
		return invalid("missing noteId")
	}
	if !isUUID(noteID) {
		return store.ErrNotFound
	}
	if err := s.repo.DeleteForOwner(ctx, noteID, userID); err != nil {
		return err
	}

	s.events.Emit(ctx, types.Event{Type: types.EventProgressDeleted, UserID: userID, NoteID: noteID})
	return nil
}
