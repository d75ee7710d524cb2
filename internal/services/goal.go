package services

import (
	"context"
	"strings"
	"time"

	"github.com/goaltrackr/apiserver/internal/store"
	"github.com/goaltrackr/apiserver/types"
	"github.com/google/uuid"
)

// GoalRepository defines persistence operations for goals.
type GoalRepository interface {
	ListByOwner(ctx context.Context, userID string) ([]types.Goal, error)
	GetForOwner(ctx context.Context, id, userID string) (types.Goal, error)
	Create(ctx context.Context, goal types.Goal) (types.Goal, error)
	UpdateForOwner(ctx context.Context, id, userID string, patch types.GoalPatch) (types.Goal, error)
	DeleteForOwner(ctx context.Context, id, userID string) error
}

// GoalInput holds the fields accepted when creating a goal.
type GoalInput struct {
	Title       string `validate:"required"`
	Description string
	Category    types.GoalCategory `validate:"omitempty,oneof=Personal Health Career Learning Finance Other"`
	Status      types.GoalStatus   `validate:"omitempty,oneof='Not started' 'In progress' Completed Archived"`
	StartDate   *time.Time         `validate:"required"`
	TargetDate  *time.Time         `validate:"required"`
}

// goalPatchRules mirrors types.GoalPatch with validation tags.
type goalPatchRules struct {
	Title    *string             `validate:"omitempty,min=1"`
	Category *types.GoalCategory `validate:"omitempty,oneof=Personal Health Career Learning Finance Other"`
	Status   *types.GoalStatus   `validate:"omitempty,oneof='Not started' 'In progress' Completed Archived"`
}

// GoalService encapsulates goal use-cases. Every call is scoped to the
// owning user.
type GoalService struct {
	repo   GoalRepository
	events *Events
}

func NewGoalService(repo GoalRepository, events *Events) *GoalService {
	return &GoalService{repo: repo, events: events}
}

func (s *GoalService) List(ctx context.Context, userID string) ([]types.Goal, error) {
	return s.repo.ListByOwner(ctx, userID)
}

// Get returns the goal when it exists and belongs to userID. Any other case is
// store.ErrNotFound.
func (s *GoalService) Get(ctx context.Context, id, userID string) (types.Goal, error) {
	if !isUUID(id) {
		return types.Goal{}, store.ErrNotFound
	}
	return s.repo.GetForOwner(ctx, id, userID)
}

func (s *GoalService) Create(ctx context.Context, userID string, input GoalInput) (types.Goal, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := checkStruct(input); err != nil {
		return types.Goal{}, err
	}

	goal := types.Goal{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Status:      input.Status,
		StartDate:   input.StartDate.UTC(),
		TargetDate:  input.TargetDate.UTC(),
	}
	if goal.Category == "" {
		goal.Category = types.DefaultCategory
	}
	if goal.Status == "" {
		goal.Status = types.DefaultStatus
	}

	created, err := s.repo.Create(ctx, goal)
	if err != nil {
		return types.Goal{}, err
	}

	s.events.Emit(ctx, types.Event{Type: types.EventGoalCreated, UserID: userID, GoalID: created.ID})
	return created, nil
}

// Update applies the mutable fields present in patch. Identity and ownership
// fields are not part of the patch and cannot change.
func (s *GoalService) Update(ctx context.Context, id, userID string, patch types.GoalPatch) (types.Goal, error) {
	if !isUUID(id) {
		return types.Goal{}, store.ErrNotFound
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	rules := goalPatchRules{Title: patch.Title, Category: patch.Category, Status: patch.Status}
	if err := checkStruct(rules); err != nil {
		return types.Goal{}, err
	}

	updated, err := s.repo.UpdateForOwner(ctx, id, userID, patch)
	if err != nil {
		return types.Goal{}, err
	}

	s.events.Emit(ctx, types.Event{Type: types.EventGoalUpdated, UserID: userID, GoalID: updated.ID})
	return updated, nil
}

// Delete removes the goal if userID owns it; otherwise store.ErrNotFound.
func (s *GoalService) Delete(ctx context.Context, id, userID string) error {
	if !isUUID(id) {
		return store.ErrNotFound
	}
	if err := s.repo.DeleteForOwner(ctx, id, userID); err != nil {
		return err
	}

	s.events.Emit(ctx, types.Event{Type: types.EventGoalDeleted, UserID: userID, GoalID: id})
	return nil
}

func isUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
