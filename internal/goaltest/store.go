// Package goaltest provides in-memory repositories and request builders for
// tests that exercise services and handlers without PostgreSQL.
package goaltest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goaltrackr/apiserver/internal/store"
	"github.com/goaltrackr/apiserver/types"
	"github.com/google/uuid"
)

// Store keeps users, goals and notes in memory with the same ownership rules
// as the PostgreSQL repositories.
type Store struct {
	mu    sync.Mutex
	users map[string]types.User
	goals map[string]types.Goal
	notes map[string]types.ProgressNote
	clock time.Time

	// Err, when set, is returned by every call.
	Err error
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]types.User),
		goals: make(map[string]types.Goal),
		notes: make(map[string]types.ProgressNote),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so ordering is deterministic.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) Users() *UserRepository        { return &UserRepository{s} }
func (s *Store) Goals() *GoalRepository        { return &GoalRepository{s} }
func (s *Store) Progress() *ProgressRepository { return &ProgressRepository{s} }

// UserCount returns the number of stored users.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// NoteCount returns the number of stored notes.
func (s *Store) NoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// DeleteUser removes a user, leaving any session token for it dangling.
func (s *Store) DeleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

type UserRepository struct{ s *Store }

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return types.User{}, r.s.Err
	}
	user, ok := r.s.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return types.User{}, r.s.Err
	}
	for _, user := range r.s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return types.User{}, r.s.Err
	}
	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.tick()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = user
	return user, nil
}

type GoalRepository struct{ s *Store }

func (r *GoalRepository) ListByOwner(ctx context.Context, userID string) ([]types.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	goals := make([]types.Goal, 0)
	for _, goal := range r.s.goals {
		if goal.UserID == userID {
			goals = append(goals, goal)
		}
	}
	sort.Slice(goals, func(i, j int) bool { return goals[i].CreatedAt.After(goals[j].CreatedAt) })
	return goals, nil
}

func (r *GoalRepository) GetForOwner(ctx context.Context, id, userID string) (types.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return types.Goal{}, r.s.Err
	}
	goal, ok := r.s.goals[id]
	if !ok || goal.UserID != userID {
		return types.Goal{}, store.ErrNotFound
	}
	return goal, nil
}

func (r *GoalRepository) Create(ctx context.Context, goal types.Goal) (types.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return types.Goal{}, r.s.Err
	}
	goal.ID = uuid.NewString()
	goal.CreatedAt = r.s.tick()
	r.s.goals[goal.ID] = goal
	return goal, nil
}

func (r *GoalRepository) UpdateForOwner(ctx context.Context, id, userID string, patch types.GoalPatch) (types.Goal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return types.Goal{}, r.s.Err
	}
	goal, ok := r.s.goals[id]
	if !ok || goal.UserID != userID {
		return types.Goal{}, store.ErrNotFound
	}
	patch.Apply(&goal)
	r.s.goals[id] = goal
	return goal, nil
}

// DeleteForOwner also removes the goal's notes, like the cascading foreign key.
func (r *GoalRepository) DeleteForOwner(ctx context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	goal, ok := r.s.goals[id]
	if !ok || goal.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.s.goals, id)
	for noteID, note := range r.s.notes {
		if note.GoalID == id {
			delete(r.s.notes, noteID)
		}
	}
	return nil
}

type ProgressRepository struct{ s *Store }

func (r *ProgressRepository) ListByGoal(ctx context.Context, goalID, userID string) ([]types.ProgressNote, error) {
	return r.list(func(n types.ProgressNote) bool { return n.GoalID == goalID && n.UserID == userID }, 0, false)
}

func (r *ProgressRepository) ListByOwner(ctx context.Context, userID string) ([]types.ProgressNote, error) {
	return r.list(func(n types.ProgressNote) bool { return n.UserID == userID }, 0, false)
}

func (r *ProgressRepository) ListRecent(ctx context.Context, userID string, limit int) ([]types.ProgressNote, error) {
	return r.list(func(n types.ProgressNote) bool { return n.UserID == userID }, limit, true)
}

func (r *ProgressRepository) CreateForGoal(ctx context.Context, note types.ProgressNote) (types.ProgressNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return types.ProgressNote{}, r.s.Err
	}
	goal, ok := r.s.goals[note.GoalID]
	if !ok || goal.UserID != note.UserID {
		return types.ProgressNote{}, store.ErrNotFound
	}
	note.ID = uuid.NewString()
	note.Date = r.s.tick()
	r.s.notes[note.ID] = note
	return note, nil
}

func (r *ProgressRepository) DeleteForOwner(ctx context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	note, ok := r.s.notes[id]
	if !ok || note.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.s.notes, id)
	return nil
}

func (r *ProgressRepository) list(match func(types.ProgressNote) bool, limit int, withTitle bool) ([]types.ProgressNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	notes := make([]types.ProgressNote, 0)
	for _, note := range r.s.notes {
		if !match(note) {
			continue
		}
		if withTitle {
			note.GoalTitle = r.s.goals[note.GoalID].Title
		}
		notes = append(notes, note)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].Date.After(notes[j].Date) })
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}
