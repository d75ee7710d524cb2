package types

import "time"

// Goal is a user-owned tracked objective.
type Goal struct {
	// ID is the unique identifier of the goal.
	ID string `json:"id" db:"id"`

	// UserID identifies the owner. Every read and write is filtered by it.
	UserID string `json:"userId" db:"user_id"`

	// Title is the short name of the goal.
	Title string `json:"title" db:"title"`

	// Description is optional free text.
	Description string `json:"description" db:"description"`

	Category GoalCategory `json:"category" db:"category"`
	Status   GoalStatus   `json:"status" db:"status"`

	// StartDate and TargetDate bound the period the goal is tracked over.
	StartDate  time.Time `json:"startDate" db:"start_date"`
	TargetDate time.Time `json:"targetDate" db:"target_date"`

	// CreatedAt is set once when the goal is stored.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// GoalCategory classifies a goal.
type GoalCategory string

const (
	CategoryPersonal GoalCategory = "Personal"
	CategoryHealth   GoalCategory = "Health"
	CategoryCareer   GoalCategory = "Career"
	CategoryLearning GoalCategory = "Learning"
	CategoryFinance  GoalCategory = "Finance"
	CategoryOther    GoalCategory = "Other"
)

// DefaultCategory is applied when a goal is created without a category.
const DefaultCategory = CategoryPersonal

// Valid reports whether c is one of the known categories.
func (c GoalCategory) Valid() bool {
	switch c {
	case CategoryPersonal, CategoryHealth, CategoryCareer, CategoryLearning, CategoryFinance, CategoryOther:
		return true
	default:
		return false
	}
}

// GoalStatus tracks where a goal is in its lifecycle.
type GoalStatus string

const (
	StatusNotStarted GoalStatus = "Not started"
	StatusInProgress GoalStatus = "In progress"
	StatusCompleted  GoalStatus = "Completed"
	StatusArchived   GoalStatus = "Archived"
)

// DefaultStatus is applied when a goal is created without a status.
const DefaultStatus = StatusNotStarted

// Valid reports whether s is one of the known statuses.
func (s GoalStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusArchived:
		return true
	default:
		return false
	}
}

// GoalPatch carries the mutable subset of a goal. Nil fields are left
// untouched on update.
type GoalPatch struct {
	Title       *string
	Description *string
	Category    *GoalCategory
	Status      *GoalStatus
	StartDate   *time.Time
	TargetDate  *time.Time
}

// Apply merges the patch into g.
func (p GoalPatch) Apply(g *Goal) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Category != nil {
		g.Category = *p.Category
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.StartDate != nil {
		g.StartDate = *p.StartDate
	}
	if p.TargetDate != nil {
		g.TargetDate = *p.TargetDate
	}
}
