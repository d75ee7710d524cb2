package types

import "time"

// Event is published after a goal or progress note changes.
type Event struct {
	Type   string    `json:"type"`
	UserID string    `json:"userId"`
	GoalID string    `json:"goalId,omitempty"`
	NoteID string    `json:"noteId,omitempty"`
	At     time.Time `json:"at"`
}

// Event types.
const (
	EventGoalCreated     = "goal.created"
	EventGoalUpdated     = "goal.updated"
	EventGoalDeleted     = "goal.deleted"
	EventProgressCreated = "progress.created"
	EventProgressDeleted = "progress.deleted"
)
