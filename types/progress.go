package types

import "time"

// ProgressNote is a timestamped free-text update attached to one goal.
type ProgressNote struct {
	ID      string `json:"id" db:"id"`
	GoalID  string `json:"goalId" db:"goal_id"`
	UserID  string `json:"userId" db:"user_id"`
	Content string `json:"content" db:"content"`

	// Date is set when the note is stored.
	Date time.Time `json:"date" db:"date"`

	// GoalTitle is filled only by the recent-notes listing, which joins the
	// parent goal.
	GoalTitle string `json:"goalTitle,omitempty" db:"goal_title"`
}
