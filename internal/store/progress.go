package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/goaltrackr/apiserver/internal/db"
	"github.com/goaltrackr/apiserver/types"
	"github.com/google/uuid"
)

// ProgressRepository handles persistence for progress notes.
type ProgressRepository struct {
	db *db.Handle
}

func NewProgressRepository(handle *db.Handle) *ProgressRepository {
	return &ProgressRepository{db: handle}
}

const noteColumns = `id, goal_id, user_id, content, date`

func (r *ProgressRepository) ListByGoal(ctx context.Context, goalID, userID string) ([]types.ProgressNote, error) {
	conn, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + noteColumns + ` FROM progress_notes WHERE goal_id = $1 AND user_id = $2 ORDER BY date DESC`
	rows, err := conn.QueryContext(ctx, query, goalID, userID)
	if err != nil {
		return nil, err
	}
	return collectNotes(rows, false)
}

// ListByOwner returns every note the user owns, newest first.
func (r *ProgressRepository) ListByOwner(ctx context.Context, userID string) ([]types.ProgressNote, error) {
	conn, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + noteColumns + ` FROM progress_notes WHERE user_id = $1 ORDER BY date DESC`
	rows, err := conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectNotes(rows, false)
}

// ListRecent returns the user's latest notes across all goals, each with the
// title of its goal.
func (r *ProgressRepository) ListRecent(ctx context.Context, userID string, limit int) ([]types.ProgressNote, error) {
	if limit < 1 {
		limit = 10
	}

	conn, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT n.id, n.goal_id, n.user_id, n.content, n.date, g.title
		FROM progress_notes n
		JOIN goals g ON g.id = n.goal_id
		WHERE n.user_id = $1
		ORDER BY n.date DESC
		LIMIT $2`
	rows, err := conn.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectNotes(rows, true)
}

// CreateForGoal stores the note only if its goal belongs to the note's user.
// ErrNotFound is returned otherwise and nothing is written.
func (r *ProgressRepository) CreateForGoal(ctx context.Context, note types.ProgressNote) (types.ProgressNote, error) {
	conn, err := r.db.Get(ctx)
	if err != nil {
		return types.ProgressNote{}, err
	}

	note.ID = uuid.NewString()
	note.Date = time.Now().UTC()

	const query = `
		INSERT INTO progress_notes (id, goal_id, user_id, content, date)
		SELECT $1::uuid, g.id, g.user_id, $2::text, $3::timestamptz
		FROM goals g
		WHERE g.id = $4 AND g.user_id = $5`
	result, err := conn.ExecContext(ctx, query, note.ID, note.Content, note.Date, note.GoalID, note.UserID)
	if err != nil {
		return types.ProgressNote{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.ProgressNote{}, err
	}
	if affected == 0 {
		return types.ProgressNote{}, ErrNotFound
	}
	return note, nil
}

// DeleteForOwner removes the note only when it belongs to userID.
func (r *ProgressRepository) DeleteForOwner(ctx context.Context, id, userID string) error {
	conn, err := r.db.Get(ctx)
	if err != nil {
		return err
	}

	const query = `DELETE FROM progress_notes WHERE id = $1 AND user_id = $2`
	result, err := conn.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func collectNotes(rows *sql.Rows, withTitle bool) ([]types.ProgressNote, error) {
	defer rows.Close()

	notes := make([]types.ProgressNote, 0)
	for rows.Next() {
		var note types.ProgressNote
		dest := []any{&note.ID, &note.GoalID, &note.UserID, &note.Content, &note.Date}
		if withTitle {
			dest = append(dest, &note.GoalTitle)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}
