package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goaltrackr/apiserver/internal/db"
	"github.com/goaltrackr/apiserver/types"
	"github.com/google/uuid"
)

// GoalRepository handles persistence for goals. Every statement is filtered
// by owner.
type GoalRepository struct {
	db *db.Handle
}

func NewGoalRepository(handle *db.Handle) *GoalRepository {
	return &GoalRepository{db: handle}
}

const goalColumns = `id, user_id, title, description, category, status, start_date, target_date, created_at`

func (r *GoalRepository) ListByOwner(ctx context.Context, userID string) ([]types.Goal, error) {
	conn, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := make([]types.Goal, 0)
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *GoalRepository) GetForOwner(ctx context.Context, id, userID string) (types.Goal, error) {
	conn, err := r.db.Get(ctx)
	if err != nil {
		return types.Goal{}, err
	}

	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND user_id = $2`
	return scanGoal(conn.QueryRowContext(ctx, query, id, userID))
}

func (r *GoalRepository) Create(ctx context.Context, goal types.Goal) (types.Goal, error) {
	conn, err := r.db.Get(ctx)
	if err != nil {
		return types.Goal{}, err
	}

	goal.ID = uuid.NewString()
	goal.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO goals (id, user_id, title, description, category, status, start_date, target_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := conn.ExecContext(
		ctx,
		query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		string(goal.Category),
		string(goal.Status),
		goal.StartDate,
		goal.TargetDate,
		goal.CreatedAt,
	); err != nil {
		return types.Goal{}, err
	}
	return goal, nil
}

// UpdateForOwner merges the non-nil patch fields into the stored goal in one
// statement and returns the result. ErrNotFound covers both a missing goal and
// one owned by someone else.
func (r *GoalRepository) UpdateForOwner(ctx context.Context, id, userID string, patch types.GoalPatch) (types.Goal, error) {
	conn, err := r.db.Get(ctx)
	if err != nil {
		return types.Goal{}, err
	}

	query := `
		UPDATE goals
		SET title = COALESCE($1, title),
			description = COALESCE($2, description),
			category = COALESCE($3, category),
			status = COALESCE($4, status),
			start_date = COALESCE($5, start_date),
			target_date = COALESCE($6, target_date)
		WHERE id = $7 AND user_id = $8
		RETURNING ` + goalColumns
	row := conn.QueryRowContext(
		ctx,
		query,
		nullString(patch.Title),
		nullString(patch.Description),
		nullCategory(patch.Category),
		nullStatus(patch.Status),
		nullTime(patch.StartDate),
		nullTime(patch.TargetDate),
		id,
		userID,
	)
	return scanGoal(row)
}

// DeleteForOwner removes the goal only when it belongs to userID.
func (r *GoalRepository) DeleteForOwner(ctx context.Context, id, userID string) error {
	conn, err := r.db.Get(ctx)
	if err != nil {
		return err
	}

	const query = `DELETE FROM goals WHERE id = $1 AND user_id = $2`
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

func scanGoal(row rowScanner) (types.Goal, error) {
	var goal types.Goal
	var category, status string
	err := row.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Title,
		&goal.Description,
		&category,
		&status,
		&goal.StartDate,
		&goal.TargetDate,
		&goal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Goal{}, ErrNotFound
		}
		return types.Goal{}, err
	}
	goal.Category = types.GoalCategory(category)
	goal.Status = types.GoalStatus(status)
	return goal, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullCategory(v *types.GoalCategory) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*v), Valid: true}
}

func nullStatus(v *types.GoalStatus) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*v), Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
