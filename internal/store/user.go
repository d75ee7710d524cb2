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

// UserRepository handles persistence for users.
type UserRepository struct {
	db *db.Handle
}

func NewUserRepository(handle *db.Handle) *UserRepository {
	return &UserRepository{db: handle}
}

const userColumns = `id, email, name, password_hash, created_at, updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	conn, err := r.db.Get(ctx)
	if err != nil {
		return types.User{}, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(conn.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	conn, err := r.db.Get(ctx)
	if err != nil {
		return types.User{}, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(conn.QueryRowContext(ctx, query, email))
}

// Create inserts a user. A duplicate email yields ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	conn, err := r.db.Get(ctx)
	if err != nil {
		return types.User{}, err
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := conn.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrConflict
		}
		return types.User{}, err
	}
	return user, nil
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
