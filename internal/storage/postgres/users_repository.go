package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/roamplan/server/internal/domain/users"
)

var _ users.Repository = (*UserRepository)(nil)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

func (r *UserRepository) Insert(ctx context.Context, user users.User) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO users (id, email, name, password_hash)
VALUES ($1, $2, $3, $4)
`, user.ID, user.Email, user.Name, user.PasswordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return users.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.get(ctx, `
SELECT id, email, name, password_hash
  FROM users
 WHERE email = $1
`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.get(ctx, `
SELECT id, email, name, password_hash
  FROM users
 WHERE id = $1
`, id)
}

func (r *UserRepository) get(ctx context.Context, query, arg string) (*users.User, error) {
	var user users.User
	err := r.queryer().QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
