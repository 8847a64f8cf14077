package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roamplan/server/internal/domain/users"
)

var _ users.Repository = (*UserRepository)(nil)

func (r *UserRepository) Insert(ctx context.Context, user users.User) error {
	_, err := r.querier().ExecContext(ctx, `
INSERT INTO users (id, email, name, password_hash)
VALUES (?, ?, ?, ?)
`, user.ID, user.Email, user.Name, user.PasswordHash)
	if err != nil {
		// modernc.org/sqlite reports constraint breaks as plain errors;
		// the unique index on email is the only one this insert can hit.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
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
 WHERE email = ?
`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.get(ctx, `
SELECT id, email, name, password_hash
  FROM users
 WHERE id = ?
`, id)
}

func (r *UserRepository) get(ctx context.Context, query, arg string) (*users.User, error) {
	var user users.User
	err := r.querier().QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
