package users

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryRepo struct {
	byEmail map[string]User
	byID    map[string]User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byEmail: make(map[string]User), byID: make(map[string]User)}
}

func (r *memoryRepo) Insert(_ context.Context, user User) error {
	if _, ok := r.byEmail[user.Email]; ok {
		return ErrEmailTaken
	}
	r.byEmail[user.Email] = user
	r.byID[user.ID] = user
	return nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("hashes password and normalizes email", func(t *testing.T) {
		svc, repo := newTestService()

		user, err := svc.Register(ctx, "  Ada  ", "  Ada@Example.COM ", "hunter2hunter2")
		require.NoError(t, err)

		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, "Ada", user.Name)
		assert.NotEmpty(t, user.ID)
		assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))

		stored, ok := repo.byEmail["ada@example.com"]
		require.True(t, ok)
		assert.Equal(t, user.ID, stored.ID)
	})

	t.Run("duplicate email rejected case-insensitively", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Register(ctx, "Ada", "ada@example.com", "hunter2hunter2")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "Imposter", "ADA@example.com", "different-pass")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	registered, err := svc.Register(ctx, "Ada", "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)

	t.Run("correct credentials", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "Ada@Example.com", "hunter2hunter2")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ada@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email indistinguishable from wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody@example.com", "hunter2hunter2")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	registered, err := svc.Register(ctx, "Ada", "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)

	user, err := svc.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	_, err = svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
