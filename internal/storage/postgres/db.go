package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roamplan/server/internal/domain/activities"
	"github.com/roamplan/server/internal/domain/plans"
	"github.com/roamplan/server/internal/domain/users"
)

// queryer is satisfied by both *pgxpool.Pool and pgx.Tx so the same query
// code runs inside and outside a transaction.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository is the PostgreSQL implementation of the storage interfaces.
type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// Open connects a pgx pool and verifies connectivity.
func Open(ctx context.Context, url string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Plans() plans.Repository {
	return &PlanRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Activities() activities.Repository {
	return &ActivityRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Close() {
	r.pool.Close()
}

// withTx begins a transaction and runs fn against a transaction-scoped
// repository. Nested calls reuse the outer transaction.
func (r *Repository) withTx(ctx context.Context, tx pgx.Tx, fn func(*Repository) error) error {
	if tx != nil {
		return fn(&Repository{pool: r.pool, tx: tx})
	}

	begun, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&Repository{pool: r.pool, tx: begun}); err != nil {
		_ = begun.Rollback(ctx)
		return err
	}
	if err := begun.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type PlanRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type ActivityRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *UserRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *PlanRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *ActivityRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}
