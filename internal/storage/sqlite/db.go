// Package sqlite is the local single-file storage engine, backed by the
// pure-Go modernc.org/sqlite driver. It mirrors the postgres package
// behind the same repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roamplan/server/internal/domain/activities"
	"github.com/roamplan/server/internal/domain/plans"
	"github.com/roamplan/server/internal/domain/users"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Repository is the SQLite implementation of the storage interfaces.
type Repository struct {
	db *sql.DB
	tx *sql.Tx
}

// Open opens (creating if needed) the database file and applies the schema.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes all transactions. Schedule checks
	// rely on this: no two activity writes to a plan run concurrently.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA foreign_keys = ON")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{db: r.db, tx: r.tx}
}

func (r *Repository) Plans() plans.Repository {
	return &PlanRepository{db: r.db, tx: r.tx}
}

func (r *Repository) Activities() activities.Repository {
	return &ActivityRepository{db: r.db, tx: r.tx}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() {
	_ = r.db.Close()
}

// withTx begins a transaction and runs fn against a transaction-scoped
// repository. Nested calls reuse the outer transaction.
func (r *Repository) withTx(ctx context.Context, tx *sql.Tx, fn func(*Repository) error) error {
	if tx != nil {
		return fn(&Repository{db: r.db, tx: tx})
	}

	begun, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&Repository{db: r.db, tx: begun}); err != nil {
		_ = begun.Rollback()
		return err
	}
	if err := begun.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type UserRepository struct {
	db *sql.DB
	tx *sql.Tx
}

type PlanRepository struct {
	db *sql.DB
	tx *sql.Tx
}

type ActivityRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func (r *UserRepository) querier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *PlanRepository) querier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *ActivityRepository) querier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
