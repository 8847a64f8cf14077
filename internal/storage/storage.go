// Package storage selects and aggregates the persistence backends. Two
// engines are supported: PostgreSQL for managed deployments and SQLite for
// the local single-file setup. Both expose the same repository interfaces;
// callers never branch on the driver.
package storage

import (
	"context"
	"fmt"

	"github.com/roamplan/server/internal/domain/activities"
	"github.com/roamplan/server/internal/domain/plans"
	"github.com/roamplan/server/internal/domain/users"
	"github.com/roamplan/server/internal/storage/postgres"
	"github.com/roamplan/server/internal/storage/sqlite"
)

// Repository groups data access by domain.
type Repository interface {
	Users() users.Repository
	Plans() plans.Repository
	Activities() activities.Repository

	Ping(ctx context.Context) error
	Close()
}

// Open connects the configured engine. driver is "postgres" or "sqlite";
// dsn is a connection URL for postgres or a file path for sqlite.
func Open(ctx context.Context, driver, dsn string) (Repository, error) {
	switch driver {
	case "postgres":
		return postgres.Open(ctx, dsn)
	case "sqlite":
		return sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q: only postgres and sqlite are supported", driver)
	}
}
