package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roamplan/server/internal/domain/activities"
)

var _ activities.Repository = (*ActivityRepository)(nil)

const activityColumns = `id, title, destination, start_date, end_date, start_time, end_time, notes, owner_id, plan_id`

// SQLite sorts NULLs first on ascending order, which is exactly the
// day-boundary-first ordering the scheduler's conflict reporting relies on.
const siblingOrder = `ORDER BY start_date ASC, start_time ASC, end_date ASC, end_time ASC`

func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*activities.Activity, error) {
	row := r.querier().QueryRowContext(ctx, `
SELECT `+activityColumns+`
  FROM activities
 WHERE id = ?
`, id)

	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, activities.ErrNotFound
		}
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return &activity, nil
}

func (r *ActivityRepository) ListByPlan(ctx context.Context, planID string) ([]activities.Activity, error) {
	rows, err := r.querier().QueryContext(ctx, `
SELECT `+activityColumns+`
  FROM activities
 WHERE plan_id = ?
 `+siblingOrder, planID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	items := make([]activities.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return items, nil
}

func (r *ActivityRepository) Insert(ctx context.Context, a activities.Activity) error {
	_, err := r.querier().ExecContext(ctx, `
INSERT INTO activities (id, title, destination, start_date, end_date, start_time, end_time, notes, owner_id, plan_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, a.ID, a.Title, a.Destination, a.StartDate, a.EndDate, a.StartTime, a.EndTime, a.Notes, a.OwnerID, a.PlanID)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) Update(ctx context.Context, a activities.Activity) error {
	result, err := r.querier().ExecContext(ctx, `
UPDATE activities
   SET title = ?, destination = ?, start_date = ?, end_date = ?,
       start_time = ?, end_time = ?, notes = ?
 WHERE id = ?
`, a.Title, a.Destination, a.StartDate, a.EndDate, a.StartTime, a.EndTime, a.Notes, a.ID)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return requireRow(result, activities.ErrNotFound)
}

func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.querier().ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return requireRow(result, activities.ErrNotFound)
}

func (r *ActivityRepository) PlanOwner(ctx context.Context, planID string) (string, error) {
	var ownerID string
	err := r.querier().QueryRowContext(ctx, `SELECT owner_id FROM plans WHERE id = ?`, planID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", activities.ErrPlanNotFound
		}
		return "", fmt.Errorf("get plan owner: %w", err)
	}
	return ownerID, nil
}

func (r *ActivityRepository) WithTx(ctx context.Context, fn func(activities.Repository) error) error {
	base := &Repository{db: r.db, tx: r.tx}
	return base.withTx(ctx, r.tx, func(scoped *Repository) error {
		return fn(scoped.Activities())
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (activities.Activity, error) {
	var a activities.Activity
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Destination,
		&a.StartDate,
		&a.EndDate,
		&a.StartTime,
		&a.EndTime,
		&a.Notes,
		&a.OwnerID,
		&a.PlanID,
	)
	return a, err
}

func requireRow(result sql.Result, missing error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return missing
	}
	return nil
}
