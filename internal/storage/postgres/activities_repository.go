package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/roamplan/server/internal/domain/activities"
)

var _ activities.Repository = (*ActivityRepository)(nil)

// activityColumns is the select list shared by every activity query. The
// order must match scanActivity.
const activityColumns = `id, title, destination, start_date, end_date, start_time, end_time, notes, owner_id, plan_id`

// siblingOrder keeps conflict reporting deterministic: the scheduler blames
// the first overlapping sibling in this order.
const siblingOrder = `ORDER BY start_date ASC, start_time ASC NULLS FIRST, end_date ASC, end_time ASC NULLS FIRST`

func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*activities.Activity, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+activityColumns+`
  FROM activities
 WHERE id = $1
`, id)

	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, activities.ErrNotFound
		}
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return &activity, nil
}

func (r *ActivityRepository) ListByPlan(ctx context.Context, planID string) ([]activities.Activity, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+activityColumns+`
  FROM activities
 WHERE plan_id = $1
 `+siblingOrder, planID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

func (r *ActivityRepository) Insert(ctx context.Context, a activities.Activity) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO activities (id, title, destination, start_date, end_date, start_time, end_time, notes, owner_id, plan_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`, a.ID, a.Title, a.Destination, a.StartDate, a.EndDate, a.StartTime, a.EndTime, a.Notes, a.OwnerID, a.PlanID)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) Update(ctx context.Context, a activities.Activity) error {
	tag, err := r.queryer().Exec(ctx, `
UPDATE activities
   SET title = $2, destination = $3, start_date = $4, end_date = $5,
       start_time = $6, end_time = $7, notes = $8
 WHERE id = $1
`, a.ID, a.Title, a.Destination, a.StartDate, a.EndDate, a.StartTime, a.EndTime, a.Notes)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return activities.ErrNotFound
	}
	return nil
}

func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return activities.ErrNotFound
	}
	return nil
}

// planOwnerQuery locks the plan row for the rest of the transaction.
// Schedule checks read the sibling snapshot after this lookup, so two
// concurrent writes to the same plan must serialize here or both could
// commit overlapping activities. Outside a transaction the lock is
// released immediately and the query degrades to a plain read.
const planOwnerQuery = `SELECT owner_id FROM plans WHERE id = $1 FOR UPDATE`

func (r *ActivityRepository) PlanOwner(ctx context.Context, planID string) (string, error) {
	var ownerID string
	err := r.queryer().QueryRow(ctx, planOwnerQuery, planID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", activities.ErrPlanNotFound
		}
		return "", fmt.Errorf("get plan owner: %w", err)
	}
	return ownerID, nil
}

func (r *ActivityRepository) WithTx(ctx context.Context, fn func(activities.Repository) error) error {
	base := &Repository{pool: r.pool, tx: r.tx}
	return base.withTx(ctx, r.tx, func(scoped *Repository) error {
		return fn(scoped.Activities())
	})
}

func scanActivity(row pgx.Row) (activities.Activity, error) {
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

func collectActivities(rows pgx.Rows) ([]activities.Activity, error) {
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
