package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roamplan/server/internal/domain/activities"
	"github.com/roamplan/server/internal/domain/plans"
)

var _ plans.Repository = (*PlanRepository)(nil)

func (r *PlanRepository) Insert(ctx context.Context, plan plans.Plan) error {
	_, err := r.querier().ExecContext(ctx, `
INSERT INTO plans (id, title, owner_id)
VALUES (?, ?, ?)
`, plan.ID, plan.Title, plan.OwnerID)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) Get(ctx context.Context, id string) (*plans.Plan, error) {
	var plan plans.Plan
	err := r.querier().QueryRowContext(ctx, `
SELECT id, title, owner_id
  FROM plans
 WHERE id = ?
`, id).Scan(&plan.ID, &plan.Title, &plan.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, plans.ErrNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &plan, nil
}

func (r *PlanRepository) ListForUser(ctx context.Context, userID string) ([]plans.Plan, error) {
	rows, err := r.querier().QueryContext(ctx, `
SELECT DISTINCT p.id, p.title, p.owner_id
  FROM plans p
  LEFT JOIN plan_shares ps ON ps.plan_id = p.id
 WHERE p.owner_id = ? OR ps.user_id = ?
 ORDER BY p.title ASC, p.id ASC
`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	list := make([]plans.Plan, 0)
	for rows.Next() {
		var plan plans.Plan
		if err := rows.Scan(&plan.ID, &plan.Title, &plan.OwnerID); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		list = append(list, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}

	for i := range list {
		acts, err := r.ListActivities(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Activities = acts
	}
	return list, nil
}

func (r *PlanRepository) Rename(ctx context.Context, id, title string) error {
	result, err := r.querier().ExecContext(ctx, `UPDATE plans SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("rename plan: %w", err)
	}
	return requireRow(result, plans.ErrNotFound)
}

func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	q := r.querier()
	if _, err := q.ExecContext(ctx, `DELETE FROM plan_shares WHERE plan_id = ?`, id); err != nil {
		return fmt.Errorf("delete plan shares: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM activities WHERE plan_id = ?`, id); err != nil {
		return fmt.Errorf("delete plan activities: %w", err)
	}
	result, err := q.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return requireRow(result, plans.ErrNotFound)
}

func (r *PlanRepository) ListActivities(ctx context.Context, planID string) ([]activities.Activity, error) {
	scoped := &ActivityRepository{db: r.db, tx: r.tx}
	return scoped.ListByPlan(ctx, planID)
}

func (r *PlanRepository) InsertActivities(ctx context.Context, batch []activities.Activity) error {
	scoped := &ActivityRepository{db: r.db, tx: r.tx}
	for _, a := range batch {
		if err := scoped.Insert(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *PlanRepository) AddShare(ctx context.Context, planID, userID string) error {
	_, err := r.querier().ExecContext(ctx, `
INSERT INTO plan_shares (plan_id, user_id)
VALUES (?, ?)
ON CONFLICT (plan_id, user_id) DO NOTHING
`, planID, userID)
	if err != nil {
		return fmt.Errorf("add share: %w", err)
	}
	return nil
}

func (r *PlanRepository) RemoveShare(ctx context.Context, planID, userID string) error {
	_, err := r.querier().ExecContext(ctx, `
DELETE FROM plan_shares WHERE plan_id = ? AND user_id = ?
`, planID, userID)
	if err != nil {
		return fmt.Errorf("remove share: %w", err)
	}
	return nil
}

func (r *PlanRepository) SharedUsers(ctx context.Context, planID string) ([]plans.SharedUser, error) {
	rows, err := r.querier().QueryContext(ctx, `
SELECT u.id, u.email, u.name
  FROM plan_shares ps
  JOIN users u ON u.id = ps.user_id
 WHERE ps.plan_id = ?
 ORDER BY u.email ASC
`, planID)
	if err != nil {
		return nil, fmt.Errorf("list shared users: %w", err)
	}
	defer rows.Close()

	shared := make([]plans.SharedUser, 0)
	for rows.Next() {
		var su plans.SharedUser
		if err := rows.Scan(&su.ID, &su.Email, &su.Name); err != nil {
			return nil, fmt.Errorf("scan shared user: %w", err)
		}
		shared = append(shared, su)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared users: %w", err)
	}
	return shared, nil
}

func (r *PlanRepository) IsSharedWith(ctx context.Context, planID, userID string) (bool, error) {
	var exists bool
	err := r.querier().QueryRowContext(ctx, `
SELECT EXISTS (
    SELECT 1 FROM plan_shares WHERE plan_id = ? AND user_id = ?
)
`, planID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check share: %w", err)
	}
	return exists, nil
}

func (r *PlanRepository) WithTx(ctx context.Context, fn func(plans.Repository) error) error {
	base := &Repository{db: r.db, tx: r.tx}
	return base.withTx(ctx, r.tx, func(scoped *Repository) error {
		return fn(scoped.Plans())
	})
}
