package activities

import "context"

// Repository is the storage surface the activity service needs. ListByPlan
// must return activities ordered by start date, start time, end date, end
// time ascending: conflict reporting picks the first overlapping sibling in
// that order.
//
// WithTx runs fn against a transaction-scoped repository. Mutations are
// performed inside it so the sibling snapshot and the write are atomic; this
// is the external serialization guarantee the conflict check relies on.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Activity, error)
	ListByPlan(ctx context.Context, planID string) ([]Activity, error)
	Insert(ctx context.Context, activity Activity) error
	Update(ctx context.Context, activity Activity) error
	Delete(ctx context.Context, id string) error

	// PlanOwner returns the owner id of a plan, or ErrPlanNotFound.
	PlanOwner(ctx context.Context, planID string) (string, error)

	WithTx(ctx context.Context, fn func(Repository) error) error
}
