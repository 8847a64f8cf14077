package plans

import (
	"context"
	"errors"

	"github.com/roamplan/server/internal/domain/activities"
	"github.com/roamplan/server/internal/domain/users"
)

var (
	ErrNotFound      = errors.New("plan not found")
	ErrNotOwner      = errors.New("only the plan owner can modify this plan")
	ErrForbidden     = errors.New("plan is not shared with this user")
	ErrTitleRequired = errors.New("plan title cannot be empty")
	ErrShareWithSelf = errors.New("cannot share a plan with its owner")
)

// Plan is a named collection of activities owned by one user, optionally
// shared read-only with others.
type Plan struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	OwnerID    string                `json:"ownerId"`
	Activities []activities.Activity `json:"activities"`
	SharedWith []SharedUser          `json:"sharedWith,omitempty"`
}

// SharedUser identifies a user a plan is shared with.
type SharedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Repository is the storage surface for plans and their shares. ListForUser
// and ListActivities return activities ordered by start date, start time,
// end date, end time ascending.
type Repository interface {
	Insert(ctx context.Context, plan Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	ListForUser(ctx context.Context, userID string) ([]Plan, error)
	Rename(ctx context.Context, id, title string) error

	// Delete removes the plan along with its shares and activities.
	Delete(ctx context.Context, id string) error

	ListActivities(ctx context.Context, planID string) ([]activities.Activity, error)
	InsertActivities(ctx context.Context, batch []activities.Activity) error

	AddShare(ctx context.Context, planID, userID string) error
	RemoveShare(ctx context.Context, planID, userID string) error
	SharedUsers(ctx context.Context, planID string) ([]SharedUser, error)
	IsSharedWith(ctx context.Context, planID, userID string) (bool, error)

	WithTx(ctx context.Context, fn func(Repository) error) error
}

// UserDirectory resolves share recipients. Satisfied by the users storage
// repository.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// ShareNotifier tells a user a plan was shared with them. Notification
// failures never fail the share itself.
type ShareNotifier interface {
	NotifyPlanShared(ctx context.Context, recipient users.User, planTitle, sharedBy string) error
}
