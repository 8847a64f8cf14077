package plans

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/roamplan/server/internal/domain/activities"
	"github.com/roamplan/server/internal/domain/users"
	"github.com/roamplan/server/internal/sanitize"
	"github.com/rs/zerolog"
)

// CreateInput is a new plan with its initial itinerary. SharedEmail
// optionally shares the plan at creation time; an email that matches no
// registered user is skipped without failing the create.
type CreateInput struct {
	Title       string             `json:"title"`
	SharedEmail string             `json:"sharedEmail"`
	Activities  []activities.Input `json:"activities"`
}

// Service orchestrates plan CRUD and sharing on top of the activity
// scheduling rules.
type Service struct {
	repo     Repository
	users    UserDirectory
	notifier ShareNotifier
	logger   zerolog.Logger
}

func NewService(repo Repository, directory UserDirectory, notifier ShareNotifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    directory,
		notifier: notifier,
		logger:   logger.With().Str("component", "plans").Logger(),
	}
}

// Create validates the whole batch of activities against each other, then
// persists the plan, its activities, and the optional initial share in one
// transaction.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Plan, error) {
	title := sanitize.Text(in.Title)
	if title == "" {
		return Plan{}, ErrTitleRequired
	}

	planID := uuid.NewString()

	inputs := make([]activities.Input, len(in.Activities))
	for i, a := range in.Activities {
		a.Title = sanitize.Text(a.Title)
		a.Destination = sanitize.Text(a.Destination)
		a.Notes = sanitize.TextPtr(a.Notes)
		inputs[i] = a
	}

	batch, err := activities.PrepareBulkCreate(inputs, ownerID, planID)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{ID: planID, Title: title, OwnerID: ownerID, Activities: batch}

	var recipient *users.User
	err = s.repo.WithTx(ctx, func(repo Repository) error {
		if err := repo.Insert(ctx, plan); err != nil {
			return fmt.Errorf("insert plan: %w", err)
		}
		if len(batch) > 0 {
			if err := repo.InsertActivities(ctx, batch); err != nil {
				return fmt.Errorf("insert activities: %w", err)
			}
		}

		if in.SharedEmail == "" {
			return nil
		}
		match, err := s.users.GetByEmail(ctx, in.SharedEmail)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				s.logger.Debug().Str("plan_id", planID).Msg("share email matches no user, skipping")
				return nil
			}
			return fmt.Errorf("resolve share email: %w", err)
		}
		if match.ID == ownerID {
			return nil
		}
		if err := repo.AddShare(ctx, planID, match.ID); err != nil {
			return fmt.Errorf("share plan: %w", err)
		}
		recipient = match
		return nil
	})
	if err != nil {
		return Plan{}, err
	}

	if recipient != nil {
		plan.SharedWith = []SharedUser{{ID: recipient.ID, Email: recipient.Email, Name: recipient.Name}}
		s.notifyShared(ctx, *recipient, plan.Title, ownerID)
	}

	s.logger.Info().Str("plan_id", planID).Int("activities", len(batch)).Msg("plan created")
	return plan, nil
}

// List returns every plan the user owns or has been granted access to, with
// activities in sibling order.
func (s *Service) List(ctx context.Context, userID string) ([]Plan, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Get returns a single plan visible to the user (owner or sharee), with its
// activities and share list.
func (s *Service) Get(ctx context.Context, userID, planID string) (Plan, error) {
	plan, err := s.repo.Get(ctx, planID)
	if err != nil {
		return Plan{}, err
	}

	if plan.OwnerID != userID {
		shared, err := s.repo.IsSharedWith(ctx, planID, userID)
		if err != nil {
			return Plan{}, err
		}
		if !shared {
			return Plan{}, ErrForbidden
		}
	}

	acts, err := s.repo.ListActivities(ctx, planID)
	if err != nil {
		return Plan{}, err
	}
	sharedWith, err := s.repo.SharedUsers(ctx, planID)
	if err != nil {
		return Plan{}, err
	}

	plan.Activities = acts
	plan.SharedWith = sharedWith
	return *plan, nil
}

// Rename changes the plan title. Owner only; blank titles are rejected.
func (s *Service) Rename(ctx context.Context, userID, planID, title string) error {
	title = sanitize.Text(title)
	if title == "" {
		return ErrTitleRequired
	}

	plan, err := s.repo.Get(ctx, planID)
	if err != nil {
		return err
	}
	if plan.OwnerID != userID {
		return ErrNotOwner
	}
	return s.repo.Rename(ctx, planID, title)
}

// Delete removes the plan with its shares and activities. Owner only.
func (s *Service) Delete(ctx context.Context, userID, planID string) error {
	return s.repo.WithTx(ctx, func(repo Repository) error {
		plan, err := repo.Get(ctx, planID)
		if err != nil {
			return err
		}
		if plan.OwnerID != userID {
			return ErrNotOwner
		}
		return repo.Delete(ctx, planID)
	})
}

// Share grants read-only access to the user registered under email.
func (s *Service) Share(ctx context.Context, ownerID, planID, email string) (SharedUser, error) {
	plan, err := s.repo.Get(ctx, planID)
	if err != nil {
		return SharedUser{}, err
	}
	if plan.OwnerID != ownerID {
		return SharedUser{}, ErrNotOwner
	}

	recipient, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return SharedUser{}, err
	}
	if recipient.ID == plan.OwnerID {
		return SharedUser{}, ErrShareWithSelf
	}

	if err := s.repo.AddShare(ctx, planID, recipient.ID); err != nil {
		return SharedUser{}, err
	}

	s.notifyShared(ctx, *recipient, plan.Title, ownerID)
	return SharedUser{ID: recipient.ID, Email: recipient.Email, Name: recipient.Name}, nil
}

// Unshare revokes a user's access. Owner only.
func (s *Service) Unshare(ctx context.Context, ownerID, planID, userID string) error {
	plan, err := s.repo.Get(ctx, planID)
	if err != nil {
		return err
	}
	if plan.OwnerID != ownerID {
		return ErrNotOwner
	}
	return s.repo.RemoveShare(ctx, planID, userID)
}

func (s *Service) notifyShared(ctx context.Context, recipient users.User, planTitle, ownerID string) {
	if s.notifier == nil {
		return
	}
	sharedBy := "Another traveller"
	if owner, err := s.users.GetByID(ctx, ownerID); err == nil && owner.Name != "" {
		sharedBy = owner.Name
	}
	if err := s.notifier.NotifyPlanShared(ctx, recipient, planTitle, sharedBy); err != nil {
		s.logger.Warn().Err(err).Str("recipient", recipient.ID).Msg("share notification failed")
	}
}
