package activities

import (
	"context"

	"github.com/roamplan/server/internal/sanitize"
)

// Service wires the scheduling rules to storage and ownership checks. Every
// mutation runs inside a repository transaction so the sibling snapshot read
// for conflict checking and the write itself cannot interleave with a
// concurrent mutation of the same plan.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new activity in the given plan. Only the
// plan owner may add activities.
func (s *Service) Create(ctx context.Context, userID, planID string, in Input) (Activity, error) {
	var created Activity
	err := s.repo.WithTx(ctx, func(repo Repository) error {
		ownerID, err := repo.PlanOwner(ctx, planID)
		if err != nil {
			return err
		}
		if ownerID != userID {
			return ErrNotOwner
		}

		siblings, err := repo.ListByPlan(ctx, planID)
		if err != nil {
			return err
		}

		created, err = PrepareCreate(sanitizeInput(in), siblings, userID, planID)
		if err != nil {
			return err
		}
		return repo.Insert(ctx, created)
	})
	if err != nil {
		return Activity{}, err
	}
	return created, nil
}

// Update merges a partial update onto an existing activity and re-validates
// it against the other activities in its plan.
func (s *Service) Update(ctx context.Context, userID, activityID string, patch Patch) (Activity, error) {
	var updated Activity
	err := s.repo.WithTx(ctx, func(repo Repository) error {
		existing, err := repo.GetByID(ctx, activityID)
		if err != nil {
			return err
		}

		ownerID, err := repo.PlanOwner(ctx, existing.PlanID)
		if err != nil {
			return err
		}
		if ownerID != userID {
			return ErrNotOwner
		}

		siblings, err := repo.ListByPlan(ctx, existing.PlanID)
		if err != nil {
			return err
		}

		updated, err = PrepareUpdate(*existing, sanitizePatch(patch), siblings)
		if err != nil {
			return err
		}
		return repo.Update(ctx, updated)
	})
	if err != nil {
		return Activity{}, err
	}
	return updated, nil
}

// Delete removes an activity unconditionally. No conflict re-check is
// needed: removing an interval cannot introduce an overlap.
func (s *Service) Delete(ctx context.Context, userID, activityID string) error {
	return s.repo.WithTx(ctx, func(repo Repository) error {
		existing, err := repo.GetByID(ctx, activityID)
		if err != nil {
			return err
		}

		ownerID, err := repo.PlanOwner(ctx, existing.PlanID)
		if err != nil {
			return err
		}
		if ownerID != userID {
			return ErrNotOwner
		}

		return repo.Delete(ctx, activityID)
	})
}

func sanitizeInput(in Input) Input {
	in.Title = sanitize.Text(in.Title)
	in.Destination = sanitize.Text(in.Destination)
	in.Notes = sanitize.TextPtr(in.Notes)
	return in
}

func sanitizePatch(patch Patch) Patch {
	if patch.Title != nil {
		patch.Title = sanitize.TextPtr(patch.Title)
	}
	if patch.Destination != nil {
		patch.Destination = sanitize.TextPtr(patch.Destination)
	}
	if patch.Notes.Set {
		patch.Notes.Value = sanitize.TextPtr(patch.Notes.Value)
	}
	return patch
}
