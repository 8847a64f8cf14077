package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roamplan/server/internal/api/middleware"
	"github.com/roamplan/server/internal/api/problem"
	"github.com/roamplan/server/internal/domain/activities"
	"github.com/roamplan/server/internal/domain/plans"
	"github.com/roamplan/server/internal/metrics"
)

type PlansHandler struct {
	Plans *plans.Service
	Env   string
}

func NewPlansHandler(service *plans.Service, env string) *PlansHandler {
	return &PlansHandler{Plans: service, Env: env}
}

type planListResponse struct {
	Items []plans.Plan `json:"items"`
}

type renameRequest struct {
	Title string `json:"title"`
}

// List handles GET /api/v1/plans: owned plans plus plans shared with the user.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Plans == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	items, err := h.Plans.List(r.Context(), middleware.UserID(r))
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", err, h.Env)
		return
	}
	if items == nil {
		items = []plans.Plan{}
	}

	writeJSON(w, http.StatusOK, planListResponse{Items: items})
}

// Create handles POST /api/v1/plans. The initial itinerary is validated as a
// batch; one conflicting pair rejects the whole plan.
func (h *PlansHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Plans == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	var input plans.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Invalid request", err, h.Env)
		return
	}

	plan, err := h.Plans.Create(r.Context(), middleware.UserID(r), input)
	if err != nil {
		if errors.Is(err, plans.ErrTitleRequired) {
			problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Plan title is required", err, h.Env)
			return
		}
		if writeSchedulingError(w, r, err, h.Env) {
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", err, h.Env)
		return
	}

	metrics.PlansCreatedTotal.Inc()
	if n := len(plan.Activities); n > 0 {
		metrics.ActivitiesCreatedTotal.WithLabelValues("bulk").Add(float64(n))
	}

	writeJSON(w, http.StatusCreated, plan)
}

// Get handles GET /api/v1/plans/{id}.
func (h *PlansHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Plans == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	plan, err := h.Plans.Get(r.Context(), middleware.UserID(r), pathParam(r, "id"))
	if err != nil {
		writePlanError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

// Rename handles PATCH /api/v1/plans/{id}.
func (h *PlansHandler) Rename(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Plans == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Invalid request", err, h.Env)
		return
	}

	if err := h.Plans.Rename(r.Context(), middleware.UserID(r), pathParam(r, "id"), req.Title); err != nil {
		if errors.Is(err, plans.ErrTitleRequired) {
			problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Plan title is required", err, h.Env)
			return
		}
		writePlanError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// Delete handles DELETE /api/v1/plans/{id}.
func (h *PlansHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Plans == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	if err := h.Plans.Delete(r.Context(), middleware.UserID(r), pathParam(r, "id")); err != nil {
		writePlanError(w, r, err, h.Env)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writePlanError maps common plan access errors onto problem responses.
func writePlanError(w http.ResponseWriter, r *http.Request, err error, env string) {
	switch {
	case errors.Is(err, plans.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, "https://roamplan.app/problems/not-found", "Plan not found", err, env)
	case errors.Is(err, plans.ErrForbidden), errors.Is(err, plans.ErrNotOwner):
		problem.Write(w, r, http.StatusForbidden, "https://roamplan.app/problems/forbidden", "Access denied", err, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", err, env)
	}
}

// writeSchedulingError renders activity validation and conflict failures.
// Returns false when err is neither.
func writeSchedulingError(w http.ResponseWriter, r *http.Request, err error, env string) bool {
	var validationErr activities.ValidationError
	if errors.As(err, &validationErr) {
		// The validation message is user-facing in every environment, so it
		// goes through WithDetail rather than relying on the env-gated detail.
		opts := []problem.Option{problem.WithDetail(validationErr.Error())}
		if validationErr.Field != "" {
			opts = append(opts, problem.WithErrors(map[string]interface{}{validationErr.Field: validationErr.Message}))
		}
		problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Invalid activity", err, env, opts...)
		return true
	}

	var conflictErr activities.ConflictError
	if errors.As(err, &conflictErr) {
		metrics.ScheduleConflictsTotal.Inc()
		problem.Write(w, r, http.StatusConflict, "https://roamplan.app/problems/schedule-conflict", "Schedule conflict", err, env,
			problem.WithDetail(conflictErr.Error()))
		return true
	}

	return false
}
