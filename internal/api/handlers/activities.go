package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roamplan/server/internal/api/middleware"
	"github.com/roamplan/server/internal/api/problem"
	"github.com/roamplan/server/internal/domain/activities"
	"github.com/roamplan/server/internal/metrics"
)

type ActivitiesHandler struct {
	Activities *activities.Service
	Env        string
}

func NewActivitiesHandler(service *activities.Service, env string) *ActivitiesHandler {
	return &ActivitiesHandler{Activities: service, Env: env}
}

// Create handles POST /api/v1/plans/{id}/activities. The new activity is
// checked against every sibling in the plan before it is stored.
func (h *ActivitiesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Activities == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	var input activities.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Invalid request", err, h.Env)
		return
	}

	activity, err := h.Activities.Create(r.Context(), middleware.UserID(r), pathParam(r, "id"), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	metrics.ActivitiesCreatedTotal.WithLabelValues("single").Inc()
	writeJSON(w, http.StatusCreated, activity)
}

// Update handles PATCH /api/v1/activities/{id}. Fields absent from the body
// keep their stored values; explicit nulls clear the optional ones.
func (h *ActivitiesHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Activities == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	var patch activities.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Invalid request", err, h.Env)
		return
	}

	activity, err := h.Activities.Update(r.Context(), middleware.UserID(r), pathParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, activity)
}

// Delete handles DELETE /api/v1/activities/{id}.
func (h *ActivitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Activities == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	if err := h.Activities.Delete(r.Context(), middleware.UserID(r), pathParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ActivitiesHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, activities.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, "https://roamplan.app/problems/not-found", "Activity not found", err, h.Env)
	case errors.Is(err, activities.ErrPlanNotFound):
		problem.Write(w, r, http.StatusNotFound, "https://roamplan.app/problems/not-found", "Plan not found", err, h.Env)
	case errors.Is(err, activities.ErrNotOwner):
		problem.Write(w, r, http.StatusForbidden, "https://roamplan.app/problems/forbidden", "Access denied", err, h.Env)
	default:
		if writeSchedulingError(w, r, err, h.Env) {
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", err, h.Env)
	}
}
