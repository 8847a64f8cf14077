package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roamplan/server/internal/api/middleware"
	"github.com/roamplan/server/internal/api/problem"
	"github.com/roamplan/server/internal/domain/plans"
	"github.com/roamplan/server/internal/domain/users"
	"github.com/roamplan/server/internal/metrics"
)

type SharesHandler struct {
	Plans *plans.Service
	Env   string
}

func NewSharesHandler(service *plans.Service, env string) *SharesHandler {
	return &SharesHandler{Plans: service, Env: env}
}

type shareRequest struct {
	Email string `json:"email"`
}

// Create handles POST /api/v1/plans/{id}/shares. Only the owner can share,
// and only with a registered user other than themselves.
func (h *SharesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Plans == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Invalid request", err, h.Env)
		return
	}
	if req.Email == "" {
		problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Email is required", nil, h.Env)
		return
	}

	shared, err := h.Plans.Share(r.Context(), middleware.UserID(r), pathParam(r, "id"), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			problem.Write(w, r, http.StatusNotFound, "https://roamplan.app/problems/not-found", "No user registered under that email", err, h.Env)
		case errors.Is(err, plans.ErrShareWithSelf):
			problem.Write(w, r, http.StatusBadRequest, "https://roamplan.app/problems/validation-error", "Cannot share a plan with its owner", err, h.Env)
		default:
			writePlanError(w, r, err, h.Env)
		}
		return
	}

	metrics.SharesTotal.WithLabelValues("grant").Inc()
	writeJSON(w, http.StatusCreated, shared)
}

// Delete handles DELETE /api/v1/plans/{id}/shares/{userID}.
func (h *SharesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Plans == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	err := h.Plans.Unshare(r.Context(), middleware.UserID(r), pathParam(r, "id"), pathParam(r, "userID"))
	if err != nil {
		writePlanError(w, r, err, h.Env)
		return
	}

	metrics.SharesTotal.WithLabelValues("revoke").Inc()
	w.WriteHeader(http.StatusNoContent)
}
