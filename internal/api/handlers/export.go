package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/roamplan/server/internal/api/middleware"
	"github.com/roamplan/server/internal/api/problem"
	"github.com/roamplan/server/internal/domain/plans"
	"github.com/roamplan/server/internal/export"
)

type ExportHandler struct {
	Plans *plans.Service
	Env   string
}

func NewExportHandler(service *plans.Service, env string) *ExportHandler {
	return &ExportHandler{Plans: service, Env: env}
}

// Csv handles GET /api/v1/plans/{id}/export. Activities stream out in
// sibling order, one row each.
func (h *ExportHandler) Csv(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Plans == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	plan, err := h.Plans.Get(r.Context(), middleware.UserID(r), pathParam(r, "id"))
	if err != nil {
		writePlanError(w, r, err, h.Env)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(plan.Title)))
	w.WriteHeader(http.StatusOK)

	if err := export.WriteActivitiesCSV(w, plan.Activities); err != nil {
		// Headers are already out, so the failure can only be logged.
		zerolog.Ctx(r.Context()).Error().Err(err).Str("plan_id", plan.ID).Msg("csv export failed mid-stream")
	}
}

// exportFilename turns a plan title into a safe attachment name.
func exportFilename(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, title)
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "plan"
	}
	return cleaned + ".csv"
}
