package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/roamplan/server/internal/api/middleware"
	"github.com/roamplan/server/internal/api/problem"
	"github.com/roamplan/server/internal/domain/plans"
	"github.com/roamplan/server/internal/geocoding"
)

type MapHandler struct {
	Plans *plans.Service
	Geo   *geocoding.Service
	Env   string
}

func NewMapHandler(service *plans.Service, geo *geocoding.Service, env string) *MapHandler {
	return &MapHandler{Plans: service, Geo: geo, Env: env}
}

// Marker is one activity destination placed on the plan map.
type Marker struct {
	ActivityID  string  `json:"activityId"`
	Title       string  `json:"title"`
	Destination string  `json:"destination"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
}

type mapResponse struct {
	PlanID  string   `json:"planId"`
	Markers []Marker `json:"markers"`
}

// Markers handles GET /api/v1/plans/{id}/map. Destinations that cannot be
// geocoded are left off the map instead of failing the request.
func (h *MapHandler) Markers(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Plans == nil || h.Geo == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://roamplan.app/problems/server-error", "Server error", nil, h.Env)
		return
	}

	plan, err := h.Plans.Get(r.Context(), middleware.UserID(r), pathParam(r, "id"))
	if err != nil {
		writePlanError(w, r, err, h.Env)
		return
	}

	markers := make([]Marker, 0, len(plan.Activities))
	for _, activity := range plan.Activities {
		located, err := h.Geo.Locate(r.Context(), activity.Destination)
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().
				Err(err).
				Str("destination", activity.Destination).
				Msg("skipping unresolvable destination")
			continue
		}
		markers = append(markers, Marker{
			ActivityID:  activity.ID,
			Title:       activity.Title,
			Destination: activity.Destination,
			Latitude:    located.Latitude,
			Longitude:   located.Longitude,
			DisplayName: located.DisplayName,
		})
	}

	writeJSON(w, http.StatusOK, mapResponse{PlanID: plan.ID, Markers: markers})
}
