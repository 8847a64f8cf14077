package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamplan/server/internal/domain/activities"
	"github.com/roamplan/server/internal/geocoding"
	"github.com/roamplan/server/internal/geocoding/nominatim"
)

func TestMapMarkersHandler(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "Rome":
			fmt.Fprint(w, `[{"lat":"41.8902","lon":"12.4922","display_name":"Rome, Italy"}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer upstream.Close()

	client := nominatim.NewClient(upstream.URL, "test@example.com", nominatim.WithRateLimit(1000))
	geo := geocoding.NewService(client, zerolog.Nop())

	f := newFixture(t)
	owner := f.register(t, "Olive", "olive@example.com")
	plan := seedPlan(t, f, owner.ID, "Italy",
		activities.Input{Title: "Colosseum", Destination: "Rome", StartDate: "2026-09-10", EndDate: "2026-09-10"},
		activities.Input{Title: "Nowhere", Destination: "Atlantis", StartDate: "2026-09-11", EndDate: "2026-09-11"})

	handler := NewMapHandler(f.plans, geo, "test")

	rec := f.do(t, handler.Markers, "GET", "/api/v1/plans/"+plan.ID+"/map", owner.ID, nil, map[string]string{"id": plan.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp mapResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, plan.ID, resp.PlanID)
	require.Len(t, resp.Markers, 1)
	assert.Equal(t, "Colosseum", resp.Markers[0].Title)
	assert.InDelta(t, 41.8902, resp.Markers[0].Latitude, 0.0001)
	assert.Equal(t, "Rome, Italy", resp.Markers[0].DisplayName)
}
