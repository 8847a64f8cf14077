package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/roamplan/server/internal/api/middleware"
	"github.com/roamplan/server/internal/auth"
	"github.com/roamplan/server/internal/domain/activities"
	"github.com/roamplan/server/internal/domain/plans"
	"github.com/roamplan/server/internal/domain/users"
)

// store is a single in-memory backend shared by the per-domain repository
// views below, so handler tests exercise the real services end to end.
type store struct {
	users      map[string]users.User
	plans      map[string]plans.Plan
	activities map[string]activities.Activity
	shares     map[string]map[string]bool
}

func newStore() *store {
	return &store{
		users:      make(map[string]users.User),
		plans:      make(map[string]plans.Plan),
		activities: make(map[string]activities.Activity),
		shares:     make(map[string]map[string]bool),
	}
}

func (s *store) planActivities(planID string) []activities.Activity {
	var out []activities.Activity
	for _, a := range s.activities {
		if a.PlanID == planID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return activityKey(out[i]) < activityKey(out[j])
	})
	return out
}

func activityKey(a activities.Activity) string {
	start := "00:00"
	if a.StartTime != nil {
		start = *a.StartTime
	}
	return a.StartDate + "T" + start + "/" + a.ID
}

type usersRepo struct{ s *store }

func (r usersRepo) Insert(_ context.Context, user users.User) error {
	r.s.users[user.ID] = user
	return nil
}

func (r usersRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, users.ErrNotFound
}

func (r usersRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &u, nil
}

type plansRepo struct{ s *store }

func (r plansRepo) Insert(_ context.Context, plan plans.Plan) error {
	plan.Activities = nil
	plan.SharedWith = nil
	r.s.plans[plan.ID] = plan
	return nil
}

func (r plansRepo) Get(_ context.Context, id string) (*plans.Plan, error) {
	plan, ok := r.s.plans[id]
	if !ok {
		return nil, plans.ErrNotFound
	}
	return &plan, nil
}

func (r plansRepo) ListForUser(_ context.Context, userID string) ([]plans.Plan, error) {
	var out []plans.Plan
	for id, plan := range r.s.plans {
		if plan.OwnerID == userID || r.s.shares[id][userID] {
			plan.Activities = r.s.planActivities(id)
			out = append(out, plan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r plansRepo) Rename(_ context.Context, id, title string) error {
	plan, ok := r.s.plans[id]
	if !ok {
		return plans.ErrNotFound
	}
	plan.Title = title
	r.s.plans[id] = plan
	return nil
}

func (r plansRepo) Delete(_ context.Context, id string) error {
	delete(r.s.plans, id)
	delete(r.s.shares, id)
	for actID, a := range r.s.activities {
		if a.PlanID == id {
			delete(r.s.activities, actID)
		}
	}
	return nil
}

func (r plansRepo) ListActivities(_ context.Context, planID string) ([]activities.Activity, error) {
	return r.s.planActivities(planID), nil
}

func (r plansRepo) InsertActivities(_ context.Context, batch []activities.Activity) error {
	for _, a := range batch {
		r.s.activities[a.ID] = a
	}
	return nil
}

func (r plansRepo) AddShare(_ context.Context, planID, userID string) error {
	if r.s.shares[planID] == nil {
		r.s.shares[planID] = make(map[string]bool)
	}
	r.s.shares[planID][userID] = true
	return nil
}

func (r plansRepo) RemoveShare(_ context.Context, planID, userID string) error {
	delete(r.s.shares[planID], userID)
	return nil
}

func (r plansRepo) SharedUsers(_ context.Context, planID string) ([]plans.SharedUser, error) {
	var out []plans.SharedUser
	for userID := range r.s.shares[planID] {
		u := r.s.users[userID]
		out = append(out, plans.SharedUser{ID: u.ID, Email: u.Email, Name: u.Name})
	}
	return out, nil
}

func (r plansRepo) IsSharedWith(_ context.Context, planID, userID string) (bool, error) {
	return r.s.shares[planID][userID], nil
}

func (r plansRepo) WithTx(_ context.Context, fn func(plans.Repository) error) error {
	return fn(r)
}

type activitiesRepo struct{ s *store }

func (r activitiesRepo) GetByID(_ context.Context, id string) (*activities.Activity, error) {
	a, ok := r.s.activities[id]
	if !ok {
		return nil, activities.ErrNotFound
	}
	return &a, nil
}

func (r activitiesRepo) ListByPlan(_ context.Context, planID string) ([]activities.Activity, error) {
	return r.s.planActivities(planID), nil
}

func (r activitiesRepo) Insert(_ context.Context, activity activities.Activity) error {
	r.s.activities[activity.ID] = activity
	return nil
}

func (r activitiesRepo) Update(_ context.Context, activity activities.Activity) error {
	r.s.activities[activity.ID] = activity
	return nil
}

func (r activitiesRepo) Delete(_ context.Context, id string) error {
	delete(r.s.activities, id)
	return nil
}

func (r activitiesRepo) PlanOwner(_ context.Context, planID string) (string, error) {
	plan, ok := r.s.plans[planID]
	if !ok {
		return "", activities.ErrPlanNotFound
	}
	return plan.OwnerID, nil
}

func (r activitiesRepo) WithTx(_ context.Context, fn func(activities.Repository) error) error {
	return fn(r)
}

type fixture struct {
	store *store
	mgr   *auth.JWTManager

	users *users.Service
	plans *plans.Service

	auth       *AuthHandler
	plansH     *PlansHandler
	activities *ActivitiesHandler
	shares     *SharesHandler
	export     *ExportHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := newStore()
	mgr := auth.NewJWTManager("handler-test-secret", time.Hour, "")

	userSvc := users.NewService(usersRepo{s}, zerolog.Nop())
	planSvc := plans.NewService(plansRepo{s}, usersRepo{s}, nil, zerolog.Nop())
	activitySvc := activities.NewService(activitiesRepo{s})

	return &fixture{
		store:      s,
		mgr:        mgr,
		users:      userSvc,
		plans:      planSvc,
		auth:       NewAuthHandler(userSvc, mgr, "planner_token", "test"),
		plansH:     NewPlansHandler(planSvc, "test"),
		activities: NewActivitiesHandler(activitySvc, "test"),
		shares:     NewSharesHandler(planSvc, "test"),
		export:     NewExportHandler(planSvc, "test"),
	}
}

func (f *fixture) register(t *testing.T, name, email string) users.User {
	t.Helper()
	user, err := f.users.Register(context.Background(), name, email, "correct-horse")
	require.NoError(t, err)
	return user
}

// do runs one handler through the session middleware with an optional
// authenticated user and path parameters.
func (f *fixture) do(t *testing.T, handler http.HandlerFunc, method, target, userID string, body interface{}, pathVals map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	for key, value := range pathVals {
		req.SetPathValue(key, value)
	}

	var h http.Handler = handler
	if userID != "" {
		token, err := f.mgr.Generate(userID, "")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		h = middleware.SessionAuth(f.mgr, "planner_token", "test")(handler)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func strPtr(s string) *string { return &s }
