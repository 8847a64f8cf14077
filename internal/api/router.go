package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/roamplan/server/internal/api/handlers"
	"github.com/roamplan/server/internal/api/middleware"
	"github.com/roamplan/server/internal/auth"
	"github.com/roamplan/server/internal/config"
	"github.com/roamplan/server/internal/domain/activities"
	"github.com/roamplan/server/internal/domain/plans"
	"github.com/roamplan/server/internal/domain/users"
	"github.com/roamplan/server/internal/email"
	"github.com/roamplan/server/internal/geocoding"
	"github.com/roamplan/server/internal/geocoding/nominatim"
	"github.com/roamplan/server/internal/metrics"
	"github.com/roamplan/server/internal/storage"
)

// NewRouter wires services, handlers, and the middleware chain on top of an
// open storage repository.
func NewRouter(cfg config.Config, store storage.Repository, logger zerolog.Logger) (http.Handler, error) {
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Server.BaseURL)

	mailer, err := email.NewService(cfg.Email, logger)
	if err != nil {
		return nil, err
	}

	geoOpts := []nominatim.Option{}
	if cfg.Geocoding.RequestsPerSecond > 0 {
		geoOpts = append(geoOpts, nominatim.WithRateLimit(cfg.Geocoding.RequestsPerSecond))
	}
	geoClient := nominatim.NewClient(cfg.Geocoding.BaseURL, cfg.Geocoding.Contact, geoOpts...)
	geoService := geocoding.NewService(geoClient, logger)

	usersService := users.NewService(store.Users(), logger)
	plansService := plans.NewService(store.Plans(), store.Users(), mailer, logger)
	activitiesService := activities.NewService(store.Activities())

	env := cfg.Environment

	authHandler := handlers.NewAuthHandler(usersService, jwtManager, cfg.Auth.CookieName, env)
	plansHandler := handlers.NewPlansHandler(plansService, env)
	activitiesHandler := handlers.NewActivitiesHandler(activitiesService, env)
	sharesHandler := handlers.NewSharesHandler(plansService, env)
	exportHandler := handlers.NewExportHandler(plansService, env)
	mapHandler := handlers.NewMapHandler(plansService, geoService, env)

	session := middleware.SessionAuth(jwtManager, cfg.Auth.CookieName, env)

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(store))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/v1/auth/register", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Register),
	}))
	mux.Handle("/api/v1/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Login),
	}))
	mux.Handle("/api/v1/auth/logout", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Logout),
	}))
	mux.Handle("/api/v1/auth/me", methodMux(map[string]http.Handler{
		http.MethodGet: session(http.HandlerFunc(authHandler.Me)),
	}))

	mux.Handle("/api/v1/plans", methodMux(map[string]http.Handler{
		http.MethodGet:  session(http.HandlerFunc(plansHandler.List)),
		http.MethodPost: session(http.HandlerFunc(plansHandler.Create)),
	}))
	mux.Handle("/api/v1/plans/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    session(http.HandlerFunc(plansHandler.Get)),
		http.MethodPatch:  session(http.HandlerFunc(plansHandler.Rename)),
		http.MethodDelete: session(http.HandlerFunc(plansHandler.Delete)),
	}))

	mux.Handle("/api/v1/plans/{id}/activities", methodMux(map[string]http.Handler{
		http.MethodPost: session(http.HandlerFunc(activitiesHandler.Create)),
	}))
	mux.Handle("/api/v1/activities/{id}", methodMux(map[string]http.Handler{
		http.MethodPatch:  session(http.HandlerFunc(activitiesHandler.Update)),
		http.MethodDelete: session(http.HandlerFunc(activitiesHandler.Delete)),
	}))

	mux.Handle("/api/v1/plans/{id}/shares", methodMux(map[string]http.Handler{
		http.MethodPost: session(http.HandlerFunc(sharesHandler.Create)),
	}))
	mux.Handle("/api/v1/plans/{id}/shares/{userID}", methodMux(map[string]http.Handler{
		http.MethodDelete: session(http.HandlerFunc(sharesHandler.Delete)),
	}))

	mux.Handle("/api/v1/plans/{id}/export", methodMux(map[string]http.Handler{
		http.MethodGet: session(http.HandlerFunc(exportHandler.Csv)),
	}))
	mux.Handle("/api/v1/plans/{id}/map", methodMux(map[string]http.Handler{
		http.MethodGet: session(http.HandlerFunc(mapHandler.Markers)),
	}))

	var handler http.Handler = mux
	handler = middleware.RateLimit(cfg.RateLimit, credentialTier)(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)

	return handler, nil
}

// credentialTier puts the password-accepting endpoints in the tight bucket.
// The limiter runs before routing, so the tier is resolved by path here.
func credentialTier(r *http.Request) middleware.RateLimitTier {
	switch r.URL.Path {
	case "/api/v1/auth/login", "/api/v1/auth/register":
		return middleware.TierLogin
	}
	return middleware.TierPublic
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
