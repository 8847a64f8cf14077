package geocoding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/roamplan/server/internal/geocoding/nominatim"
	"github.com/roamplan/server/internal/metrics"
)

// Result is a resolved destination.
type Result struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
	Source      string  `json:"-"` // "cache" or "nominatim"
}

// ErrGeocodingFailed is returned when geocoding fails after all retries.
var ErrGeocodingFailed = errors.New("geocoding failed")

// ErrNoResults is returned when Nominatim returns no results for a query.
var ErrNoResults = errors.New("no geocoding results found")

const (
	// cacheTTL bounds how long successful lookups are reused. Destinations
	// rarely move, so this is generous.
	cacheTTL = 24 * time.Hour
	// failureTTL prevents hammering Nominatim with queries it cannot resolve.
	failureTTL = 15 * time.Minute
)

type cacheEntry struct {
	result    Result
	failure   string
	expiresAt time.Time
}

// Service resolves activity destinations to coordinates with an in-process
// cache in front of Nominatim. Concurrent lookups for the same destination
// collapse into a single upstream request.
type Service struct {
	client *nominatim.Client
	logger zerolog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
	group singleflight.Group
}

// NewService creates a geocoding service around the given client.
func NewService(client *nominatim.Client, logger zerolog.Logger) *Service {
	return &Service{
		client: client,
		logger: logger.With().Str("component", "geocoding").Logger(),
		cache:  make(map[string]cacheEntry),
	}
}

// normalizeQuery canonicalizes a destination for cache lookup.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// Locate performs forward geocoding for a destination string.
func (s *Service) Locate(ctx context.Context, destination string) (*Result, error) {
	normalized := normalizeQuery(destination)
	if normalized == "" {
		return nil, fmt.Errorf("destination cannot be empty")
	}

	if entry, ok := s.lookup(normalized); ok {
		metrics.GeocodingRequestsTotal.WithLabelValues("cache").Inc()
		if entry.failure != "" {
			return nil, fmt.Errorf("%w: %s (cached failure, try again later)", ErrGeocodingFailed, entry.failure)
		}
		result := entry.result
		result.Source = "cache"
		return &result, nil
	}

	value, err, _ := s.group.Do(normalized, func() (interface{}, error) {
		return s.fetch(ctx, destination, normalized)
	})
	if err != nil {
		return nil, err
	}

	result := value.(Result)
	return &result, nil
}

func (s *Service) lookup(key string) (cacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.cache, key)
		return cacheEntry{}, false
	}
	return entry, true
}

func (s *Service) store(key string, entry cacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = entry
}

func (s *Service) fetch(ctx context.Context, destination, normalized string) (Result, error) {
	start := time.Now()
	results, err := s.client.Search(ctx, destination, nominatim.SearchOptions{Limit: 1})
	metrics.GeocodingLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Error().
			Err(err).
			Str("destination", destination).
			Dur("latency", time.Since(start)).
			Msg("nominatim search failed")

		s.store(normalized, cacheEntry{
			failure:   err.Error(),
			expiresAt: time.Now().Add(failureTTL),
		})
		return Result{}, fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
	}

	if len(results) == 0 {
		s.logger.Warn().
			Str("destination", destination).
			Msg("nominatim returned no results")

		s.store(normalized, cacheEntry{
			failure:   "no results found",
			expiresAt: time.Now().Add(failureTTL),
		})
		return Result{}, fmt.Errorf("%w for destination: %s", ErrNoResults, destination)
	}

	metrics.GeocodingRequestsTotal.WithLabelValues("nominatim").Inc()

	first := results[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("invalid latitude in nominatim result: %w", err)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("invalid longitude in nominatim result: %w", err)
	}

	result := Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: first.DisplayName,
		Source:      "nominatim",
	}

	s.store(normalized, cacheEntry{
		result:    result,
		expiresAt: time.Now().Add(cacheTTL),
	})

	s.logger.Debug().
		Str("destination", destination).
		Float64("lat", lat).
		Float64("lon", lon).
		Msg("geocoding successful")

	return result, nil
}
