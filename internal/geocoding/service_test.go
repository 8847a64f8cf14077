package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamplan/server/internal/geocoding/nominatim"
)

func newUpstream(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "Paris":
			fmt.Fprint(w, `[{"lat":"48.8566","lon":"2.3522","display_name":"Paris, France"}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestService(t *testing.T, hits *atomic.Int64) *Service {
	t.Helper()
	upstream := newUpstream(t, hits)
	client := nominatim.NewClient(upstream.URL, "test@example.com", nominatim.WithRateLimit(1000))
	return NewService(client, zerolog.Nop())
}

func TestLocate(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves and caches", func(t *testing.T) {
		var hits atomic.Int64
		svc := newTestService(t, &hits)

		first, err := svc.Locate(ctx, "Paris")
		require.NoError(t, err)
		assert.InDelta(t, 48.8566, first.Latitude, 0.0001)
		assert.Equal(t, "Paris, France", first.DisplayName)
		assert.Equal(t, "nominatim", first.Source)

		second, err := svc.Locate(ctx, "Paris")
		require.NoError(t, err)
		assert.Equal(t, "cache", second.Source)
		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("cache key ignores case and spacing", func(t *testing.T) {
		var hits atomic.Int64
		svc := newTestService(t, &hits)

		_, err := svc.Locate(ctx, "Paris")
		require.NoError(t, err)

		cached, err := svc.Locate(ctx, "  paris ")
		require.NoError(t, err)
		assert.Equal(t, "cache", cached.Source)
		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("no results is cached as failure", func(t *testing.T) {
		var hits atomic.Int64
		svc := newTestService(t, &hits)

		_, err := svc.Locate(ctx, "Atlantis")
		assert.ErrorIs(t, err, ErrNoResults)

		_, err = svc.Locate(ctx, "Atlantis")
		assert.ErrorIs(t, err, ErrGeocodingFailed)
		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("empty destination", func(t *testing.T) {
		var hits atomic.Int64
		svc := newTestService(t, &hits)

		_, err := svc.Locate(ctx, "   ")
		assert.Error(t, err)
		assert.Equal(t, int64(0), hits.Load())
	})
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "eiffel tower paris", normalizeQuery("  Eiffel   Tower\tParis "))
	assert.Equal(t, "", normalizeQuery("   "))
}
