package http_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	httphandler "web-analytics-service/internal/ingest/delivery/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRouter_NonPostBeacon_MethodNotAllowed(t *testing.T) {
	env := setupEnv(t, stubGeo{}, stubResolver{})

	rr := env.do(t, "GET", "/api/event", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouter_BeaconPreflight_AllowsAnyOrigin(t *testing.T) {
	env := setupEnv(t, stubGeo{}, stubResolver{})

	req := httptest.NewRequest("OPTIONS", "/api/event", nil)
	req.Header.Set("Origin", "https://some-embedding-site.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimit_Returns429(t *testing.T) {
	env := setupEnv(t, stubGeo{}, stubResolver{})
	env.registerSite(t, "example.com")

	rl := httphandler.NewRateLimiter(1)
	t.Cleanup(rl.Stop)
	limited := httphandler.NewRouter(env.handler, rl, zap.NewNop())

	body := `{"d":"example.com","e":"pageView","u":"https://example.com/"}`

	first := httptest.NewRequest("POST", "/api/event", bytes.NewBufferString(body))
	first.RemoteAddr = "203.0.113.7:40000"
	rr := httptest.NewRecorder()
	limited.ServeHTTP(rr, first)
	require.Equal(t, http.StatusOK, rr.Code)

	second := httptest.NewRequest("POST", "/api/event", bytes.NewBufferString(body))
	second.RemoteAddr = "203.0.113.7:40001"
	rr = httptest.NewRecorder()
	limited.ServeHTTP(rr, second)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRouter_RateLimit_PerClient(t *testing.T) {
	env := setupEnv(t, stubGeo{}, stubResolver{})
	env.registerSite(t, "example.com")

	rl := httphandler.NewRateLimiter(1)
	t.Cleanup(rl.Stop)
	limited := httphandler.NewRouter(env.handler, rl, zap.NewNop())

	body := `{"d":"example.com","e":"pageView","u":"https://example.com/"}`

	first := httptest.NewRequest("POST", "/api/event", bytes.NewBufferString(body))
	first.RemoteAddr = "203.0.113.7:40000"
	rr := httptest.NewRecorder()
	limited.ServeHTTP(rr, first)
	require.Equal(t, http.StatusOK, rr.Code)

	// A different client address has its own bucket.
	other := httptest.NewRequest("POST", "/api/event", bytes.NewBufferString(body))
	other.RemoteAddr = "198.51.100.1:40000"
	rr = httptest.NewRecorder()
	limited.ServeHTTP(rr, other)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiter_ZeroRate_ClampsToMinimum(t *testing.T) {
	rl := httphandler.NewRateLimiter(0)
	t.Cleanup(rl.Stop)

	wrapped := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest("POST", "/api/event", nil)
	first.RemoteAddr = "203.0.113.7:40000"
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, first)
	require.Equal(t, http.StatusOK, rr.Code)

	second := httptest.NewRequest("POST", "/api/event", nil)
	second.RemoteAddr = "203.0.113.7:40001"
	rr = httptest.NewRecorder()
	wrapped.ServeHTTP(rr, second)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := httphandler.NewRateLimiter(10)

	rl.Stop()
	rl.Stop()

	// Existing buckets keep limiting after the cleanup goroutine exits.
	wrapped := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("POST", "/api/event", nil)
	req.RemoteAddr = "203.0.113.7:40000"
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
