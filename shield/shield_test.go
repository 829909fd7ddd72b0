package shield

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(DefaultHeaders())(ok()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "style-src 'unsafe-inline'")
}

func TestHeadToGet(t *testing.T) {
	var seen string
	h := HeadToGet(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) { seen = r.Method }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodHead, "/healthz", nil))
	assert.Equal(t, http.MethodGet, seen)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(map[string]Rule{"POST /v1/analyze": {MaxRequests: 2, Window: time.Minute}}, "/metrics")
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1", "POST /v1/analyze"))
	assert.True(t, rl.Allow("1.1.1.1", "POST /v1/analyze"))
	assert.False(t, rl.Allow("1.1.1.1", "POST /v1/analyze"))
	assert.True(t, rl.Allow("2.2.2.2", "POST /v1/analyze"))
	assert.True(t, rl.Allow("1.1.1.1", "GET /v1/settings"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 0, rl.Sweep())
	assert.True(t, rl.Allow("1.1.1.1", "POST /v1/analyze"))
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(map[string]Rule{"POST /v1/analyze": {MaxRequests: 1, Window: time.Minute}})
	h := rl.Middleware(ok())

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestExtractIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:1234"
	assert.Equal(t, "192.0.2.7", ExtractIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ExtractIP(r))
}
