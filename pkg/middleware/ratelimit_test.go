package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2, discardLogger())
	defer rl.Close()
	h := rl.Handler(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_SeparateBucketsPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1, discardLogger())
	defer rl.Close()
	h := rl.Handler(okHandler())

	for _, addr := range []string{"198.51.100.1:1", "198.51.100.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, addr)
	}
}

func TestRateLimiter_RejectionEnvelope(t *testing.T) {
	rl := NewRateLimiter(1, 1, discardLogger())
	defer rl.Close()
	h := rl.Handler(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decodeEnvelope(t, rec.Body).Code)
}

func TestVisitorStore_RefillsOverTime(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := newVisitorStore(1, 1, time.Minute)
	s.now = func() time.Time { return now }

	assert.True(t, s.allow("a"))
	assert.False(t, s.allow("a"))

	now = now.Add(time.Second)
	assert.True(t, s.allow("a"))
}

func TestVisitorStore_EvictsIdle(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := newVisitorStore(10, 10, time.Minute)
	s.now = func() time.Time { return now }

	s.allow("old")
	now = now.Add(2 * time.Minute)
	s.allow("fresh")
	s.evictIdle()

	assert.Equal(t, 1, s.size())
}

func TestRateLimiter_CloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1, discardLogger())
	assert.NotPanics(t, func() {
		rl.Close()
		rl.Close()
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"remote addr", "", "", "192.0.2.1:1234", "192.0.2.1"},
		{"first forwarded hop", "203.0.113.5, 10.0.0.1", "", "10.0.0.1:1", "203.0.113.5"},
		{"real ip", "", "203.0.113.9", "10.0.0.1:1", "203.0.113.9"},
		{"garbage forwarded falls through", "not-an-ip", "", "192.0.2.3:9", "192.0.2.3"},
		{"remote without port", "", "", "192.0.2.4", "192.0.2.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
