package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdminToken(t *testing.T) {
	var reached bool
	next := func(w http.ResponseWriter, r *http.Request) { reached = true }

	tests := []struct {
		name       string
		token      string
		authHeader string
		wantStatus int
		wantNext   bool
	}{
		{"valid token", "s3cret", "Bearer s3cret", http.StatusOK, true},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized, false},
		{"missing header", "s3cret", "", http.StatusUnauthorized, false},
		{"no bearer prefix", "s3cret", "s3cret", http.StatusUnauthorized, false},
		{"empty configured token leaves endpoint open", "", "", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			handler := RequireAdminToken(tt.token)(next)

			req := httptest.NewRequest(http.MethodPost, "/admin/sweeps/deadlines", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantNext, reached)
		})
	}
}

func TestRateLimiterAllow(t *testing.T) {
	limiter := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    3,
		window:   time.Minute,
	}

	for range 3 {
		assert.True(t, limiter.Allow("10.0.0.1"))
	}
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"), "limits are per IP")
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:54321"
	assert.Equal(t, "192.0.2.10", getClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.5")
	assert.Equal(t, "203.0.113.5", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.7, 203.0.113.5")
	assert.Equal(t, "198.51.100.7", getClientIP(req))
}
