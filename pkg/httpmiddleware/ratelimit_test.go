package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, prepare func(r *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if prepare != nil {
		prepare(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ok, remaining, reset := l.Allow("k", now)
	require.True(t, ok)
	assert.Equal(t, 1, remaining)
	assert.Equal(t, now.Add(time.Minute), reset)

	ok, remaining, _ = l.Allow("k", now.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, 0, remaining)

	ok, _, _ = l.Allow("k", now.Add(2*time.Second))
	assert.False(t, ok)

	ok, _, _ = l.Allow("other", now.Add(2*time.Second))
	assert.True(t, ok, "keys are limited independently")

	// At the start of the next window the previous one still weighs in fully.
	ok, _, _ = l.Allow("k", now.Add(time.Minute))
	assert.False(t, ok)

	// Two windows later the key starts fresh.
	ok, _, _ = l.Allow("k", now.Add(2*time.Minute+time.Second))
	assert.True(t, ok)
}

func TestLimiter_Sweep(t *testing.T) {
	l := NewLimiter(RateLimitConfig{Max: 1, Window: time.Second})
	now := time.Now()
	l.Allow("a", now)
	l.Sweep(now.Add(3 * time.Second))
	assert.Empty(t, l.windows)
}

func TestLimiter_Middleware(t *testing.T) {
	h := NewLimiter(RateLimitConfig{Max: 1, Window: time.Minute}).Middleware()(okHandler())

	w := hit(h, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	w = hit(h, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"kind":"TOO_MANY_REQUESTS","message":"rate limit exceeded"}`, w.Body.String())
}

func TestLimiter_CustomKey(t *testing.T) {
	h := NewLimiter(RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("Authorization") },
	}).Middleware()(okHandler())

	bearer := func(token string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
	}
	assert.Equal(t, http.StatusOK, hit(h, bearer("a")).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, bearer("a")).Code)
	assert.Equal(t, http.StatusOK, hit(h, bearer("b")).Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "forwarded", header: map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}, remote: "10.0.0.1:1", want: "203.0.113.50"},
		{name: "real ip", header: map[string]string{"X-Real-IP": "198.51.100.7"}, remote: "10.0.0.1:1", want: "198.51.100.7"},
		{name: "remote addr", remote: "10.0.0.1:5555", want: "10.0.0.1"},
		{name: "bare remote", remote: "10.0.0.1", want: "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}
