package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T) *RedisRateLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisRateLimiter(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
}

func TestRedisRateLimiter(t *testing.T) {
	t.Run("allows requests under limit", func(t *testing.T) {
		limiter := newTestLimiter(t)

		for i := 0; i < 5; i++ {
			allowed, remaining, _ := limiter.Check(context.Background(), "10.0.0.1", 10)
			assert.True(t, allowed)
			assert.Equal(t, 10-i-1, remaining)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		limiter := newTestLimiter(t)

		for i := 0; i < 3; i++ {
			limiter.Check(context.Background(), "10.0.0.2", 3)
		}

		allowed, remaining, _ := limiter.Check(context.Background(), "10.0.0.2", 3)
		assert.False(t, allowed)
		assert.Equal(t, 0, remaining)
	})

	t.Run("tracks callers separately", func(t *testing.T) {
		limiter := newTestLimiter(t)

		for i := 0; i < 3; i++ {
			limiter.Check(context.Background(), "10.0.0.3", 3)
		}

		allowed, _, _ := limiter.Check(context.Background(), "10.0.0.4", 3)
		assert.True(t, allowed)
	})

	t.Run("fails open when redis is down", func(t *testing.T) {
		limiter := NewRedisRateLimiter(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}))

		allowed, _, _ := limiter.Check(context.Background(), "10.0.0.5", 3)
		assert.True(t, allowed)
	})
}

func TestRedisRateLimitMiddleware(t *testing.T) {
	t.Run("passes allowed request with headers", func(t *testing.T) {
		mr := miniredis.RunT(t)
		m := NewRedisRateLimitMiddleware(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), 10)

		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodPost, "/generate-response", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("rejects over-limit request", func(t *testing.T) {
		mr := miniredis.RunT(t)
		m := NewRedisRateLimitMiddleware(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), 1)

		handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPost, "/generate-response", nil)
			req.RemoteAddr = "10.0.0.2:54321"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if i == 0 {
				assert.Equal(t, http.StatusOK, rec.Code)
			} else {
				assert.Equal(t, http.StatusTooManyRequests, rec.Code)
				assert.Equal(t, "60", rec.Header().Get("Retry-After"))
			}
		}
	})
}
