package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// fakeLimiter 记录收到的限流参数
type fakeLimiter struct {
	allowed   bool
	err       error
	remaining int

	allowCalls int
	gotKey     string
	gotLimit   int
	gotWindow  time.Duration
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.allowCalls++
	f.gotKey = key
	f.gotLimit = limit
	f.gotWindow = window
	return f.allowed, f.err
}

func (f *fakeLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	return f.remaining, nil
}

func performRateLimited(cfg RateLimitConfig, limiter RateLimiter) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RateLimit(cfg, limiter))
	engine.POST("/v1/documents/generate", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/generate", nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestRateLimitCapacityIncludesBurst(t *testing.T) {
	limiter := &fakeLimiter{allowed: true, remaining: 3}
	cfg := RateLimitConfig{Enabled: true, RequestsPerSecond: 2, Burst: 3}

	w := performRateLimited(cfg, limiter)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, limiter.gotLimit, "window capacity is steady rate plus burst headroom")
	assert.Equal(t, time.Second, limiter.gotWindow)
	assert.Contains(t, limiter.gotKey, "/v1/documents/generate")
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	limiter := &fakeLimiter{allowed: false}
	cfg := RateLimitConfig{Enabled: true, RequestsPerSecond: 1}

	w := performRateLimited(cfg, limiter)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitFailsOpenOnLimiterError(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	cfg := RateLimitConfig{Enabled: true, RequestsPerSecond: 1}

	w := performRateLimited(cfg, limiter)

	assert.Equal(t, http.StatusOK, w.Code, "limiter failure must not block requests")
}

func TestRateLimitDisabledSkipsLimiter(t *testing.T) {
	limiter := &fakeLimiter{allowed: false}
	cfg := RateLimitConfig{Enabled: false}

	w := performRateLimited(cfg, limiter)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, limiter.allowCalls)
}
