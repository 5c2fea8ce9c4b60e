package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tripguard/tripguard/internal/api/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveFrom(h http.Handler, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 3,
		WindowLength: time.Minute,
	})(okHandler())

	for i := 0; i < 3; i++ {
		rec := serveFrom(handler, http.MethodPost, "/v1/travel/reports", "10.0.0.1:1234")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := serveFrom(handler, http.MethodPost, "/v1/travel/reports", "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitByIP_SeparateLimitsPerIP(t *testing.T) {
	handler := middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 1,
		WindowLength: time.Minute,
	})(okHandler())

	assert.Equal(t, http.StatusOK, serveFrom(handler, http.MethodGet, "/", "172.16.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(handler, http.MethodGet, "/", "172.16.0.1:1").Code)
	assert.Equal(t, http.StatusOK, serveFrom(handler, http.MethodGet, "/", "172.16.0.2:1").Code)
}

func TestRateLimitByIP_ProblemResponse(t *testing.T) {
	handler := middleware.RequestID(middleware.RateLimitByIP(middleware.RateLimitConfig{
		RequestLimit: 1,
		WindowLength: 30 * time.Second,
	})(okHandler()))

	serveFrom(handler, http.MethodGet, "/v1/metadata/enums", "203.0.113.1:1")
	rec := serveFrom(handler, http.MethodGet, "/v1/metadata/enums", "203.0.113.1:1")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too-many-requests")
	assert.Contains(t, rec.Body.String(), "/v1/metadata/enums")
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	assert.Equal(t, 30, middleware.ReportRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.ReportRateLimit.WindowLength)
	assert.Equal(t, 100, middleware.StandardRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.StandardRateLimit.WindowLength)
}
