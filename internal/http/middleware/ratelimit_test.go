package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleAllowsBurstThenRejects(t *testing.T) {
	th := NewThrottle(0.001, 2)

	assert.True(t, th.Allow("1.1.1.1"))
	assert.True(t, th.Allow("1.1.1.1"))
	assert.False(t, th.Allow("1.1.1.1"))
	assert.True(t, th.Allow("2.2.2.2"), "other clients have their own bucket")
}

func TestThrottleCleanupDropsIdleClients(t *testing.T) {
	th := NewThrottle(1, 1)
	th.idleTTL = time.Millisecond
	th.Allow("1.1.1.1")
	require.Equal(t, 1, th.Len())

	time.Sleep(5 * time.Millisecond)
	th.Cleanup()

	assert.Equal(t, 0, th.Len())
}

func TestThrottleMiddleware(t *testing.T) {
	th := NewThrottle(0.001, 1)
	handler := th.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/lead", nil)
		req.Header.Set("CF-Connecting-IP", "203.0.113.9")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
}
