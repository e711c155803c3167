package web

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRateLimiter(maxRequests int) *RateLimiter {
	return NewRateLimiter(RateLimiterConfig{
		MaxRequests:  maxRequests,
		WindowPeriod: time.Minute,
		BlockPeriod:  time.Minute,
		CleanupEvery: time.Minute,
	})
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	config := DefaultRateLimiterConfig()

	assert.Equal(t, 10, config.MaxRequests)
	assert.Equal(t, 1*time.Minute, config.WindowPeriod)
	assert.Equal(t, 5*time.Minute, config.BlockPeriod)
	assert.Equal(t, 5*time.Minute, config.CleanupEvery)
}

func TestRateLimiterConfigDefaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})
	defer rl.Stop()

	assert.Equal(t, 10, rl.maxRequests)
	assert.Equal(t, 1*time.Minute, rl.windowPeriod)
	assert.Equal(t, 5*time.Minute, rl.blockPeriod)
}

func TestRateLimiterBlocksPastThreshold(t *testing.T) {
	rl := newTestRateLimiter(3)
	defer rl.Stop()

	ip := "192.0.2.1"

	for i := 0; i < 3; i++ {
		assert.False(t, rl.RecordRequest(ip), "request %d should pass", i+1)
	}

	assert.True(t, rl.RecordRequest(ip))
	assert.True(t, rl.IsBlocked(ip))
}

func TestRateLimiterTracksIPsIndependently(t *testing.T) {
	rl := newTestRateLimiter(2)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		rl.RecordRequest("192.0.2.1")
	}

	assert.True(t, rl.IsBlocked("192.0.2.1"))
	assert.False(t, rl.IsBlocked("192.0.2.2"))
}

func TestRateLimiterReset(t *testing.T) {
	rl := newTestRateLimiter(1)
	defer rl.Stop()

	ip := "192.0.2.1"
	rl.RecordRequest(ip)
	rl.RecordRequest(ip)
	require.True(t, rl.IsBlocked(ip))

	rl.Reset(ip)
	assert.False(t, rl.IsBlocked(ip))
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := newTestRateLimiter(1)

	rl.Stop()
	rl.Stop()
}

func TestRateLimiterCleanupRemovesExpiredEntries(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		MaxRequests:  5,
		WindowPeriod: 10 * time.Millisecond,
		BlockPeriod:  10 * time.Millisecond,
		CleanupEvery: time.Minute,
	})
	defer rl.Stop()

	rl.RecordRequest("192.0.2.1")
	time.Sleep(30 * time.Millisecond)
	rl.cleanup()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.Empty(t, rl.requests)
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := newTestRateLimiter(2)
	defer rl.Stop()

	f := fiber.New()
	f.Put("/admin/limits", rl.Middleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPut, "/admin/limits", nil)
		resp, err := f.Test(req, 5000)
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
		_ = resp.Body.Close()
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes,
		fmt.Sprintf("unexpected status sequence: %v", codes))
}
