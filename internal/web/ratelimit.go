package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RateLimiter provides IP-based rate limiting for the admin endpoints.
// Every applied admin change force-closes the connection pool, so a client stuck in
// a reconfiguration loop would otherwise keep the pool permanently empty.
type RateLimiter struct {
	mu           sync.RWMutex
	requests     map[string]*rateLimitEntry
	maxRequests  int           // Maximum requests per window before blocking
	windowPeriod time.Duration // Time window for counting requests
	blockPeriod  time.Duration // How long to block after exceeding limit
	cleanupEvery time.Duration // Cleanup interval for expired entries
	stopCleanup  chan struct{}
	stopOnce     sync.Once // Ensures Stop() is idempotent
}

type rateLimitEntry struct {
	count     int
	firstSeen time.Time
	blockedAt time.Time
}

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	MaxRequests  int           // Max requests per window before blocking (default: 10)
	WindowPeriod time.Duration // Window to count requests (default: 1 minute)
	BlockPeriod  time.Duration // Block duration after exceeding limit (default: 5 minutes)
	CleanupEvery time.Duration // Cleanup interval (default: 5 minutes)
}

// DefaultRateLimiterConfig returns sensible defaults for admin rate limiting.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		MaxRequests:  10,
		WindowPeriod: 1 * time.Minute,
		BlockPeriod:  5 * time.Minute,
		CleanupEvery: 5 * time.Minute,
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.MaxRequests <= 0 {
		config.MaxRequests = 10
	}
	if config.WindowPeriod <= 0 {
		config.WindowPeriod = 1 * time.Minute
	}
	if config.BlockPeriod <= 0 {
		config.BlockPeriod = 5 * time.Minute
	}
	if config.CleanupEvery <= 0 {
		config.CleanupEvery = 5 * time.Minute
	}

	rl := &RateLimiter{
		requests:     make(map[string]*rateLimitEntry),
		maxRequests:  config.MaxRequests,
		windowPeriod: config.WindowPeriod,
		blockPeriod:  config.BlockPeriod,
		cleanupEvery: config.CleanupEvery,
		stopCleanup:  make(chan struct{}),
	}

	// Start background cleanup
	go rl.startCleanup()

	return rl
}

// RecordRequest records an admin request for the given IP.
// Returns true if the IP should be blocked, false otherwise.
func (rl *RateLimiter) RecordRequest(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.requests[ip]

	if !exists {
		rl.requests[ip] = &rateLimitEntry{
			count:     1,
			firstSeen: now,
		}

		return false
	}

	// If blocked, check if block period has expired
	if !entry.blockedAt.IsZero() {
		if now.Sub(entry.blockedAt) > rl.blockPeriod {
			// Block expired, reset
			entry.count = 1
			entry.firstSeen = now
			entry.blockedAt = time.Time{}

			return false
		}
		// Still blocked

		return true
	}

	// Check if window has expired
	if now.Sub(entry.firstSeen) > rl.windowPeriod {
		// Window expired, reset counter
		entry.count = 1
		entry.firstSeen = now

		return false
	}

	// Increment counter
	entry.count++

	// Check if should be blocked
	if entry.count > rl.maxRequests {
		entry.blockedAt = now
		log.Warn().
			Str("ip", ip).
			Int("requests", entry.count).
			Msg("IP blocked due to too many admin requests")

		return true
	}

	return false
}

// IsBlocked checks if an IP is currently blocked.
// Note: Expired entries are not cleaned up here to avoid lock upgrades;
// cleanup happens periodically via startCleanup goroutine.
func (rl *RateLimiter) IsBlocked(ip string) bool {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	entry, exists := rl.requests[ip]
	if !exists {
		return false
	}

	if entry.blockedAt.IsZero() {
		return false
	}

	// Check if block has expired
	if time.Since(entry.blockedAt) > rl.blockPeriod {
		return false
	}

	return true
}

// Reset clears recorded requests for an IP.
func (rl *RateLimiter) Reset(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.requests, ip)
}

// startCleanup runs periodic cleanup of expired entries.
func (rl *RateLimiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup removes expired entries from the rate limiter.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, entry := range rl.requests {
		// Remove if block has expired
		if !entry.blockedAt.IsZero() && now.Sub(entry.blockedAt) > rl.blockPeriod {
			delete(rl.requests, ip)

			continue
		}

		// Remove if window has expired and not blocked
		if entry.blockedAt.IsZero() && now.Sub(entry.firstSeen) > rl.windowPeriod {
			delete(rl.requests, ip)
		}
	}
}

// Stop gracefully stops the rate limiter cleanup goroutine.
// Safe to call multiple times.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// Middleware creates a Fiber middleware for rate limiting.
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()

		if rl.RecordRequest(ip) {
			log.Warn().Str("ip", ip).Str("path", c.Path()).Msg("admin request rejected by rate limiter")

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, try again later",
			})
		}

		return c.Next()
	}
}
