package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/netresearch/dbpool-manager/internal/version"
)

// healthHandler provides a comprehensive health check endpoint.
// Returns pool health, counters, and sizes as reported by the pool manager.
func (a *App) healthHandler(c *fiber.Ctx) error {
	health := a.manager.HealthStatus()

	statusCode := fiber.StatusOK
	if healthy, ok := health["healthy"].(bool); ok && !healthy {
		statusCode = fiber.StatusServiceUnavailable
	}

	c.Status(statusCode)

	return c.JSON(fiber.Map{
		"connection_pool": health,
	})
}

// readinessHandler provides a simple readiness check.
// The pool creates connections on demand, so the service is ready as soon as
// the pool accepts checkouts; a degraded pool reports 503.
func (a *App) readinessHandler(c *fiber.Ctx) error {
	health := a.manager.HealthStatus()

	if healthy, ok := health["healthy"].(bool); ok && !healthy {
		c.Status(fiber.StatusServiceUnavailable)

		return c.JSON(fiber.Map{
			"status":          "not ready",
			"connection_pool": "degraded",
		})
	}

	return c.JSON(fiber.Map{
		"status":          "ready",
		"connection_pool": "healthy",
	})
}

// livenessHandler provides a simple liveness check.
// Returns 200 OK if the application is running and responsive.
func (a *App) livenessHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// statsHandler serves a point-in-time snapshot of pool counters and sizes.
func (a *App) statsHandler(c *fiber.Ctx) error {
	return c.JSON(a.manager.Stats())
}

// statusHandler serves the human-readable pool status dump.
func (a *App) statusHandler(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

	return c.SendString(a.manager.Status())
}

// versionHandler reports build metadata for version discovery.
func (a *App) versionHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version":    version.Version,
		"commit":     version.CommitHash,
		"build_time": version.BuildTimestamp,
	})
}
