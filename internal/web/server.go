package web

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/netresearch/dbpool-manager/internal/dbpool"
	"github.com/netresearch/dbpool-manager/internal/metrics"
	"github.com/netresearch/dbpool-manager/internal/options"
)

// App represents the operational HTTP surface of the DB Pool Manager.
// It serves health probes, pool statistics, Prometheus metrics, and the
// admin endpoints that reconfigure the pool at runtime.
type App struct {
	manager     *dbpool.Manager
	fiber       *fiber.App
	rateLimiter *RateLimiter
	registry    *prometheus.Registry
}

// createFiberApp creates and configures a new Fiber application
func createFiberApp() *fiber.App {
	f := fiber.New(fiber.Config{
		AppName:      "netresearch/dbpool-manager",
		BodyLimit:    4 * 1024,
		ErrorHandler: handle500,
	})

	f.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	return f
}

// NewApp creates a new web application instance over the given pool manager.
// It wires the Prometheus registry, the admin rate limiter, and all routes,
// returning an App ready to start serving requests via Listen().
func NewApp(_ *options.Opts, manager *dbpool.Manager) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewCollector(manager),
	)

	a := &App{
		manager:     manager,
		fiber:       createFiberApp(),
		rateLimiter: NewRateLimiter(DefaultRateLimiterConfig()),
		registry:    registry,
	}

	a.setupRoutes()

	return a, nil
}

// setupRoutes configures all routes for the application
func (a *App) setupRoutes() {
	f := a.fiber

	// Health check endpoints (no authentication required)
	f.Get("/health", a.healthHandler)
	f.Get("/health/ready", a.readinessHandler)
	f.Get("/health/live", a.livenessHandler)

	// Pool introspection
	f.Get("/stats", a.statsHandler)
	f.Get("/status", a.statusHandler)
	f.Get("/version", a.versionHandler)

	// Prometheus exposition
	f.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	// Admin endpoints mutate the pool and force-close every pooled
	// connection; rate limiting keeps a misbehaving client from flapping
	// the pool in a tight loop.
	admin := f.Group("/admin", a.rateLimiter.Middleware())
	admin.Put("/limits", a.limitsHandler)
	admin.Put("/credentials", a.credentialsHandler)

	f.Use(a.fourOhFourHandler)
}

// Listen starts the web application server on the specified address.
// This method blocks until the server is shutdown or encounters an error.
func (a *App) Listen(_ context.Context, addr string) error {
	return a.fiber.Listen(addr)
}

// Shutdown gracefully shuts down the application within the given context timeout.
// It stops background goroutines and releases the pool's connections.
func (a *App) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping rate limiter...")
	a.rateLimiter.Stop()

	log.Info().Msg("Shutting down Fiber server...")
	if err := a.fiber.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down Fiber server")
	}

	log.Info().Msg("Closing connection pool...")
	a.manager.Close()

	return nil
}

// handle500 renders unexpected errors as a JSON problem response.
func handle500(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	} else {
		log.Error().Err(err).Msg("unhandled error in HTTP handler")
	}

	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (a *App) fourOhFourHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
}
