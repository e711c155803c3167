package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// limitsRequest carries a partial update of the pool caps. Absent fields are
// left unchanged; every present field runs through the pool's setter and
// therefore force-closes all pooled connections.
type limitsRequest struct {
	MaxActive            *int    `json:"max_active"`
	MaxIdle              *int    `json:"max_idle"`
	MaxCheckoutTime      *string `json:"max_checkout_time"`
	WaitTime             *string `json:"wait_time"`
	MaxLocalBadTolerance *int    `json:"max_local_bad_tolerance"`
	PingEnabled          *bool   `json:"ping_enabled"`
	PingQuery            *string `json:"ping_query"`
	PingNotUsedFor       *string `json:"ping_not_used_for"`
}

// credentialsRequest carries a partial update of the connect triple.
type credentialsRequest struct {
	URL      *string `json:"url"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// limitsHandler applies runtime changes to the pool caps.
func (a *App) limitsHandler(c *fiber.Ctx) error {
	var req limitsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	pool := a.manager.Pool()
	applied := 0

	if req.MaxActive != nil {
		pool.SetMaxActive(*req.MaxActive)
		applied++
	}
	if req.MaxIdle != nil {
		pool.SetMaxIdle(*req.MaxIdle)
		applied++
	}
	if req.MaxCheckoutTime != nil {
		d, err := time.ParseDuration(*req.MaxCheckoutTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid max_checkout_time"})
		}
		pool.SetMaxCheckoutTime(d)
		applied++
	}
	if req.WaitTime != nil {
		d, err := time.ParseDuration(*req.WaitTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid wait_time"})
		}
		pool.SetWaitTime(d)
		applied++
	}
	if req.MaxLocalBadTolerance != nil {
		pool.SetMaxLocalBadTolerance(*req.MaxLocalBadTolerance)
		applied++
	}
	if req.PingEnabled != nil {
		pool.SetPingEnabled(*req.PingEnabled)
		applied++
	}
	if req.PingQuery != nil {
		pool.SetPingQuery(*req.PingQuery)
		applied++
	}
	if req.PingNotUsedFor != nil {
		d, err := time.ParseDuration(*req.PingNotUsedFor)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid ping_not_used_for"})
		}
		pool.SetPingNotUsedFor(d)
		applied++
	}

	log.Info().Int("applied", applied).Str("ip", c.IP()).Msg("pool limits reconfigured")

	return c.JSON(fiber.Map{
		"applied": applied,
		"stats":   a.manager.Stats(),
	})
}

// credentialsHandler applies runtime changes to the connect triple. Every
// change force-closes the pool; outstanding leases turn inert.
func (a *App) credentialsHandler(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	applied := 0
	if req.URL != nil {
		a.manager.SetURL(*req.URL)
		applied++
	}
	if req.Username != nil {
		a.manager.SetUsername(*req.Username)
		applied++
	}
	if req.Password != nil {
		a.manager.SetPassword(*req.Password)
		applied++
	}

	log.Info().Int("applied", applied).Str("ip", c.IP()).Msg("pool credentials reconfigured")

	return c.JSON(fiber.Map{
		"applied": applied,
	})
}
