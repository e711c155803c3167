package dbpool

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// healthChecker decides whether a lease can still serve traffic before it is
// handed out. All methods are called with the pool monitor held, so the probe
// blocks other pool operations for its duration; keep ping queries cheap.
type healthChecker struct {
	cfg *Config
}

// usable combines three checks in order: the handle's validity flag, the
// transport's closed state, and (when enabled and the connection has sat
// unused past the cool-down) an active ping. A failed ping hard-closes the
// transport so the connection cannot be parked again.
func (hc *healthChecker) usable(h *leaseHandle) bool {
	if !h.isValid() {
		return false
	}
	if h.raw.IsClosed() {
		return false
	}

	if !hc.cfg.PingEnabled {
		return true
	}
	if hc.cfg.PingNotUsedFor >= 0 && h.idleAge(time.Now()) > hc.cfg.PingNotUsedFor {
		return hc.ping(h)
	}

	return true
}

// ping issues the configured probe statement. Any implicit transaction is
// rolled back so the probe leaves no state behind.
func (hc *healthChecker) ping(h *leaseHandle) bool {
	rows, err := h.raw.Query(context.Background(), hc.cfg.PingQuery)
	if err == nil {
		err = rows.Close()
	}
	if err == nil && !h.raw.AutoCommit() {
		err = h.raw.Rollback()
	}

	if err != nil {
		log.Debug().
			Err(err).
			Str("conn_id", h.raw.ID()).
			Str("ping_query", hc.cfg.PingQuery).
			Msg("connection ping failed, closing connection")

		if cerr := h.raw.Close(); cerr != nil {
			log.Debug().Err(cerr).Str("conn_id", h.raw.ID()).Msg("could not close broken connection")
		}

		return false
	}

	log.Trace().Str("conn_id", h.raw.ID()).Msg("connection ping succeeded")

	return true
}
