package dbpool

import (
	"context"

	"github.com/rs/zerolog/log"
)

// CredentialFactory is a ConnectionFactory whose (url, username, password)
// triple can be changed at runtime. The factory must serialize Create against
// its setters internally; the pool may be dialing while an admin reconfigures.
type CredentialFactory interface {
	ConnectionFactory

	URL() string
	Username() string
	SetURL(url string)
	SetUsername(username string)
	SetPassword(password string)
}

// Manager provides the high-level interface over the connection pool. It
// owns the credential-bearing factory and funnels every reconfiguration
// through ForceCloseAll so no stale connection survives a credential change.
type Manager struct {
	pool    *Pool
	factory CredentialFactory
}

// NewManager creates a pool manager over the given factory and configuration.
func NewManager(factory CredentialFactory, cfg *Config) *Manager {
	m := &Manager{
		pool:    New(factory, cfg),
		factory: factory,
	}

	log.Info().Str("url", factory.URL()).Str("username", factory.Username()).Msg("pool manager initialized")

	return m
}

// Get checks a connection lease out of the pool.
func (m *Manager) Get(ctx context.Context) (*Lease, error) {
	return m.pool.Get(ctx)
}

// Pool exposes the underlying pool for cap reconfiguration and introspection.
func (m *Manager) Pool() *Pool {
	return m.pool
}

// SetURL points the factory at a different database and force-closes the pool.
func (m *Manager) SetURL(url string) {
	m.factory.SetURL(url)
	m.pool.ForceCloseAll()
}

// SetUsername changes the connect user and force-closes the pool.
func (m *Manager) SetUsername(username string) {
	m.factory.SetUsername(username)
	m.pool.ForceCloseAll()
}

// SetPassword changes the connect password and force-closes the pool.
func (m *Manager) SetPassword(password string) {
	m.factory.SetPassword(password)
	m.pool.ForceCloseAll()
}

// Stats returns a point-in-time snapshot of pool counters and sizes.
func (m *Manager) Stats() Stats {
	return m.pool.Stats()
}

// Status returns a human-readable dump of the pool state.
func (m *Manager) Status() string {
	return m.pool.Status()
}

// HealthStatus summarizes pool health for monitoring endpoints. The pool is
// considered degraded when more than 10% of checkouts hit a bad connection.
func (m *Manager) HealthStatus() map[string]interface{} {
	stats := m.pool.Stats()

	healthy := true
	if stats.RequestCount > 0 {
		badRate := float64(stats.BadConnectionCount) / float64(stats.RequestCount)
		if badRate > 0.1 {
			healthy = false
		}
	}

	return map[string]interface{}{
		"healthy":               healthy,
		"idle_connections":      stats.IdleConnections,
		"active_connections":    stats.ActiveConnections,
		"request_count":         stats.RequestCount,
		"bad_connection_count":  stats.BadConnectionCount,
		"claimed_overdue_count": stats.ClaimedOverdueCount,
		"had_to_wait_count":     stats.HadToWaitCount,
		"max_active":            stats.MaxActive,
		"max_idle":              stats.MaxIdle,
	}
}

// Close shuts down the manager and the pool beneath it.
func (m *Manager) Close() {
	log.Info().Msg("closing pool manager")
	m.pool.Close()
}
