package dbpool

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestHandle(conn *fakeConn) *leaseHandle {
	h := &leaseHandle{
		raw:        conn,
		createdAt:  time.Now(),
		lastUsedAt: time.Now(),
	}
	h.valid.Store(true)

	return h
}

func TestHealthCheckerInvalidHandle(t *testing.T) {
	hc := &healthChecker{cfg: DefaultConfig()}

	h := newTestHandle(newFakeConn("c1"))
	h.invalidate()

	assert.False(t, hc.usable(h))
}

func TestHealthCheckerClosedConnection(t *testing.T) {
	hc := &healthChecker{cfg: DefaultConfig()}

	conn := newFakeConn("c1")
	conn.closed = true

	assert.False(t, hc.usable(newTestHandle(conn)))
}

func TestHealthCheckerPingDisabled(t *testing.T) {
	hc := &healthChecker{cfg: DefaultConfig()}

	conn := newFakeConn("c1")
	h := newTestHandle(conn)

	assert.True(t, hc.usable(h))
	assert.Zero(t, conn.queryCount())
}

func TestHealthCheckerPingCoolDownNotReached(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PingEnabled = true
	cfg.PingNotUsedFor = time.Hour
	hc := &healthChecker{cfg: cfg}

	conn := newFakeConn("c1")
	h := newTestHandle(conn)

	assert.True(t, hc.usable(h))
	assert.Zero(t, conn.queryCount())
}

func TestHealthCheckerPingIssuedPastCoolDown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PingEnabled = true
	cfg.PingNotUsedFor = 10 * time.Millisecond
	hc := &healthChecker{cfg: cfg}

	conn := newFakeConn("c1")
	h := newTestHandle(conn)
	h.lastUsedAt = time.Now().Add(-time.Second)

	assert.True(t, hc.usable(h))
	assert.Equal(t, 1, conn.queryCount())
}

func TestHealthCheckerPingFailureClosesConnection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PingEnabled = true
	cfg.PingNotUsedFor = 0
	hc := &healthChecker{cfg: cfg}

	conn := newFakeConn("c1")
	conn.queryErr = errors.New("broken pipe")
	h := newTestHandle(conn)
	h.lastUsedAt = time.Now().Add(-time.Second)

	assert.False(t, hc.usable(h))
	assert.True(t, conn.IsClosed())
}

func TestHealthCheckerPingRollsBackImplicitTransaction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PingEnabled = true
	cfg.PingNotUsedFor = 0
	hc := &healthChecker{cfg: cfg}

	conn := newFakeConn("c1")
	conn.autoCommit = false
	h := newTestHandle(conn)
	h.lastUsedAt = time.Now().Add(-time.Second)

	assert.True(t, hc.usable(h))
	assert.Equal(t, 1, conn.rollbackCount())
}
