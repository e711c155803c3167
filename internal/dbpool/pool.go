package dbpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config contains the recognized pool options. Every mutation through the
// pool's setters triggers ForceCloseAll, so outstanding leases observe the
// old configuration at most until their next return.
type Config struct {
	MaxActive            int           // Cap on leased connections outstanding (default: 10)
	MaxIdle              int           // Cap on parked connections (default: 5)
	MaxCheckoutTime      time.Duration // Lease age past which an active lease is reclaimable (default: 20s)
	WaitTime             time.Duration // Bounded wait interval between retry sweeps when blocked (default: 20s)
	MaxLocalBadTolerance int           // Per-caller consecutive bad-connection ceiling (default: 3)
	PingEnabled          bool          // Enables the active liveness probe (default: false)
	PingQuery            string        // The probe statement (default: "SELECT 1")
	PingNotUsedFor       time.Duration // Minimum idle age before a probe is issued (default: 0)
}

// DefaultConfig returns a default configuration for the connection pool.
func DefaultConfig() *Config {
	return &Config{
		MaxActive:            10,
		MaxIdle:              5,
		MaxCheckoutTime:      20 * time.Second,
		WaitTime:             20 * time.Second,
		MaxLocalBadTolerance: 3,
		PingEnabled:          false,
		PingQuery:            "SELECT 1",
		PingNotUsedFor:       0,
	}
}

// Pool is a bounded, synchronous connection pool. It multiplexes a small
// number of expensive transport connections across many concurrent callers,
// enforcing admission limits, liveness checks, and overdue-lease reclamation.
//
// The pool is serialized by a single monitor. Creating a raw connection,
// pinging it, and closing it all happen while the monitor is held; this keeps
// the counting invariants trivially checkable at the cost of serializing
// checkout when the driver itself is slow.
type Pool struct {
	mu sync.Mutex
	// wake is closed and re-made on every notifyAll; waiters select on the
	// channel they observed under the monitor, so spurious wake-ups are
	// benign and every woken caller re-runs the full checkout algorithm.
	wake chan struct{}

	factory ConnectionFactory
	cfg     *Config
	health  *healthChecker
	state   poolState

	// expectedTypeCode is the factory fingerprint the current configuration
	// dials with; handles carrying any other code are stale.
	expectedTypeCode uint64
	closed           bool
}

// New creates a connection pool over the given factory. A nil config uses
// defaults; a non-positive MaxActive, MaxCheckoutTime or WaitTime, a negative
// MaxIdle or MaxLocalBadTolerance, and an empty PingQuery are replaced by
// their defaults. A MaxIdle of 0 is kept.
func New(factory ConnectionFactory, cfg *Config) *Pool {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxActive <= 0 {
		cfg.MaxActive = 10
	}
	if cfg.MaxIdle < 0 {
		cfg.MaxIdle = 5
	}
	if cfg.MaxCheckoutTime <= 0 {
		cfg.MaxCheckoutTime = 20 * time.Second
	}
	if cfg.WaitTime <= 0 {
		cfg.WaitTime = 20 * time.Second
	}
	if cfg.MaxLocalBadTolerance < 0 {
		cfg.MaxLocalBadTolerance = 3
	}
	if cfg.PingQuery == "" {
		cfg.PingQuery = "SELECT 1"
	}

	p := &Pool{
		wake:             make(chan struct{}),
		factory:          factory,
		cfg:              cfg,
		health:           &healthChecker{cfg: cfg},
		expectedTypeCode: factory.Fingerprint(),
	}

	log.Info().
		Int("max_active", cfg.MaxActive).
		Int("max_idle", cfg.MaxIdle).
		Dur("max_checkout_time", cfg.MaxCheckoutTime).
		Dur("wait_time", cfg.WaitTime).
		Bool("ping_enabled", cfg.PingEnabled).
		Msg("connection pool initialized")

	return p
}

// Get checks a connection lease out of the pool, blocking while the pool is
// saturated and no active lease is overdue. The returned lease exposes the
// raw connection's capability set; closing it returns the connection to the
// pool instead of tearing it down.
//
// Cancelling the context surfaces ErrInterrupted. There is no overall
// checkout deadline beyond that; callers wrap with their own if required.
func (p *Pool) Get(ctx context.Context) (*Lease, error) {
	h, err := p.checkout(ctx)
	if err != nil {
		return nil, err
	}

	return h.proxy, nil
}

// checkout implements the admission loop. It runs under the monitor and
// loops until a usable handle is produced or a fatal condition is reached.
func (p *Pool) checkout(ctx context.Context) (*leaseHandle, error) {
	var (
		handle      *leaseHandle
		countedWait bool
		localBad    int
	)
	attemptStart := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	for handle == nil {
		if p.closed {
			return nil, ErrPoolClosed
		}

		switch {
		case len(p.state.idle) > 0:
			handle = p.state.popIdle()
			log.Trace().Str("conn_id", handle.raw.ID()).Msg("checked out idle connection")

		case len(p.state.active) < p.cfg.MaxActive:
			// The factory call happens while the monitor is held; see the
			// Pool doc comment.
			raw, err := p.factory.Create(ctx)
			if err != nil {
				log.Debug().Err(err).Msg("connection factory failed")
				return nil, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
			}
			handle = newLeaseHandle(p, raw)
			log.Debug().Str("conn_id", raw.ID()).Msg("created new pooled connection")

		default:
			oldest := p.state.active[0]
			age := oldest.checkoutAge(time.Now())
			if age > p.cfg.MaxCheckoutTime {
				handle = p.reclaimOverdue(oldest, age)
			} else {
				if !countedWait {
					p.state.hadToWaitCount++
					countedWait = true
				}

				waitStart := time.Now()
				err := p.timedWait(ctx)
				p.state.accumulatedWaitTime += time.Since(waitStart)
				if err != nil {
					return nil, err
				}
				continue
			}
		}

		if !p.health.usable(handle) {
			log.Debug().Str("conn_id", handle.raw.ID()).Msg("bad connection discarded during checkout")
			p.state.badConnectionCount++
			localBad++
			handle = nil

			if localBad > p.cfg.MaxIdle+p.cfg.MaxLocalBadTolerance {
				log.Warn().Int("bad_connections", localBad).Msg("could not obtain a good connection from the pool")
				return nil, ErrUnreachable
			}
			continue
		}

		// A leftover transaction from a previous lessee must not leak into
		// this one.
		if !handle.raw.AutoCommit() {
			if err := handle.raw.Rollback(); err != nil {
				log.Debug().Err(err).Str("conn_id", handle.raw.ID()).Msg("rollback failed during checkout, discarding connection")
				handle.invalidate()
				p.state.badConnectionCount++
				localBad++
				handle = nil

				if localBad > p.cfg.MaxIdle+p.cfg.MaxLocalBadTolerance {
					return nil, ErrUnreachable
				}
				continue
			}
		}

		now := time.Now()
		handle.typeCode = p.expectedTypeCode
		handle.checkedOutAt = now
		handle.lastUsedAt = now
		p.state.active = append(p.state.active, handle)
		p.state.requestCount++
		p.state.accumulatedRequestTime += time.Since(attemptStart)
	}

	if handle == nil {
		// Unreachable by construction of the loop above.
		return nil, ErrNoLease
	}

	return handle, nil
}

// reclaimOverdue forcibly takes the oldest active lease away from its lessee.
// The old handle turns inert; the raw connection is re-wrapped in a fresh
// handle that proceeds through validation like any other candidate.
// Called with the monitor held.
func (p *Pool) reclaimOverdue(oldest *leaseHandle, age time.Duration) *leaseHandle {
	p.state.claimedOverdueCount++
	p.state.accumulatedCheckoutTimeOfOverdue += age
	p.state.accumulatedCheckoutTime += age
	p.state.removeActive(oldest)

	if !oldest.raw.AutoCommit() {
		if err := oldest.raw.Rollback(); err != nil {
			log.Debug().Err(err).Str("conn_id", oldest.raw.ID()).Msg("rollback failed while reclaiming overdue lease")
		}
	}

	handle := oldest.recycle(p)
	oldest.invalidate()

	log.Warn().
		Str("conn_id", handle.raw.ID()).
		Dur("checkout_age", age).
		Msg("claimed overdue connection from inactive lessee")

	return handle
}

// timedWait releases the monitor and sleeps until a connection is returned,
// the wait interval elapses, or the context is cancelled. The monitor is
// re-acquired before returning.
func (p *Pool) timedWait(ctx context.Context) error {
	wake := p.wake
	waitTime := p.cfg.WaitTime
	p.mu.Unlock()

	timer := time.NewTimer(waitTime)
	defer timer.Stop()

	select {
	case <-wake:
	case <-timer.C:
	case <-ctx.Done():
		p.mu.Lock()
		return fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	}

	p.mu.Lock()

	return nil
}

// notifyAll wakes every goroutine blocked in timedWait.
// Called with the monitor held.
func (p *Pool) notifyAll() {
	close(p.wake)
	p.wake = make(chan struct{})
}

// put returns a lease to the pool. Invoked by the lease proxy on Close.
//
// An invalidated handle is counted and otherwise ignored: its raw connection
// either was closed by ForceCloseAll or has been re-leased to another caller
// after overdue reclamation, and must not be touched here. A handle stamped
// with a stale fingerprint is hard-closed; a healthy one is re-parked under
// a fresh handle so the proxy the caller just released turns permanently
// inert.
func (p *Pool) put(h *leaseHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.removeActive(h)

	if !h.isValid() {
		p.state.badConnectionCount++
		log.Debug().Msg("a previously invalidated lease was returned to the pool")

		return nil
	}

	if h.typeCode != p.expectedTypeCode {
		p.state.badConnectionCount++
		h.invalidate()
		if err := h.raw.Close(); err != nil {
			log.Debug().Err(err).Str("conn_id", h.raw.ID()).Msg("could not close stale connection")
		}
		log.Debug().Str("conn_id", h.raw.ID()).Msg("returned lease predates reconfiguration, connection closed")

		return nil
	}

	p.state.accumulatedCheckoutTime += h.checkoutAge(time.Now())

	if !h.raw.AutoCommit() {
		if err := h.raw.Rollback(); err != nil {
			log.Warn().Err(err).Str("conn_id", h.raw.ID()).Msg("rollback failed on return, closing connection")
			h.invalidate()
			_ = h.raw.Close()

			return nil
		}
	}

	if len(p.state.idle) < p.cfg.MaxIdle && !p.closed {
		nh := h.recycle(p)
		p.state.idle = append(p.state.idle, nh)
		h.invalidate()
		p.notifyAll()
		log.Trace().Str("conn_id", nh.raw.ID()).Msg("connection returned to idle pool")
	} else {
		h.invalidate()
		if err := h.raw.Close(); err != nil {
			log.Debug().Err(err).Str("conn_id", h.raw.ID()).Msg("could not close surplus connection")
		}
		log.Trace().Str("conn_id", h.raw.ID()).Msg("idle pool full, connection closed")
	}

	return nil
}

// ForceCloseAll invalidates and hard-closes every pooled connection, active
// and idle, and recomputes the expected fingerprint from the factory.
// Outstanding proxies held by callers turn inert: their next forwarded call
// fails, and their Close finds an invalidated handle and is discarded.
func (p *Pool) ForceCloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forceCloseAllLocked()
}

func (p *Pool) forceCloseAllLocked() {
	p.expectedTypeCode = p.factory.Fingerprint()

	for i := len(p.state.active) - 1; i >= 0; i-- {
		h := p.state.active[i]
		h.invalidate()
		p.closeRaw(h.raw)
	}
	p.state.active = p.state.active[:0]

	for i := len(p.state.idle) - 1; i >= 0; i-- {
		h := p.state.idle[i]
		h.invalidate()
		p.closeRaw(h.raw)
	}
	p.state.idle = p.state.idle[:0]

	// Waiters re-evaluate admission immediately instead of sleeping out the
	// full wait interval against an emptied pool.
	p.notifyAll()

	log.Debug().Msg("all pooled connections were forcefully closed")
}

// closeRaw rolls back and closes a raw connection, swallowing individual
// failures. Called with the monitor held.
func (p *Pool) closeRaw(raw RawConnection) {
	if raw.IsClosed() {
		return
	}
	if !raw.AutoCommit() {
		if err := raw.Rollback(); err != nil {
			log.Debug().Err(err).Str("conn_id", raw.ID()).Msg("rollback failed during force close")
		}
	}
	if err := raw.Close(); err != nil {
		log.Debug().Err(err).Str("conn_id", raw.ID()).Msg("close failed during force close")
	}
}

// Close shuts the pool down permanently. All pooled connections are closed
// and subsequent Get calls fail with ErrPoolClosed. Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.forceCloseAllLocked()

	log.Info().Msg("connection pool closed")
}

// Stats returns a point-in-time snapshot of counters and sizes.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state.snapshot(p.cfg)
}

// Status returns a human-readable dump of the pool state.
func (p *Pool) Status() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state.status(p.cfg)
}

// SetMaxActive changes the cap on leased connections and force-closes the pool.
func (p *Pool) SetMaxActive(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n > 0 {
		p.cfg.MaxActive = n
	}
	p.forceCloseAllLocked()
}

// SetMaxIdle changes the cap on parked connections and force-closes the pool.
func (p *Pool) SetMaxIdle(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n >= 0 {
		p.cfg.MaxIdle = n
	}
	p.forceCloseAllLocked()
}

// SetMaxCheckoutTime changes the overdue-lease threshold and force-closes the pool.
func (p *Pool) SetMaxCheckoutTime(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if d > 0 {
		p.cfg.MaxCheckoutTime = d
	}
	p.forceCloseAllLocked()
}

// SetWaitTime changes the bounded wait interval and force-closes the pool.
func (p *Pool) SetWaitTime(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if d > 0 {
		p.cfg.WaitTime = d
	}
	p.forceCloseAllLocked()
}

// SetMaxLocalBadTolerance changes the per-caller bad-connection budget and
// force-closes the pool.
func (p *Pool) SetMaxLocalBadTolerance(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n >= 0 {
		p.cfg.MaxLocalBadTolerance = n
	}
	p.forceCloseAllLocked()
}

// SetPingEnabled toggles the liveness probe and force-closes the pool.
func (p *Pool) SetPingEnabled(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cfg.PingEnabled = on
	p.forceCloseAllLocked()
}

// SetPingQuery changes the probe statement and force-closes the pool.
func (p *Pool) SetPingQuery(q string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if q != "" {
		p.cfg.PingQuery = q
	}
	p.forceCloseAllLocked()
}

// SetPingNotUsedFor changes the probe cool-down and force-closes the pool.
func (p *Pool) SetPingNotUsedFor(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cfg.PingNotUsedFor = d
	p.forceCloseAllLocked()
}
