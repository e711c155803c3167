// Package dbpool provides a synchronous, bounded database connection pool
// that multiplexes a small number of expensive transport connections across
// many concurrent callers.
//
// # Overview
//
// The pool hands out leases over raw transport connections produced by a
// ConnectionFactory. Callers use a lease through the same capability set
// they would use on a raw connection; the single divergence is Close, which
// returns the connection to the pool instead of destroying the transport.
//
// Admission follows a fixed order: an idle connection is reused when one is
// parked; a new connection is created while the active count is below
// MaxActive; past the cap, the oldest active lease is forcibly reclaimed
// once its age exceeds MaxCheckoutTime; otherwise the caller waits in
// bounded intervals of WaitTime and re-evaluates. Every candidate passes a
// health check (validity flag, transport closed state, optional ping with a
// cool-down) before it is handed out.
//
// # Lease lifecycle
//
// Returning or reclaiming a connection mints a fresh internal handle over
// the same raw connection and invalidates the old one. A proxy the caller
// already released therefore turns permanently inert even if the raw
// connection is immediately re-leased: its forwarded calls fail with
// ErrLeaseInvalid and its Close is discarded silently. No reference counting
// is involved; stale-proxy misuse is detectable by construction.
//
// # Concurrency
//
// The pool is serialized by a single monitor. Factory creation, pings, and
// connection teardown all run while the monitor is held; this keeps the
// counting invariants trivially checkable, at the cost that checkout does
// not parallelize when the driver itself is slow. Raw connections are not
// thread-safe and must only be touched by their current lessee.
//
// # Reconfiguration
//
// Every pool option and every credential of the factory is mutable at
// runtime; each mutation force-closes all pooled connections and recomputes
// the factory fingerprint. Outstanding leases stamped with the previous
// fingerprint are closed rather than re-parked when they come back.
//
// # Usage
//
//	factory := sqldriver.NewFactory(&sqlite3.SQLiteDriver{}, url, user, password)
//	manager := dbpool.NewManager(factory, dbpool.DefaultConfig())
//	defer manager.Close()
//
//	lease, err := manager.Get(ctx)
//	if err != nil {
//	    return err
//	}
//	defer lease.Close()
//
//	rows, err := lease.Query(ctx, "SELECT id FROM jobs WHERE state = ?", "queued")
package dbpool
