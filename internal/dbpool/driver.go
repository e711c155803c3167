package dbpool

import (
	"context"
	"database/sql/driver"
)

// RawConnection is the transport-level capability set the pool multiplexes.
// Implementations are not required to be safe for concurrent use; the pool
// guarantees a connection is only ever touched by its current lessee (or by
// the pool itself while the connection is parked).
type RawConnection interface {
	// ID returns a stable identifier for this transport connection,
	// used for lease identity and log correlation.
	ID() string

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...driver.Value) (driver.Result, error)
	// Query runs a statement that returns rows. The caller owns the
	// returned rows and must close them before the next statement.
	Query(ctx context.Context, query string, args ...driver.Value) (driver.Rows, error)

	// AutoCommit reports whether statements commit implicitly.
	AutoCommit() bool
	// SetAutoCommit toggles implicit commits. Disabling it places the
	// connection in transactional mode; re-enabling it commits any open
	// transaction first.
	SetAutoCommit(on bool) error
	// Commit commits the open transaction, if any.
	Commit() error
	// Rollback rolls back the open transaction. A no-op in auto-commit mode.
	Rollback() error

	// IsClosed reports whether the transport has been closed.
	IsClosed() bool
	// Close tears down the transport connection.
	Close() error
}

// ConnectionFactory produces raw transport connections on demand.
// The factory owns the driver properties (url, username, password); the pool
// never retries creation, a failure surfaces directly to the caller.
type ConnectionFactory interface {
	// Create opens a fresh transport connection or fails.
	Create(ctx context.Context) (RawConnection, error)
	// Fingerprint identifies the (url, username, password) triple the
	// factory currently dials with. Handles parked under a different
	// fingerprint are stale and will not be handed out again.
	Fingerprint() uint64
}
