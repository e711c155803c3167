package dbpool

import "errors"

var (
	// ErrPoolClosed indicates the connection pool has been shut down
	ErrPoolClosed = errors.New("connection pool is closed")
	// ErrCheckoutFailed indicates the factory could not produce a new connection
	ErrCheckoutFailed = errors.New("could not create a new database connection")
	// ErrUnreachable indicates too many consecutive bad connections in one checkout attempt
	ErrUnreachable = errors.New("database is unreachable: bad connection tolerance exceeded")
	// ErrInterrupted indicates the caller was cancelled while waiting for a connection
	ErrInterrupted = errors.New("interrupted while waiting for a pooled connection")
	// ErrLeaseInvalid indicates use of a lease whose handle has been invalidated
	ErrLeaseInvalid = errors.New("lease is no longer valid")
	// ErrNoLease indicates the checkout loop exited without producing a handle
	ErrNoLease = errors.New("checkout produced no connection")
)
