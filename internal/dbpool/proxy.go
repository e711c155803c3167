package dbpool

import (
	"context"
	"database/sql/driver"
)

// Lease is the caller-facing view of one pooled connection. It exposes the
// raw connection's full capability set; every method forwards to the raw
// connection except Close, which returns the lease to the pool instead of
// tearing the transport down.
//
// Once the underlying handle has been invalidated (the lease was returned,
// reclaimed as overdue, or the pool was reconfigured), forwarded calls fail
// with ErrLeaseInvalid. IsClosed reports true and Close is discarded
// silently, so releasing a stale lease is always safe.
type Lease struct {
	pool   *Pool
	handle *leaseHandle

	// id is captured at lease creation so identity survives invalidation.
	id string
}

var _ RawConnection = (*Lease)(nil)

func newLease(p *Pool, h *leaseHandle) *Lease {
	return &Lease{
		pool:   p,
		handle: h,
		id:     h.raw.ID(),
	}
}

// conn guards every forwarding method.
func (l *Lease) conn() (RawConnection, error) {
	if !l.handle.isValid() {
		return nil, ErrLeaseInvalid
	}

	return l.handle.raw, nil
}

// ID returns the identity of the underlying transport connection. Two leases
// over the same raw connection report the same ID, so callers can key on it.
func (l *Lease) ID() string {
	return l.id
}

// Exec forwards to the raw connection.
func (l *Lease) Exec(ctx context.Context, query string, args ...driver.Value) (driver.Result, error) {
	raw, err := l.conn()
	if err != nil {
		return nil, err
	}

	return raw.Exec(ctx, query, args...)
}

// Query forwards to the raw connection.
func (l *Lease) Query(ctx context.Context, query string, args ...driver.Value) (driver.Rows, error) {
	raw, err := l.conn()
	if err != nil {
		return nil, err
	}

	return raw.Query(ctx, query, args...)
}

// AutoCommit forwards to the raw connection. An invalidated lease reports the
// driver default of true.
func (l *Lease) AutoCommit() bool {
	raw, err := l.conn()
	if err != nil {
		return true
	}

	return raw.AutoCommit()
}

// SetAutoCommit forwards to the raw connection.
func (l *Lease) SetAutoCommit(on bool) error {
	raw, err := l.conn()
	if err != nil {
		return err
	}

	return raw.SetAutoCommit(on)
}

// Commit forwards to the raw connection.
func (l *Lease) Commit() error {
	raw, err := l.conn()
	if err != nil {
		return err
	}

	return raw.Commit()
}

// Rollback forwards to the raw connection.
func (l *Lease) Rollback() error {
	raw, err := l.conn()
	if err != nil {
		return err
	}

	return raw.Rollback()
}

// IsClosed reports whether the lease can still reach its connection. An
// invalidated lease reports true without touching the transport.
func (l *Lease) IsClosed() bool {
	raw, err := l.conn()
	if err != nil {
		return true
	}

	return raw.IsClosed()
}

// Close returns the lease to the pool. The raw connection is re-parked or
// closed by the pool; it is never torn down by the lessee directly.
func (l *Lease) Close() error {
	return l.pool.put(l.handle)
}
