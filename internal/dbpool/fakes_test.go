package dbpool

import (
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"
)

// fakeRows is a minimal driver.Rows for probe queries.
type fakeRows struct {
	closed bool
}

func (r *fakeRows) Columns() []string           { return []string{"1"} }
func (r *fakeRows) Close() error                { r.closed = true; return nil }
func (r *fakeRows) Next(_ []driver.Value) error { return io.EOF }

// fakeResult is a minimal driver.Result.
type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 0, nil }

// fakeConn is a scriptable RawConnection for pool tests.
type fakeConn struct {
	mu sync.Mutex

	id         string
	closed     bool
	autoCommit bool

	execs     []string
	queries   []string
	rollbacks int
	commits   int

	queryErr    error
	execErr     error
	rollbackErr error
	closeErr    error
}

var _ RawConnection = (*fakeConn)(nil)

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, autoCommit: true}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Exec(_ context.Context, query string, _ ...driver.Value) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("connection %s is closed", c.id)
	}
	if c.execErr != nil {
		return nil, c.execErr
	}
	c.execs = append(c.execs, query)

	return fakeResult{}, nil
}

func (c *fakeConn) Query(_ context.Context, query string, _ ...driver.Value) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("connection %s is closed", c.id)
	}
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	c.queries = append(c.queries, query)

	return &fakeRows{}, nil
}

func (c *fakeConn) AutoCommit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.autoCommit
}

func (c *fakeConn) SetAutoCommit(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoCommit = on

	return nil
}

func (c *fakeConn) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commits++

	return nil
}

func (c *fakeConn) Rollback() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rollbackErr != nil {
		return c.rollbackErr
	}
	c.rollbacks++

	return nil
}

func (c *fakeConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true

	return c.closeErr
}

func (c *fakeConn) queryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.queries)
}

func (c *fakeConn) rollbackCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rollbacks
}

// fakeFactory produces fakeConns and counts creations.
type fakeFactory struct {
	mu sync.Mutex

	created     int
	fingerprint uint64
	createErr   error

	// makeConn, when set, customizes the nth created connection (1-based).
	makeConn func(n int) *fakeConn
}

var _ ConnectionFactory = (*fakeFactory)(nil)

func newFakeFactory() *fakeFactory {
	return &fakeFactory{fingerprint: 1}
}

func (f *fakeFactory) Create(_ context.Context) (RawConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}

	f.created++
	if f.makeConn != nil {
		return f.makeConn(f.created), nil
	}

	return newFakeConn(fmt.Sprintf("conn-%d", f.created)), nil
}

func (f *fakeFactory) Fingerprint() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.fingerprint
}

func (f *fakeFactory) setFingerprint(v uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fingerprint = v
}

func (f *fakeFactory) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.created
}

// fakeCredFactory adds the runtime credential surface for manager tests.
type fakeCredFactory struct {
	fakeFactory

	cmu      sync.Mutex
	url      string
	username string
	password string
}

var _ CredentialFactory = (*fakeCredFactory)(nil)

func newFakeCredFactory(url, username, password string) *fakeCredFactory {
	f := &fakeCredFactory{url: url, username: username, password: password}
	f.refreshFingerprint()

	return f
}

func (f *fakeCredFactory) refreshFingerprint() {
	f.cmu.Lock()
	triple := f.url + "\x00" + f.username + "\x00" + f.password
	f.cmu.Unlock()

	var h uint64 = 14695981039346656037
	for i := 0; i < len(triple); i++ {
		h ^= uint64(triple[i])
		h *= 1099511628211
	}
	f.setFingerprint(h)
}

func (f *fakeCredFactory) URL() string {
	f.cmu.Lock()
	defer f.cmu.Unlock()

	return f.url
}

func (f *fakeCredFactory) Username() string {
	f.cmu.Lock()
	defer f.cmu.Unlock()

	return f.username
}

func (f *fakeCredFactory) SetURL(url string) {
	f.cmu.Lock()
	f.url = url
	f.cmu.Unlock()
	f.refreshFingerprint()
}

func (f *fakeCredFactory) SetUsername(username string) {
	f.cmu.Lock()
	f.username = username
	f.cmu.Unlock()
	f.refreshFingerprint()
}

func (f *fakeCredFactory) SetPassword(password string) {
	f.cmu.Lock()
	f.password = password
	f.cmu.Unlock()
	f.refreshFingerprint()
}
