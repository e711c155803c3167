package web

import (
	"context"
	"database/sql/driver"
	"fmt"
	"hash/fnv"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netresearch/dbpool-manager/internal/dbpool"
)

// stubRows is a minimal driver.Rows for the stub connection.
type stubRows struct{}

func (stubRows) Columns() []string           { return nil }
func (stubRows) Close() error                { return nil }
func (stubRows) Next(_ []driver.Value) error { return io.EOF }

// stubConn is a healthy, inert RawConnection for handler tests.
type stubConn struct {
	id     string
	mu     sync.Mutex
	closed bool
}

func (c *stubConn) ID() string { return c.id }

func (c *stubConn) Exec(_ context.Context, _ string, _ ...driver.Value) (driver.Result, error) {
	return driver.RowsAffected(0), nil
}

func (c *stubConn) Query(_ context.Context, _ string, _ ...driver.Value) (driver.Rows, error) {
	return stubRows{}, nil
}

func (c *stubConn) AutoCommit() bool           { return true }
func (c *stubConn) SetAutoCommit(_ bool) error { return nil }
func (c *stubConn) Commit() error              { return nil }
func (c *stubConn) Rollback() error            { return nil }

func (c *stubConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true

	return nil
}

// stubFactory is a CredentialFactory over stub connections.
type stubFactory struct {
	mu       sync.Mutex
	created  int
	url      string
	username string
	password string
}

func newStubFactory() *stubFactory {
	return &stubFactory{url: "db://stub", username: "app", password: "secret"}
}

func (f *stubFactory) Create(_ context.Context) (dbpool.RawConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++

	return &stubConn{id: fmt.Sprintf("stub-%d", f.created)}, nil
}

func (f *stubFactory) Fingerprint() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := fnv.New64a()
	_, _ = h.Write([]byte(f.url + "\x00" + f.username + "\x00" + f.password))

	return h.Sum64()
}

func (f *stubFactory) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.url
}

func (f *stubFactory) Username() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.username
}

func (f *stubFactory) SetURL(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = url
}

func (f *stubFactory) SetUsername(username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.username = username
}

func (f *stubFactory) SetPassword(password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.password = password
}

// setupTestApp builds an App over a stub-backed pool manager.
func setupTestApp(t *testing.T) (*App, *dbpool.Manager) {
	t.Helper()

	manager := dbpool.NewManager(newStubFactory(), &dbpool.Config{MaxActive: 4, MaxIdle: 2})
	t.Cleanup(manager.Close)

	app, err := NewApp(nil, manager)
	require.NoError(t, err)
	t.Cleanup(func() { app.rateLimiter.Stop() })

	return app, manager
}
