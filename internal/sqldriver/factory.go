package sqldriver

import (
	"context"
	"database/sql/driver"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/netresearch/dbpool-manager/internal/dbpool"
)

// Factory produces raw transport connections for the pool. It owns the
// driver instance and the (url, username, password) triple; the triple is
// mutable at runtime and its fingerprint identifies which configuration a
// pooled connection was dialed with.
//
// The URL may contain the placeholders {username} and {password}, expanded
// at dial time. Drivers that take credentials out of band (such as SQLite)
// simply omit the placeholders; the triple still participates in the
// fingerprint.
type Factory struct {
	mu       sync.Mutex
	drv      driver.Driver
	url      string
	username string
	password string
}

var _ dbpool.CredentialFactory = (*Factory)(nil)

// NewFactory creates a connection factory over the given driver.
func NewFactory(drv driver.Driver, url, username, password string) *Factory {
	return &Factory{
		drv:      drv,
		url:      url,
		username: username,
		password: password,
	}
}

// Create opens a fresh transport connection or fails. The pool never retries
// at this layer.
func (f *Factory) Create(ctx context.Context) (dbpool.RawConnection, error) {
	f.mu.Lock()
	drv := f.drv
	dsn := strings.NewReplacer(
		"{username}", f.username,
		"{password}", f.password,
	).Replace(f.url)
	f.mu.Unlock()

	var (
		dc  driver.Conn
		err error
	)
	if dctx, ok := drv.(driver.DriverContext); ok {
		var connector driver.Connector
		connector, err = dctx.OpenConnector(dsn)
		if err == nil {
			dc, err = connector.Connect(ctx)
		}
	} else {
		dc, err = drv.Open(dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("could not open database connection: %w", err)
	}

	conn := newConn(dc)
	log.Debug().Str("conn_id", conn.ID()).Msg("opened new database connection")

	return conn, nil
}

// Fingerprint identifies the current (url, username, password) triple.
func (f *Factory) Fingerprint() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := fnv.New64a()
	_, _ = h.Write([]byte(f.url))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(f.username))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(f.password))

	return h.Sum64()
}

// URL returns the configured database URL.
func (f *Factory) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.url
}

// Username returns the configured connect user.
func (f *Factory) Username() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.username
}

// SetURL points the factory at a different database.
func (f *Factory) SetURL(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.url = url
}

// SetUsername changes the connect user.
func (f *Factory) SetUsername(username string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.username = username
}

// SetPassword changes the connect password.
func (f *Factory) SetPassword(password string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.password = password
}
