package sqldriver

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrConnectionClosed indicates a statement was issued on a closed connection
var ErrConnectionClosed = errors.New("database connection is closed")

// Conn adapts a database/sql/driver.Conn to the pool's transport capability
// set. It carries JDBC-like auto-commit semantics: auto-commit is on by
// default, and disabling it opens a transaction lazily before the next
// statement. Conn is not safe for concurrent use; the pool guarantees a
// single lessee at a time.
type Conn struct {
	id     string
	conn   driver.Conn
	closed atomic.Bool

	autoCommit bool
	tx         driver.Tx
}

func newConn(dc driver.Conn) *Conn {
	return &Conn{
		id:         uuid.NewString(),
		conn:       dc,
		autoCommit: true,
	}
}

// ID returns the connection's identity, assigned once at creation.
func (c *Conn) ID() string {
	return c.id
}

// IsClosed reports whether the transport has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// AutoCommit reports whether statements commit implicitly.
func (c *Conn) AutoCommit() bool {
	return c.autoCommit
}

// SetAutoCommit toggles implicit commits. Re-enabling auto-commit commits any
// open transaction first, mirroring the usual driver contract.
func (c *Conn) SetAutoCommit(on bool) error {
	if c.IsClosed() {
		return ErrConnectionClosed
	}
	if on == c.autoCommit {
		return nil
	}

	if on && c.tx != nil {
		if err := c.Commit(); err != nil {
			return err
		}
	}
	c.autoCommit = on

	return nil
}

// Commit commits the open transaction, if any.
func (c *Conn) Commit() error {
	if c.IsClosed() {
		return ErrConnectionClosed
	}
	if c.tx == nil {
		return nil
	}

	err := c.tx.Commit()
	c.tx = nil

	return err
}

// Rollback rolls back the open transaction. A no-op in auto-commit mode.
func (c *Conn) Rollback() error {
	if c.IsClosed() {
		return ErrConnectionClosed
	}
	if c.tx == nil {
		return nil
	}

	err := c.tx.Rollback()
	c.tx = nil

	return err
}

// Exec runs a statement that returns no rows.
func (c *Conn) Exec(ctx context.Context, query string, args ...driver.Value) (driver.Result, error) {
	if c.IsClosed() {
		return nil, ErrConnectionClosed
	}
	if err := c.ensureTx(ctx); err != nil {
		return nil, err
	}

	if execer, ok := c.conn.(driver.ExecerContext); ok {
		return execer.ExecContext(ctx, query, namedValues(args))
	}

	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("could not prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	if sc, ok := stmt.(driver.StmtExecContext); ok {
		return sc.ExecContext(ctx, namedValues(args))
	}

	return stmt.Exec(args) //nolint:staticcheck // fallback for drivers without context support
}

// Query runs a statement that returns rows. The caller owns the rows and
// must close them before issuing the next statement.
func (c *Conn) Query(ctx context.Context, query string, args ...driver.Value) (driver.Rows, error) {
	if c.IsClosed() {
		return nil, ErrConnectionClosed
	}
	if err := c.ensureTx(ctx); err != nil {
		return nil, err
	}

	if queryer, ok := c.conn.(driver.QueryerContext); ok {
		return queryer.QueryContext(ctx, query, namedValues(args))
	}

	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("could not prepare statement: %w", err)
	}

	var rows driver.Rows
	if sq, ok := stmt.(driver.StmtQueryContext); ok {
		rows, err = sq.QueryContext(ctx, namedValues(args))
	} else {
		rows, err = stmt.Query(args) //nolint:staticcheck // fallback for drivers without context support
	}
	if err != nil {
		_ = stmt.Close()
		return nil, err
	}

	// The statement must outlive the rows in the prepared fallback path.
	return &stmtRows{Rows: rows, stmt: stmt}, nil
}

// Close tears down the transport connection. Any open transaction is rolled
// back first; Close is idempotent.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}

	return c.conn.Close()
}

// ensureTx opens a transaction lazily when auto-commit is off.
func (c *Conn) ensureTx(ctx context.Context) error {
	if c.autoCommit || c.tx != nil {
		return nil
	}

	var (
		tx  driver.Tx
		err error
	)
	if cb, ok := c.conn.(driver.ConnBeginTx); ok {
		tx, err = cb.BeginTx(ctx, driver.TxOptions{})
	} else {
		tx, err = c.conn.Begin() //nolint:staticcheck // fallback for drivers without context support
	}
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	c.tx = tx

	return nil
}

func namedValues(args []driver.Value) []driver.NamedValue {
	nv := make([]driver.NamedValue, len(args))
	for i, v := range args {
		nv[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}

	return nv
}

// stmtRows ties a prepared statement's lifetime to its result rows.
type stmtRows struct {
	driver.Rows
	stmt driver.Stmt
}

func (r *stmtRows) Close() error {
	err := r.Rows.Close()
	if cerr := r.stmt.Close(); err == nil {
		err = cerr
	}

	return err
}
