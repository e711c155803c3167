// Package sqldriver adapts database/sql/driver connections to the transport
// capability set the connection pool multiplexes.
//
// The package provides two pieces: Conn, which wraps a single driver.Conn
// with JDBC-like auto-commit and transaction semantics, and Factory, which
// dials fresh connections from a driver instance and a mutable
// (url, username, password) triple. The factory's fingerprint of that triple
// is what the pool stamps on every lease to detect reconfiguration.
//
// Any driver.Driver works; the service wires github.com/mattn/go-sqlite3.
package sqldriver
