// Package integration contains tests that exercise the connection pool over
// a real SQLite database, end to end: checkout, statement execution through
// the lease, transaction hygiene, reconfiguration, and liveness probing.
package integration
