// Package web provides the operational HTTP surface of the DB Pool Manager.
//
// The surface is deliberately small: health probes for container
// orchestration (/health, /health/ready, /health/live), pool introspection
// (/stats as JSON, /status as a human-readable dump, /version), Prometheus
// exposition (/metrics), and two admin endpoints (PUT /admin/limits,
// PUT /admin/credentials) that mutate the pool configuration at runtime.
//
// Every admin mutation runs through the pool's setters and therefore
// force-closes all pooled connections; the admin group is rate limited per
// client IP so a misconfigured automation cannot flap the pool.
package web
