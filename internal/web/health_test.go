package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, app *App, method, target string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	resp, err := app.fiber.Test(req, 5000)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	return resp, body
}

func TestHealthHandler(t *testing.T) {
	app, manager := setupTestApp(t)

	lease, err := manager.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, lease.Close())

	resp, body := doRequest(t, app, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		ConnectionPool map[string]any `json:"connection_pool"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))

	assert.Equal(t, true, payload.ConnectionPool["healthy"])
	assert.InDelta(t, 1, payload.ConnectionPool["request_count"], 0)
}

func TestReadinessHandler(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/health/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ready")
}

func TestLivenessHandler(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/health/live")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "alive")
}

func TestStatsHandler(t *testing.T) {
	app, manager := setupTestApp(t)

	lease, err := manager.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, lease.Close())

	resp, body := doRequest(t, app, http.MethodGet, "/stats")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(body, &stats))

	assert.InDelta(t, 1, stats["request_count"], 0)
	assert.InDelta(t, 1, stats["idle_connections"], 0)
	assert.InDelta(t, 0, stats["active_connections"], 0)
}

func TestStatusHandler(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "=== CONNECTION POOL ===")
}

func TestVersionHandler(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/version")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Contains(t, payload, "version")
	assert.Contains(t, payload, "commit")
}

func TestMetricsHandler(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "dbpool_requests_total")
	assert.Contains(t, string(body), "dbpool_idle_connections")
}

func TestNotFoundHandler(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, body := doRequest(t, app, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "not found")
}
