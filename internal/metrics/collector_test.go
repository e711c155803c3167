package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netresearch/dbpool-manager/internal/dbpool"
)

// stubSource serves a fixed stats snapshot.
type stubSource struct {
	stats dbpool.Stats
}

func (s *stubSource) Stats() dbpool.Stats { return s.stats }

func TestCollectorMetricCount(t *testing.T) {
	collector := NewCollector(&stubSource{})

	assert.Equal(t, 11, testutil.CollectAndCount(collector))
}

func TestCollectorValues(t *testing.T) {
	source := &stubSource{stats: dbpool.Stats{
		RequestCount:        42,
		BadConnectionCount:  3,
		ClaimedOverdueCount: 2,
		HadToWaitCount:      7,
		IdleConnections:     1,
		ActiveConnections:   4,
		MaxActive:           10,
		MaxIdle:             5,
		AverageRequestTime:  250 * time.Millisecond,
		AverageCheckoutTime: 2 * time.Second,
		AverageWaitTime:     time.Second,
	}}

	collector := NewCollector(source)

	expected := `
# HELP dbpool_requests_total Total number of successful connection checkouts.
# TYPE dbpool_requests_total counter
dbpool_requests_total 42
# HELP dbpool_idle_connections Current number of parked connections.
# TYPE dbpool_idle_connections gauge
dbpool_idle_connections 1
# HELP dbpool_active_connections Current number of leased connections.
# TYPE dbpool_active_connections gauge
dbpool_active_connections 4
# HELP dbpool_average_request_seconds Average time a checkout attempt took, including waiting.
# TYPE dbpool_average_request_seconds gauge
dbpool_average_request_seconds 0.25
`

	err := testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"dbpool_requests_total",
		"dbpool_idle_connections",
		"dbpool_active_connections",
		"dbpool_average_request_seconds",
	)
	require.NoError(t, err)
}

func TestCollectorReflectsSourceChanges(t *testing.T) {
	source := &stubSource{}
	collector := NewCollector(source)

	header := "# HELP dbpool_requests_total Total number of successful connection checkouts.\n" +
		"# TYPE dbpool_requests_total counter\n"

	require.NoError(t, testutil.CollectAndCompare(collector,
		strings.NewReader(header+"dbpool_requests_total 0\n"), "dbpool_requests_total"))

	source.stats.RequestCount = 9
	require.NoError(t, testutil.CollectAndCompare(collector,
		strings.NewReader(header+"dbpool_requests_total 9\n"), "dbpool_requests_total"))
}
