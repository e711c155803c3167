// Package metrics exposes connection pool statistics as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/netresearch/dbpool-manager/internal/dbpool"
)

// StatsSource yields point-in-time pool statistics. Both *dbpool.Pool and
// *dbpool.Manager satisfy it.
type StatsSource interface {
	Stats() dbpool.Stats
}

// Collector translates a pool's cumulative counters and sizes into
// Prometheus metrics on every scrape. The pool's counters are snapshots
// taken under its monitor, so a scrape observes a consistent view.
type Collector struct {
	source StatsSource

	requests       *prometheus.Desc
	badConnections *prometheus.Desc
	claimedOverdue *prometheus.Desc
	hadToWait      *prometheus.Desc
	idle           *prometheus.Desc
	active         *prometheus.Desc
	maxActive      *prometheus.Desc
	maxIdle        *prometheus.Desc
	avgRequestTime *prometheus.Desc
	avgCheckout    *prometheus.Desc
	avgWait        *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector over the given stats source.
func NewCollector(source StatsSource) *Collector {
	return &Collector{
		source: source,

		requests: prometheus.NewDesc("dbpool_requests_total",
			"Total number of successful connection checkouts.", nil, nil),
		badConnections: prometheus.NewDesc("dbpool_bad_connections_total",
			"Total number of bad connections encountered.", nil, nil),
		claimedOverdue: prometheus.NewDesc("dbpool_claimed_overdue_total",
			"Total number of overdue leases forcibly reclaimed.", nil, nil),
		hadToWait: prometheus.NewDesc("dbpool_had_to_wait_total",
			"Total number of checkouts that had to wait for a connection.", nil, nil),
		idle: prometheus.NewDesc("dbpool_idle_connections",
			"Current number of parked connections.", nil, nil),
		active: prometheus.NewDesc("dbpool_active_connections",
			"Current number of leased connections.", nil, nil),
		maxActive: prometheus.NewDesc("dbpool_max_active_connections",
			"Configured cap on leased connections.", nil, nil),
		maxIdle: prometheus.NewDesc("dbpool_max_idle_connections",
			"Configured cap on parked connections.", nil, nil),
		avgRequestTime: prometheus.NewDesc("dbpool_average_request_seconds",
			"Average time a checkout attempt took, including waiting.", nil, nil),
		avgCheckout: prometheus.NewDesc("dbpool_average_checkout_seconds",
			"Average time a lease was held before being returned.", nil, nil),
		avgWait: prometheus.NewDesc("dbpool_average_wait_seconds",
			"Average time spent waiting by checkouts that had to wait.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requests
	ch <- c.badConnections
	ch <- c.claimedOverdue
	ch <- c.hadToWait
	ch <- c.idle
	ch <- c.active
	ch <- c.maxActive
	ch <- c.maxIdle
	ch <- c.avgRequestTime
	ch <- c.avgCheckout
	ch <- c.avgWait
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(stats.RequestCount))
	ch <- prometheus.MustNewConstMetric(c.badConnections, prometheus.CounterValue, float64(stats.BadConnectionCount))
	ch <- prometheus.MustNewConstMetric(c.claimedOverdue, prometheus.CounterValue, float64(stats.ClaimedOverdueCount))
	ch <- prometheus.MustNewConstMetric(c.hadToWait, prometheus.CounterValue, float64(stats.HadToWaitCount))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(stats.IdleConnections))
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(stats.ActiveConnections))
	ch <- prometheus.MustNewConstMetric(c.maxActive, prometheus.GaugeValue, float64(stats.MaxActive))
	ch <- prometheus.MustNewConstMetric(c.maxIdle, prometheus.GaugeValue, float64(stats.MaxIdle))
	ch <- prometheus.MustNewConstMetric(c.avgRequestTime, prometheus.GaugeValue, stats.AverageRequestTime.Seconds())
	ch <- prometheus.MustNewConstMetric(c.avgCheckout, prometheus.GaugeValue, stats.AverageCheckoutTime.Seconds())
	ch <- prometheus.MustNewConstMetric(c.avgWait, prometheus.GaugeValue, stats.AverageWaitTime.Seconds())
}
