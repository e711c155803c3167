package dbpool

import (
	"fmt"
	"strings"
	"time"
)

// poolState is the shared mutable state of the pool. Every field is guarded
// by the pool monitor; the counters are monotonically nondecreasing.
type poolState struct {
	// idle holds parked connections, head first to hand out.
	idle []*leaseHandle
	// active holds leased connections ordered by checkout time, oldest first.
	active []*leaseHandle

	requestCount                     uint64
	accumulatedRequestTime           time.Duration
	accumulatedCheckoutTime          time.Duration
	accumulatedCheckoutTimeOfOverdue time.Duration
	accumulatedWaitTime              time.Duration
	claimedOverdueCount              uint64
	hadToWaitCount                   uint64
	badConnectionCount               uint64
}

// popIdle removes and returns the head of the idle list, or nil.
func (s *poolState) popIdle() *leaseHandle {
	if len(s.idle) == 0 {
		return nil
	}

	h := s.idle[0]
	s.idle = s.idle[1:]

	return h
}

// removeActive drops the handle from the active list by identity.
// Returns false if the handle was not leased (e.g. already force-closed).
func (s *poolState) removeActive(h *leaseHandle) bool {
	for i, a := range s.active {
		if a == h {
			s.active = append(s.active[:i], s.active[i+1:]...)
			return true
		}
	}

	return false
}

// Stats is a point-in-time snapshot of pool counters and sizes.
// All counters are cumulative, not rates.
type Stats struct {
	RequestCount               uint64        `json:"request_count"`
	AverageRequestTime         time.Duration `json:"average_request_time"`
	HadToWaitCount             uint64        `json:"had_to_wait_count"`
	AverageWaitTime            time.Duration `json:"average_wait_time"`
	BadConnectionCount         uint64        `json:"bad_connection_count"`
	ClaimedOverdueCount        uint64        `json:"claimed_overdue_count"`
	AverageOverdueCheckoutTime time.Duration `json:"average_overdue_checkout_time"`
	AverageCheckoutTime        time.Duration `json:"average_checkout_time"`
	IdleConnections            int           `json:"idle_connections"`
	ActiveConnections          int           `json:"active_connections"`
	MaxActive                  int           `json:"max_active"`
	MaxIdle                    int           `json:"max_idle"`
}

// snapshot builds a Stats view. Called with the pool monitor held.
func (s *poolState) snapshot(cfg *Config) Stats {
	st := Stats{
		RequestCount:        s.requestCount,
		HadToWaitCount:      s.hadToWaitCount,
		BadConnectionCount:  s.badConnectionCount,
		ClaimedOverdueCount: s.claimedOverdueCount,
		IdleConnections:     len(s.idle),
		ActiveConnections:   len(s.active),
		MaxActive:           cfg.MaxActive,
		MaxIdle:             cfg.MaxIdle,
	}

	if s.requestCount > 0 {
		st.AverageRequestTime = s.accumulatedRequestTime / time.Duration(s.requestCount)
		st.AverageCheckoutTime = s.accumulatedCheckoutTime / time.Duration(s.requestCount)
	}
	if s.hadToWaitCount > 0 {
		st.AverageWaitTime = s.accumulatedWaitTime / time.Duration(s.hadToWaitCount)
	}
	if s.claimedOverdueCount > 0 {
		st.AverageOverdueCheckoutTime = s.accumulatedCheckoutTimeOfOverdue / time.Duration(s.claimedOverdueCount)
	}

	return st
}

// status renders a human-readable dump of the pool state for operators.
// Called with the pool monitor held.
func (s *poolState) status(cfg *Config) string {
	st := s.snapshot(cfg)

	var b strings.Builder
	b.WriteString("\n=== CONNECTION POOL ===")
	fmt.Fprintf(&b, "\n requestCount                  %d", st.RequestCount)
	fmt.Fprintf(&b, "\n averageRequestTime            %s", st.AverageRequestTime)
	fmt.Fprintf(&b, "\n averageCheckoutTime           %s", st.AverageCheckoutTime)
	fmt.Fprintf(&b, "\n claimedOverdueCount           %d", st.ClaimedOverdueCount)
	fmt.Fprintf(&b, "\n averageOverdueCheckoutTime    %s", st.AverageOverdueCheckoutTime)
	fmt.Fprintf(&b, "\n hadToWaitCount                %d", st.HadToWaitCount)
	fmt.Fprintf(&b, "\n averageWaitTime               %s", st.AverageWaitTime)
	fmt.Fprintf(&b, "\n badConnectionCount            %d", st.BadConnectionCount)
	fmt.Fprintf(&b, "\n idleConnections               %d/%d", st.IdleConnections, st.MaxIdle)
	fmt.Fprintf(&b, "\n activeConnections             %d/%d", st.ActiveConnections, st.MaxActive)
	b.WriteString("\n=======================\n")

	return b.String()
}
