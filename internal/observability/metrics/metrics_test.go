package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSchedulingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)
	m.ObserveAvailability("slots")
	m.ObserveAvailability("holiday")
	m.ObserveCommit("commit", "booked")
	m.ObserveCommit("reschedule", "slot_taken")
	m.ObserveGatewayLatency("freebusy", 0.12)
}

func TestSchedulingMetricsNilSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveAvailability("slots")
	m.ObserveCommit("cancel", "ok")
	m.ObserveGatewayLatency("create_event", 0.1)
}
