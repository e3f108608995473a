package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for availability and booking
// flows.
type SchedulingMetrics struct {
	availabilityTotal *prometheus.CounterVec
	commitTotal       *prometheus.CounterVec
	gatewayLatency    *prometheus.HistogramVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "availability_total",
			Help:      "Total availability resolutions by outcome",
		}, []string{"outcome"}),
		commitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "commit_total",
			Help:      "Total booking commits by outcome",
		}, []string{"operation", "outcome"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "gateway_latency_seconds",
			Help:      "Latency of remote calendar gateway calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.availabilityTotal, m.commitTotal, m.gatewayLatency)
	return m
}

// ObserveAvailability records one availability resolution. Outcomes:
// "slots", "no_schedule", "holiday", "no_mapping", "error".
func (m *SchedulingMetrics) ObserveAvailability(outcome string) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(outcome).Inc()
}

// ObserveCommit records one commit/reschedule/cancel by outcome, e.g.
// ("commit", "booked") or ("reschedule", "slot_taken").
func (m *SchedulingMetrics) ObserveCommit(operation, outcome string) {
	if m == nil {
		return
	}
	m.commitTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveGatewayLatency records the duration of one gateway call.
func (m *SchedulingMetrics) ObserveGatewayLatency(op string, seconds float64) {
	if m == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(op).Observe(seconds)
}
