// File: internal/infra/metrics/metrics.go
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	availabilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_checks_total",
			Help: "Remote availability lookups by field kind and outcome (available/taken/invalid_format/connection_error).",
		},
		[]string{"kind", "outcome"},
	)

	availabilityLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "availability_check_latency_ms",
			Help:    "Availability lookup latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"kind"},
	)

	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_submissions_total",
			Help: "Registration submissions by member type and result (confirmed/pending/rejected).",
		},
		[]string{"member_type", "result"},
	)

	submissionsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "registration_submissions_in_flight",
			Help: "Submissions currently awaiting an upstream answer.",
		},
	)

	stepBlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_step_blocks_total",
			Help: "Step-advance and submit attempts blocked by a gating rule.",
		},
		[]string{"member_type", "gate"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			availabilityChecks, availabilityLatencyMs,
			submissionsTotal, submissionsInFlight, stepBlocks,
		)
	})
}

func ObserveAvailabilityCheck(kind, outcome string, latencyMs float64) {
	availabilityChecks.WithLabelValues(kind, outcome).Inc()
	availabilityLatencyMs.WithLabelValues(kind).Observe(latencyMs)
}

func IncSubmission(memberType, result string) {
	submissionsTotal.WithLabelValues(memberType, result).Inc()
}

func SubmissionStarted()  { submissionsInFlight.Inc() }
func SubmissionFinished() { submissionsInFlight.Dec() }

func IncStepBlock(memberType, gate string) {
	stepBlocks.WithLabelValues(memberType, gate).Inc()
}
