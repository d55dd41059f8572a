package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the insight pipeline
var (
	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpulse_events_recorded_total",
			Help: "Business events appended to the event log",
		},
		[]string{"event_type", "channel"},
	)

	EventValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitpulse_event_validation_failures_total",
			Help: "Event submissions rejected by enum validation",
		},
	)

	DispatchHandlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpulse_dispatch_handler_failures_total",
			Help: "Downstream handler failures swallowed by the dispatcher",
		},
		[]string{"event_type"},
	)

	ActiveAtRiskClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fitpulse_at_risk_clients_active",
			Help: "Active at-risk client records by risk level",
		},
		[]string{"risk_level"},
	)

	LeakageRecordsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitpulse_leakage_records_created_total",
			Help: "Revenue leakage records created by the detector",
		},
	)

	UnrecoveredLeakageAmount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitpulse_leakage_unrecovered_amount",
			Help: "Sum of amount_lost over unresolved leakage records",
		},
	)

	DetectionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpulse_detection_runs_total",
			Help: "Detector invocations by detector and result",
		},
		[]string{"detector", "result"},
	)
)
