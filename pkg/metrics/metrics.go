package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	assessmentPortal = "assessment_portal"

	assignmentsTotal = "assignments_total"
	bookingsTotal    = "bookings_total"
	sweptTasksTotal  = "swept_tasks_total"
	pooledTasksGauge = "pooled_tasks"
	activeEvaluators = "active_evaluators"

	// Labels
	kindLabel    = "kind"
	outcomeLabel = "outcome"
)

// Outcomes recorded for assignment and booking attempts.
const (
	OutcomeAssigned   = "assigned"
	OutcomePooled     = "pooled"
	OutcomeNoCapacity = "no_capacity"
	OutcomeBooked     = "booked"
	OutcomeRetried    = "retried"
	OutcomeFailed     = "failed"
)

var assignmentsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: assessmentPortal,
		Name:      assignmentsTotal,
		Help:      "number of assignment attempts partitioned by task kind and outcome",
	},
	[]string{kindLabel, outcomeLabel},
)

var bookingsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: assessmentPortal,
		Name:      bookingsTotal,
		Help:      "number of slot booking attempts partitioned by outcome",
	},
	[]string{outcomeLabel},
)

var sweptTasksTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: assessmentPortal,
		Name:      sweptTasksTotal,
		Help:      "number of pooled tasks processed by the sweeper",
	},
	[]string{kindLabel, outcomeLabel},
)

var pooledTasksMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: assessmentPortal,
		Name:      pooledTasksGauge,
		Help:      "number of tasks left in the pool after the last sweep",
	},
	[]string{kindLabel},
)

var activeEvaluatorsMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: assessmentPortal,
		Name:      activeEvaluators,
		Help:      "number of active evaluators seen by the last pool read",
	},
)

func IncreaseAssignmentsTotalMetric(kind, outcome string) {
	assignmentsTotalMetric.With(prometheus.Labels{
		kindLabel:    kind,
		outcomeLabel: outcome,
	}).Inc()
}

func IncreaseBookingsTotalMetric(outcome string) {
	bookingsTotalMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func IncreaseSweptTasksMetric(kind, outcome string, count int) {
	sweptTasksTotalMetric.With(prometheus.Labels{
		kindLabel:    kind,
		outcomeLabel: outcome,
	}).Add(float64(count))
}

func UpdatePooledTasksMetric(kind string, count int) {
	pooledTasksMetric.With(prometheus.Labels{kindLabel: kind}).Set(float64(count))
}

func UpdateActiveEvaluatorsMetric(count int) {
	activeEvaluatorsMetric.Set(float64(count))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(assignmentsTotalMetric)
	prometheus.MustRegister(bookingsTotalMetric)
	prometheus.MustRegister(sweptTasksTotalMetric)
	prometheus.MustRegister(pooledTasksMetric)
	prometheus.MustRegister(activeEvaluatorsMetric)
}
