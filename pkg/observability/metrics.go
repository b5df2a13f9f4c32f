package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethpandaops/contrack/pkg/contracts"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// ContractsByStatus tracks the number of contracts per derived status
	ContractsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contrack_contracts",
			Help: "Number of contracts per derived status",
		},
		[]string{"status"},
	)

	// ContractsExpiring tracks in-force contracts ending within a window
	ContractsExpiring = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contrack_contracts_expiring",
			Help: "In-force contracts ending within the window (days)",
		},
		[]string{"window"}, // window: 30, 60, 90, 180
	)

	// MonthlyValueInForce tracks the summed monthly value of in-force contracts
	MonthlyValueInForce = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contrack_monthly_value_in_force",
			Help: "Summed monthly value of in-force contracts",
		},
	)

	// UnitsInForce tracks the number of distinct units with in-force contracts
	UnitsInForce = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contrack_units_in_force",
			Help: "Distinct units with in-force contracts",
		},
	)

	// AlertsActive tracks alerts raised by the last evaluation
	AlertsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contrack_alerts",
			Help: "Alerts raised by the last evaluation",
		},
		[]string{"alert", "severity"},
	)

	// LastEvaluation tracks when alerts were last evaluated
	LastEvaluation = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "contrack_last_evaluation_timestamp",
			Help: "Unix timestamp of the last alert evaluation",
		},
	)

	// ImportsTotal counts bulk imports
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contrack_imports_total",
			Help: "Total number of contract imports",
		},
		[]string{"strategy", "result"}, // result: success, failed
	)

	// ImportRecordsTotal counts imported rows by outcome
	ImportRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contrack_import_records_total",
			Help: "Total number of imported rows by outcome",
		},
		[]string{"outcome"}, // outcome: inserted, updated, ignored
	)

	// TasksTotal tracks the total number of tasks processed
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contrack_tasks_total",
			Help: "Total number of tasks processed",
		},
		[]string{"type", "status"}, // status: success, failed
	)

	// TaskDuration measures task execution duration in seconds
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contrack_task_duration_seconds",
			Help:    "Task execution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"type", "status"},
	)

	// TasksEnqueued counts total number of tasks enqueued
	TasksEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contrack_tasks_enqueued_total",
			Help: "Total number of tasks enqueued",
		},
		[]string{"type", "trigger"}, // trigger: api, schedule, cli
	)

	// QueueTasks tracks tasks per state on the task queue
	QueueTasks = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contrack_queue_tasks",
			Help: "Tasks on the queue per state",
		},
		[]string{"queue", "state"}, // state: pending, active, scheduled, retry, archived, completed
	)

	// ErrorsTotal counts total number of errors
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contrack_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordStatistics exports dashboard statistics as gauges
func RecordStatistics(stats *contracts.Statistics) {
	for _, status := range contracts.Statuses {
		ContractsByStatus.WithLabelValues(string(status)).Set(float64(stats.ByStatus[status]))
	}

	ContractsExpiring.WithLabelValues("30").Set(float64(stats.Expiring30))
	ContractsExpiring.WithLabelValues("60").Set(float64(stats.Expiring60))
	ContractsExpiring.WithLabelValues("90").Set(float64(stats.Expiring90))
	ContractsExpiring.WithLabelValues("180").Set(float64(stats.Expiring180))

	MonthlyValueInForce.Set(stats.TotalMonthlyValue.InexactFloat64())
	UnitsInForce.Set(float64(stats.TotalUnits))
}

// RecordAlerts replaces the active alert gauges
func RecordAlerts(alerts []contracts.AlertItem, evaluatedAt float64) {
	AlertsActive.Reset()

	for i := range alerts {
		AlertsActive.WithLabelValues(alerts[i].ID, string(alerts[i].Type)).Set(float64(alerts[i].Count))
	}

	LastEvaluation.Set(evaluatedAt)
}

// RecordImport records an import and its row outcomes
func RecordImport(strategy, result string, inserted, updated, ignored int) {
	ImportsTotal.WithLabelValues(strategy, result).Inc()
	ImportRecordsTotal.WithLabelValues("inserted").Add(float64(inserted))
	ImportRecordsTotal.WithLabelValues("updated").Add(float64(updated))
	ImportRecordsTotal.WithLabelValues("ignored").Add(float64(ignored))
}

// RecordTaskComplete records task completion
func RecordTaskComplete(taskType, status string, duration float64) {
	TasksTotal.WithLabelValues(taskType, status).Inc()
	TaskDuration.WithLabelValues(taskType, status).Observe(duration)
}

// RecordTaskEnqueued records task enqueue
func RecordTaskEnqueued(taskType, trigger string) {
	TasksEnqueued.WithLabelValues(taskType, trigger).Inc()
}

// RecordQueueDepth records the number of tasks in one queue state
func RecordQueueDepth(queue, state string, n int) {
	QueueTasks.WithLabelValues(queue, state).Set(float64(n))
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
