package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	terramatchWorkflow = "terramatch_workflow"

	// Scheduled job metrics
	scheduledJobsDispatchedTotal = "scheduled_jobs_dispatched_total"
	scheduledJobsProcessedTotal  = "scheduled_jobs_processed_total"

	// Task metrics
	taskRollupsTotal = "task_rollups_total"

	// Status update metrics
	statusUpdatesTotal = "status_updates_total"

	// Labels
	jobTypeLabel    = "type"
	jobResultLabel  = "result"
	taskStatusLabel = "status"
	entityTypeLabel = "entity"
	statusLabel     = "status"

	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

/**
* Metrics definition
**/
var scheduledJobsDispatchedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: terramatchWorkflow,
		Name:      scheduledJobsDispatchedTotal,
		Help:      "number of scheduled jobs claimed and pushed onto the work queue",
	},
	[]string{jobTypeLabel},
)

var scheduledJobsProcessedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: terramatchWorkflow,
		Name:      scheduledJobsProcessedTotal,
		Help:      "number of scheduled job messages handled by the processor",
	},
	[]string{jobTypeLabel, jobResultLabel},
)

var taskRollupsMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: terramatchWorkflow,
		Name:      taskRollupsTotal,
		Help:      "number of task status rollups by resulting status",
	},
	[]string{taskStatusLabel},
)

var statusUpdatesMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: terramatchWorkflow,
		Name:      statusUpdatesTotal,
		Help:      "number of entity status changes processed",
	},
	[]string{entityTypeLabel, statusLabel},
)

func IncreaseScheduledJobsDispatchedMetric(jobType string) {
	scheduledJobsDispatchedMetric.With(prometheus.Labels{jobTypeLabel: jobType}).Inc()
}

func IncreaseScheduledJobsProcessedMetric(jobType, result string) {
	labels := prometheus.Labels{
		jobTypeLabel:   jobType,
		jobResultLabel: result,
	}
	scheduledJobsProcessedMetric.With(labels).Inc()
}

func IncreaseTaskRollupsMetric(status string) {
	taskRollupsMetric.With(prometheus.Labels{taskStatusLabel: status}).Inc()
}

func IncreaseStatusUpdatesMetric(entity, status string) {
	labels := prometheus.Labels{
		entityTypeLabel: entity,
		statusLabel:     status,
	}
	statusUpdatesMetric.With(labels).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(scheduledJobsDispatchedMetric)
	prometheus.MustRegister(scheduledJobsProcessedMetric)
	prometheus.MustRegister(taskRollupsMetric)
	prometheus.MustRegister(statusUpdatesMetric)
}
