package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/srand/hookd/pkg/scheduler"
)

// Prometheus collector fed by scheduler events.
type Collector struct {
	registry *prometheus.Registry

	tasksQueued   *prometheus.CounterVec
	tasksStarted  *prometheus.CounterVec
	tasksFinished *prometheus.CounterVec
	anomalies     prometheus.Counter

	taskDuration *prometheus.HistogramVec
	queueWait    prometheus.Histogram

	tasksPending prometheus.Gauge
	tasksRunning prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		tasksQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hookd_tasks_queued_total",
			Help: "Total number of tasks submitted.",
		}, []string{"webhook"}),
		tasksStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hookd_tasks_started_total",
			Help: "Total number of tasks dispatched to a worker.",
		}, []string{"webhook"}),
		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hookd_tasks_finished_total",
			Help: "Total number of finished tasks by status.",
		}, []string{"webhook", "status"}),
		anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hookd_dispatch_anomalies_total",
			Help: "Total number of rejected completion reports.",
		}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hookd_task_duration_seconds",
			Help:    "Task execution time in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"webhook"}),
		queueWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hookd_task_queue_wait_seconds",
			Help:    "Time tasks spend queued before dispatch in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		tasksPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hookd_tasks_pending",
			Help: "Current number of queued tasks.",
		}),
		tasksRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hookd_tasks_running",
			Help: "Current number of running tasks.",
		}),
	}

	c.registry.MustRegister(
		c.tasksQueued,
		c.tasksStarted,
		c.tasksFinished,
		c.anomalies,
		c.taskDuration,
		c.queueWait,
		c.tasksPending,
		c.tasksRunning,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry holding the hookd metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Report the pool size.
func (c *Collector) SetWorkers(workers int) {
	c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "hookd_workers",
		Help: "Size of the worker pool.",
	}, func() float64 {
		return float64(workers)
	}))
}

func (c *Collector) TaskQueued(task scheduler.TaskSummary) {
	c.tasksQueued.WithLabelValues(task.Name).Inc()
	c.tasksPending.Inc()
}

func (c *Collector) TaskStarted(task scheduler.TaskSummary) {
	c.tasksStarted.WithLabelValues(task.Name).Inc()
	c.tasksPending.Dec()
	c.tasksRunning.Inc()

	if task.StartedAt != nil {
		c.queueWait.Observe(task.StartedAt.Sub(task.CreatedAt).Seconds())
	}
}

func (c *Collector) TaskFinished(task scheduler.TaskSummary) {
	c.tasksFinished.WithLabelValues(task.Name, task.Status.String()).Inc()
	c.tasksRunning.Dec()

	if task.StartedAt != nil && task.FinishedAt != nil {
		c.taskDuration.WithLabelValues(task.Name).Observe(task.FinishedAt.Sub(*task.StartedAt).Seconds())
	}
}

func (c *Collector) DispatchAnomaly(workerID int, taskID string) {
	c.anomalies.Inc()
}

var _ scheduler.Observer = (*Collector)(nil)
