package scheduler

import (
	"time"

	"github.com/srand/hookd/pkg/protocol"
)

// Serializable view of a task.
type TaskSummary struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Parameters map[string]string   `json:"parameters"`
	Status     protocol.TaskStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
	Worker     *int                `json:"worker,omitempty"`
	Result     *Result             `json:"result,omitempty"`
}

// Projection of the coordinator state at one point in time.
type Snapshot struct {
	// Identifies the host running the coordinator.
	Instance string `json:"instance,omitempty"`

	// Size of the worker pool.
	Workers int `json:"workers"`

	// Tasks waiting for a worker, in dispatch order.
	Queued []TaskSummary `json:"queued"`

	// Tasks being executed, ordered by worker.
	Running []TaskSummary `json:"running"`

	// Finished tasks, most recent first.
	RecentHistory []TaskSummary `json:"recent_history"`
}

// Scheduler statistics
type Statistics struct {
	// Number of workers
	Workers int64

	// Number of workers currently executing a task
	BusyWorkers int64

	// Number of tasks waiting for a worker
	QueuedTasks int64

	// Number of tasks currently running
	RunningTasks int64

	// Total number of successful tasks
	SucceededTasks int64

	// Total number of failed tasks
	FailedTasks int64

	// Total number of completed tasks (successful or failed)
	CompletedTasks int64

	// Total number of rejected completion reports
	Anomalies int64
}
