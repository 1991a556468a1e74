package scheduler

import (
	"context"
	"io"
)

// Main scheduler interface.
type Scheduler interface {
	// Enqueue a new task for execution.
	// Returns utils.ErrStopped if the scheduler is no longer running.
	Submit(task *Task) error

	// Get a consistent projection of queued, running and finished tasks.
	Snapshot() (Snapshot, error)

	// Get scheduler statistics.
	Statistics() (Statistics, error)

	// Run scheduler until the context is cancelled.
	Run(ctx context.Context)

	// Channel closed when the scheduler has stopped.
	Done() <-chan struct{}
}

// Receives completion reports from workers.
type Reporter interface {
	// Report the outcome of a task previously started on the worker.
	ReportCompletion(workerID int, taskID string, outcome Outcome)
}

// Runs the command of a task.
type Executor interface {
	// Execute the task, writing its output to stdout and stderr.
	// Returns the exit code of the command.
	Execute(ctx context.Context, task *Task, stdout, stderr io.Writer) (int, error)
}

// Telemetry hooks. Called from the scheduler goroutine and must not block.
type Observer interface {
	TaskQueued(task TaskSummary)
	TaskStarted(task TaskSummary)
	TaskFinished(task TaskSummary)

	// A completion report was rejected.
	DispatchAnomaly(workerID int, taskID string)
}
