package scheduler

import (
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/srand/hookd/pkg/protocol"
)

// Outcome of a task execution, as reported by a worker.
type Outcome struct {
	// True if the command ran to completion with exit code zero.
	Success bool

	// Exit code of the command, or utils.ExitCodeUnknown.
	ExitCode int

	// Tail of the captured output.
	Output string

	// Error detail for failed tasks.
	Error string
}

// Result of a finished task.
type Result struct {
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output"`
	Error    string `json:"error,omitempty"`
}

type TaskOption func(*Task)

// Abort the task if it has not finished within the given duration.
func WithTimeout(timeout time.Duration) TaskOption {
	return func(t *Task) {
		t.timeout = timeout
	}
}

// A task to be executed by a worker.
//
// Identity, name, parameters and timeout never change after creation.
// The status record is only ever written by the coordinator.
type Task struct {
	sync.RWMutex

	id         string
	name       string
	parameters map[string]string
	timeout    time.Duration

	// Set once the task has been handed to a scheduler.
	submitted atomic.Bool

	status     protocol.TaskStatus
	worker     int
	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
	result     *Result
}

// Create a new queued task.
func NewTask(name string, parameters map[string]string, opts ...TaskOption) *Task {
	if parameters == nil {
		parameters = map[string]string{}
	}

	task := &Task{
		id:         uuid.NewString(),
		name:       name,
		parameters: maps.Clone(parameters),
		status:     protocol.TaskStatus_TASK_QUEUED,
		worker:     -1,
		createdAt:  time.Now(),
	}

	for _, opt := range opts {
		opt(task)
	}

	return task
}

func (t *Task) Id() string {
	return t.id
}

// Returns the name of the webhook that created the task.
func (t *Task) Name() string {
	return t.name
}

// Returns a copy of the task parameters.
func (t *Task) Parameters() map[string]string {
	return maps.Clone(t.parameters)
}

func (t *Task) Timeout() time.Duration {
	return t.timeout
}

func (t *Task) Status() protocol.TaskStatus {
	t.RLock()
	defer t.RUnlock()
	return t.status
}

func (t *Task) CreatedAt() time.Time {
	return t.createdAt
}

// Move the task to running on the given worker.
func (t *Task) start(worker int, now time.Time) error {
	t.Lock()
	defer t.Unlock()

	if err := t.transitionNoLock(protocol.TaskStatus_TASK_RUNNING); err != nil {
		return err
	}

	t.worker = worker
	t.startedAt = now
	return nil
}

// Move the task to its terminal status.
func (t *Task) finish(outcome Outcome, now time.Time) error {
	status := protocol.TaskStatus_TASK_FAILED
	if outcome.Success {
		status = protocol.TaskStatus_TASK_SUCCEEDED
	}

	t.Lock()
	defer t.Unlock()

	if err := t.transitionNoLock(status); err != nil {
		return err
	}

	t.finishedAt = now
	t.result = &Result{
		ExitCode: outcome.ExitCode,
		Output:   outcome.Output,
		Error:    outcome.Error,
	}
	return nil
}

func (t *Task) transitionNoLock(status protocol.TaskStatus) error {
	if !t.status.CanTransitionTo(status) {
		return fmt.Errorf("invalid transition for task %s: %s -> %s", t.id, t.status, status)
	}
	t.status = status
	return nil
}

// Returns a copy of the task suitable for the queue projection.
func (t *Task) Summary() TaskSummary {
	t.RLock()
	defer t.RUnlock()

	summary := TaskSummary{
		ID:         t.id,
		Name:       t.name,
		Parameters: maps.Clone(t.parameters),
		Status:     t.status,
		CreatedAt:  t.createdAt,
	}

	if t.status != protocol.TaskStatus_TASK_QUEUED {
		worker := t.worker
		startedAt := t.startedAt
		summary.Worker = &worker
		summary.StartedAt = &startedAt
	}

	if t.status.IsCompleted() {
		finishedAt := t.finishedAt
		result := *t.result
		summary.FinishedAt = &finishedAt
		summary.Result = &result
	}

	return summary
}
