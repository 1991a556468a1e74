package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync/atomic"

	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/protocol"
	"github.com/srand/hookd/pkg/utils"
)

// Default number of output bytes kept in a task result.
const DefaultOutputLimit = 64 * 1024

// A worker slot that executes one task at a time.
type Worker interface {
	// Slot identifier, equal to the index of the worker in the pool.
	Id() int

	// Hand a task to the worker. The outcome is later delivered
	// to the reporter. Returns utils.ErrWorkerBusy if a task is
	// already executing.
	Start(task *Task, reporter Reporter) error

	// True while a task is executing.
	Busy() bool

	// Stop the worker, aborting any executing task.
	Close()
}

// Persists the output of tasks.
type OutputStore interface {
	OpenOutput(taskID string) (protocol.OutputWriter, error)
}

type WorkerOption func(*poolWorker)

// Copy task output to the given store.
func WithOutputStore(store OutputStore) WorkerOption {
	return func(w *poolWorker) {
		w.outputs = store
	}
}

// Limit the number of output bytes kept in the task result.
func WithOutputLimit(limit int) WorkerOption {
	return func(w *poolWorker) {
		w.outputLimit = limit
	}
}

type assignment struct {
	task     *Task
	reporter Reporter
}

// A long-lived worker goroutine.
type poolWorker struct {
	id          int
	executor    Executor
	outputs     OutputStore
	outputLimit int

	busy   atomic.Bool
	starts chan assignment

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Create and start a new worker.
func NewWorker(id int, executor Executor, opts ...WorkerOption) *poolWorker {
	ctx, cancel := context.WithCancel(context.Background())

	worker := &poolWorker{
		id:          id,
		executor:    executor,
		outputLimit: DefaultOutputLimit,
		starts:      make(chan assignment, 1),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(worker)
	}

	go worker.run()
	return worker
}

// Create a fixed pool of workers sharing the same executor.
func NewWorkerPool(size int, executor Executor, opts ...WorkerOption) []Worker {
	workers := make([]Worker, 0, size)
	for i := 0; i < size; i++ {
		workers = append(workers, NewWorker(i, executor, opts...))
	}
	return workers
}

func (w *poolWorker) Id() int {
	return w.id
}

func (w *poolWorker) Busy() bool {
	return w.busy.Load()
}

func (w *poolWorker) Start(task *Task, reporter Reporter) error {
	if task == nil || reporter == nil {
		return utils.ErrBadRequest
	}

	select {
	case <-w.ctx.Done():
		return utils.ErrStopped
	default:
	}

	if !w.busy.CompareAndSwap(false, true) {
		return utils.ErrWorkerBusy
	}

	// The busy flag guarantees the channel has room.
	w.starts <- assignment{task: task, reporter: reporter}
	return nil
}

func (w *poolWorker) Close() {
	w.cancel()
	<-w.done
}

func (w *poolWorker) run() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			log.Tracef("del - worker - id: %d", w.id)
			return

		case a := <-w.starts:
			w.execute(a)
		}
	}
}

func (w *poolWorker) execute(a assignment) {
	outcome := w.runTask(a.task)

	// Release the slot before reporting so that the scheduler
	// may dispatch the next task immediately.
	w.busy.Store(false)
	a.reporter.ReportCompletion(w.id, a.task.Id(), outcome)
}

func (w *poolWorker) runTask(task *Task) (outcome Outcome) {
	log.Debugf("exe - task - id: %s, name: %s, worker: %d", task.Id(), task.Name(), w.id)

	tail := newTailBuffer(w.outputLimit)
	var stdout, stderr io.Writer = tail, tail

	var output protocol.OutputWriter
	if w.outputs != nil {
		var err error
		output, err = w.outputs.OpenOutput(task.Id())
		if err != nil {
			log.Warnf("err - task - failed to open output - id: %s: %v", task.Id(), err)
			output = nil
		} else {
			stdout = io.MultiWriter(tail, output.Stream(protocol.LogStream_STDOUT))
			stderr = io.MultiWriter(tail, output.Stream(protocol.LogStream_STDERR))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("err - worker - crashed - id: %d, task: %s: %v", w.id, task.Id(), r)
			log.Debug(string(debug.Stack()))
			outcome = Outcome{
				ExitCode: utils.ExitCodeUnknown,
				Output:   tail.String(),
				Error:    fmt.Sprintf("worker crashed: %v", r),
			}
		}

		if output != nil {
			fmt.Fprintln(output.Stream(protocol.LogStream_SYSTEM), outcome.describe())
			if err := output.Close(); err != nil {
				log.Warnf("err - task - failed to close output - id: %s: %v", task.Id(), err)
			}
		}
	}()

	ctx := w.ctx
	if task.Timeout() > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout())
		defer cancel()
	}

	exitCode, err := w.executor.Execute(ctx, task, stdout, stderr)

	outcome = Outcome{ExitCode: exitCode, Output: tail.String()}
	switch {
	case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		outcome.Error = fmt.Sprintf("timed out after %s", task.Timeout())
	case err != nil && w.ctx.Err() != nil:
		outcome.Error = "worker stopped"
	case err != nil:
		outcome.Error = err.Error()
		log.DebugError(err)

		var detailed utils.DetailedError
		if output != nil && errors.As(err, &detailed) {
			fmt.Fprintln(output.Stream(protocol.LogStream_SYSTEM), "command:", detailed.Details())
		}
	case exitCode != 0:
		outcome.Error = fmt.Sprintf("exit code %d", exitCode)
	default:
		outcome.Success = true
	}

	return outcome
}

// One-line description of the outcome for the task log.
func (o Outcome) describe() string {
	if o.Success {
		return "task succeeded"
	}
	return fmt.Sprintf("task failed: %s", o.Error)
}
