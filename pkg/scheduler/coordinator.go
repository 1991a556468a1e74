package scheduler

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/utils"
)

// Default number of finished tasks kept for the projection.
const DefaultHistorySize = 100

// Capacity of the coordinator mailbox.
const mailboxSize = 1024

type CoordinatorOption func(*Coordinator)

// Keep at most size finished tasks.
func WithHistorySize(size int) CoordinatorOption {
	return func(c *Coordinator) {
		c.history = newHistory(size)
	}
}

// Identify the coordinator in snapshots.
func WithInstance(instance string) CoordinatorOption {
	return func(c *Coordinator) {
		c.instance = instance
	}
}

// Install a telemetry observer.
func WithObserver(observer Observer) CoordinatorOption {
	return func(c *Coordinator) {
		c.observers = append(c.observers, observer)
	}
}

// A message processed by the coordinator goroutine.
type message interface {
	apply(c *Coordinator)
}

type submitMessage struct {
	task *Task
}

type completionMessage struct {
	workerID int
	taskID   string
	outcome  Outcome
}

type snapshotMessage struct {
	reply chan Snapshot
}

type statisticsMessage struct {
	reply chan Statistics
}

// A worker slot as seen by the coordinator.
type slot struct {
	worker Worker

	// Task currently executing, or nil.
	task *Task

	// Set when the worker refused a start request.
	// Broken slots are not dispatched to again.
	broken bool
}

// FIFO scheduler owning all task state.
//
// State is only ever touched by the goroutine executing Run.
// Other goroutines communicate with it through the mailbox.
type Coordinator struct {
	mailbox  chan message
	stopped  chan struct{}
	stopOnce sync.Once

	slots    []*slot
	pending  *list.List
	inFlight map[string]int
	history  *history
	instance string

	observers []Observer

	numSucceeded int64
	numFailed    int64
	numAnomalies int64

	now func() time.Time
}

// Create a coordinator dispatching to the given workers.
// Worker ids must match their position in the slice.
func NewCoordinator(workers []Worker, opts ...CoordinatorOption) (*Coordinator, error) {
	if len(workers) == 0 {
		return nil, fmt.Errorf("at least one worker is required")
	}

	c := &Coordinator{
		mailbox:  make(chan message, mailboxSize),
		stopped:  make(chan struct{}),
		pending:  list.New(),
		inFlight: map[string]int{},
		history:  newHistory(DefaultHistorySize),
		now:      time.Now,
	}

	for i, worker := range workers {
		if worker.Id() != i {
			return nil, fmt.Errorf("worker %d has unexpected id %d", i, worker.Id())
		}
		c.slots = append(c.slots, &slot{worker: worker})
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Run the coordinator until the context is cancelled.
// All workers are closed when the coordinator stops.
func (c *Coordinator) Run(ctx context.Context) {
	log.Info("starting")
	defer c.stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping")
			return

		case msg := <-c.mailbox:
			msg.apply(c)
		}
	}
}

func (c *Coordinator) stop() {
	c.stopOnce.Do(func() {
		close(c.stopped)

		for _, slot := range c.slots {
			slot.worker.Close()
		}

		if c.pending.Len() > 0 {
			log.Infof("dropping %d queued task(s)", c.pending.Len())
		}
	})
}

func (c *Coordinator) Done() <-chan struct{} {
	return c.stopped
}

func (c *Coordinator) send(msg message) error {
	select {
	case <-c.stopped:
		return utils.ErrStopped
	default:
	}

	select {
	case <-c.stopped:
		return utils.ErrStopped
	case c.mailbox <- msg:
		return nil
	}
}

// Enqueue a task. The task must be newly created.
func (c *Coordinator) Submit(task *Task) error {
	if task == nil {
		return utils.ErrBadRequest
	}

	if !task.submitted.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: task %s already submitted", utils.ErrBadRequest, task.Id())
	}

	if err := c.send(&submitMessage{task: task}); err != nil {
		return err
	}

	return nil
}

// Deliver the outcome of a task. Called by workers.
func (c *Coordinator) ReportCompletion(workerID int, taskID string, outcome Outcome) {
	if err := c.send(&completionMessage{workerID: workerID, taskID: taskID, outcome: outcome}); err != nil {
		log.Debugf("del - completion - coordinator stopped - task: %s", taskID)
	}
}

func (c *Coordinator) Snapshot() (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := c.send(&snapshotMessage{reply: reply}); err != nil {
		return Snapshot{}, err
	}

	select {
	case snapshot := <-reply:
		return snapshot, nil
	case <-c.stopped:
		return Snapshot{}, utils.ErrStopped
	}
}

func (c *Coordinator) Statistics() (Statistics, error) {
	reply := make(chan Statistics, 1)
	if err := c.send(&statisticsMessage{reply: reply}); err != nil {
		return Statistics{}, err
	}

	select {
	case stats := <-reply:
		return stats, nil
	case <-c.stopped:
		return Statistics{}, utils.ErrStopped
	}
}

func (m *submitMessage) apply(c *Coordinator) {
	log.Infof("new - task - id: %s, name: %s", m.task.Id(), m.task.Name())

	c.pending.PushBack(m.task)
	c.notify(func(o Observer) { o.TaskQueued(m.task.Summary()) })
	c.tryDispatch()
}

func (m *completionMessage) apply(c *Coordinator) {
	slotID, ok := c.inFlight[m.taskID]
	if !ok || slotID != m.workerID {
		c.numAnomalies++
		log.Warnf("anomaly - completion - unexpected report - worker: %d, task: %s", m.workerID, m.taskID)
		c.notify(func(o Observer) { o.DispatchAnomaly(m.workerID, m.taskID) })
		return
	}

	slot := c.slots[slotID]
	task := slot.task
	slot.task = nil
	delete(c.inFlight, m.taskID)

	if err := task.finish(m.outcome, c.now()); err != nil {
		log.Warn("anomaly - completion -", err)
	}

	if m.outcome.Success {
		c.numSucceeded++
		log.Infof("fin - task - id: %s, name: %s, worker: %d", task.Id(), task.Name(), slotID)
	} else {
		c.numFailed++
		log.Infof("err - task - id: %s, name: %s, worker: %d: %s", task.Id(), task.Name(), slotID, m.outcome.Error)
	}

	c.history.push(task)
	c.notify(func(o Observer) { o.TaskFinished(task.Summary()) })
	c.tryDispatch()
}

func (m *snapshotMessage) apply(c *Coordinator) {
	m.reply <- c.snapshot()
}

func (m *statisticsMessage) apply(c *Coordinator) {
	m.reply <- c.statistics()
}

// Start queued tasks on idle workers, oldest task first,
// lowest worker id first.
func (c *Coordinator) tryDispatch() {
	for c.pending.Len() > 0 {
		slot := c.idleSlot()
		if slot == nil {
			return
		}

		elem := c.pending.Front()
		task := elem.Value.(*Task)
		c.pending.Remove(elem)

		id := slot.worker.Id()

		if err := slot.worker.Start(task, c); err != nil {
			log.Errorf("err - dispatch - worker refused task - worker: %d, task: %s: %v", id, task.Id(), err)
			slot.broken = true
			c.pending.PushFront(task)
			continue
		}

		if err := task.start(id, c.now()); err != nil {
			log.Warn("anomaly - dispatch -", err)
		}

		slot.task = task
		c.inFlight[task.Id()] = id

		log.Debugf("run - task - id: %s, name: %s, worker: %d", task.Id(), task.Name(), id)
		c.notify(func(o Observer) { o.TaskStarted(task.Summary()) })
	}
}

// Returns the idle slot with the lowest id, or nil.
func (c *Coordinator) idleSlot() *slot {
	for _, slot := range c.slots {
		if slot.task == nil && !slot.broken {
			return slot
		}
	}
	return nil
}

func (c *Coordinator) notify(fn func(Observer)) {
	for _, observer := range c.observers {
		fn(observer)
	}
}

func (c *Coordinator) snapshot() Snapshot {
	snapshot := Snapshot{
		Instance:      c.instance,
		Workers:       len(c.slots),
		Queued:        make([]TaskSummary, 0, c.pending.Len()),
		Running:       make([]TaskSummary, 0, len(c.inFlight)),
		RecentHistory: c.history.summaries(),
	}

	for elem := c.pending.Front(); elem != nil; elem = elem.Next() {
		snapshot.Queued = append(snapshot.Queued, elem.Value.(*Task).Summary())
	}

	for _, slot := range c.slots {
		if slot.task != nil {
			snapshot.Running = append(snapshot.Running, slot.task.Summary())
		}
	}

	return snapshot
}

func (c *Coordinator) statistics() Statistics {
	return Statistics{
		Workers:        int64(len(c.slots)),
		BusyWorkers:    int64(len(c.inFlight)),
		QueuedTasks:    int64(c.pending.Len()),
		RunningTasks:   int64(len(c.inFlight)),
		SucceededTasks: c.numSucceeded,
		FailedTasks:    c.numFailed,
		CompletedTasks: c.numSucceeded + c.numFailed,
		Anomalies:      c.numAnomalies,
	}
}
