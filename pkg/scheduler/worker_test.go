package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/srand/hookd/pkg/protocol"
	"github.com/srand/hookd/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	workerID int
	taskID   string
	outcome  Outcome
}

type chanReporter chan report

func (r chanReporter) ReportCompletion(workerID int, taskID string, outcome Outcome) {
	r <- report{workerID: workerID, taskID: taskID, outcome: outcome}
}

type memoryOutput struct {
	mu      sync.Mutex
	streams map[protocol.LogStream]*bytes.Buffer
	closed  bool
}

type memoryStream struct {
	output *memoryOutput
	stream protocol.LogStream
}

func (s *memoryStream) Write(p []byte) (int, error) {
	s.output.mu.Lock()
	defer s.output.mu.Unlock()
	return s.output.streams[s.stream].Write(p)
}

func (o *memoryOutput) Stream(stream protocol.LogStream) io.Writer {
	return &memoryStream{output: o, stream: stream}
}

func (o *memoryOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *memoryOutput) String(stream protocol.LogStream) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.streams[stream].String()
}

type memoryOutputStore struct {
	mu      sync.Mutex
	outputs map[string]*memoryOutput
}

func (s *memoryOutputStore) OpenOutput(taskID string) (protocol.OutputWriter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	output := &memoryOutput{streams: map[protocol.LogStream]*bytes.Buffer{
		protocol.LogStream_STDOUT: {},
		protocol.LogStream_STDERR: {},
		protocol.LogStream_SYSTEM: {},
	}}
	s.outputs[taskID] = output
	return output, nil
}

func receive(t *testing.T, reports chanReporter) report {
	select {
	case r := <-reports:
		return r
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no completion report")
	}
	return report{}
}

func TestWorkerRefusesWhileBusy(t *testing.T) {
	gates := newGates("held")
	worker := NewWorker(4, gatedExecutor(gates))
	defer worker.Close()

	reports := make(chanReporter, 1)
	task := NewTask("held", nil)

	assert.Equal(t, 4, worker.Id())
	assert.NoError(t, worker.Start(task, reports))
	assert.True(t, worker.Busy())
	assert.ErrorIs(t, worker.Start(NewTask("other", nil), reports), utils.ErrWorkerBusy)

	close(gates["held"])
	r := receive(t, reports)
	assert.Equal(t, 4, r.workerID)
	assert.Equal(t, task.Id(), r.taskID)
	assert.True(t, r.outcome.Success)
	assert.False(t, worker.Busy())

	assert.NoError(t, worker.Start(NewTask("again", nil), reports))
}

func TestWorkerRejectsInvalidStart(t *testing.T) {
	worker := NewWorker(0, echoExecutor)
	defer worker.Close()

	assert.ErrorIs(t, worker.Start(nil, make(chanReporter)), utils.ErrBadRequest)
	assert.ErrorIs(t, worker.Start(NewTask("x", nil), nil), utils.ErrBadRequest)
}

func TestClosedWorker(t *testing.T) {
	worker := NewWorker(0, echoExecutor)
	worker.Close()

	assert.ErrorIs(t, worker.Start(NewTask("late", nil), make(chanReporter, 1)), utils.ErrStopped)
}

func TestWorkerCopiesOutputToStore(t *testing.T) {
	store := &memoryOutputStore{outputs: map[string]*memoryOutput{}}
	executor := funcExecutor(func(ctx context.Context, task *Task, stdout, stderr io.Writer) (int, error) {
		fmt.Fprintln(stdout, "out")
		fmt.Fprintln(stderr, "err")
		return 0, nil
	})

	worker := NewWorker(0, executor, WithOutputStore(store))
	defer worker.Close()

	reports := make(chanReporter, 1)
	task := NewTask("logged", nil)
	assert.NoError(t, worker.Start(task, reports))

	r := receive(t, reports)
	assert.True(t, r.outcome.Success)
	assert.Equal(t, "out\nerr\n", r.outcome.Output)

	store.mu.Lock()
	output := store.outputs[task.Id()]
	store.mu.Unlock()

	require.NotNil(t, output)
	assert.Equal(t, "out\n", output.String(protocol.LogStream_STDOUT))
	assert.Equal(t, "err\n", output.String(protocol.LogStream_STDERR))
	assert.Equal(t, "task succeeded\n", output.String(protocol.LogStream_SYSTEM))
	assert.True(t, output.closed)
}

func TestWorkerOutputLimit(t *testing.T) {
	executor := funcExecutor(func(ctx context.Context, task *Task, stdout, stderr io.Writer) (int, error) {
		fmt.Fprint(stdout, "0123456789")
		return 0, nil
	})

	worker := NewWorker(0, executor, WithOutputLimit(4))
	defer worker.Close()

	reports := make(chanReporter, 1)
	assert.NoError(t, worker.Start(NewTask("chatty", nil), reports))
	assert.Equal(t, "6789", receive(t, reports).outcome.Output)
}

func TestNonZeroExitWithoutError(t *testing.T) {
	executor := funcExecutor(func(ctx context.Context, task *Task, stdout, stderr io.Writer) (int, error) {
		return 2, nil
	})

	worker := NewWorker(0, executor)
	defer worker.Close()

	reports := make(chanReporter, 1)
	assert.NoError(t, worker.Start(NewTask("odd", nil), reports))

	outcome := receive(t, reports).outcome
	assert.False(t, outcome.Success)
	assert.Equal(t, 2, outcome.ExitCode)
	assert.Equal(t, "exit code 2", outcome.Error)
}

func TestTailBuffer(t *testing.T) {
	buffer := newTailBuffer(5)
	buffer.Write([]byte("abc"))
	buffer.Write([]byte("defg"))
	assert.Equal(t, "cdefg", buffer.String())

	unbounded := newTailBuffer(0)
	unbounded.Write([]byte("abc"))
	unbounded.Write([]byte("defg"))
	assert.Equal(t, "abcdefg", unbounded.String())
}
