package scheduler

import (
	"testing"
	"time"

	"github.com/srand/hookd/pkg/protocol"
	"github.com/stretchr/testify/assert"
)

func TestNewTask(t *testing.T) {
	params := map[string]string{"ref": "main"}
	task := NewTask("deploy", params, WithTimeout(time.Minute))
	params["ref"] = "changed"

	assert.NotEmpty(t, task.Id())
	assert.Equal(t, "deploy", task.Name())
	assert.Equal(t, "main", task.Parameters()["ref"])
	assert.Equal(t, time.Minute, task.Timeout())
	assert.Equal(t, protocol.TaskStatus_TASK_QUEUED, task.Status())
	assert.NotEqual(t, task.Id(), NewTask("deploy", nil).Id())

	task.Parameters()["ref"] = "mutated"
	assert.Equal(t, "main", task.Parameters()["ref"])
}

func TestTaskTransitions(t *testing.T) {
	task := NewTask("build", nil)
	now := time.Now()

	assert.Error(t, task.finish(Outcome{Success: true}, now))

	assert.NoError(t, task.start(2, now))
	assert.Equal(t, protocol.TaskStatus_TASK_RUNNING, task.Status())
	assert.Error(t, task.start(3, now))

	assert.NoError(t, task.finish(Outcome{ExitCode: 1, Error: "failed"}, now))
	assert.Equal(t, protocol.TaskStatus_TASK_FAILED, task.Status())
	assert.Error(t, task.finish(Outcome{Success: true}, now))

	summary := task.Summary()
	assert.Equal(t, 2, *summary.Worker)
	assert.Equal(t, 1, summary.Result.ExitCode)
	assert.Equal(t, "failed", summary.Result.Error)
}

func TestQueuedSummary(t *testing.T) {
	summary := NewTask("build", nil).Summary()

	assert.NotNil(t, summary.Parameters)
	assert.Nil(t, summary.Worker)
	assert.Nil(t, summary.StartedAt)
	assert.Nil(t, summary.FinishedAt)
	assert.Nil(t, summary.Result)
}

func TestHistoryRing(t *testing.T) {
	h := newHistory(2)
	a, b, c := NewTask("a", nil), NewTask("b", nil), NewTask("c", nil)

	assert.Empty(t, h.summaries())
	assert.Nil(t, h.push(a))
	assert.Nil(t, h.push(b))
	assert.Equal(t, a, h.push(c))
	assert.Equal(t, 2, h.len())
	assert.Equal(t, []string{"c", "b"}, names(h.summaries()))

	empty := newHistory(0)
	assert.Equal(t, a, empty.push(a))
	assert.Equal(t, 0, empty.len())
	assert.NotNil(t, empty.summaries())
}
