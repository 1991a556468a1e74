package protocol

import (
	"encoding/json"
	"fmt"
)

// Lifecycle state of a webhook task.
// A task only ever moves forward: queued, running, then succeeded or failed.
type TaskStatus int

const (
	TaskStatus_TASK_QUEUED TaskStatus = iota
	TaskStatus_TASK_RUNNING
	TaskStatus_TASK_SUCCEEDED
	TaskStatus_TASK_FAILED
)

var taskStatusNames = map[TaskStatus]string{
	TaskStatus_TASK_QUEUED:    "queued",
	TaskStatus_TASK_RUNNING:   "running",
	TaskStatus_TASK_SUCCEEDED: "succeeded",
	TaskStatus_TASK_FAILED:    "failed",
}

func (status TaskStatus) String() string {
	if name, ok := taskStatusNames[status]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(status))
}

// ParseTaskStatus is the inverse of String.
func ParseTaskStatus(name string) (TaskStatus, error) {
	for status, statusName := range taskStatusNames {
		if statusName == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("invalid task status: %q", name)
}

// Should return true if the task is no longer in progress
func (status TaskStatus) IsCompleted() bool {
	switch status {
	case TaskStatus_TASK_QUEUED, TaskStatus_TASK_RUNNING:
		return false
	default:
		return true
	}
}

// CanTransitionTo reports whether moving from status to next is a legal step.
// Steps are never skipped and never reverted.
func (status TaskStatus) CanTransitionTo(next TaskStatus) bool {
	switch status {
	case TaskStatus_TASK_QUEUED:
		return next == TaskStatus_TASK_RUNNING
	case TaskStatus_TASK_RUNNING:
		return next == TaskStatus_TASK_SUCCEEDED || next == TaskStatus_TASK_FAILED
	default:
		return false
	}
}

func (status TaskStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(status.String())
}

func (status *TaskStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	parsed, err := ParseTaskStatus(name)
	if err != nil {
		return err
	}
	*status = parsed
	return nil
}
