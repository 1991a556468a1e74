package scheduler

// Bounded ring of finished tasks.
// When full, adding a task evicts the oldest one.
type history struct {
	tasks []*Task
	next  int
	count int
}

func newHistory(size int) *history {
	if size < 0 {
		size = 0
	}
	return &history{tasks: make([]*Task, size)}
}

// Add a finished task. Returns the evicted task, if any.
func (h *history) push(task *Task) *Task {
	if len(h.tasks) == 0 {
		return task
	}

	evicted := h.tasks[h.next]
	h.tasks[h.next] = task
	h.next = (h.next + 1) % len(h.tasks)
	if h.count < len(h.tasks) {
		h.count++
	}
	return evicted
}

func (h *history) len() int {
	return h.count
}

// Returns summaries of the retained tasks, most recent first.
func (h *history) summaries() []TaskSummary {
	summaries := make([]TaskSummary, 0, h.count)
	for i := 1; i <= h.count; i++ {
		index := (h.next - i + len(h.tasks)) % len(h.tasks)
		summaries = append(summaries, h.tasks[index].Summary())
	}
	return summaries
}
