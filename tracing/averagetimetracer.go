package tracing

import "sync"

// AverageTimeTracer computes the average number of cycles the tasks accepted
// by its filter take.
type AverageTimeTracer struct {
	clock         CycleTeller
	filter        TaskFilter
	lock          sync.Mutex
	averageCycles float64
	maxCycles     uint64
	inflightTasks map[string]Task
	taskCount     uint64
}

// NewAverageTimeTracer creates a new AverageTimeTracer. A nil filter accepts
// every task.
func NewAverageTimeTracer(
	clock CycleTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	if filter == nil {
		filter = func(Task) bool { return true }
	}

	return &AverageTimeTracer{
		clock:         clock,
		filter:        filter,
		inflightTasks: make(map[string]Task),
	}
}

// AverageCycles returns the average latency of the finished tasks.
func (t *AverageTimeTracer) AverageCycles() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.averageCycles
}

// MaxCycles returns the longest latency seen.
func (t *AverageTimeTracer) MaxCycles() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.maxCycles
}

// TotalCount returns the number of finished tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// StartTask records the task start cycle.
func (t *AverageTimeTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	task.StartCycle = t.clock.Cycle()

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// EndTask records the end of the task.
func (t *AverageTimeTracer) EndTask(task Task) {
	end := t.clock.Cycle()

	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	taskCycles := end - original.StartCycle
	t.averageCycles = (t.averageCycles*float64(t.taskCount) +
		float64(taskCycles)) / float64(t.taskCount+1)
	t.maxCycles = max(t.maxCycles, taskCycles)

	delete(t.inflightTasks, task.ID)
	t.taskCount++
}
