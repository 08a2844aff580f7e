// Package tracing records what happens on the buses of a bridge.
package tracing

// A Task is a unit of work that starts and ends at a cycle, such as a
// transaction served by the host.
type Task struct {
	ID         string
	Kind       string
	What       string
	Where      string
	StartCycle uint64
	EndCycle   uint64
	Detail     any
}

// TaskFilter tells if a task is interesting.
type TaskFilter func(t Task) bool

// A Tracer collects tasks.
type Tracer interface {
	StartTask(task Task)
	EndTask(task Task)
}

// A CycleTeller tells the current cycle, usually a clock domain.
type CycleTeller interface {
	Cycle() uint64
}
