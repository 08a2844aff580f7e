package tracing

import (
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/simplebus/datarecording"
	"github.com/sarchlab/simplebus/wishbone"
)

// TaskTable is the table a DBTracer writes into.
const TaskTable = "trace"

// TaskEntry is a row of the task table. Bus values are kept as hex strings
// because SQLite integers are signed.
type TaskEntry struct {
	ID         string
	Kind       string
	What       string
	Location   string
	Address    string
	Data       string
	Sel        uint8
	StartCycle uint64
	EndCycle   uint64
}

// DBTracer writes completed tasks into a data recorder.
type DBTracer struct {
	mu       sync.Mutex
	clock    CycleTeller
	recorder datarecording.DataRecorder
	inflight map[string]Task
}

// NewDBTracer creates the task table in the recorder.
func NewDBTracer(
	recorder datarecording.DataRecorder,
	clock CycleTeller,
) (*DBTracer, error) {
	if err := recorder.CreateTable(TaskTable, TaskEntry{}); err != nil {
		return nil, err
	}

	return &DBTracer{
		clock:    clock,
		recorder: recorder,
		inflight: make(map[string]Task),
	}, nil
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	task.StartCycle = t.clock.Cycle()
	t.inflight[task.ID] = task
}

// EndTask writes the task. Tasks that were never started are dropped.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	original, ok := t.inflight[task.ID]
	if !ok {
		return
	}

	delete(t.inflight, task.ID)

	entry := TaskEntry{
		ID:         original.ID,
		Kind:       original.Kind,
		What:       original.What,
		Location:   original.Where,
		StartCycle: original.StartCycle,
		EndCycle:   t.clock.Cycle(),
	}

	if tr, ok := task.Detail.(*wishbone.Transaction); ok {
		entry.Address = fmt.Sprintf("%#x", tr.Address)
		entry.Data = fmt.Sprintf("%#x", tr.Data)
		entry.Sel = tr.Sel
	}

	if err := t.recorder.InsertData(TaskTable, entry); err != nil {
		log.Panic(err)
	}
}

// NumInflight returns the number of started tasks that have not ended.
func (t *DBTracer) NumInflight() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.inflight)
}
