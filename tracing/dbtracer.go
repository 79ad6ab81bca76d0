package tracing

import (
	"fmt"
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/idma/datarecording"
	"github.com/sarchlab/idma/sim/timing"
)

// TraceTable is the table a DBTracer fills.
const TraceTable = "trace"

// TaskEntry is one finished task in the trace table.
type TaskEntry struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Location  string
	StartTime uint64
	EndTime   uint64
}

func entryOf(task Task) TaskEntry {
	return TaskEntry{
		ID:        task.ID,
		ParentID:  task.ParentID,
		Kind:      task.Kind,
		What:      task.What,
		Location:  task.Location,
		StartTime: uint64(task.StartTime),
		EndTime:   uint64(task.EndTime),
	}
}

// DBTracer writes every task to a DataRecorder once it ends. Tasks still
// open at exit are written with the exit time as their end.
type DBTracer struct {
	timeTeller timing.TimeTeller
	backend    datarecording.DataRecorder

	mu   sync.Mutex
	open map[string]Task
}

// NewDBTracer creates the trace table in dataRecorder and returns a tracer
// that fills it.
func NewDBTracer(
	timeTeller timing.TimeTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(TraceTable, TaskEntry{})

	t := &DBTracer{
		timeTeller: timeTeller,
		backend:    dataRecorder,
		open:       make(map[string]Task),
	}
	atexit.Register(t.Terminate)

	return t
}

func mustBeComplete(task Task) {
	for name, v := range map[string]string{
		"ID":       task.ID,
		"Kind":     task.Kind,
		"What":     task.What,
		"Location": task.Location,
	} {
		if v == "" {
			panic(fmt.Sprintf("tracing: task %s is not set", name))
		}
	}
}

// StartTask implements Tracer. The task must carry its ID, kind, what and
// location.
func (t *DBTracer) StartTask(task Task) {
	mustBeComplete(task)

	task.StartTime = t.timeTeller.CurrentTime()

	t.mu.Lock()
	t.open[task.ID] = task
	t.mu.Unlock()
}

// EndTask implements Tracer.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	started, ok := t.open[task.ID]
	if !ok {
		return
	}

	delete(t.open, task.ID)

	started.EndTime = t.timeTeller.CurrentTime()
	t.backend.InsertData(TraceTable, entryOf(started))
}

// Terminate ends the open tasks now and flushes the backend.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.timeTeller.CurrentTime()
	for id, task := range t.open {
		task.EndTime = now
		t.backend.InsertData(TraceTable, entryOf(task))
		delete(t.open, id)
	}

	t.backend.Flush()
}
