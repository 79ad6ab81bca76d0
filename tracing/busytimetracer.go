package tracing

import (
	"sync"

	"github.com/sarchlab/idma/sim/timing"
)

// BusyTimeTracer measures how long at least one matching task is in flight.
// Overlapping tasks count once.
type BusyTimeTracer struct {
	timeTeller timing.TimeTeller
	filter     TaskFilter

	mu        sync.Mutex
	inflight  map[string]struct{}
	busySince timing.VTimeInCycle
	busyTime  timing.VTimeInCycle
}

// NewBusyTimeTracer creates a BusyTimeTracer. A nil filter accepts every
// task.
func NewBusyTimeTracer(
	timeTeller timing.TimeTeller,
	filter TaskFilter,
) *BusyTimeTracer {
	return &BusyTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		inflight:   make(map[string]struct{}),
	}
}

// BusyTime returns the busy cycles of the tasks that have ended.
func (t *BusyTimeTracer) BusyTime() timing.VTimeInCycle {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.busyTime
}

// TerminateAllTasks ends every task in flight at now.
func (t *BusyTimeTracer) TerminateAllTasks(now timing.VTimeInCycle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.inflight) > 0 {
		t.busyTime += now - t.busySince
	}

	t.inflight = make(map[string]struct{})
}

// StartTask implements Tracer.
func (t *BusyTimeTracer) StartTask(task Task) {
	now := t.timeTeller.CurrentTime()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.inflight) == 0 {
		t.busySince = now
	}

	t.inflight[task.ID] = struct{}{}
}

// EndTask implements Tracer.
func (t *BusyTimeTracer) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.inflight[task.ID]; !ok {
		return
	}

	delete(t.inflight, task.ID)

	if len(t.inflight) == 0 {
		t.busyTime += now - t.busySince
	}
}
