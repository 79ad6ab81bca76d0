package tracing

import (
	"sync"

	"github.com/sarchlab/idma/sim/timing"
)

// AverageTimeTracer measures the mean and the longest duration of the tasks
// that pass its filter.
type AverageTimeTracer struct {
	timeTeller timing.TimeTeller
	filter     TaskFilter

	mu      sync.Mutex
	started map[string]timing.VTimeInCycle
	count   uint64
	total   timing.VTimeInCycle
	longest timing.VTimeInCycle
}

// NewAverageTimeTracer creates an AverageTimeTracer. A nil filter accepts
// every task.
func NewAverageTimeTracer(
	timeTeller timing.TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	return &AverageTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		started:    make(map[string]timing.VTimeInCycle),
	}
}

// AverageTime returns the mean duration in cycles, 0 before any task ends.
func (t *AverageTimeTracer) AverageTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count == 0 {
		return 0
	}

	return float64(t.total) / float64(t.count)
}

// MaxTime returns the longest duration seen.
func (t *AverageTimeTracer) MaxTime() timing.VTimeInCycle {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.longest
}

// TotalCount returns the number of tasks that ended.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count
}

// StartTask implements Tracer.
func (t *AverageTimeTracer) StartTask(task Task) {
	now := t.timeTeller.CurrentTime()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.mu.Lock()
	t.started[task.ID] = now
	t.mu.Unlock()
}

// EndTask implements Tracer.
func (t *AverageTimeTracer) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.mu.Lock()
	defer t.mu.Unlock()

	start, ok := t.started[task.ID]
	if !ok {
		return
	}

	delete(t.started, task.ID)

	d := now - start
	t.count++
	t.total += d

	if d > t.longest {
		t.longest = d
	}
}
