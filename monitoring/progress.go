package monitoring

import (
	"encoding/json"
	"sync"
	"time"
)

// A ProgressBar counts the cases of a suite as they finish.
type ProgressBar struct {
	mu sync.Mutex

	id     string
	name   string
	start  time.Time
	total  uint64
	passed uint64
	failed uint64
}

// Record counts one finished case.
func (b *ProgressBar) Record(passed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if passed {
		b.passed++
	} else {
		b.failed++
	}
}

// Finished returns the number of cases recorded.
func (b *ProgressBar) Finished() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.passed + b.failed
}

type progressRsp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Passed    uint64    `json:"passed"`
	Failed    uint64    `json:"failed"`
}

// MarshalJSON reports a consistent snapshot of the bar.
func (b *ProgressBar) MarshalJSON() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return json.Marshal(progressRsp{
		ID:        b.id,
		Name:      b.name,
		StartTime: b.start,
		Total:     b.total,
		Passed:    b.passed,
		Failed:    b.failed,
	})
}
