package verify

import (
	"context"
	"fmt"
	"sync"

	"github.com/sarchlab/idma/dma"
	"github.com/sarchlab/idma/mem"
	"github.com/sarchlab/idma/team"
)

// Mode selects which cores run the presets and how.
type Mode int

// Modes.
const (
	// SingleMode runs the presets on core 0 only.
	SingleMode Mode = iota

	// ParallelMode runs the presets on all cores at once.
	ParallelMode

	// SerialMode runs the presets on all cores, one core at a time.
	SerialMode
)

func (m Mode) String() string {
	switch m {
	case SingleMode:
		return "single"
	case ParallelMode:
		return "parallel"
	case SerialMode:
		return "serial"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts the name of a mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{SingleMode, ParallelMode, SerialMode} {
		if m.String() == s {
			return m, nil
		}
	}

	return 0, fmt.Errorf("verify: unknown mode %q", s)
}

// A Case is the outcome of one preset in one direction on one core.
type Case struct {
	Core       int
	Preset     Preset
	Direction  dma.Direction
	Mismatches int
}

// A SuiteReport collects the cases of a suite run.
type SuiteReport struct {
	mu    sync.Mutex
	Cases []Case
}

func (r *SuiteReport) add(c Case) {
	r.mu.Lock()
	r.Cases = append(r.Cases, c)
	r.mu.Unlock()
}

// Errors returns the total number of mismatching bytes.
func (r *SuiteReport) Errors() int {
	n := 0
	for _, c := range r.Cases {
		n += c.Mismatches
	}

	return n
}

// Failed returns the cases with mismatches.
func (r *SuiteReport) Failed() []Case {
	var failed []Case

	for _, c := range r.Cases {
		if c.Mismatches != 0 {
			failed = append(failed, c)
		}
	}

	return failed
}

// Env is what a suite needs from the platform.
type Env struct {
	Team      *team.Team
	Allocator *mem.Allocator
	Memory    Memory

	// Engine returns the engine handle of a core.
	Engine func(core int) *dma.Engine
}

// A Suite runs a list of presets in every direction.
type Suite struct {
	Presets    []Preset
	Mode       Mode
	Directions []dma.Direction

	// OnCase, if set, is called after every case.
	OnCase func(Case)
}

// Run forks the team, sets up every core's buffers and runs the presets
// according to the mode.
func (s Suite) Run(ctx context.Context, env Env) (*SuiteReport, error) {
	report := &SuiteReport{}
	dirs := s.Directions
	if len(dirs) == 0 {
		dirs = dma.Directions
	}

	var region Region
	err := env.Team.Fork(ctx, func(ctx context.Context, m team.Member) error {
		pc, err := Setup(ctx, m, env.Allocator, env.Memory, &region)
		if err != nil {
			return err
		}

		eng := env.Engine(m.ID())
		task := func() error {
			return s.runCore(ctx, eng, pc, dirs, report)
		}

		switch s.Mode {
		case SingleMode:
			if m.ID() == 0 {
				err = task()
			}
		case ParallelMode:
			err = task()
		case SerialMode:
			err = m.Critical(task)
		}

		if err != nil {
			return err
		}

		if err := m.Barrier(ctx); err != nil {
			return err
		}

		if m.ID() == 0 {
			return region.Free(env.Allocator)
		}

		return nil
	})

	return report, err
}

func (s Suite) runCore(
	ctx context.Context,
	eng *dma.Engine,
	pc *CoreContext,
	dirs []dma.Direction,
	report *SuiteReport,
) error {
	for _, p := range s.Presets {
		for _, d := range dirs {
			n, err := RoundTrip(ctx, eng, pc, p, d)
			if err != nil {
				return err
			}

			c := Case{Core: pc.Core, Preset: p, Direction: d, Mismatches: n}
			report.add(c)

			if s.OnCase != nil {
				s.OnCase(c)
			}
		}
	}

	return nil
}
