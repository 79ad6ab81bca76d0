// Package team runs one function on every core of a cluster and gives the
// cores the usual synchronization primitives: a team barrier, a critical
// section and each core's event buffer.
package team

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/idma/eventunit"
)

// A Team is a fixed set of cores.
type Team struct {
	events   *eventunit.Unit
	barrier  *barrier
	critical sync.Mutex
}

// New creates a team of n cores with a fresh event unit.
func New(n int) *Team {
	return NewWithEvents(eventunit.New(n))
}

// NewWithEvents creates a team with one core per core of u.
func NewWithEvents(u *eventunit.Unit) *Team {
	return &Team{
		events:  u,
		barrier: newBarrier(u.NumCores()),
	}
}

// Size returns the number of cores.
func (t *Team) Size() int {
	return t.events.NumCores()
}

// Events returns the event unit of the cluster.
func (t *Team) Events() *eventunit.Unit {
	return t.events
}

// Fork runs fn once per core, each in its own goroutine, and returns when
// all have returned. The first error cancels the context passed to the
// others and is returned.
func (t *Team) Fork(
	ctx context.Context,
	fn func(ctx context.Context, m Member) error,
) error {
	g, ctx := errgroup.WithContext(ctx)

	for id := 0; id < t.Size(); id++ {
		m := Member{id: id, team: t}

		g.Go(func() error {
			if err := fn(ctx, m); err != nil {
				return fmt.Errorf("core %d: %w", m.id, err)
			}

			return nil
		})
	}

	return g.Wait()
}

// A Member is one core's view of its team.
type Member struct {
	id   int
	team *Team
}

// ID returns the core index.
func (m Member) ID() int {
	return m.id
}

// Team returns the team of the member.
func (m Member) Team() *Team {
	return m.team
}

// Events returns the event buffer of the core.
func (m Member) Events() *eventunit.Core {
	return m.team.events.Core(m.id)
}

// Barrier returns once every member of the team has reached it.
func (m Member) Barrier(ctx context.Context) error {
	return m.team.barrier.wait(ctx)
}

// Critical runs fn while no other member runs a critical section.
func (m Member) Critical(fn func() error) error {
	m.team.critical.Lock()
	defer m.team.critical.Unlock()

	return fn()
}

type barrier struct {
	mu      sync.Mutex
	size    int
	arrived int
	release chan struct{}
}

func newBarrier(size int) *barrier {
	return &barrier{size: size, release: make(chan struct{})}
}

func (b *barrier) wait(ctx context.Context) error {
	b.mu.Lock()
	release := b.release
	b.arrived++

	if b.arrived == b.size {
		b.arrived = 0
		b.release = make(chan struct{})
		close(release)
		b.mu.Unlock()

		return nil
	}
	b.mu.Unlock()

	select {
	case <-release:
		return nil
	case <-ctx.Done():
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.release != release {
		return nil
	}

	b.arrived--

	return fmt.Errorf("team barrier: %w", ctx.Err())
}
