// Package eventunit models a cluster event unit: every core owns a latched
// event buffer, hardware lines set bits in it, and a core sleeps until one of
// the bits it waits for is set.
package eventunit

import (
	"context"
	"fmt"
	"sync"
)

// A Unit owns the event buffers of all cores of a cluster.
type Unit struct {
	cores []*Core
}

// New creates a Unit with numCores cores.
func New(numCores int) *Unit {
	if numCores <= 0 {
		panic(fmt.Sprintf("eventunit: invalid core count %d", numCores))
	}

	u := &Unit{cores: make([]*Core, numCores)}
	for i := range u.cores {
		u.cores[i] = newCore(i)
	}

	return u
}

// NumCores returns the number of cores.
func (u *Unit) NumCores() int {
	return len(u.cores)
}

// Core returns the event buffer of core id.
func (u *Unit) Core(id int) *Core {
	return u.cores[id]
}

// Broadcast sets mask in the buffer of every core.
func (u *Unit) Broadcast(mask uint32) {
	for _, c := range u.cores {
		c.Signal(mask)
	}
}

// A Core is the event buffer of one core.
type Core struct {
	id int

	mu     sync.Mutex
	buffer uint32
	wake   chan struct{}
}

func newCore(id int) *Core {
	return &Core{id: id, wake: make(chan struct{})}
}

// ID returns the core index.
func (c *Core) ID() int {
	return c.id
}

// Signal latches mask and wakes every waiter of this core.
func (c *Core) Signal(mask uint32) {
	c.mu.Lock()
	c.buffer |= mask
	close(c.wake)
	c.wake = make(chan struct{})
	c.mu.Unlock()
}

// Pending returns the latched bits.
func (c *Core) Pending() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.buffer
}

// WaitAndClear blocks until a bit of mask is latched, then clears the bits of
// mask. It returns early with the context error when ctx is done.
func (c *Core) WaitAndClear(ctx context.Context, mask uint32) error {
	for {
		c.mu.Lock()
		if c.buffer&mask != 0 {
			c.buffer &^= mask
			c.mu.Unlock()

			return nil
		}
		wake := c.wake
		c.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return fmt.Errorf("eventunit: core %d waiting for 0x%x: %w",
				c.id, mask, ctx.Err())
		}
	}
}
