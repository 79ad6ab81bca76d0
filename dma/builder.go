package dma

import (
	"sync"

	"github.com/sarchlab/idma/regs"
	"github.com/sarchlab/idma/sim/hooking"
)

// Builder can build Engines.
type Builder struct {
	block     regs.Block
	events    EventLine
	issueLock sync.Locker
	eventBit  uint
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		eventBit: EventBit,
	}
}

// WithBlock sets the register block the engine drives.
func (b Builder) WithBlock(block regs.Block) Builder {
	b.block = block
	return b
}

// WithEventLine sets the event primitive the engine sleeps on.
func (b Builder) WithEventLine(l EventLine) Builder {
	b.events = l
	return b
}

// WithIssueLock sets the lock that serializes issue sequences. Engines of
// different cores that share a register block must share this lock.
func (b Builder) WithIssueLock(l sync.Locker) Builder {
	b.issueLock = l
	return b
}

// WithEventBit sets the event line raised on completion.
func (b Builder) WithEventBit(bit uint) Builder {
	b.eventBit = bit
	return b
}

// Build creates an Engine.
func (b Builder) Build(name string) *Engine {
	if b.block == nil {
		panic("dma: engine " + name + " has no register block")
	}

	if b.events == nil {
		panic("dma: engine " + name + " has no event line")
	}

	lock := b.issueLock
	if lock == nil {
		lock = &sync.Mutex{}
	}

	return &Engine{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		block:        b.block,
		events:       b.events,
		issueLock:    lock,
		eventMask:    1 << b.eventBit,
	}
}
