package idma

import (
	"log"

	"github.com/sarchlab/idma/mem"
	"github.com/sarchlab/idma/sim/hooking"
	"github.com/sarchlab/idma/sim/timing"
)

// Builder constructs a Comp either from a Spec or per-field setters.
type Builder struct {
	spec   Spec
	memory *mem.AddressMap
	events EventBroadcaster
	engine *timing.SerialEngine
}

// MakeBuilder returns a new Builder with default Spec.
func MakeBuilder() Builder {
	return Builder{spec: Defaults()}
}

// WithSpec replaces the whole spec.
func (b Builder) WithSpec(spec Spec) Builder {
	b.spec = spec
	return b
}

// WithBytesPerCycle sets the bandwidth of the engine.
func (b Builder) WithBytesPerCycle(n int) Builder {
	b.spec.BytesPerCycle = n
	return b
}

// WithLatency sets the fixed cycles added to every job.
func (b Builder) WithLatency(cycles int) Builder {
	b.spec.LatencyCycles = cycles
	return b
}

// WithFreq sets the clock of the engine.
func (b Builder) WithFreq(freq timing.Freq) Builder {
	b.spec.Freq = freq
	return b
}

// WithInitialID sets the reset value of the id counters.
func (b Builder) WithInitialID(id uint32) Builder {
	b.spec.InitialID = id
	return b
}

// WithBase sets the bus address of the register block.
func (b Builder) WithBase(base uint64) Builder {
	b.spec.Base = base
	return b
}

// WithMemory makes the model move data in an existing address map. The map
// must hold a scratchpad and an external region.
func (b Builder) WithMemory(m *mem.AddressMap) Builder {
	b.memory = m
	return b
}

// WithEvents sets where completion events are broadcast.
func (b Builder) WithEvents(e EventBroadcaster) Builder {
	b.events = e
	return b
}

// WithEngine sets the timing engine. A private one is created otherwise.
func (b Builder) WithEngine(e *timing.SerialEngine) Builder {
	b.engine = e
	return b
}

// Build creates the model.
func (b Builder) Build(name string) *Comp {
	if err := b.spec.Validate(); err != nil {
		log.Panicf("idma: invalid spec: %v", err)
	}

	c := &Comp{
		HookableBase: hooking.NewHookableBase(),
		Spec:         b.spec,
		name:         name,
		memory:       b.memory,
		events:       b.events,
		engine:       b.engine,
		kick:         make(chan struct{}, 1),
	}

	if c.memory == nil {
		c.memory = mem.NewAddressMap(
			mem.NewRegion(mem.Scratchpad,
				b.spec.ScratchpadBase, b.spec.ScratchpadSize),
			mem.NewRegion(mem.External,
				b.spec.ExternalBase, b.spec.ExternalSize),
		)
	}

	if c.engine == nil {
		c.engine = timing.NewSerialEngine()
	}

	for i := range c.state.Next {
		c.state.Next[i] = b.spec.InitialID
		c.state.Done[i] = b.spec.InitialID
	}

	return c
}
