// Package idma models the iDMA engine behind its register block: staging
// registers, per-stream counters, in-order execution over the memory
// domains and a completion event broadcast.
package idma

import (
	"fmt"

	"github.com/sarchlab/idma/mem"
	"github.com/sarchlab/idma/regs"
	"github.com/sarchlab/idma/sim/timing"
)

// Spec holds immutable configuration values of the model.
type Spec struct {
	Freq          timing.Freq
	BytesPerCycle int
	LatencyCycles int

	// InitialID is the value every next-id and done-id counter holds after
	// reset. The first launched transfer of a stream gets InitialID+1.
	InitialID uint32

	// Base is the address of the register block on the bus.
	Base uint64

	ScratchpadBase uint32
	ScratchpadSize uint32
	ExternalBase   uint32
	ExternalSize   uint32

	EventBit uint
}

// Defaults returns a Spec with sane defaults.
func Defaults() Spec {
	return Spec{
		Freq:           1 * timing.GHz,
		BytesPerCycle:  8,
		LatencyCycles:  20,
		InitialID:      0,
		Base:           regs.DirectBase,
		ScratchpadBase: mem.DefaultScratchpadBase,
		ScratchpadSize: mem.DefaultScratchpadSize,
		ExternalBase:   mem.DefaultExternalBase,
		ExternalSize:   mem.DefaultExternalSize,
		EventBit:       8,
	}
}

// Validate checks the spec.
func (s Spec) Validate() error {
	if s.Freq <= 0 {
		return fmt.Errorf("freq must be > 0")
	}

	if s.BytesPerCycle <= 0 {
		return fmt.Errorf("bytes per cycle must be > 0")
	}

	if s.LatencyCycles < 0 {
		return fmt.Errorf("latency cycles must be >= 0")
	}

	if s.ScratchpadSize == 0 || s.ExternalSize == 0 {
		return fmt.Errorf("memory domains must not be empty")
	}

	if s.EventBit >= 32 {
		return fmt.Errorf("event bit %d out of range", s.EventBit)
	}

	return nil
}
