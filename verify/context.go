package verify

import (
	"context"
	"fmt"

	"github.com/sarchlab/idma/dma"
	"github.com/sarchlab/idma/mem"
	"github.com/sarchlab/idma/team"
)

// Memory is what the cores use to prepare and inspect buffers.
type Memory interface {
	Read(addr, n uint32) ([]byte, error)
	Write(addr uint32, data []byte) error
}

// A CoreContext is the buffer set of one core.
type CoreContext struct {
	Core int

	// Scratchpad is the scratchpad source of scratchpad-to-external and
	// scratchpad-to-scratchpad transfers, and the destination of
	// external-to-scratchpad ones.
	Scratchpad uint32

	// ScratchpadDst is the destination of scratchpad-to-scratchpad
	// transfers.
	ScratchpadDst uint32

	External uint32

	Memory Memory
}

// Endpoints returns the source and destination base addresses of d.
func (c *CoreContext) Endpoints(d dma.Direction) (src, dst uint32) {
	switch d {
	case dma.ScratchpadToExternal:
		return c.Scratchpad, c.External
	case dma.ExternalToScratchpad:
		return c.External, c.Scratchpad
	case dma.ScratchpadToScratchpad:
		return c.Scratchpad, c.ScratchpadDst
	default:
		panic(fmt.Sprintf("verify: unknown direction %d", int(d)))
	}
}

// Region is the memory shared by a team: three windows of MaxCores
// CoreSpace slices each.
type Region struct {
	Scratchpad    uint32
	ScratchpadDst uint32
	External      uint32
}

const teamSpace = MaxCores * CoreSpace

// Allocate reserves the team region.
func Allocate(a *mem.Allocator) (Region, error) {
	var (
		r   Region
		err error
	)

	if r.Scratchpad, err = a.Alloc(mem.Scratchpad, teamSpace); err != nil {
		return Region{}, err
	}

	if r.ScratchpadDst, err = a.Alloc(mem.Scratchpad, teamSpace); err != nil {
		_ = a.Free(mem.Scratchpad, r.Scratchpad, teamSpace)
		return Region{}, err
	}

	if r.External, err = a.Alloc(mem.External, teamSpace); err != nil {
		_ = a.Free(mem.Scratchpad, r.Scratchpad, teamSpace)
		_ = a.Free(mem.Scratchpad, r.ScratchpadDst, teamSpace)

		return Region{}, err
	}

	return r, nil
}

// Free releases the team region.
func (r Region) Free(a *mem.Allocator) error {
	if err := a.Free(mem.Scratchpad, r.Scratchpad, teamSpace); err != nil {
		return err
	}

	if err := a.Free(mem.Scratchpad, r.ScratchpadDst, teamSpace); err != nil {
		return err
	}

	return a.Free(mem.External, r.External, teamSpace)
}

// Slice returns the context of one core.
func (r Region) Slice(core int, m Memory) *CoreContext {
	off := uint32(core) * CoreSpace

	return &CoreContext{
		Core:          core,
		Scratchpad:    r.Scratchpad + off,
		ScratchpadDst: r.ScratchpadDst + off,
		External:      r.External + off,
		Memory:        m,
	}
}

// Setup lets core 0 allocate the team region while the other cores wait,
// then gives every core its slice. All members of the team must call it.
func Setup(
	ctx context.Context,
	m team.Member,
	a *mem.Allocator,
	memory Memory,
	shared *Region,
) (*CoreContext, error) {
	if m.Team().Size() > MaxCores {
		return nil, fmt.Errorf("verify: %d cores, at most %d supported",
			m.Team().Size(), MaxCores)
	}

	var allocErr error
	if m.ID() == 0 {
		*shared, allocErr = Allocate(a)
	}

	if err := m.Barrier(ctx); err != nil {
		return nil, err
	}

	if allocErr != nil {
		return nil, allocErr
	}

	pc := shared.Slice(m.ID(), memory)

	if err := m.Barrier(ctx); err != nil {
		return nil, err
	}

	return pc, nil
}
