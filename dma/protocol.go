// Package dma drives the iDMA engine through its register block: it encodes
// strided transfer descriptors, launches them, and waits for their
// completion.
package dma

import (
	"fmt"

	"github.com/sarchlab/idma/regs"
)

// Protocol is the bus protocol tag of one side of a transfer.
type Protocol uint32

// Protocol tags understood by the engine.
const (
	// ProtocolAXI reaches the external memory over the system bus.
	ProtocolAXI Protocol = 0

	// ProtocolOBI reaches the scratchpad over the local interconnect.
	ProtocolOBI Protocol = 1

	// ProtocolINIT is a pseudo-endpoint. As a source it produces zeros, as a
	// destination it discards.
	ProtocolINIT Protocol = 4
)

func (p Protocol) String() string {
	switch p {
	case ProtocolAXI:
		return "AXI"
	case ProtocolOBI:
		return "OBI"
	case ProtocolINIT:
		return "INIT"
	default:
		return fmt.Sprintf("Protocol(%d)", uint32(p))
	}
}

func (p Protocol) valid() bool {
	return p == ProtocolAXI || p == ProtocolOBI || p == ProtocolINIT
}

// Queue is one of the engine's completion queues. Each queue owns its own
// next-id, done-id and status counters.
type Queue int

// Completion queues.
const (
	// QueueToExternal completes transfers whose destination is external.
	QueueToExternal Queue = 0

	// QueueToScratchpad completes transfers whose destination is the
	// scratchpad.
	QueueToScratchpad Queue = 1
)

func (q Queue) String() string {
	switch q {
	case QueueToExternal:
		return "to-external"
	case QueueToScratchpad:
		return "to-scratchpad"
	default:
		return fmt.Sprintf("queue(%d)", int(q))
	}
}

// A Route is the protocol pair of a transfer.
type Route struct {
	Src, Dst Protocol
}

func (r Route) String() string {
	return fmt.Sprintf("%s->%s", r.Src, r.Dst)
}

// Validate reports whether the engine can execute the route.
func (r Route) Validate() error {
	if !r.Src.valid() || !r.Dst.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidRoute, r)
	}

	if r.Src == ProtocolINIT && r.Dst == ProtocolINIT {
		return fmt.Errorf("%w: %s", ErrInvalidRoute, r)
	}

	return nil
}

// Queue returns the completion queue of transfers on this route. Only the
// destination matters.
func (r Route) Queue() Queue {
	if r.Dst == ProtocolOBI {
		return QueueToScratchpad
	}

	return QueueToExternal
}

// Direction names the three routes between the two memories.
type Direction int

// Directions.
const (
	ScratchpadToExternal Direction = iota
	ExternalToScratchpad
	ScratchpadToScratchpad
)

// Directions lists every Direction.
var Directions = []Direction{
	ScratchpadToExternal,
	ExternalToScratchpad,
	ScratchpadToScratchpad,
}

func (d Direction) String() string {
	switch d {
	case ScratchpadToExternal:
		return "L1ToL2"
	case ExternalToScratchpad:
		return "L2ToL1"
	case ScratchpadToScratchpad:
		return "L1ToL1"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Route returns the protocol pair of the direction.
func (d Direction) Route() Route {
	switch d {
	case ScratchpadToExternal:
		return Route{Src: ProtocolOBI, Dst: ProtocolAXI}
	case ExternalToScratchpad:
		return Route{Src: ProtocolAXI, Dst: ProtocolOBI}
	case ScratchpadToScratchpad:
		return Route{Src: ProtocolOBI, Dst: ProtocolOBI}
	default:
		panic(fmt.Sprintf("dma: unknown direction %d", int(d)))
	}
}

// Dim is the dimensionality of a transfer.
type Dim int

// Dimensionalities.
const (
	Dim1D Dim = iota + 1
	Dim2D
	Dim3D
)

func (d Dim) String() string {
	if d < Dim1D || d > Dim3D {
		return fmt.Sprintf("Dim(%d)", int(d))
	}

	return fmt.Sprintf("%dD", int(d))
}

// ConfigWord encodes the configuration register for a transfer of dim on
// route r. All decoupling and burst-limit fields stay zero.
func ConfigWord(dim Dim, r Route) uint32 {
	nd := uint32(dim-Dim1D) & regs.ConfEnableNDMask

	return nd<<regs.ConfEnableNDShift |
		(uint32(r.Src)&regs.ConfProtoMask)<<regs.ConfSrcProtoShift |
		(uint32(r.Dst)&regs.ConfProtoMask)<<regs.ConfDstProtoShift
}
