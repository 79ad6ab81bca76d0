package dma

import (
	"fmt"

	"github.com/sarchlab/idma/regs"
)

// MaxLength is the largest innermost run the length register holds.
const MaxLength = 1<<16 - 1

// MaxStride2D is the largest 2D stride the stride registers hold.
const MaxStride2D = 1<<16 - 1

// A Transfer describes one strided copy. Only the fields of its Dim are
// sent to the engine.
type Transfer struct {
	Dim   Dim
	Route Route

	Src    uint32
	Dst    uint32
	Length uint32

	SrcStride2D uint32
	DstStride2D uint32
	Reps2D      uint32

	SrcStride3D uint32
	DstStride3D uint32
	Reps3D      uint32
}

// Queue returns the completion queue the transfer is tracked on.
func (t Transfer) Queue() Queue {
	return t.Route.Queue()
}

// Bytes returns the number of bytes the transfer moves.
func (t Transfer) Bytes() uint64 {
	n := uint64(t.Length)
	if t.Dim >= Dim2D {
		n *= uint64(t.Reps2D)
	}

	if t.Dim >= Dim3D {
		n *= uint64(t.Reps3D)
	}

	return n
}

// Validate checks that every field fits its register.
func (t Transfer) Validate() error {
	if t.Dim < Dim1D || t.Dim > Dim3D {
		return fmt.Errorf("%w: %d", ErrInvalidDim, int(t.Dim))
	}

	if err := t.Route.Validate(); err != nil {
		return err
	}

	if t.Length > MaxLength {
		return fmt.Errorf("%w: %d", ErrLengthOutOfRange, t.Length)
	}

	if t.Dim == Dim1D {
		return nil
	}

	if t.SrcStride2D > MaxStride2D {
		return fmt.Errorf("%w: source %d", ErrStrideOutOfRange, t.SrcStride2D)
	}

	if t.DstStride2D > MaxStride2D {
		return fmt.Errorf("%w: destination %d",
			ErrStrideOutOfRange, t.DstStride2D)
	}

	return nil
}

func (t Transfer) String() string {
	s := fmt.Sprintf("%s %s src=0x%08x dst=0x%08x len=%d",
		t.Dim, t.Route, t.Src, t.Dst, t.Length)

	if t.Dim >= Dim2D {
		s += fmt.Sprintf(" stride2=%d/%d reps2=%d",
			t.SrcStride2D, t.DstStride2D, t.Reps2D)
	}

	if t.Dim >= Dim3D {
		s += fmt.Sprintf(" stride3=%d/%d reps3=%d",
			t.SrcStride3D, t.DstStride3D, t.Reps3D)
	}

	return s
}

type field struct {
	offset regs.Offset
	value  func(t *Transfer) uint32
}

var (
	srcField    = field{regs.SrcAddrLow, func(t *Transfer) uint32 { return t.Src }}
	dstField    = field{regs.DstAddrLow, func(t *Transfer) uint32 { return t.Dst }}
	lengthField = field{regs.LengthLow, func(t *Transfer) uint32 { return t.Length }}
	confField   = field{regs.Conf, func(t *Transfer) uint32 {
		return ConfigWord(t.Dim, t.Route)
	}}
	srcStride2Field = field{regs.SrcStride2Low,
		func(t *Transfer) uint32 { return t.SrcStride2D }}
	dstStride2Field = field{regs.DstStride2Low,
		func(t *Transfer) uint32 { return t.DstStride2D }}
	reps2Field = field{regs.Reps2Low,
		func(t *Transfer) uint32 { return t.Reps2D }}
	srcStride3Field = field{regs.SrcStride3Low,
		func(t *Transfer) uint32 { return t.SrcStride3D }}
	dstStride3Field = field{regs.DstStride3Low,
		func(t *Transfer) uint32 { return t.DstStride3D }}
	reps3Field = field{regs.Reps3Low,
		func(t *Transfer) uint32 { return t.Reps3D }}
)

// fieldsOf lists the registers written for a transfer of dim, in write
// order.
var fieldsOf = map[Dim][]field{
	Dim1D: {srcField, dstField, lengthField, confField},
	Dim2D: {
		srcField, dstField, lengthField, confField,
		srcStride2Field, dstStride2Field, reps2Field,
	},
	Dim3D: {
		srcField, dstField, lengthField, confField,
		srcStride2Field, dstStride2Field,
		srcStride3Field, dstStride3Field,
		reps2Field, reps3Field,
	},
}

// TransferBuilder builds Transfers.
type TransferBuilder struct {
	t Transfer
}

// MakeTransferBuilder creates a builder of a 1D scratchpad-to-external
// transfer.
func MakeTransferBuilder() TransferBuilder {
	return TransferBuilder{
		t: Transfer{
			Dim:   Dim1D,
			Route: ScratchpadToExternal.Route(),
		},
	}
}

// WithSrc sets the source address.
func (b TransferBuilder) WithSrc(addr uint32) TransferBuilder {
	b.t.Src = addr
	return b
}

// WithDst sets the destination address.
func (b TransferBuilder) WithDst(addr uint32) TransferBuilder {
	b.t.Dst = addr
	return b
}

// WithLength sets the innermost run length in bytes.
func (b TransferBuilder) WithLength(n uint32) TransferBuilder {
	b.t.Length = n
	return b
}

// WithDirection sets the route to the one of a direction.
func (b TransferBuilder) WithDirection(d Direction) TransferBuilder {
	b.t.Route = d.Route()
	return b
}

// WithRoute sets an explicit protocol pair.
func (b TransferBuilder) WithRoute(r Route) TransferBuilder {
	b.t.Route = r
	return b
}

// With2D makes the transfer two-dimensional.
func (b TransferBuilder) With2D(
	srcStride, dstStride, reps uint32,
) TransferBuilder {
	if b.t.Dim < Dim2D {
		b.t.Dim = Dim2D
	}

	b.t.SrcStride2D = srcStride
	b.t.DstStride2D = dstStride
	b.t.Reps2D = reps

	return b
}

// With3D makes the transfer three-dimensional. The 2D fields still describe
// each plane.
func (b TransferBuilder) With3D(
	srcStride, dstStride, reps uint32,
) TransferBuilder {
	b.t.Dim = Dim3D
	b.t.SrcStride3D = srcStride
	b.t.DstStride3D = dstStride
	b.t.Reps3D = reps

	return b
}

// Build returns the transfer.
func (b TransferBuilder) Build() Transfer {
	return b.t
}
