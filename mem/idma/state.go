package idma

import (
	"github.com/sarchlab/idma/dma"
	"github.com/sarchlab/idma/regs"
)

// Staging holds the values software wrote since the last launch.
type Staging struct {
	Conf       uint32
	Src        uint32
	Dst        uint32
	Length     uint32
	SrcStride2 uint32
	DstStride2 uint32
	Reps2      uint32
	SrcStride3 uint32
	DstStride3 uint32
	Reps3      uint32
}

// A Job is a launched transfer waiting for or under execution.
type Job struct {
	Stream   int
	ID       uint32
	Staging  Staging
	Transfer dma.Transfer
}

// State is the mutable register state of the model.
type State struct {
	Staging Staging
	Next    [regs.NumStreams]uint32
	Done    [regs.NumStreams]uint32
	Status  [regs.NumStreams]uint32
	Pending []Job
}

func (s *Staging) write(off regs.Offset, v uint32) bool {
	switch off {
	case regs.Conf:
		s.Conf = v
	case regs.SrcAddrLow:
		s.Src = v
	case regs.DstAddrLow:
		s.Dst = v
	case regs.LengthLow:
		s.Length = v
	case regs.SrcStride2Low:
		s.SrcStride2 = v
	case regs.DstStride2Low:
		s.DstStride2 = v
	case regs.Reps2Low:
		s.Reps2 = v
	case regs.SrcStride3Low:
		s.SrcStride3 = v
	case regs.DstStride3Low:
		s.DstStride3 = v
	case regs.Reps3Low:
		s.Reps3 = v
	default:
		return false
	}

	return true
}

func (s *Staging) read(off regs.Offset) (uint32, bool) {
	switch off {
	case regs.Conf:
		return s.Conf, true
	case regs.SrcAddrLow:
		return s.Src, true
	case regs.DstAddrLow:
		return s.Dst, true
	case regs.LengthLow:
		return s.Length, true
	case regs.SrcStride2Low:
		return s.SrcStride2, true
	case regs.DstStride2Low:
		return s.DstStride2, true
	case regs.Reps2Low:
		return s.Reps2, true
	case regs.SrcStride3Low:
		return s.SrcStride3, true
	case regs.DstStride3Low:
		return s.DstStride3, true
	case regs.Reps3Low:
		return s.Reps3, true
	}

	return 0, false
}

// decode turns the staged registers into a transfer. ok is false when the
// configuration word names no valid dimensionality.
func (s Staging) decode() (t dma.Transfer, ok bool) {
	nd := (s.Conf >> regs.ConfEnableNDShift) & regs.ConfEnableNDMask
	if nd > 2 {
		return t, false
	}

	t = dma.Transfer{
		Dim: dma.Dim(nd) + dma.Dim1D,
		Route: dma.Route{
			Src: dma.Protocol((s.Conf >> regs.ConfSrcProtoShift) & regs.ConfProtoMask),
			Dst: dma.Protocol((s.Conf >> regs.ConfDstProtoShift) & regs.ConfProtoMask),
		},
		Src:         s.Src,
		Dst:         s.Dst,
		Length:      s.Length,
		SrcStride2D: s.SrcStride2,
		DstStride2D: s.DstStride2,
		Reps2D:      s.Reps2,
		SrcStride3D: s.SrcStride3,
		DstStride3D: s.DstStride3,
		Reps3D:      s.Reps3,
	}

	return t, true
}
