// Package regs describes the register block of the iDMA front-end and the
// ways software reaches it.
package regs

import "fmt"

// Offset is a byte offset into the iDMA register block.
type Offset uint32

// Register offsets of the 32-bit, 3D-capable front-end.
const (
	Conf Offset = 0x00

	// Status0, NextID0 and DoneID0 are the stream-0 registers; stream n
	// lives StreamStride bytes after them.
	Status0 Offset = 0x04
	NextID0 Offset = 0x44
	DoneID0 Offset = 0x84

	DstAddrLow     Offset = 0xd0
	SrcAddrLow     Offset = 0xd8
	LengthLow      Offset = 0xe0
	DstStride2Low  Offset = 0xe8
	SrcStride2Low  Offset = 0xf0
	Reps2Low       Offset = 0xf8
	DstStride3Low  Offset = 0x100
	SrcStride3Low  Offset = 0x108
	Reps3Low       Offset = 0x110
	BlockSize             = 0x114
	StreamStride          = 4
	NumStreams            = 16
	maxStreamIndex        = NumStreams - 1
)

// Status returns the offset of the live-status register of a stream.
func Status(stream int) Offset { return streamOffset(Status0, stream) }

// NextID returns the offset of the next-id register of a stream. Reading it
// launches the staged transfer.
func NextID(stream int) Offset { return streamOffset(NextID0, stream) }

// DoneID returns the offset of the done-id register of a stream.
func DoneID(stream int) Offset { return streamOffset(DoneID0, stream) }

func streamOffset(base Offset, stream int) Offset {
	if stream < 0 || stream > maxStreamIndex {
		panic(fmt.Sprintf("regs: stream %d out of range", stream))
	}

	return base + Offset(stream*StreamStride)
}

// Fields of the configuration register.
const (
	ConfDecoupleAWBit   = 0
	ConfDecoupleRWBit   = 1
	ConfSrcReduceLenBit = 2
	ConfDstReduceLenBit = 3
	ConfSrcMaxLlenShift = 4
	ConfDstMaxLlenShift = 7
	ConfEnableNDShift   = 10
	ConfSrcProtoShift   = 12
	ConfDstProtoShift   = 15

	ConfEnableNDMask = 0x3
	ConfProtoMask    = 0x7
)

var names = map[Offset]string{
	Conf:          "CONF",
	DstAddrLow:    "DST_ADDR_LOW",
	SrcAddrLow:    "SRC_ADDR_LOW",
	LengthLow:     "LENGTH_LOW",
	DstStride2Low: "DST_STRIDE_2_LOW",
	SrcStride2Low: "SRC_STRIDE_2_LOW",
	Reps2Low:      "REPS_2_LOW",
	DstStride3Low: "DST_STRIDE_3_LOW",
	SrcStride3Low: "SRC_STRIDE_3_LOW",
	Reps3Low:      "REPS_3_LOW",
}

// String returns the register name of the offset.
func (o Offset) String() string {
	if n, ok := names[o]; ok {
		return n
	}

	switch {
	case o >= Status0 && o < NextID0:
		return fmt.Sprintf("STATUS_%d", (o-Status0)/StreamStride)
	case o >= NextID0 && o < DoneID0:
		return fmt.Sprintf("NEXT_ID_%d", (o-NextID0)/StreamStride)
	case o >= DoneID0 && o < DoneID0+NumStreams*StreamStride:
		return fmt.Sprintf("DONE_ID_%d", (o-DoneID0)/StreamStride)
	}

	return fmt.Sprintf("0x%03x", uint32(o))
}
