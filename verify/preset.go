// Package verify checks an iDMA engine end to end: it fills strided source
// patterns, moves them with the engine and compares every destination byte
// at independently computed offsets.
package verify

import (
	"fmt"

	"github.com/sarchlab/idma/dma"
)

// CoreSpace is the number of bytes of every domain a core may touch.
const CoreSpace = 2048

// MaxCores is the number of cores the per-domain allocation is split
// between.
const MaxCores = 8

// A Preset is one transfer shape. Size is the number of bytes of one plane;
// the number of runs per plane is Size/Length.
type Preset struct {
	Dim    dma.Dim
	Size   uint32
	Length uint32

	SrcStride2D uint32
	DstStride2D uint32

	SrcStride3D uint32
	DstStride3D uint32
	Reps3D      uint32
}

// P1D creates a contiguous preset.
func P1D(size uint32) Preset {
	return Preset{Dim: dma.Dim1D, Size: size, Length: size}
}

// P2D creates a 2D preset.
func P2D(size, length, srcStride, dstStride uint32) Preset {
	return Preset{
		Dim:         dma.Dim2D,
		Size:        size,
		Length:      length,
		SrcStride2D: srcStride,
		DstStride2D: dstStride,
	}
}

// P3D creates a 3D preset.
func P3D(
	size, length, srcStride2D, dstStride2D,
	srcStride3D, dstStride3D, reps3D uint32,
) Preset {
	return Preset{
		Dim:         dma.Dim3D,
		Size:        size,
		Length:      length,
		SrcStride2D: srcStride2D,
		DstStride2D: dstStride2D,
		SrcStride3D: srcStride3D,
		DstStride3D: dstStride3D,
		Reps3D:      reps3D,
	}
}

// Reps2D returns the number of runs of a plane.
func (p Preset) Reps2D() uint32 {
	if p.Dim == dma.Dim1D {
		return 1
	}

	if p.Length == 0 {
		return 0
	}

	return p.Size / p.Length
}

func (p Preset) reps3D() uint32 {
	if p.Dim == dma.Dim3D {
		return p.Reps3D
	}

	return 1
}

// Transfer returns the descriptor moving the preset from src to dst.
func (p Preset) Transfer(d dma.Direction, src, dst uint32) dma.Transfer {
	b := dma.MakeTransferBuilder().
		WithDirection(d).
		WithSrc(src).
		WithDst(dst).
		WithLength(p.Length)

	if p.Dim >= dma.Dim2D {
		b = b.With2D(p.SrcStride2D, p.DstStride2D, p.Reps2D())
	}

	if p.Dim == dma.Dim3D {
		b = b.With3D(p.SrcStride3D, p.DstStride3D, p.Reps3D)
	}

	return b.Build()
}

// Footprint returns how many bytes past the base address the preset
// reaches on the source and destination sides.
func (p Preset) Footprint() (src, dst uint64) {
	reps2 := uint64(p.Reps2D())
	reps3 := uint64(p.reps3D())

	if reps2 == 0 || reps3 == 0 || p.Length == 0 {
		return 0, 0
	}

	extent := func(stride2, stride3 uint32) uint64 {
		plane := (reps2-1)*uint64(stride2) + uint64(stride3)
		return (reps3-1)*plane + (reps2-1)*uint64(stride2) + uint64(p.Length)
	}

	if p.Dim == dma.Dim1D {
		return uint64(p.Length), uint64(p.Length)
	}

	return extent(p.SrcStride2D, p.SrcStride3D),
		extent(p.DstStride2D, p.DstStride3D)
}

// Fits tells whether the preset stays inside one core's space.
func (p Preset) Fits() bool {
	src, dst := p.Footprint()
	return src <= CoreSpace && dst <= CoreSpace
}

func (p Preset) String() string {
	switch p.Dim {
	case dma.Dim1D:
		return fmt.Sprintf("1D{%d}", p.Size)
	case dma.Dim2D:
		return fmt.Sprintf("2D{%d,%d,%d,%d}",
			p.Size, p.Length, p.SrcStride2D, p.DstStride2D)
	default:
		return fmt.Sprintf("3D{%d,%d,%d,%d,%d,%d,%d}",
			p.Size, p.Length, p.SrcStride2D, p.DstStride2D,
			p.SrcStride3D, p.DstStride3D, p.Reps3D)
	}
}

// Presets1D are the contiguous sizes of the multi-core 1D test.
var Presets1D = []Preset{
	P1D(1), P1D(2), P1D(3), P1D(4), P1D(7), P1D(8), P1D(16),
	P1D(31), P1D(64), P1D(128), P1D(255), P1D(512), P1D(1024),
}

// Presets2D are the fixed 2D shapes.
var Presets2D = []Preset{
	P2D(5, 1, 10, 8),
	P2D(64, 6, 12, 8),
	P2D(46, 5, 11, 7),
	P2D(66, 3, 5, 9),
	P2D(54, 7, 13, 10),
	P2D(84, 8, 18, 15),
	P2D(106, 2, 12, 11),
	P2D(65, 9, 12, 12),
}

// Presets3D are regular 3D shapes, including ones whose length exceeds
// the plane size and so move nothing.
var Presets3D = []Preset{
	P3D(1, 1, 1, 1, 1, 1, 1),
	P3D(2, 8, 8, 8, 8, 8, 2),
	P3D(3, 8, 8, 8, 8, 8, 4),
	P3D(4, 8, 16, 16, 16, 16, 8),
	P3D(8, 8, 32, 32, 32, 32, 8),
	P3D(16, 8, 16, 16, 16, 16, 8),
	P3D(32, 2, 2, 2, 2, 2, 2),
	P3D(64, 4, 4, 4, 4, 4, 2),
	P3D(128, 4, 4, 4, 4, 4, 4),
}

// Params3D are irregular 3D shapes drawn by the stimuli generator.
var Params3D = []Preset{
	P3D(107, 5, 12, 13, 7, 12, 1),
	P3D(86, 5, 7, 10, 6, 12, 4),
	P3D(95, 10, 12, 20, 15, 17, 4),
	P3D(40, 2, 4, 12, 5, 4, 3),
	P3D(105, 4, 14, 6, 13, 9, 3),
	P3D(72, 8, 11, 17, 13, 15, 2),
	P3D(54, 10, 14, 20, 13, 11, 3),
	P3D(74, 6, 15, 10, 10, 11, 1),
	P3D(114, 4, 9, 8, 12, 9, 3),
	P3D(92, 3, 13, 5, 8, 5, 1),
}
