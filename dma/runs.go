package dma

// A Run is one contiguous piece of a transfer.
type Run struct {
	Src    uint32
	Dst    uint32
	Length uint32
}

// ForEachRun calls fn for every run of t, in the order the engine moves
// them.
//
// A 2D transfer is Reps2D runs of Length bytes; run r starts at
// Src+r*SrcStride2D and Dst+r*DstStride2D. A 3D transfer repeats that
// pattern Reps3D times. Plane p starts where plane p-1 started plus
// (Reps2D-1)*Stride2D+Stride3D, so Stride3D is the gap between the last
// run of a plane and the first run of the next. Address arithmetic wraps
// at 2^32.
func (t Transfer) ForEachRun(fn func(Run)) {
	switch t.Dim {
	case Dim1D:
		fn(Run{Src: t.Src, Dst: t.Dst, Length: t.Length})
	case Dim2D:
		t.forEachRun2D(t.Src, t.Dst, fn)
	case Dim3D:
		srcPlane := (t.Reps2D-1)*t.SrcStride2D + t.SrcStride3D
		dstPlane := (t.Reps2D-1)*t.DstStride2D + t.DstStride3D

		for p := uint32(0); p < t.Reps3D; p++ {
			t.forEachRun2D(t.Src+p*srcPlane, t.Dst+p*dstPlane, fn)
		}
	}
}

func (t Transfer) forEachRun2D(src, dst uint32, fn func(Run)) {
	for r := uint32(0); r < t.Reps2D; r++ {
		fn(Run{
			Src:    src + r*t.SrcStride2D,
			Dst:    dst + r*t.DstStride2D,
			Length: t.Length,
		})
	}
}

// Runs returns the runs of t.
func (t Transfer) Runs() []Run {
	var runs []Run

	t.ForEachRun(func(r Run) {
		runs = append(runs, r)
	})

	return runs
}
