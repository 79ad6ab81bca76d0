package verify

import (
	"context"
	"fmt"

	"github.com/sarchlab/idma/dma"
)

// walk calls fn with the source and destination offsets of every run of p,
// the way the test programs compute them.
func walk(p Preset, fn func(srcOff, dstOff uint32)) {
	reps2 := p.Reps2D()
	reps3 := p.reps3D()

	var src3, dst3 uint32
	for j := uint32(0); j < reps3; j++ {
		var src2, dst2 uint32
		for q := uint32(0); q < reps2; q++ {
			fn(src3+src2, dst3+dst2)

			src2 += p.SrcStride2D
			dst2 += p.DstStride2D
		}

		src3 += (reps2-1)*p.SrcStride2D + p.SrcStride3D
		dst3 += (reps2-1)*p.DstStride2D + p.DstStride3D
	}
}

func pattern(n uint32) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i & 0xff)
	}

	return data
}

func poison(n uint32) []byte {
	data := pattern(n)
	for i := range data {
		data[i] = ^data[i]
	}

	return data
}

// RoundTrip fills the source of p with a ramp, copies it with the engine
// in direction d and counts the destination bytes that differ from the
// source. The destination runs are poisoned beforehand, so a byte the
// engine never wrote counts as a mismatch.
func RoundTrip(
	ctx context.Context,
	eng *dma.Engine,
	pc *CoreContext,
	p Preset,
	d dma.Direction,
) (int, error) {
	src, dst := pc.Endpoints(d)

	var err error
	walk(p, func(srcOff, dstOff uint32) {
		if err == nil {
			err = pc.Memory.Write(src+srcOff, pattern(p.Length))
		}

		if err == nil {
			err = pc.Memory.Write(dst+dstOff, poison(p.Length))
		}
	})

	if err != nil {
		return 0, fmt.Errorf("verify: preparing %s: %w", p, err)
	}

	if _, err = eng.Copy(ctx, p.Transfer(d, src, dst)); err != nil {
		return 0, err
	}

	mismatches := 0
	walk(p, func(srcOff, dstOff uint32) {
		if err != nil {
			return
		}

		var want, got []byte
		if want, err = pc.Memory.Read(src+srcOff, p.Length); err != nil {
			return
		}
		if got, err = pc.Memory.Read(dst+dstOff, p.Length); err != nil {
			return
		}

		for i := range want {
			if want[i] != got[i] {
				mismatches++
			}
		}
	})

	if err != nil {
		return mismatches, fmt.Errorf("verify: checking %s: %w", p, err)
	}

	return mismatches, nil
}
