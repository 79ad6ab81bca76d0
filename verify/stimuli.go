package verify

import "math/rand"

// Ranges of the stimuli generators.
const (
	MaxSize1D   = 1024
	MaxSize     = 128
	MaxLength   = 10
	MaxStride   = 10
	MaxReps3D   = 5
	maxAttempts = 1000
)

func randIn(rng *rand.Rand, lo, hi int) uint32 {
	return uint32(lo + rng.Intn(hi-lo+1))
}

// RandomPresets1D draws n contiguous sizes in [1, MaxSize1D].
func RandomPresets1D(rng *rand.Rand, n int) []Preset {
	ps := make([]Preset, 0, n)
	for len(ps) < n {
		ps = append(ps, P1D(randIn(rng, 1, MaxSize1D)))
	}

	return ps
}

// RandomPresets2D draws n 2D shapes. Strides always exceed the length, so
// runs never overlap. Shapes that do not fit CoreSpace are redrawn.
func RandomPresets2D(rng *rand.Rand, n int) []Preset {
	return drawFitting(n, func() Preset {
		length := randIn(rng, 1, MaxLength)

		return P2D(
			randIn(rng, 1, MaxSize)+length,
			length,
			randIn(rng, 1, MaxStride)+length,
			randIn(rng, 1, MaxStride)+length,
		)
	})
}

// RandomPresets3D draws n 3D shapes. Shapes that do not fit CoreSpace are
// redrawn.
func RandomPresets3D(rng *rand.Rand, n int) []Preset {
	return drawFitting(n, func() Preset {
		length := randIn(rng, 1, MaxLength)

		return P3D(
			randIn(rng, 1, MaxSize)+length,
			length,
			randIn(rng, 1, MaxStride)+length,
			randIn(rng, 1, MaxStride)+length,
			randIn(rng, 1, MaxStride)+length,
			randIn(rng, 1, MaxStride)+length,
			randIn(rng, 1, MaxReps3D),
		)
	})
}

func drawFitting(n int, draw func() Preset) []Preset {
	ps := make([]Preset, 0, n)

	for attempts := 0; len(ps) < n && attempts < n*maxAttempts; attempts++ {
		if p := draw(); p.Fits() {
			ps = append(ps, p)
		}
	}

	return ps
}
