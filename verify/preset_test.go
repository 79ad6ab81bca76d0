package verify

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/idma/dma"
)

func allPresets() []Preset {
	var ps []Preset
	ps = append(ps, Presets1D...)
	ps = append(ps, Presets2D...)
	ps = append(ps, Presets3D...)
	ps = append(ps, Params3D...)

	return ps
}

var _ = Describe("Preset", func() {
	It("should keep every fixed preset inside a core's space", func() {
		for _, p := range allPresets() {
			Expect(p.Fits()).To(BeTrue(), p.String())
		}
	})

	It("should compute offsets the same way the engine lays out runs", func() {
		for _, p := range allPresets() {
			t := p.Transfer(dma.ScratchpadToExternal, 0x1000, 0x8000)
			runs := t.Runs()

			i := 0
			walk(p, func(srcOff, dstOff uint32) {
				Expect(i).To(BeNumerically("<", len(runs)), p.String())
				Expect(runs[i].Src).To(Equal(0x1000+srcOff), p.String())
				Expect(runs[i].Dst).To(Equal(0x8000+dstOff), p.String())
				i++
			})

			Expect(i).To(Equal(len(runs)), p.String())
		}
	})

	It("should treat shapes longer than their plane as empty", func() {
		p := P3D(2, 8, 8, 8, 8, 8, 2)

		Expect(p.Reps2D()).To(BeZero())
		Expect(p.Transfer(dma.ScratchpadToExternal, 0, 0).Bytes()).To(BeZero())

		src, dst := p.Footprint()
		Expect(src).To(BeZero())
		Expect(dst).To(BeZero())
	})

	It("should measure the footprint of the (128,4,4,4) preset", func() {
		src, dst := P3D(128, 4, 4, 4, 4, 4, 4).Footprint()

		Expect(src).To(Equal(uint64(512)))
		Expect(dst).To(Equal(uint64(512)))
	})

	It("should draw random shapes in range", func() {
		rng := rand.New(rand.NewSource(42))

		for _, p := range RandomPresets1D(rng, 50) {
			Expect(p.Size).To(BeNumerically(">=", 1))
			Expect(p.Size).To(BeNumerically("<=", MaxSize1D))
		}

		ps2 := RandomPresets2D(rng, 50)
		Expect(ps2).To(HaveLen(50))
		for _, p := range ps2 {
			Expect(p.Fits()).To(BeTrue())
			Expect(p.Length).To(BeNumerically("<=", MaxLength))
			Expect(p.SrcStride2D).To(BeNumerically(">", p.Length))
			Expect(p.Size).To(BeNumerically(">", p.Length))
		}

		ps3 := RandomPresets3D(rng, 20)
		Expect(ps3).To(HaveLen(20))
		for _, p := range ps3 {
			Expect(p.Fits()).To(BeTrue())
			Expect(p.Reps3D).To(BeNumerically("<=", MaxReps3D))
		}
	})
})
