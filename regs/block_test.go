package regs_test

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/idma/regs"
	"github.com/sarchlab/idma/sim/hooking"
)

type mapBus struct {
	words  map[uint64]uint32
	fences int
}

func newMapBus() *mapBus {
	return &mapBus{words: make(map[uint64]uint32)}
}

func (b *mapBus) Load32(addr uint64) uint32         { return b.words[addr] }
func (b *mapBus) Store32(addr uint64, value uint32) { b.words[addr] = value }
func (b *mapBus) Fence()                            { b.fences++ }

var _ = Describe("Layout", func() {
	It("should place stream registers one word apart", func() {
		Expect(regs.Status(0)).To(Equal(regs.Offset(0x04)))
		Expect(regs.Status(1)).To(Equal(regs.Offset(0x08)))
		Expect(regs.NextID(0)).To(Equal(regs.Offset(0x44)))
		Expect(regs.NextID(1)).To(Equal(regs.Offset(0x48)))
		Expect(regs.DoneID(0)).To(Equal(regs.Offset(0x84)))
		Expect(regs.DoneID(1)).To(Equal(regs.Offset(0x88)))
	})

	It("should reject streams outside the block", func() {
		Expect(func() { regs.NextID(16) }).To(Panic())
		Expect(func() { regs.DoneID(-1) }).To(Panic())
	})

	It("should name registers", func() {
		Expect(regs.Conf.String()).To(Equal("CONF"))
		Expect(regs.NextID(1).String()).To(Equal("NEXT_ID_1"))
		Expect(regs.DoneID(0).String()).To(Equal("DONE_ID_0"))
		Expect(regs.Status(3).String()).To(Equal("STATUS_3"))
		Expect(regs.Reps3Low.String()).To(Equal("REPS_3_LOW"))
		Expect(regs.Offset(0x200).String()).To(Equal("0x200"))
	})
})

var _ = Describe("Window", func() {
	var bus *mapBus

	BeforeEach(func() {
		bus = newMapBus()
	})

	It("should access registers relative to the direct base", func() {
		w := regs.NewDirectWindow(bus)
		w.Write(regs.SrcAddrLow, 0x1000)

		Expect(bus.words[regs.DirectBase+uint64(regs.SrcAddrLow)]).
			To(Equal(uint32(0x1000)))
		Expect(w.Read(regs.SrcAddrLow)).To(Equal(uint32(0x1000)))
	})

	It("should access registers relative to the demux base", func() {
		w := regs.NewDemuxWindow(bus)
		w.Write(regs.Conf, 0x9000)

		Expect(bus.words[regs.DemuxBase]).To(Equal(uint32(0x9000)))
	})

	It("should forward fences to buses that support them", func() {
		w := regs.NewDirectWindow(bus)
		w.Fence()
		w.Fence()

		Expect(bus.fences).To(Equal(2))
	})

	It("should pick the base once from the config", func() {
		Expect(regs.Config{}.BaseAddress()).To(Equal(regs.DirectBase))
		Expect(regs.Config{Demux: true}.BaseAddress()).To(Equal(regs.DemuxBase))
		Expect(regs.Config{Demux: true, Base: 0x4000}.BaseAddress()).
			To(Equal(uint64(0x4000)))
		Expect(regs.Config{Demux: true}.Open(bus).Base()).
			To(Equal(regs.DemuxBase))
	})
})

var _ = Describe("HookedBlock", func() {
	var (
		bus   *mapBus
		block *regs.HookedBlock
		seen  []regs.Access
		pos   []*hooking.HookPos
	)

	BeforeEach(func() {
		bus = newMapBus()
		block = regs.NewHookedBlock(regs.NewWindow(bus, 0))
		seen = nil
		pos = nil
		block.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			pos = append(pos, ctx.Pos)
			if a, ok := ctx.Item.(regs.Access); ok {
				seen = append(seen, a)
			}
		}))
	})

	It("should report writes, fences and reads in order", func() {
		block.Write(regs.LengthLow, 12)
		block.Fence()
		v := block.Read(regs.LengthLow)

		Expect(v).To(Equal(uint32(12)))
		Expect(pos).To(Equal([]*hooking.HookPos{
			regs.HookPosRegWrite, regs.HookPosFence, regs.HookPosRegRead,
		}))
		Expect(seen).To(Equal([]regs.Access{
			{Offset: regs.LengthLow, Value: 12},
			{Offset: regs.LengthLow, Value: 12},
		}))
		Expect(bus.fences).To(Equal(1))
	})

	It("should log accesses", func() {
		buf := new(bytes.Buffer)
		h := &regs.LogHook{}
		h.Logger = log.New(buf, "", 0)
		block.AcceptHook(h)

		block.Write(regs.Conf, 0x1000)
		block.Read(regs.NextID(0))

		Expect(buf.String()).To(ContainSubstring("write CONF"))
		Expect(buf.String()).To(ContainSubstring("<- 0x00001000"))
		Expect(buf.String()).To(ContainSubstring("read  NEXT_ID_0"))
	})
})
