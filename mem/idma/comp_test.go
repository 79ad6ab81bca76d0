package idma_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/idma/dma"
	"github.com/sarchlab/idma/eventunit"
	"github.com/sarchlab/idma/mem"
	"github.com/sarchlab/idma/mem/idma"
	"github.com/sarchlab/idma/regs"
	"github.com/sarchlab/idma/sim/hooking"
)

const (
	l1 = mem.DefaultScratchpadBase
	l2 = mem.DefaultExternalBase
)

func fill(m *mem.AddressMap, addr uint32, n int, f func(i int) byte) {
	data := make([]byte, n)
	for i := range data {
		data[i] = f(i)
	}

	Expect(m.Write(addr, data)).To(Succeed())
}

func read(m *mem.AddressMap, addr uint32, n int) []byte {
	data, err := m.Read(addr, uint32(n))
	Expect(err).NotTo(HaveOccurred())

	return data
}

var _ = Describe("Comp", func() {
	var (
		unit   *eventunit.Unit
		model  *idma.Comp
		engine *dma.Engine
	)

	build := func(b idma.Builder) {
		unit = eventunit.New(2)
		model = b.WithEvents(unit).Build("IDMA")
		engine = dma.MakeBuilder().
			WithBlock(regs.NewDirectWindow(model)).
			WithEventLine(unit.Core(0)).
			Build("DMA")
	}

	BeforeEach(func() {
		build(idma.MakeBuilder().WithBytesPerCycle(8).WithLatency(20))
	})

	It("should not hold a barrier for the other queue", func() {
		toL1, err := engine.Issue1D(dma.ExternalToScratchpad, l2, l1, 16)
		Expect(err).NotTo(HaveOccurred())
		toL2, err := engine.Issue1D(dma.ScratchpadToExternal, l1+64, l2+64, 64)
		Expect(err).NotTo(HaveOccurred())

		Expect(model.Step()).To(BeTrue())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		Expect(engine.Barrier(ctx, dma.QueueToScratchpad)).To(Succeed())
		Expect(engine.IsComplete(toL1)).To(BeTrue())
		Expect(engine.IsComplete(toL2)).To(BeFalse())
		Expect(engine.Status(dma.QueueToExternal)).To(Equal(uint32(1)))

		Expect(model.Step()).To(BeTrue())
	})

	It("should count launches and completions per stream", func() {
		t1, err := engine.Issue1D(dma.ScratchpadToExternal, l1, l2, 64)
		Expect(err).NotTo(HaveOccurred())
		t2, err := engine.Issue1D(dma.ExternalToScratchpad, l2, l1+64, 16)
		Expect(err).NotTo(HaveOccurred())

		Expect(t1).To(Equal(dma.Ticket{Queue: dma.QueueToExternal, ID: 1}))
		Expect(t2).To(Equal(dma.Ticket{Queue: dma.QueueToScratchpad, ID: 1}))
		Expect(engine.Status(dma.QueueToExternal)).To(Equal(uint32(1)))
		Expect(engine.IsComplete(t1)).To(BeFalse())

		Expect(model.Step()).To(BeTrue())

		Expect(engine.IsComplete(t1)).To(BeTrue())
		Expect(engine.IsComplete(t2)).To(BeFalse())
		Expect(engine.Status(dma.QueueToExternal)).To(BeZero())
		Expect(engine.Status(dma.QueueToScratchpad)).To(Equal(uint32(1)))
		Expect(unit.Core(1).Pending()).To(Equal(uint32(1 << dma.EventBit)))

		Expect(model.Step()).To(BeTrue())
		Expect(model.Step()).To(BeFalse())
		Expect(engine.DoneID(dma.QueueToScratchpad)).To(Equal(dma.ID(1)))
	})

	It("should time jobs by bandwidth and latency", func() {
		_, err := engine.Issue1D(dma.ScratchpadToExternal, l1, l2, 64)
		Expect(err).NotTo(HaveOccurred())
		_, err = engine.Issue1D(dma.ScratchpadToExternal, l1, l2, 1)
		Expect(err).NotTo(HaveOccurred())

		model.Drain()

		Expect(model.Engine().CurrentTime()).To(BeNumerically("==", 28+21))
		Expect(model.Stats(0)).To(Equal(idma.QueueStats{
			Transfers:  2,
			Bytes:      65,
			BusyCycles: 49,
		}))
	})

	It("should move a 2D pattern", func() {
		fill(model.Memory(), l2, 64, func(i int) byte { return byte(i) })

		_, err := engine.Issue2D(dma.ExternalToScratchpad, l2, l1, 1, 10, 8, 5)
		Expect(err).NotTo(HaveOccurred())
		model.Drain()

		got := read(model.Memory(), l1, 40)
		for r := 0; r < 5; r++ {
			Expect(got[r*8]).To(Equal(byte(r * 10)))
			Expect(got[r*8+1]).To(BeZero())
		}
	})

	It("should zero-fill from the INIT source and discard into INIT", func() {
		fill(model.Memory(), l1, 32, func(int) byte { return 0xff })

		_, err := engine.Issue(dma.MakeTransferBuilder().
			WithRoute(dma.Route{Src: dma.ProtocolINIT, Dst: dma.ProtocolOBI}).
			WithDst(l1 + 8).
			WithLength(16).
			Build())
		Expect(err).NotTo(HaveOccurred())

		t, err := engine.Issue(dma.MakeTransferBuilder().
			WithRoute(dma.Route{Src: dma.ProtocolOBI, Dst: dma.ProtocolINIT}).
			WithSrc(l1).
			WithLength(32).
			Build())
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Queue).To(Equal(dma.QueueToExternal))

		model.Drain()

		got := read(model.Memory(), l1, 32)
		Expect(got[:8]).To(HaveEach(byte(0xff)))
		Expect(got[8:24]).To(HaveEach(byte(0)))
		Expect(got[24:]).To(HaveEach(byte(0xff)))
		Expect(engine.IsComplete(t)).To(BeTrue())
	})

	It("should complete empty transfers", func() {
		t, err := engine.Issue3D(dma.ScratchpadToExternal,
			l1, l2, 8, 8, 8, 0, 8, 8, 2)
		Expect(err).NotTo(HaveOccurred())

		model.Drain()

		Expect(engine.IsComplete(t)).To(BeTrue())
		Expect(model.Stats(0).Bytes).To(BeZero())
	})

	It("should fault when a scratchpad endpoint leaves the scratchpad", func() {
		_, err := engine.Issue1D(dma.ScratchpadToExternal, l2, l2+64, 4)
		Expect(err).NotTo(HaveOccurred())

		Expect(func() { model.Step() }).To(Panic())
	})

	It("should reject writes to counters", func() {
		Expect(func() { model.Write(regs.DoneID(0), 3) }).To(Panic())
	})

	It("should expose memory on the bus", func() {
		model.Store32(uint64(l1)+4, 0xdeadbeef)

		Expect(model.Load32(uint64(l1) + 4)).To(Equal(uint32(0xdeadbeef)))
		Expect(read(model.Memory(), l1+4, 4)).
			To(Equal([]byte{0xef, 0xbe, 0xad, 0xde}))
	})

	It("should report launches and completions to hooks", func() {
		var positions []*hooking.HookPos
		model.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			positions = append(positions, ctx.Pos)
		}))

		_, err := engine.Issue1D(dma.ScratchpadToScratchpad, l1, l1+16, 4)
		Expect(err).NotTo(HaveOccurred())
		model.Drain()

		Expect(positions).To(Equal([]*hooking.HookPos{
			idma.HookPosLaunch, idma.HookPosComplete,
		}))
	})

	Context("when running", func() {
		var (
			ctx    context.Context
			cancel context.CancelFunc
			done   chan error
		)

		BeforeEach(func() {
			ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
			done = make(chan error, 1)
			go func() { done <- model.Run(ctx) }()
		})

		AfterEach(func() {
			cancel()
			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})

		It("should let waiters sleep until completion", func() {
			fill(model.Memory(), l1, 128, func(i int) byte { return byte(i & 0xff) })

			_, err := engine.Copy(ctx, dma.MakeTransferBuilder().
				WithDirection(dma.ScratchpadToExternal).
				WithSrc(l1).WithDst(l2).WithLength(128).
				Build())

			Expect(err).NotTo(HaveOccurred())
			Expect(read(model.Memory(), l2, 128)).
				To(Equal(read(model.Memory(), l1, 128)))
		})

		It("should let a barrier drain many transfers", func() {
			tickets := make([]dma.Ticket, 0, 20)
			for i := uint32(0); i < 20; i++ {
				t, err := engine.Issue1D(dma.ExternalToScratchpad,
					l2+i*16, l1+i*16, 16)
				Expect(err).NotTo(HaveOccurred())
				tickets = append(tickets, t)
			}

			Expect(engine.Barrier(ctx, dma.QueueToScratchpad)).To(Succeed())

			for _, t := range tickets {
				Expect(engine.IsComplete(t)).To(BeTrue(), t.String())
			}
			Expect(model.Stats(1).Transfers).To(Equal(uint64(20)))
		})

		It("should serve several cores sharing one block", func() {
			lock := &sync.Mutex{}
			var wg sync.WaitGroup

			for core := 0; core < 2; core++ {
				e := dma.MakeBuilder().
					WithBlock(regs.NewDirectWindow(model)).
					WithEventLine(unit.Core(core)).
					WithIssueLock(lock).
					Build("DMA")

				wg.Add(1)
				go func(core int) {
					defer GinkgoRecover()
					defer wg.Done()

					base := uint32(core) * 1024
					for i := uint32(0); i < 10; i++ {
						_, err := e.Copy(ctx, dma.MakeTransferBuilder().
							WithDirection(dma.ScratchpadToScratchpad).
							WithSrc(l1 + base + i*8).
							WithDst(l1 + 4096 + base + i*8).
							WithLength(8).
							Build())
						Expect(err).NotTo(HaveOccurred())
					}
				}(core)
			}

			wg.Wait()
			Expect(model.Stats(1).Transfers).To(Equal(uint64(20)))
			Expect(engine.DoneID(dma.QueueToScratchpad)).To(Equal(dma.ID(20)))
		})
	})

	Context("near the end of the identifier space", func() {
		BeforeEach(func() {
			build(idma.MakeBuilder().WithInitialID(0xfffffffe))
		})

		It("should keep ordering across the wrap", func() {
			var tickets []dma.Ticket
			for i := 0; i < 4; i++ {
				t, err := engine.Issue1D(dma.ScratchpadToExternal, l1, l2, 4)
				Expect(err).NotTo(HaveOccurred())
				tickets = append(tickets, t)
			}

			Expect(tickets[0].ID).To(Equal(dma.ID(0xffffffff)))
			Expect(tickets[1].ID).To(Equal(dma.ID(0)))
			Expect(tickets[3].ID).To(Equal(dma.ID(2)))

			for i, t := range tickets {
				Expect(engine.IsComplete(t)).To(BeFalse())
				Expect(model.Step()).To(BeTrue())

				for _, earlier := range tickets[:i+1] {
					Expect(engine.IsComplete(earlier)).To(BeTrue())
				}
				for _, later := range tickets[i+1:] {
					Expect(engine.IsComplete(later)).To(BeFalse())
				}
			}
		})
	})
})
