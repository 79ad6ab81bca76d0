package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/idma/sim/timing"
)

var _ = Describe("BusyTimeTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		t          *BusyTimeTracer
	)

	at := func(c timing.VTimeInCycle) {
		timeTeller.EXPECT().CurrentTime().Return(c)
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)

		t = NewBusyTimeTracer(timeTeller, nil)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should track busy time, one task", func() {
		at(10)
		t.StartTask(Task{ID: "1"})
		at(20)
		t.EndTask(Task{ID: "1"})

		Expect(t.BusyTime()).To(Equal(timing.VTimeInCycle(10)))
	})

	It("should track busy time, two tasks", func() {
		at(10)
		t.StartTask(Task{ID: "1"})
		at(20)
		t.EndTask(Task{ID: "1"})

		at(30)
		t.StartTask(Task{ID: "2"})
		at(40)
		t.EndTask(Task{ID: "2"})

		Expect(t.BusyTime()).To(Equal(timing.VTimeInCycle(20)))
	})

	It("should track busy time, two tasks adjacent", func() {
		at(10)
		t.StartTask(Task{ID: "1"})
		at(20)
		t.EndTask(Task{ID: "1"})

		at(20)
		t.StartTask(Task{ID: "2"})
		at(30)
		t.EndTask(Task{ID: "2"})

		Expect(t.BusyTime()).To(Equal(timing.VTimeInCycle(20)))
	})

	It("should track busy time, two tasks overlap", func() {
		at(10)
		t.StartTask(Task{ID: "1"})
		at(15)
		t.StartTask(Task{ID: "2"})
		at(20)
		t.EndTask(Task{ID: "1"})
		at(25)
		t.EndTask(Task{ID: "2"})

		Expect(t.BusyTime()).To(Equal(timing.VTimeInCycle(15)))
	})

	It("should track busy time, one task contains another", func() {
		at(10)
		t.StartTask(Task{ID: "1"})
		at(15)
		t.StartTask(Task{ID: "2"})
		at(20)
		t.EndTask(Task{ID: "2"})
		at(30)
		t.EndTask(Task{ID: "1"})

		Expect(t.BusyTime()).To(Equal(timing.VTimeInCycle(20)))
	})

	It("should ignore filtered tasks", func() {
		t = NewBusyTimeTracer(timeTeller, func(task Task) bool {
			return task.Kind == KindTransfer
		})

		at(10)
		t.StartTask(Task{ID: "1", Kind: KindWait})
		at(20)
		t.EndTask(Task{ID: "1"})

		Expect(t.BusyTime()).To(BeZero())
	})

	It("should terminate unfinished tasks", func() {
		at(10)
		t.StartTask(Task{ID: "1"})

		t.TerminateAllTasks(40)

		Expect(t.BusyTime()).To(Equal(timing.VTimeInCycle(30)))
	})
})

var _ = Describe("AverageTimeTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		t          *AverageTimeTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)

		t = NewAverageTimeTracer(timeTeller, nil)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should average task durations", func() {
		timeTeller.EXPECT().CurrentTime().Return(timing.VTimeInCycle(0))
		t.StartTask(Task{ID: "1"})
		timeTeller.EXPECT().CurrentTime().Return(timing.VTimeInCycle(5))
		t.StartTask(Task{ID: "2"})
		timeTeller.EXPECT().CurrentTime().Return(timing.VTimeInCycle(10))
		t.EndTask(Task{ID: "1"})
		timeTeller.EXPECT().CurrentTime().Return(timing.VTimeInCycle(35))
		t.EndTask(Task{ID: "2"})

		Expect(t.TotalCount()).To(Equal(uint64(2)))
		Expect(t.AverageTime()).To(BeNumerically("~", 20.0))
		Expect(t.MaxTime()).To(Equal(timing.VTimeInCycle(30)))
	})

	It("should ignore tasks it never saw start", func() {
		timeTeller.EXPECT().CurrentTime().Return(timing.VTimeInCycle(10))
		t.EndTask(Task{ID: "1"})

		Expect(t.TotalCount()).To(BeZero())
		Expect(t.AverageTime()).To(BeZero())
	})
})
