package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/idma/dma"
	"github.com/sarchlab/idma/eventunit"
	"github.com/sarchlab/idma/mem"
	"github.com/sarchlab/idma/mem/idma"
	"github.com/sarchlab/idma/regs"
)

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		model  *idma.Comp
		server *httptest.Server
	)

	get := func(path string) (int, []byte) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, body
	}

	BeforeEach(func() {
		unit := eventunit.New(1)
		model = idma.MakeBuilder().WithEvents(unit).Build("IDMA")
		engine := dma.MakeBuilder().
			WithBlock(regs.NewDirectWindow(model)).
			WithEventLine(unit.Core(0)).
			Build("DMA")

		_, err := engine.Issue1D(dma.ScratchpadToExternal,
			mem.DefaultScratchpadBase, mem.DefaultExternalBase, 64)
		Expect(err).NotTo(HaveOccurred())
		_, err = engine.Issue1D(dma.ExternalToScratchpad,
			mem.DefaultExternalBase, mem.DefaultScratchpadBase, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(model.Step()).To(BeTrue())

		m = NewMonitor()
		m.RegisterModel(model)
		m.RegisterTimeTeller(model.Engine())
		server = httptest.NewServer(m.Handler())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should fall back to a random port for reserved ports", func() {
		Expect(NewMonitor().WithPortNumber(80).portNumber).To(BeZero())
		Expect(NewMonitor().WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should list models", func() {
		code, body := get("/api/list_components")

		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(Equal(`["IDMA"]`))
	})

	It("should report the current cycle", func() {
		_, body := get("/api/now")

		Expect(string(body)).To(Equal(`{"now":28}`))
	})

	It("should report the streams in use", func() {
		code, body := get("/api/stats/IDMA")
		Expect(code).To(Equal(http.StatusOK))

		var rsp []StreamReport
		Expect(json.Unmarshal(body, &rsp)).To(Succeed())
		Expect(rsp).To(Equal([]StreamReport{
			{
				Stream: 0, NextID: 1, DoneID: 1,
				Transfers: 1, Bytes: 64, BusyCycles: 28,
			},
			{Stream: 1, NextID: 1, InFlight: 1},
		}))
	})

	It("should serialize the register state", func() {
		code, body := get("/api/component/IDMA")

		Expect(code).To(Equal(http.StatusOK))
		Expect(json.Valid(body)).To(BeTrue())
	})

	It("should serialize a single field", func() {
		req := url.PathEscape(`{"comp_name":"IDMA","field_name":"Staging"}`)
		code, body := get("/api/field/" + req)

		Expect(code).To(Equal(http.StatusOK))
		Expect(json.Valid(body)).To(BeTrue())
	})

	It("should serialize the per-stream counters", func() {
		for _, field := range []string{"Next", "Done", "Status", "Pending"} {
			req := url.PathEscape(
				`{"comp_name":"IDMA","field_name":"` + field + `"}`)
			code, body := get("/api/field/" + req)

			Expect(code).To(Equal(http.StatusOK), field)
			Expect(json.Valid(body)).To(BeTrue(), field)
		}
	})

	It("should expose the counters as lists", func() {
		view := viewOf(model.SnapshotState())

		Expect(view.Next).To(HaveLen(regs.NumStreams))
		Expect(view.Next[0]).To(Equal(uint32(1)))
		Expect(view.Done[0]).To(Equal(uint32(1)))
		Expect(view.Status[1]).To(Equal(uint32(1)))
		Expect(view.Pending).To(HaveLen(1))
		Expect(view.Pending[0].Stream).To(Equal(1))
	})

	It("should reject malformed field requests", func() {
		code, _ := get("/api/field/" + url.PathEscape("{"))

		Expect(code).To(Equal(http.StatusBadRequest))
	})

	It("should return 404 for unknown models", func() {
		code, body := get("/api/stats/L2")

		Expect(code).To(Equal(http.StatusNotFound))
		Expect(string(body)).To(Equal("Component not found"))
	})

	It("should list and complete progress bars", func() {
		bar := m.CreateProgressBar("1D presets", 13)
		bar.Record(true)
		bar.Record(true)
		bar.Record(false)

		_, body := get("/api/progress")

		var bars []map[string]any
		Expect(json.Unmarshal(body, &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]["name"]).To(Equal("1D presets"))
		Expect(bars[0]["total"]).To(BeNumerically("==", 13))
		Expect(bars[0]["passed"]).To(BeNumerically("==", 2))
		Expect(bars[0]["failed"]).To(BeNumerically("==", 1))
		Expect(bar.Finished()).To(Equal(uint64(3)))

		m.CompleteProgressBar(bar)
		_, body = get("/api/progress")
		Expect(string(body)).To(Equal("[]"))
	})

	It("should report process resources", func() {
		code, body := get("/api/resource")
		Expect(code).To(Equal(http.StatusOK))

		var rsp resourceRsp
		Expect(json.Unmarshal(body, &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
		Expect(rsp.Goroutines).To(BeNumerically(">", 0))
	})

	It("should reject invalid profile durations", func() {
		code, _ := get("/api/profile?seconds=-1")

		Expect(code).To(Equal(http.StatusBadRequest))
	})
})
