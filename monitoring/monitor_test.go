package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/simplebus/csr"
	"github.com/sarchlab/simplebus/sim"
	"github.com/sarchlab/simplebus/system"
	"github.com/sarchlab/simplebus/wishbone"
)

type sampleComponent struct {
	name   string
	Count  int
	Label  string
	buffer *sim.Buffer[int]
}

func (c *sampleComponent) Name() string {
	return c.name
}

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		s      *system.System
		engine *sim.SerialEngine
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		m.Router().ServeHTTP(rec, req)

		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, v any) {
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
		Expect(json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
	}

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		s = system.MakeBuilder().Build("Bridge")

		m = NewMonitor()
		m.RegisterEngine(engine)
		m.RegisterClock(s.Domain)
		m.RegisterRegisters(s.Host.CSR(), csr.NumRegs)

		for _, b := range s.Domain.Blocks() {
			m.RegisterComponent(b)
		}
	})

	It("should list the components", func() {
		var names []string
		decode(get("/api/list_components"), &names)

		Expect(names).To(ContainElements(
			"Bridge.Master", "Bridge.Host", "Bridge.Peripheral", "Bridge.RAM"))
	})

	It("should find the queues of registered components", func() {
		Expect(s.Submit(wishbone.NewWrite(0, 1, 0xFF))).To(BeTrue())
		Expect(s.Submit(wishbone.NewWrite(8, 2, 0xFF))).To(BeTrue())

		var rsp []bufferRsp
		decode(get("/api/buffers?sort=level"), &rsp)

		Expect(rsp).To(ContainElement(bufferRsp{
			Buffer: "Bridge.Master.Queue", Level: 2, Cap: 16,
		}))
		Expect(rsp[0].Buffer).To(Equal("Bridge.Master.Queue"))
	})

	It("should reject an unknown sort method", func() {
		Expect(get("/api/buffers?sort=name").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should report the states and the cycle", func() {
		Expect(s.Write(0x10, 0x55, 0xFF)).To(Succeed())

		var states []stateRsp
		decode(get("/api/states"), &states)
		Expect(states).To(ContainElement(
			HaveField("Name", "Bridge.Master")))

		var cycle struct{ Cycle uint64 }
		decode(get("/api/cycle"), &cycle)
		Expect(cycle.Cycle).To(Equal(s.Domain.Cycle()))
	})

	It("should peek the registers", func() {
		Expect(s.Configure(5, true)).To(Succeed())

		var regs []uint32
		decode(get("/api/csr"), &regs)

		Expect(regs).To(Equal([]uint32{csr.MakeConfig(5, true), 0}))
	})

	It("should pause and continue the engine", func() {
		var rsp map[string]bool

		decode(get("/api/pause"), &rsp)
		Expect(rsp["paused"]).To(BeTrue())

		decode(get("/api/pause"), &rsp)
		Expect(rsp["paused"]).To(BeTrue())

		decode(get("/api/continue"), &rsp)
		Expect(rsp["paused"]).To(BeFalse())
	})

	It("should report the simulated time", func() {
		var rsp struct{ Now float64 }
		decode(get("/api/now"), &rsp)

		Expect(rsp.Now).To(BeZero())
	})

	It("should serialize a component", func() {
		c := &sampleComponent{
			name:   "Sample",
			Count:  3,
			Label:  "x",
			buffer: sim.NewBuffer[int]("Sample.Buf", 4),
		}
		m.RegisterComponent(c)

		rec := get("/api/component/Sample")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Count"))

		field := url.PathEscape(`{"comp_name":"Sample","field_name":"Label"}`)
		rec = get("/api/field/" + field)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp []bufferRsp
		decode(get("/api/buffers"), &rsp)
		Expect(rsp).To(ContainElement(bufferRsp{
			Buffer: "Sample.Buf", Level: 0, Cap: 4,
		}))
	})

	It("should answer 404 for an unknown component", func() {
		Expect(get("/api/component/Nope").Code).To(Equal(http.StatusNotFound))
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("Transactions", 10)
		bar.IncrementInProgress(4)
		bar.MoveInProgressToFinished(3)
		Expect(bar.Fraction()).To(BeNumerically("~", 0.3))

		var bars []map[string]any
		decode(get("/api/progress"), &bars)
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]["finished"]).To(BeNumerically("==", 3))

		m.CompleteProgressBar(bar)
		decode(get("/api/progress"), &bars)
		Expect(bars).To(BeEmpty())
	})

	It("should report the resources of the process", func() {
		var rsp resourceRsp
		decode(get("/api/resource"), &rsp)

		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should collect a profile", func() {
		m.profileDuration = 10 * time.Millisecond

		rec := get("/api/profile")
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should serve the page", func() {
		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("<!DOCTYPE html>"))
	})

	It("should replace reserved ports", func() {
		m.WithPortNumber(80)
		Expect(m.portNumber).To(BeZero())

		m.WithPortNumber(8080)
		Expect(m.portNumber).To(Equal(8080))
	})
})
