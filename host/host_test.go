package host

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/simplebus/csr"
	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/sim"
	"github.com/sarchlab/simplebus/wishbone"
)

var _ = Describe("Spec", func() {
	It("should accept the defaults", func() {
		Expect(Defaults().Validate()).To(Succeed())
	})

	DescribeTable("should reject bad values",
		func(mutate func(s *Spec)) {
			s := Defaults()
			mutate(&s)
			Expect(s.Validate()).NotTo(Succeed())
		},
		Entry("address width", func(s *Spec) { s.AddrWidth = 12 }),
		Entry("data width", func(s *Spec) { s.DataWidth = 128 }),
		Entry("divisor", func(s *Spec) { s.Divisor = 8 }),
		Entry("countdown period", func(s *Spec) {
			s.Strobe = StrobeCountdown
			s.CountdownPeriod = 0
		}),
		Entry("strobe kind", func(s *Spec) { s.Strobe = 5 }),
		Entry("parity mode", func(s *Spec) { s.ParityMode = 9 }),
	)

	It("should parse strobe kinds", func() {
		k, err := ParseStrobeKind("Countdown")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(StrobeCountdown))
		Expect(k.String()).To(Equal("countdown"))

		_, err = ParseStrobeKind("pll")
		Expect(err).To(HaveOccurred())
	})

	It("should panic when building from an invalid spec", func() {
		Expect(func() {
			MakeBuilder().WithDataWidth(12).Build("Host")
		}).To(Panic())
	})
})

var _ = Describe("Host", func() {
	var (
		mockCtrl *gomock.Controller
		upstream *MockInitiator
		line     *MockLine
		req      wishbone.Request
		inbound  uint8
		h        *Comp
		domain   *rtl.Domain
		sent     []uint8
		sentAt   []uint64
		started  []*wishbone.Transaction
		ended    []*wishbone.Transaction
	)

	build := func(b Builder) {
		h = b.Build("Host")
		h.ConnectUpstream(upstream)
		h.ConnectBus(line)

		domain = rtl.NewDomain("Clk")
		domain.Add(h)

		h.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			switch ctx.Pos {
			case HookPosByteSent:
				sent = append(sent, ctx.Item.(uint8))
				sentAt = append(sentAt, domain.Cycle())
			case HookPosTransactionStart:
				started = append(started, ctx.Item.(*wishbone.Transaction))
			case HookPosTransactionEnd:
				ended = append(ended, ctx.Item.(*wishbone.Transaction))
			}
		}))
	}

	// strobeStep steps until the host has consumed one strobe.
	strobeStep := func() {
		for i := 0; i < 1024; i++ {
			s := h.Strobe()
			domain.Step()

			if s {
				return
			}
		}

		Fail("no strobe within 1024 cycles")
	}

	stepUntil := func(s State) {
		for i := 0; i < 4096 && h.State() != s; i++ {
			domain.Step()
		}

		Expect(h.State()).To(Equal(s))
	}

	// stepCountingAcks steps n cycles. It drops the request when it sees
	// ack, like a wide-bus initiator would.
	stepCountingAcks := func(n int) int {
		acks := 0

		for i := 0; i < n; i++ {
			domain.Step()

			if h.Response().Ack {
				acks++
				req = wishbone.Request{}
			}
		}

		return acks
	}

	writeReq := func(addr, data uint64, sel uint8) wishbone.Request {
		g := wishbone.Geometry{AddrWidth: 32, DataWidth: 64}

		return wishbone.Request{
			Adr:  g.WordAddress(addr),
			DatW: data,
			Sel:  sel,
			Cyc:  true,
			Stb:  true,
			We:   true,
		}
	}

	readReq := func(addr uint64) wishbone.Request {
		g := wishbone.Geometry{AddrWidth: 32, DataWidth: 64}

		return wishbone.Request{
			Adr: g.WordAddress(addr),
			Sel: 0xFF,
			Cyc: true,
			Stb: true,
		}
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		upstream = NewMockInitiator(mockCtrl)
		line = NewMockLine(mockCtrl)
		upstream.EXPECT().Request().
			DoAndReturn(func() wishbone.Request { return req }).AnyTimes()
		line.EXPECT().Value().
			DoAndReturn(func() uint8 { return inbound }).AnyTimes()

		req = wishbone.Request{}
		inbound = 0
		sent = nil
		sentAt = nil
		started = nil
		ended = nil

		build(MakeBuilder())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should idle and drive zero without requests", func() {
		domain.Run(64)

		Expect(h.State()).To(Equal(Idle))
		Expect(h.Pins().Data).To(Equal(uint8(0)))
		Expect(h.Pins().OE).To(BeTrue())
		Expect(h.Response().Stall).To(BeFalse())
		Expect(sent).To(BeEmpty())
	})

	It("should send a write frame and complete on the write ack", func() {
		req = writeReq(0xDDC0FFE8, 0x0123456789ABCDEF, 0xFF)

		for i := 0; i < 4096 && h.State() != WriteAck; i++ {
			domain.Step()

			pins := h.Pins()
			Expect(pins.Parity).
				To(Equal(protocol.Parity(pins.Data, protocol.ParityInverted)))

			if h.State() != Idle {
				Expect(h.Response().Stall).To(BeTrue())
			}
		}

		Expect(sent).To(Equal([]uint8{
			0x03,
			0xE8, 0xFF, 0xC0, 0xDD,
			0xFF,
			0xEF, 0xCD, 0xAB, 0x89, 0x67, 0x45, 0x23, 0x01,
		}))

		frame, err := protocol.DecodeFrame(sent, h.Spec().Geometry().Protocol())
		Expect(err).NotTo(HaveOccurred())
		Expect(frame.Address).To(Equal(protocol.Word(0xDDC0FFE8)))
		Expect(frame.Data).To(Equal(protocol.Word(0x0123456789ABCDEF)))

		Expect(h.Pins().OE).To(BeFalse())
		Expect(stepCountingAcks(64)).To(Equal(0))
		Expect(h.State()).To(Equal(WriteAck))

		inbound = 0x83
		Expect(stepCountingAcks(64)).To(Equal(1))
		Expect(h.State()).To(Equal(Idle))

		Expect(started).To(HaveLen(1))
		Expect(ended).To(HaveLen(1))
		Expect(ended[0].Dir).To(Equal(protocol.Write))
		Expect(ended[0].Address).To(Equal(uint64(0xDDC0FFE8)))
	})

	It("should not take a read ack for a write", func() {
		req = writeReq(0x40, 0x1, 0x01)
		stepUntil(WriteAck)

		inbound = 0x82
		Expect(stepCountingAcks(128)).To(Equal(0))
		Expect(h.State()).To(Equal(WriteAck))
	})

	It("should send a read frame and collect the read data", func() {
		req = readReq(0x53782138)
		stepUntil(ReadAck)

		Expect(sent).To(Equal([]uint8{0x02, 0x38, 0x21, 0x78, 0x53}))
		Expect(h.Pins().OE).To(BeFalse())

		inbound = 0x82
		strobeStep()
		Expect(h.State()).To(Equal(ReadData))

		for _, b := range []uint8{0xBB, 0x44, 0xAA, 0x33, 0x99, 0x22, 0x88, 0x11} {
			inbound = b
			strobeStep()
		}

		inbound = 0
		Expect(h.Response().Ack).To(BeFalse())

		Expect(stepCountingAcks(32)).To(Equal(1))
		Expect(h.Response().DatR).To(Equal(uint64(0x1188229933AA44BB)))
		Expect(ended).To(HaveLen(1))
		Expect(ended[0].Data).To(Equal(uint64(0x1188229933AA44BB)))
	})

	It("should wait for the read ack indefinitely", func() {
		req = readReq(0x100)
		stepUntil(ReadAck)

		inbound = 0x83
		Expect(stepCountingAcks(256)).To(Equal(0))
		Expect(h.State()).To(Equal(ReadAck))
		Expect(h.Response().Stall).To(BeTrue())
	})

	It("should send addresses least significant byte first", func() {
		for _, addr := range []uint64{0x0, 0x8, 0x12345678, 0xFFFFFFF8} {
			sent = nil
			req = readReq(addr)
			stepUntil(ReadAck)

			Expect(sent[0]).To(Equal(uint8(0x02)))
			Expect(sent[1:]).To(Equal(protocol.Word(addr).Bytes(4)))

			h.Reset()
		}
	})

	It("should change bytes only on strobes", func() {
		build(MakeBuilder().WithCountdownStrobe(3))
		req = writeReq(0x1000, 0xAB, 0x01)

		stepUntil(WriteAck)

		Expect(sent).To(HaveLen(1 + 4 + 1 + 8))
		for i := 1; i < len(sentAt); i++ {
			Expect(sentAt[i] - sentAt[i-1]).To(Equal(uint64(3)))
		}
		Expect(h.HasClkOut()).To(BeFalse())
		Expect(h.ClkOut()).To(BeFalse())
	})

	It("should send a read select byte when asked", func() {
		build(MakeBuilder().WithReadSel(true))
		req = readReq(0x53782138)
		req.Sel = 0x0F

		stepUntil(ReadAck)

		Expect(sent).To(Equal([]uint8{0x02, 0x38, 0x21, 0x78, 0x53, 0x0F}))
	})

	It("should support narrow geometries", func() {
		build(MakeBuilder().
			WithAddrWidth(16).
			WithDataWidth(16).
			WithParityMode(protocol.ParityEven))

		g := wishbone.Geometry{AddrWidth: 16, DataWidth: 16}
		req = wishbone.Request{
			Adr: g.WordAddress(0xBEEE), DatW: 0xCAFE, Sel: 0x3,
			Cyc: true, Stb: true, We: true,
		}

		stepUntil(WriteAck)

		Expect(sent).To(Equal([]uint8{0x03, 0xEE, 0xBE, 0x03, 0xFE, 0xCA}))
		Expect(h.Pins().Parity).To(Equal(protocol.Parity(0, protocol.ParityEven)))
	})

	It("should be reconfigured through the control bus", func() {
		ctrl := wishbone.NewMaster("Ctrl", csr.Geometry, 2)
		ctrl.ConnectTo(h.CSR())
		h.ConnectCtrl(ctrl)
		domain.Add(ctrl)

		Expect(h.Enabled()).To(BeFalse())

		ctrl.Enqueue(wishbone.NewWrite(0, uint64(csr.MakeConfig(3, true)), 0xF))
		_, err := domain.RunUntil(func() bool { return !ctrl.Busy() }, 16)
		Expect(err).NotTo(HaveOccurred())

		Expect(h.Enabled()).To(BeTrue())
		Expect(h.CSR().Divisor()).To(Equal(uint8(3)))

		var strobes []uint64
		for i := 0; i < 80; i++ {
			if h.Strobe() {
				strobes = append(strobes, domain.Cycle())
			}
			domain.Step()
		}

		Expect(len(strobes)).To(BeNumerically(">=", 4))
		Expect(strobes[len(strobes)-1] - strobes[len(strobes)-2]).
			To(Equal(uint64(16)))
		Expect(h.CtrlResponse().Ack).To(BeFalse())
	})
})
