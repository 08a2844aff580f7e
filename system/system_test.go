package system

import (
	"bytes"
	"math/rand"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/simplebus/csr"
	"github.com/sarchlab/simplebus/host"
	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/sim"
	"github.com/sarchlab/simplebus/strobe"
	"github.com/sarchlab/simplebus/vcd"
	"github.com/sarchlab/simplebus/wishbone"
)

var _ = Describe("Spec", func() {
	It("should accept the defaults", func() {
		Expect(Defaults().Validate()).To(Succeed())
	})

	It("should reject a countdown the peripheral cannot follow", func() {
		s := Defaults()
		s.Strobe = host.StrobeCountdown
		s.CountdownPeriod = 3
		Expect(s.Validate()).NotTo(Succeed())

		s.CountdownPeriod = 1
		Expect(s.Validate()).To(Succeed())
	})

	It("should reject an empty queue", func() {
		s := Defaults()
		s.QueueSize = 0
		Expect(s.Validate()).NotTo(Succeed())
	})

	It("should bound a transaction by the strobe period", func() {
		s := Defaults()
		Expect(s.StrobePeriod()).To(Equal(uint64(4)))

		s.Divisor = 7
		Expect(s.StrobePeriod()).To(Equal(uint64(256)))
		Expect(s.TransactionCycleBound()).To(BeNumerically(">", 256*20))

		s.CycleLimit = 10
		Expect(s.TransactionCycleBound()).To(Equal(uint64(10)))
	})
})

var _ = Describe("System", func() {
	var (
		s         *System
		sent      []uint8
		responded []uint8
	)

	watch := func() {
		sent = nil
		responded = nil

		s.Host.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == host.HookPosByteSent {
				sent = append(sent, ctx.Item.(uint8))
			}
		}))

		s.Domain.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos != rtl.HookPosCycle {
				return
			}

			if s.Host.Strobe() && s.Bus.PeripheralDriving() {
				responded = append(responded, s.Bus.Value())
			}
		}))
	}

	Context("with the default configuration", func() {
		BeforeEach(func() {
			s = MakeBuilder().Build("Bridge")
			watch()
		})

		It("should send the write frame and receive the write ack", func() {
			Expect(s.Write(0xDDC0FFE8, 0x0123456789ABCDEF, 0xFF)).To(Succeed())

			Expect(sent).To(Equal([]uint8{
				0x03,
				0xE8, 0xFF, 0xC0, 0xDD,
				0xFF,
				0xEF, 0xCD, 0xAB, 0x89, 0x67, 0x45, 0x23, 0x01,
			}))
			Expect(responded).To(Equal([]uint8{0x83}))

			Expect(s.Bus.HostDriving()).To(BeTrue())
			Expect(s.Bus.PeripheralDriving()).To(BeFalse())
		})

		It("should send the read frame and receive the data", func() {
			Expect(s.RAM.Storage().WriteWord(
				0x53782138%s.RAM.Storage().Capacity(), 8,
				0x1188229933AA44BB, 0xFF)).To(Succeed())

			data, err := s.Read(0x53782138)

			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(uint64(0x1188229933AA44BB)))
			Expect(sent).To(Equal([]uint8{0x02, 0x38, 0x21, 0x78, 0x53}))
			Expect(responded).To(Equal([]uint8{
				0x82, 0xBB, 0x44, 0xAA, 0x33, 0x99, 0x22, 0x88, 0x11,
			}))
		})

		It("should read back what was written", func() {
			Expect(s.Write(0x1000, 0xCAFEF00DDEADBEEF, 0xFF)).To(Succeed())

			data, err := s.Read(0x1000)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(uint64(0xCAFEF00DDEADBEEF)))
		})

		It("should only change the selected bytes", func() {
			old := uint64(0x1111111111111111)
			r := rand.New(rand.NewSource(1))

			for sel := 0; sel < 256; sel += 17 {
				addr := uint64(0x200 + sel*8)
				value := r.Uint64()

				Expect(s.Write(addr, old, 0xFF)).To(Succeed())
				Expect(s.Write(addr, value, uint8(sel))).To(Succeed())

				data, err := s.Read(addr)
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(
					Equal(wishbone.ApplySel(old, value, uint8(sel))),
					"sel %#02x", sel)
			}
		})

		It("should stall the master until the transaction completes", func() {
			Expect(s.Submit(wishbone.NewWrite(0x40, 1, 0xFF))).To(BeTrue())

			stalled := 0
			_, err := s.Domain.RunUntil(func() bool {
				if s.Host.Response().Stall {
					stalled++
				}
				return !s.Busy()
			}, s.Spec().TransactionCycleBound())

			Expect(err).NotTo(HaveOccurred())
			Expect(stalled).To(BeNumerically(">", 14*4))
			Expect(s.Master.Completed()).To(HaveLen(1))
		})

		It("should run queued transactions in order", func() {
			for i := uint64(0); i < 4; i++ {
				Expect(s.Submit(wishbone.NewWrite(i*8, i+100, 0xFF))).To(BeTrue())
			}

			reads := make([]*wishbone.Transaction, 4)
			for i := range reads {
				reads[i] = wishbone.NewRead(uint64(i) * 8)
				Expect(s.Submit(reads[i])).To(BeTrue())
			}

			Expect(s.Drain()).To(Succeed())

			for i, t := range reads {
				Expect(t.Data).To(Equal(uint64(i + 100)))
			}

			done := s.Master.Completed()
			Expect(done).To(HaveLen(8))
			for i := 1; i < len(done); i++ {
				Expect(done[i].IssueCycle).To(BeNumerically(">", done[i-1].CompleteCycle))
			}
		})

		It("should slow down when the divisor grows", func() {
			start := s.Domain.Cycle()
			Expect(s.Write(0x8, 1, 0xFF)).To(Succeed())
			fast := s.Domain.Cycle() - start

			Expect(s.Configure(3, true)).To(Succeed())
			Expect(s.Host.CSR().Divisor()).To(Equal(uint8(3)))

			start = s.Domain.Cycle()
			Expect(s.Write(0x8, 2, 0xFF)).To(Succeed())
			slow := s.Domain.Cycle() - start

			Expect(slow).To(BeNumerically(">", 3*fast))

			data, err := s.Read(0x8)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(uint64(2)))
		})

		It("should size the cycle bound from the live divisor", func() {
			before := s.CycleBound()
			Expect(before).To(Equal(s.Spec().TransactionCycleBound()))

			Expect(s.Configure(strobe.MaxDivisor, true)).To(Succeed())
			Expect(s.CycleBound()).To(BeNumerically(">", 32*before))

			for i := uint64(0); i < 3; i++ {
				Expect(s.Submit(wishbone.NewWrite(0x100+8*i, i+7, 0xFF))).
					To(BeTrue())
			}
			Expect(s.Drain()).To(Succeed())

			data, err := s.Read(0x110)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(uint64(9)))
		})

		It("should keep the status register", func() {
			Expect(s.WriteCSR(csr.StatusIndex, 0xA5A5A5A5, 0x3)).To(Succeed())

			v, err := s.ReadCSR(csr.StatusIndex)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(uint32(0x0000A5A5)))
		})

		It("should drive the enable pin from the config register", func() {
			Expect(s.Host.Enabled()).To(BeTrue())
			Expect(s.Configure(1, false)).To(Succeed())
			Expect(s.Host.Enabled()).To(BeFalse())
		})

		It("should time out when the clock limit is too small", func() {
			s = MakeBuilder().WithCycleLimit(10).Build("Bridge")

			err := s.Write(0, 1, 0xFF)
			Expect(err).To(MatchError(rtl.ErrCycleLimit))
		})

		It("should run from an engine", func() {
			engine := sim.NewSerialEngine()
			clock := s.NewClock(engine, 100*sim.MHz)

			for i := uint64(0); i < 3; i++ {
				Expect(s.Submit(wishbone.NewWrite(i*8, i+1, 0xFF))).To(BeTrue())
			}

			read := wishbone.NewRead(16)
			Expect(s.Submit(read)).To(BeTrue())

			clock.TickLater()
			Expect(engine.Run()).To(Succeed())

			Expect(read.Data).To(Equal(uint64(3)))
			Expect(s.Busy()).To(BeFalse())
			Expect(engine.CurrentTime()).To(BeNumerically(">", 0))
		})

		It("should start over after a reset", func() {
			Expect(s.Write(0x10, 0x77, 0xFF)).To(Succeed())
			s.Reset()

			Expect(s.Domain.Cycle()).To(BeZero())
			Expect(s.Master.Completed()).To(BeEmpty())

			data, err := s.Read(0x10)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(uint64(0x77)))
		})
	})

	DescribeTable("round trips in every configuration",
		func(b Builder) {
			s = b.Build("Bridge")
			g := s.Spec().Geometry()
			r := rand.New(rand.NewSource(7))

			for i := 0; i < 8; i++ {
				addr := r.Uint64() & g.AddrMask() & 0xFFF &^
					uint64(g.DataBytes()-1)
				value := r.Uint64() & g.DataMask()

				Expect(s.Write(addr, value, g.SelMask())).To(Succeed())

				data, err := s.Read(addr)
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal(value))
			}
		},
		Entry("default", MakeBuilder()),
		Entry("even parity", MakeBuilder().WithParityMode(protocol.ParityEven)),
		Entry("read select", MakeBuilder().WithReadSel(true)),
		Entry("countdown", MakeBuilder().WithCountdownStrobe()),
		Entry("divisor 0", MakeBuilder().WithDivisor(0)),
		Entry("divisor 5", MakeBuilder().WithDivisor(5)),
		Entry("slow memory", MakeBuilder().WithMemLatency(9)),
		Entry("16-bit bus",
			MakeBuilder().WithAddrWidth(16).WithDataWidth(16).
				WithMemCapacity(1<<12)),
		Entry("8-bit data",
			MakeBuilder().WithAddrWidth(24).WithDataWidth(8)),
		Entry("no control bus", MakeBuilder().WithoutCtrl()),
	)

	It("should send a select byte in read frames when asked", func() {
		s = MakeBuilder().WithReadSel(true).Build("Bridge")
		watch()

		_, err := s.Read(0x53782138)

		Expect(err).NotTo(HaveOccurred())
		Expect(sent).To(Equal([]uint8{0x02, 0x38, 0x21, 0x78, 0x53, 0xFF}))
	})

	It("should reach the top word of a 64-bit address space", func() {
		s = MakeBuilder().WithAddrWidth(64).WithMemCapacity(0).Build("Bridge")
		top := uint64(0xFFFFFFFFFFFFFFF8)

		Expect(s.Write(top, 0x0123456789ABCDEF, 0xFF)).To(Succeed())

		data, err := s.Read(top)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(uint64(0x0123456789ABCDEF)))
	})

	It("should refuse register accesses without a control bus", func() {
		s = MakeBuilder().WithoutCtrl().Build("Bridge")

		Expect(s.Configure(2, true)).To(MatchError(ErrNoCtrl))
		_, err := s.ReadCSR(0)
		Expect(err).To(MatchError(ErrNoCtrl))
	})

	It("should panic when building from an invalid spec", func() {
		Expect(func() {
			MakeBuilder().WithDivisor(9).Build("Bridge")
		}).To(Panic())
	})
})

var _ = Describe("Waveforms", func() {
	It("should dump the pins of a transaction", func() {
		s := MakeBuilder().Build("Bridge")
		buf := new(bytes.Buffer)
		w := vcd.NewWriter(buf, "10ns")
		s.AddProbes(w)
		s.Domain.AcceptHook(w)

		Expect(s.Write(0x20, 0xAB, 0x01)).To(Succeed())
		Expect(w.Flush()).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("$scope module Bridge.Host $end"))
		Expect(out).To(ContainSubstring("clk_out $end"))
		Expect(out).To(ContainSubstring("$enddefinitions $end"))

		// clk_out changes at least once every half strobe period.
		toggles := s.Domain.Cycle() / (s.Spec().StrobePeriod() / 2)
		Expect(strings.Count(out, "\n#")).
			To(BeNumerically(">=", toggles))
		Expect(strings.Count(out, "\n#")).
			To(BeNumerically("<=", s.Domain.Cycle()+1))
	})
})

var _ = Describe("Traffic", func() {
	It("should pass on a working bridge", func() {
		s := MakeBuilder().Build("Bridge")
		traffic := NewTraffic(3, s.Spec().Geometry(), 256, 0.5)

		for i := 0; i < 40; i++ {
			t := traffic.Next()
			Expect(s.Do(t)).To(Succeed())
			Expect(traffic.Check(t)).To(Succeed())
		}

		Expect(traffic.NumReads() + traffic.NumWrites()).To(Equal(40))
		Expect(traffic.NumReads()).To(BeNumerically(">", 0))
		Expect(traffic.NumWrites()).To(BeNumerically(">", 0))
	})

	It("should catch a corrupted memory", func() {
		s := MakeBuilder().Build("Bridge")
		traffic := NewTraffic(3, s.Spec().Geometry(), 8, 0)

		w := traffic.Next()
		Expect(s.Do(w)).To(Succeed())
		Expect(s.RAM.Storage().WriteWord(0, 8, ^w.Data, 0xFF)).To(Succeed())

		traffic.readFrac = 1
		r := traffic.Next()
		Expect(s.Do(r)).To(Succeed())

		if w.Sel == 0 {
			Skip("the write selected no byte")
		}

		Expect(traffic.Check(r)).To(MatchError(ErrMismatch))
	})
})
