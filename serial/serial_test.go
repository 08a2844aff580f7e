package serial

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/sim"
)

var _ = Describe("Bus", func() {
	var (
		mockCtrl   *gomock.Controller
		host       *MockDriver
		peripheral *MockDriver
		hostPins   Pins
		periPins   Pins
		bus        *Bus
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		host = NewMockDriver(mockCtrl)
		peripheral = NewMockDriver(mockCtrl)
		host.EXPECT().Pins().
			DoAndReturn(func() Pins { return hostPins }).AnyTimes()
		peripheral.EXPECT().Pins().
			DoAndReturn(func() Pins { return periPins }).AnyTimes()

		hostPins = Pins{}
		periPins = Pins{}
		bus = NewBus("Bus")
		bus.Connect(host, peripheral)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should read zero when released", func() {
		hostPins = Pins{Data: 0x55}
		bus.Eval()

		Expect(bus.Value()).To(Equal(uint8(0)))
		Expect(bus.StateString()).To(Equal("Released"))
	})

	It("should carry the host byte", func() {
		hostPins = MakePins(0x03, protocol.ParityEven, true)
		bus.Eval()

		Expect(bus.Value()).To(Equal(uint8(0x03)))
		Expect(bus.Pins().Parity).To(BeFalse())
		Expect(bus.HostDriving()).To(BeTrue())
		Expect(bus.StateString()).To(Equal("Host:0x03/false"))
	})

	It("should carry the peripheral byte", func() {
		periPins = MakePins(0x83, protocol.ParityInverted, true)
		bus.Eval()

		Expect(bus.Value()).To(Equal(uint8(0x83)))
		Expect(bus.Pins().Parity).To(BeFalse())
		Expect(bus.PeripheralDriving()).To(BeTrue())
	})

	It("should panic on contention", func() {
		invoked := false
		bus.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			invoked = ctx.Pos == HookPosContention
		}))

		hostPins = Pins{Data: 1, OE: true}
		periPins = Pins{Data: 2, OE: true}

		Expect(func() { bus.Eval() }).To(Panic())
		Expect(invoked).To(BeTrue())
	})

	It("should panic when not connected", func() {
		Expect(func() { NewBus("Lonely").Eval() }).To(Panic())
	})
})
