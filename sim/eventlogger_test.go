package sim

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("EventLogger", func() {
	var (
		mockCtrl *gomock.Controller
		buf      *bytes.Buffer
		logger   *EventLogger
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		buf = new(bytes.Buffer)
		logger = NewEventLogger(log.New(buf, "", 0))
	})

	It("should log events before they are handled", func() {
		tc := NewTickingComponent("Bridge.Clock", NewMockEngine(mockCtrl), 1,
			NewMockTicker(mockCtrl))
		evt := MakeTickEvent(tc, 2)

		logger.Func(HookCtx{Pos: HookPosBeforeEvent, Item: evt})

		Expect(buf.String()).To(ContainSubstring("TickEvent -> Bridge.Clock"))
	})

	It("should ignore other hook positions", func() {
		logger.Func(HookCtx{Pos: HookPosAfterEvent, Item: MakeTickEvent(nil, 1)})

		Expect(buf.String()).To(BeEmpty())
	})
})
