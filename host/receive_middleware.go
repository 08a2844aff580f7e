package host

import (
	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/sim"
)

// receiveMiddleware waits for the peripheral's answer, collects read data
// and completes the wide-bus transaction.
type receiveMiddleware struct {
	*Comp
}

func (m *receiveMiddleware) Tick() bool {
	switch m.state.Q() {
	case WishboneAck:
		m.ack.D(false)
		m.current.D(nil)
		m.state.D(Idle)

		return true
	case WriteAck, ReadAck, ReadData:
	default:
		return false
	}

	if !m.strobe.Strobe() {
		return false
	}

	in := m.inboundByte()

	switch m.state.Q() {
	case WriteAck:
		if !protocol.IsAck(in, protocol.Write) {
			return false
		}

		m.complete(m.data.Q())
	case ReadAck:
		if !protocol.IsAck(in, protocol.Read) {
			return false
		}

		m.data.D(0)
		m.count.D(m.dataBytes())
		m.state.D(ReadData)
	case ReadData:
		m.receiveData(in)
	}

	return true
}

// receiveData stores inbound bytes least significant first. The strobe after
// the last byte completes the transaction.
func (m *receiveMiddleware) receiveData(in uint8) {
	count := m.count.Q()
	if count > 0 {
		m.data.D(m.data.Q().WithByte(m.dataBytes()-count, in))
		m.count.D(count - 1)

		return
	}

	m.complete(m.data.Q())
}

func (m *receiveMiddleware) complete(data protocol.Word) {
	m.ack.D(true)
	m.state.D(WishboneAck)

	t := m.current.Q()
	if t == nil {
		return
	}

	if t.Dir == protocol.Read {
		t.Data = uint64(data)
	}

	if m.NumHooks() > 0 {
		m.InvokeHook(sim.HookCtx{
			Domain: m.Comp,
			Pos:    HookPosTransactionEnd,
			Item:   t,
		})
	}
}
