package peripheral

import (
	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/sim"
)

// wideBusMiddleware holds the wide-bus request until the responder acks and
// then queues the ack byte. It runs in every cycle, strobe or not, so that a
// one-cycle ack is never missed.
type wideBusMiddleware struct {
	*Comp
}

func (m *wideBusMiddleware) Tick() bool {
	s := m.state.Q()
	if !s.OnWideBus() {
		return false
	}

	resp := m.response()
	if !resp.Ack {
		return false
	}

	t := m.current.Q()

	if s == WriteWishbone {
		m.busOut.D(protocol.EncodeAck(protocol.Write))
		m.state.D(WriteAck)
	} else {
		data := protocol.Word(resp.DatR).Truncate(m.dataBytes())
		m.data.D(data)
		m.busOut.D(protocol.EncodeAck(protocol.Read))
		m.state.D(ReadAck)

		if t != nil {
			t.Data = uint64(data)
		}
	}

	m.current.D(nil)

	if t != nil && m.NumHooks() > 0 {
		m.InvokeHook(sim.HookCtx{
			Domain: m.Comp,
			Pos:    HookPosRequestDone,
			Item:   t,
		})
	}

	return true
}
