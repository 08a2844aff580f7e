package host

import (
	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/sim"
	"github.com/sarchlab/simplebus/wishbone"
)

// acceptMiddleware runs the idle state. It releases ack and, on a strobe,
// captures a pending request and sends its command byte.
type acceptMiddleware struct {
	*Comp
}

func (m *acceptMiddleware) Tick() bool {
	if m.state.Q() != Idle {
		return false
	}

	m.busOut.D(0)
	m.ack.D(false)

	if !m.strobe.Strobe() {
		return false
	}

	req := m.request()
	if !req.Active() {
		return false
	}

	t := m.capture(req)

	if t.Dir == protocol.Write {
		m.state.D(WriteCmd)
	} else {
		m.state.D(ReadCmd)
	}

	m.emit(protocol.Encode(t.Dir))

	if m.NumHooks() > 0 {
		m.InvokeHook(sim.HookCtx{
			Domain: m.Comp,
			Pos:    HookPosTransactionStart,
			Item:   t,
		})
	}

	return true
}

func (m *acceptMiddleware) capture(req wishbone.Request) *wishbone.Transaction {
	g := m.geometry
	addr := g.ByteAddress(req.Adr) & g.AddrMask()

	t := &wishbone.Transaction{
		ID:      sim.GetIDGenerator().Generate(),
		Address: addr,
		Dir:     protocol.Read,
	}

	m.addr.D(protocol.Word(addr))

	if req.We {
		t.Dir = protocol.Write
		t.Data = req.DatW & g.DataMask()
		t.Sel = req.Sel & g.SelMask()

		m.data.D(protocol.Word(t.Data))
		m.sel.D(t.Sel)
	} else if m.spec.ReadSel {
		t.Sel = req.Sel & g.SelMask()
		m.sel.D(t.Sel)
	}

	m.current.D(t)

	return t
}
