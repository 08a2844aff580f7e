package peripheral

import (
	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/sim"
	"github.com/sarchlab/simplebus/wishbone"
)

// receiveMiddleware collects the frame sent by the host, one byte per
// strobe.
type receiveMiddleware struct {
	*Comp
}

func (m *receiveMiddleware) Tick() bool {
	switch m.state.Q() {
	case Idle, WriteAddr, ReadAddr, WriteSel, ReadSel, WriteData:
	default:
		return false
	}

	if !m.strobe.Strobe() {
		return false
	}

	in := m.inboundByte()

	switch m.state.Q() {
	case Idle:
		return m.receiveCmd(in)
	case WriteAddr:
		m.receiveAddr(in, WriteSel)
	case ReadAddr:
		if m.spec.ReadSel {
			m.receiveAddr(in, ReadSel)
		} else {
			m.receiveAddr(in, ReadWishbone)
		}
	case WriteSel:
		m.sel.D(in)
		m.data.D(0)
		m.count.D(m.dataBytes() - 1)
		m.state.D(WriteData)
	case ReadSel:
		m.sel.D(in)
		m.issue(protocol.Read, m.addr.Q(), 0, in)
	case WriteData:
		m.receiveData(in)
	}

	return true
}

func (m *receiveMiddleware) receiveCmd(in uint8) bool {
	var next State

	switch protocol.Cmd(in) {
	case protocol.CmdWrite:
		next = WriteAddr
	case protocol.CmdRead:
		next = ReadAddr
	default:
		return false
	}

	m.addr.D(0)
	m.count.D(m.addrBytes() - 1)
	m.state.D(next)

	return true
}

func (m *receiveMiddleware) receiveAddr(in uint8, next State) {
	count := m.count.Q()
	addr := m.addr.Q().WithByte(m.addrBytes()-1-count, in)
	m.addr.D(addr)

	if count > 0 {
		m.count.D(count - 1)
		return
	}

	if next == ReadWishbone {
		m.issue(protocol.Read, addr, 0, m.geometry.SelMask())
		return
	}

	m.state.D(next)
}

func (m *receiveMiddleware) receiveData(in uint8) {
	count := m.count.Q()
	data := m.data.Q().WithByte(m.dataBytes()-1-count, in)
	m.data.D(data)

	if count > 0 {
		m.count.D(count - 1)
		return
	}

	m.issue(protocol.Write, m.addr.Q(), data, m.sel.Q())
}

// issue moves to the wide-bus phase.
func (m *receiveMiddleware) issue(
	dir protocol.Direction,
	addr, data protocol.Word,
	sel uint8,
) {
	t := &wishbone.Transaction{
		ID:      sim.GetIDGenerator().Generate(),
		Address: uint64(addr),
		Sel:     sel,
		Dir:     dir,
	}

	if dir == protocol.Write {
		t.Data = uint64(data)
		m.state.D(WriteWishbone)
	} else {
		m.state.D(ReadWishbone)
	}

	m.current.D(t)

	if m.NumHooks() > 0 {
		m.InvokeHook(sim.HookCtx{
			Domain: m.Comp,
			Pos:    HookPosRequestIssued,
			Item:   t,
		})
	}
}
