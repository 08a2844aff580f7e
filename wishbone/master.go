package wishbone

import (
	"log"

	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/sim"
)

// HookPosIssue marks the cycle a master raises cyc for a transaction.
var HookPosIssue = &sim.HookPos{Name: "WB Issue"}

// HookPosComplete marks the cycle a master sees ack for a transaction.
var HookPosComplete = &sim.HookPos{Name: "WB Complete"}

// Master is a bus initiator that issues queued transactions one at a time
// with the classic handshake. It raises cyc and stb with the request
// signals, holds them until ack, and drops them for at least one cycle
// before the next transaction.
type Master struct {
	rtl.BlockBase
	sim.HookableBase

	geometry Geometry
	target   Responder
	queue    *sim.Buffer[*Transaction]
	cycle    uint64

	req     *rtl.Reg[Request]
	current *rtl.Reg[*Transaction]

	completed []*Transaction
}

// NewMaster creates a master that can hold up to queueSize pending
// transactions.
func NewMaster(name string, g Geometry, queueSize int) *Master {
	g.MustBeValid()

	m := &Master{
		BlockBase: rtl.MakeBlockBase(name),
		geometry:  g,
		queue:     sim.NewBuffer[*Transaction](name+".Queue", queueSize),
	}
	m.req = rtl.NewReg(&m.Bank, Request{})
	m.current = rtl.NewReg[*Transaction](&m.Bank, nil)

	return m
}

// ConnectTo sets the responder that the master talks to.
func (m *Master) ConnectTo(r Responder) {
	m.target = r
}

// CanEnqueue tells if one more transaction can be queued.
func (m *Master) CanEnqueue() bool {
	return m.queue.CanPush()
}

// Enqueue adds a transaction to the queue.
func (m *Master) Enqueue(t *Transaction) {
	m.queue.Push(t)
}

// Request returns the signals the master drives.
func (m *Master) Request() Request {
	return m.req.Q()
}

// Busy tells if the master has a transaction in flight or queued.
func (m *Master) Busy() bool {
	return m.current.Q() != nil || m.queue.Size() > 0
}

// Completed returns the transactions finished so far, in completion order.
func (m *Master) Completed() []*Transaction {
	return m.completed
}

// Eval advances the handshake.
func (m *Master) Eval() {
	if m.target == nil {
		log.Panicf("master %s is not connected", m.Name())
	}

	m.cycle++

	if t := m.current.Q(); t != nil {
		m.waitForAck(t)
		return
	}

	t, ok := m.queue.Pop()
	if !ok {
		return
	}

	m.issue(t)
}

func (m *Master) issue(t *Transaction) {
	req := Request{
		Adr: m.geometry.WordAddress(t.Address & m.geometry.AddrMask()),
		Cyc: true,
		Stb: true,
	}

	if t.Dir == protocol.Write {
		req.We = true
		req.DatW = t.Data & m.geometry.DataMask()
		req.Sel = t.Sel
	} else {
		req.Sel = m.geometry.SelMask()
	}

	t.IssueCycle = m.cycle
	m.req.D(req)
	m.current.D(t)

	m.InvokeHook(sim.HookCtx{Domain: m, Pos: HookPosIssue, Item: t})
}

func (m *Master) waitForAck(t *Transaction) {
	resp := m.target.Response()
	if !resp.Ack {
		return
	}

	if t.Dir == protocol.Read {
		t.Data = resp.DatR & m.geometry.DataMask()
	}

	t.CompleteCycle = m.cycle
	m.completed = append(m.completed, t)
	m.req.D(Request{})
	m.current.D(nil)

	m.InvokeHook(sim.HookCtx{Domain: m, Pos: HookPosComplete, Item: t})
}

// StateString reports whether a transaction is in flight.
func (m *Master) StateString() string {
	if m.current.Q() != nil {
		return "Busy"
	}

	return "Idle"
}

// Reset drops all the queued and in-flight transactions.
func (m *Master) Reset() {
	m.BlockBase.Reset()
	m.queue.Clear()
	m.completed = nil
	m.cycle = 0
}
