package mem

import (
	"fmt"
	"log"

	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/sim"
	"github.com/sarchlab/simplebus/wishbone"
)

// HookPosAccess marks the cycle in which the RAM performs an access. The
// item is a *wishbone.Transaction describing it.
var HookPosAccess = &sim.HookPos{Name: "RAM Access"}

// RAM is a wide-bus responder backed by a Storage. Each access is acked for
// exactly one cycle. Writes honor the select mask. Read data is registered
// and valid while ack is high. Addresses beyond the capacity alias back into
// the storage, as with an incompletely decoded memory.
type RAM struct {
	rtl.BlockBase
	sim.HookableBase

	spec     Spec
	geometry wishbone.Geometry
	storage  *Storage
	upstream wishbone.Initiator

	ack  *rtl.Reg[bool]
	datR *rtl.Reg[uint64]
	wait *rtl.Reg[int]
}

// ConnectTo sets the initiator that the RAM serves.
func (r *RAM) ConnectTo(i wishbone.Initiator) {
	r.upstream = i
}

// Storage returns the backing storage.
func (r *RAM) Storage() *Storage {
	return r.storage
}

// Spec returns the configuration of the RAM.
func (r *RAM) Spec() Spec {
	return r.spec
}

func (r *RAM) request() wishbone.Request {
	if r.upstream == nil {
		return wishbone.Request{}
	}

	return r.upstream.Request()
}

// Response returns the signals the RAM drives.
func (r *RAM) Response() wishbone.Response {
	return wishbone.Response{
		DatR:  r.datR.Q(),
		Ack:   r.ack.Q(),
		Stall: r.request().Cyc && !r.ack.Q(),
	}
}

// Eval counts down the latency and performs the access in the last cycle.
func (r *RAM) Eval() {
	req := r.request()

	if !req.Active() || r.ack.Q() {
		r.ack.D(false)
		r.wait.D(0)

		return
	}

	if r.wait.Q() < r.spec.LatencyCycles-1 {
		r.wait.D(r.wait.Q() + 1)
		return
	}

	t := r.access(req)

	r.ack.D(true)
	r.wait.D(0)

	if r.NumHooks() > 0 {
		r.InvokeHook(sim.HookCtx{
			Domain: r,
			Pos:    HookPosAccess,
			Item:   t,
		})
	}
}

func (r *RAM) access(req wishbone.Request) *wishbone.Transaction {
	size := r.geometry.DataBytes()
	addr := r.geometry.ByteAddress(req.Adr) % r.storage.Capacity()
	t := &wishbone.Transaction{
		ID:      sim.GetIDGenerator().Generate(),
		Address: addr,
		Sel:     req.Sel,
		Dir:     protocol.Read,
	}

	if req.We {
		t.Dir = protocol.Write
		t.Data = req.DatW

		err := r.storage.WriteWord(addr, size, req.DatW, req.Sel)
		if err != nil {
			log.Panicf("%s: %v", r.Name(), err)
		}

		return t
	}

	data, err := r.storage.ReadWord(addr, size)
	if err != nil {
		log.Panicf("%s: %v", r.Name(), err)
	}

	t.Data = data
	r.datR.D(data)

	return t
}

// StateString tells if the RAM is serving a request.
func (r *RAM) StateString() string {
	switch {
	case r.ack.Q():
		return "Ack"
	case r.request().Active():
		return fmt.Sprintf("Wait%d", r.wait.Q())
	default:
		return "Idle"
	}
}
