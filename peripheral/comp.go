// Package peripheral implements the controller that replays frames from the
// narrow bus as wide-bus transactions.
package peripheral

import (
	"fmt"
	"log"

	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/serial"
	"github.com/sarchlab/simplebus/sim"
	"github.com/sarchlab/simplebus/strobe"
	"github.com/sarchlab/simplebus/wishbone"
)

// HookPosRequestIssued marks the cycle in which the peripheral has received
// a whole frame and raises its wide-bus request. The item is the
// *wishbone.Transaction.
var HookPosRequestIssued = &sim.HookPos{Name: "Peripheral Request Issued"}

// HookPosRequestDone marks the cycle in which the responder acks. The item
// is the *wishbone.Transaction, with read data filled in.
var HookPosRequestDone = &sim.HookPos{Name: "Peripheral Request Done"}

// Comp is the peripheral controller.
type Comp struct {
	rtl.BlockBase
	sim.HookableBase
	sim.MiddlewareHolder

	spec     Spec
	geometry wishbone.Geometry

	inbound    serial.Line
	downstream wishbone.Responder
	strobe     strobe.Source

	state   *rtl.Reg[State]
	count   *rtl.Reg[int]
	addr    *rtl.Reg[protocol.Word]
	data    *rtl.Reg[protocol.Word]
	sel     *rtl.Reg[uint8]
	busOut  *rtl.Reg[uint8]
	current *rtl.Reg[*wishbone.Transaction]
}

// ConnectBus sets where the peripheral reads inbound bytes from.
func (c *Comp) ConnectBus(l serial.Line) {
	c.inbound = l
}

// ConnectDownstream sets the responder that serves the replayed requests.
func (c *Comp) ConnectDownstream(r wishbone.Responder) {
	c.downstream = r
}

// Spec returns the configuration of the peripheral.
func (c *Comp) Spec() Spec {
	return c.spec
}

// State returns the current state.
func (c *Comp) State() State {
	return c.state.Q()
}

// Count returns the byte countdown.
func (c *Comp) Count() int {
	return c.count.Q()
}

// Strobe tells if the peripheral advances on the narrow bus in this cycle.
func (c *Comp) Strobe() bool {
	return c.strobe.Strobe()
}

// Request returns the wide-bus signals the peripheral drives. They follow
// directly from the state and the received frame.
func (c *Comp) Request() wishbone.Request {
	s := c.state.Q()
	if !s.OnWideBus() {
		return wishbone.Request{}
	}

	req := wishbone.Request{
		Adr: c.geometry.WordAddress(uint64(c.addr.Q())),
		Cyc: true,
		Stb: true,
	}

	switch {
	case s == WriteWishbone:
		req.We = true
		req.DatW = uint64(c.data.Q())
		req.Sel = c.sel.Q()
	case c.spec.ReadSel:
		req.Sel = c.sel.Q()
	default:
		req.Sel = c.geometry.SelMask()
	}

	return req
}

// Pins returns what the peripheral drives on the narrow bus.
func (c *Comp) Pins() serial.Pins {
	return serial.MakePins(
		c.busOut.Q(),
		c.spec.ParityMode,
		c.state.Q().Driving(),
	)
}

func (c *Comp) inboundByte() uint8 {
	if c.inbound == nil {
		log.Panicf("peripheral %s is not connected to a bus", c.Name())
	}

	return c.inbound.Value()
}

func (c *Comp) response() wishbone.Response {
	if c.downstream == nil {
		log.Panicf("peripheral %s has no downstream responder", c.Name())
	}

	return c.downstream.Response()
}

// Eval computes the next state of the peripheral. On every strobe the output
// byte falls back to zero unless a state sends something else.
func (c *Comp) Eval() {
	if c.strobe.Strobe() {
		c.busOut.D(0)
	}

	c.strobe.Eval()
	c.MiddlewareHolder.Tick()
}

// StateString summarizes the peripheral for cycle logs.
func (c *Comp) StateString() string {
	return fmt.Sprintf("%s/%d out=%#02x", c.state.Q(), c.count.Q(),
		c.busOut.Q())
}

func (c *Comp) addrBytes() int {
	return c.geometry.AddrBytes()
}

func (c *Comp) dataBytes() int {
	return c.geometry.DataBytes()
}
