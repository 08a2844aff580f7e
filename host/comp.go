// Package host implements the controller that turns wide-bus transactions
// into frames on the narrow bus.
package host

import (
	"fmt"
	"log"

	"github.com/sarchlab/simplebus/csr"
	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/serial"
	"github.com/sarchlab/simplebus/sim"
	"github.com/sarchlab/simplebus/strobe"
	"github.com/sarchlab/simplebus/wishbone"
)

// HookPosTransactionStart marks the cycle in which the host accepts a
// transaction. The item is the *wishbone.Transaction.
var HookPosTransactionStart = &sim.HookPos{Name: "Host Transaction Start"}

// HookPosTransactionEnd marks the cycle in which the host raises ack. The
// item is the *wishbone.Transaction, with read data filled in.
var HookPosTransactionEnd = &sim.HookPos{Name: "Host Transaction End"}

// HookPosByteSent marks a strobe on which the host puts a frame byte on the
// bus. The item is the byte and the detail is the state it was sent from.
var HookPosByteSent = &sim.HookPos{Name: "Host Byte Sent"}

// Comp is the host controller. It accepts one wide-bus transaction at a
// time, sends it as a frame and completes it when the peripheral answers.
type Comp struct {
	rtl.BlockBase
	sim.HookableBase
	sim.MiddlewareHolder

	spec     Spec
	geometry wishbone.Geometry

	upstream wishbone.Initiator
	inbound  serial.Line

	csr    *csr.File
	strobe strobe.Source
	tap    *strobe.Tap

	state   *rtl.Reg[State]
	count   *rtl.Reg[int]
	addr    *rtl.Reg[protocol.Word]
	data    *rtl.Reg[protocol.Word]
	sel     *rtl.Reg[uint8]
	busOut  *rtl.Reg[uint8]
	ack     *rtl.Reg[bool]
	current *rtl.Reg[*wishbone.Transaction]
}

// ConnectUpstream sets the initiator whose transactions the host serves.
func (c *Comp) ConnectUpstream(i wishbone.Initiator) {
	c.upstream = i
}

// ConnectBus sets where the host reads inbound bytes from.
func (c *Comp) ConnectBus(l serial.Line) {
	c.inbound = l
}

// ConnectCtrl sets the initiator of the control bus.
func (c *Comp) ConnectCtrl(i wishbone.Initiator) {
	c.csr.ConnectTo(i)
}

// Spec returns the configuration of the host.
func (c *Comp) Spec() Spec {
	return c.spec
}

// CSR returns the register file of the host.
func (c *Comp) CSR() *csr.File {
	return c.csr
}

// State returns the current state.
func (c *Comp) State() State {
	return c.state.Q()
}

// Count returns the byte countdown.
func (c *Comp) Count() int {
	return c.count.Q()
}

// Current returns the transaction in flight, or nil when idle.
func (c *Comp) Current() *wishbone.Transaction {
	return c.current.Q()
}

// Response returns the wide-bus signals the host drives. Read data always
// shows the data register. Stall holds while a request is present and ack
// has not been given.
func (c *Comp) Response() wishbone.Response {
	return wishbone.Response{
		DatR:  uint64(c.data.Q()),
		Ack:   c.ack.Q(),
		Stall: c.request().Cyc && !c.ack.Q(),
	}
}

// CtrlResponse returns the control-bus signals of the register file.
func (c *Comp) CtrlResponse() wishbone.Response {
	return c.csr.Response()
}

// Pins returns what the host drives on the narrow bus.
func (c *Comp) Pins() serial.Pins {
	return serial.MakePins(
		c.busOut.Q(),
		c.spec.ParityMode,
		!c.state.Q().Listening(),
	)
}

// Strobe tells if the narrow bus advances in this cycle.
func (c *Comp) Strobe() bool {
	return c.strobe.Strobe()
}

// HasClkOut tells if the host drives a bus clock.
func (c *Comp) HasClkOut() bool {
	return c.tap != nil
}

// ClkOut returns the bus clock. Hosts that pace the bus with a countdown
// keep it low.
func (c *Comp) ClkOut() bool {
	if c.tap == nil {
		return false
	}

	return c.tap.ClkOut()
}

// Enabled returns the enable pin, driven from the config register.
func (c *Comp) Enabled() bool {
	return c.csr.Enabled()
}

func (c *Comp) request() wishbone.Request {
	if c.upstream == nil {
		return wishbone.Request{}
	}

	return c.upstream.Request()
}

func (c *Comp) inboundByte() uint8 {
	if c.inbound == nil {
		log.Panicf("host %s is not connected to a bus", c.Name())
	}

	return c.inbound.Value()
}

// Eval computes the next state of the host, its strobe generator and its
// register file.
func (c *Comp) Eval() {
	c.csr.Eval()
	c.strobe.Eval()
	c.MiddlewareHolder.Tick()
}

// Latch latches the registers of the host and its register file.
func (c *Comp) Latch() {
	c.Bank.Latch()
	c.csr.Latch()
}

// Reset returns the host and its register file to their reset state.
func (c *Comp) Reset() {
	c.Bank.Reset()
	c.csr.Reset()
}

// StateString summarizes the host for cycle logs.
func (c *Comp) StateString() string {
	return fmt.Sprintf("%s/%d out=%#02x", c.state.Q(), c.count.Q(),
		c.busOut.Q())
}

func (c *Comp) emit(b uint8) {
	c.busOut.D(b)

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosByteSent,
			Item:   b,
			Detail: c.state.Q(),
		})
	}
}

func (c *Comp) addrBytes() int {
	return c.geometry.AddrBytes()
}

func (c *Comp) dataBytes() int {
	return c.geometry.DataBytes()
}
