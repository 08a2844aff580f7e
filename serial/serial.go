// Package serial models the narrow, half-duplex byte bus.
package serial

import (
	"fmt"
	"log"

	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/sim"
)

// Pins are the signals one side puts on the narrow bus.
type Pins struct {
	Data   uint8
	Parity bool
	OE     bool
}

func (p Pins) String() string {
	if !p.OE {
		return "z"
	}

	return fmt.Sprintf("%#02x/%t", p.Data, p.Parity)
}

// MakePins derives the pins for a data byte, including its parity.
func MakePins(data uint8, mode protocol.ParityMode, oe bool) Pins {
	return Pins{
		Data:   data,
		Parity: protocol.Parity(data, mode),
		OE:     oe,
	}
}

// A Driver is one side of the narrow bus.
type Driver interface {
	Pins() Pins
}

// A Line is the byte a receiver sees on the bus.
type Line interface {
	Value() uint8
}

// HookPosContention marks a cycle in which both sides drive the bus. The
// bus panics right after invoking the hooks.
var HookPosContention = &sim.HookPos{Name: "Serial Contention"}

// Bus connects the host and the peripheral. When one side enables its
// output, both sides read its byte. When nobody drives, the bus reads 0.
type Bus struct {
	rtl.BlockBase
	sim.HookableBase

	host, peripheral Driver
}

// NewBus creates a bus between two drivers.
func NewBus(name string) *Bus {
	return &Bus{BlockBase: rtl.MakeBlockBase(name)}
}

// Connect attaches the two sides of the bus.
func (b *Bus) Connect(host, peripheral Driver) {
	b.host = host
	b.peripheral = peripheral
}

// Value returns the byte on the bus.
func (b *Bus) Value() uint8 {
	return b.Pins().Data
}

// Pins returns what can be observed on the wire.
func (b *Bus) Pins() Pins {
	h := b.host.Pins()
	p := b.peripheral.Pins()

	switch {
	case h.OE && p.OE:
		log.Panicf("%s: host and peripheral drive at the same time", b.Name())
	case h.OE:
		return h
	case p.OE:
		return p
	}

	return Pins{}
}

// HostDriving tells if the host has the turn.
func (b *Bus) HostDriving() bool {
	return b.host.Pins().OE
}

// PeripheralDriving tells if the peripheral has the turn.
func (b *Bus) PeripheralDriving() bool {
	return b.peripheral.Pins().OE
}

// Eval checks that at most one side drives the bus.
func (b *Bus) Eval() {
	if b.host == nil || b.peripheral == nil {
		log.Panicf("%s is not connected", b.Name())
	}

	if b.host.Pins().OE && b.peripheral.Pins().OE {
		b.InvokeHook(sim.HookCtx{
			Domain: b,
			Pos:    HookPosContention,
			Item:   [2]Pins{b.host.Pins(), b.peripheral.Pins()},
		})

		log.Panicf("%s: host and peripheral drive at the same time", b.Name())
	}
}

// StateString tells who drives the bus.
func (b *Bus) StateString() string {
	switch {
	case b.HostDriving():
		return "Host:" + b.host.Pins().String()
	case b.PeripheralDriving():
		return "Peripheral:" + b.peripheral.Pins().String()
	default:
		return "Released"
	}
}
