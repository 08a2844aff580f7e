// Package csr provides the configuration and status registers of the host.
package csr

import (
	"fmt"

	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/wishbone"
)

// Register word offsets on the control bus.
const (
	ConfigIndex = 0
	StatusIndex = 1
	NumRegs     = 2
)

// Fields of the config register.
const (
	DivisorMask = 0x7
	EnableBit   = 1 << 3
)

// Geometry is the shape of the control bus: 32-bit words with byte
// addresses.
var Geometry = wishbone.Geometry{AddrWidth: 32, DataWidth: 32}

// MakeConfig packs a divisor and an enable bit into a config value.
func MakeConfig(divisor uint8, enabled bool) uint32 {
	v := uint32(divisor) & DivisorMask
	if enabled {
		v |= EnableBit
	}

	return v
}

// File is the register file. Reads return the addressed register in the
// same cycle. Writes take effect at the clock edge on which the request is
// first seen. Every access is acked for exactly one cycle, one cycle after
// the request appears. Addresses past the last register read as zero and
// ignore writes.
type File struct {
	rtl.BlockBase

	upstream wishbone.Initiator

	regs [NumRegs]*rtl.Reg[uint32]
	ack  *rtl.Reg[bool]
}

// New creates a register file. The config register resets to config.
func New(name string, config uint32) *File {
	f := &File{BlockBase: rtl.MakeBlockBase(name)}
	f.regs[ConfigIndex] = rtl.NewReg(&f.Bank, config)
	f.regs[StatusIndex] = rtl.NewReg(&f.Bank, uint32(0))
	f.ack = rtl.NewReg(&f.Bank, false)

	return f
}

// ConnectTo attaches the control bus initiator. A file without an initiator
// sees an idle bus.
func (f *File) ConnectTo(i wishbone.Initiator) {
	f.upstream = i
}

func (f *File) request() wishbone.Request {
	if f.upstream == nil {
		return wishbone.Request{}
	}

	return f.upstream.Request()
}

// Response returns the signals the file drives on the control bus.
func (f *File) Response() wishbone.Response {
	req := f.request()

	return wishbone.Response{
		DatR:  uint64(f.Peek(req.Adr)),
		Ack:   f.ack.Q(),
		Stall: req.Cyc && !f.ack.Q(),
	}
}

// Eval applies writes and raises ack.
func (f *File) Eval() {
	req := f.request()

	if !req.Active() || f.ack.Q() {
		f.ack.D(false)
		return
	}

	if req.We && req.Adr < NumRegs {
		r := f.regs[req.Adr]
		r.D(uint32(wishbone.ApplySel(uint64(r.Q()), req.DatW, req.Sel&0xf)))
	}

	f.ack.D(true)
}

// Peek returns the current value of the register at a word index.
func (f *File) Peek(index uint64) uint32 {
	if index >= NumRegs {
		return 0
	}

	return f.regs[index].Q()
}

// Config returns the config register.
func (f *File) Config() uint32 {
	return f.regs[ConfigIndex].Q()
}

// Status returns the status register.
func (f *File) Status() uint32 {
	return f.regs[StatusIndex].Q()
}

// Divisor returns the clock divisor field.
func (f *File) Divisor() uint8 {
	return uint8(f.Config() & DivisorMask)
}

// Enabled returns the enable bit.
func (f *File) Enabled() bool {
	return f.Config()&EnableBit != 0
}

// StateString summarizes the registers.
func (f *File) StateString() string {
	return fmt.Sprintf("config=%#x status=%#x", f.Config(), f.Status())
}
