// Package strobe generates the pulses that pace the narrow bus.
package strobe

import (
	"log"

	"github.com/sarchlab/simplebus/rtl"
)

// A Source produces at most one advance pulse per cycle. Strobe is derived
// from register outputs, so it is valid for the whole cycle. Eval updates
// the registers of the source and must be called once per cycle by the
// block that owns it.
type Source interface {
	rtl.Evaluator
	Strobe() bool
}

// A DivisorSource supplies the divisor of a Tap.
type DivisorSource interface {
	Divisor() uint8
}

// A ClockLine is a clock signal that can be followed by an Edge.
type ClockLine interface {
	ClkOut() bool
}

// CounterBits is the width of the free-running counter of a Tap.
const CounterBits = 8

// MaxDivisor is the largest divisor that a Tap accepts.
const MaxDivisor = 7

// Tap divides the clock by taking one bit of a free-running counter. The
// strobe is the rising edge of that bit, so the bus period is
// 2^(divisor+1) cycles.
//
// The divisor is read every cycle. Changing it while a transaction is in
// flight can produce a short or long period.
type Tap struct {
	divisor DivisorSource

	counter *rtl.Reg[uint8]
	prev    *rtl.Reg[bool]
}

// NewTap creates a Tap whose registers live in the bank.
func NewTap(bank *rtl.Bank, divisor DivisorSource) *Tap {
	return &Tap{
		divisor: divisor,
		counter: rtl.NewReg(bank, uint8(0)),
		prev:    rtl.NewReg(bank, false),
	}
}

// ClkOut returns the divided clock.
func (t *Tap) ClkOut() bool {
	d := t.divisor.Divisor()
	if d > MaxDivisor {
		log.Panicf("divisor %d out of range", d)
	}

	return t.counter.Q()&(1<<d) != 0
}

// Strobe is true in the first cycle in which ClkOut is high.
func (t *Tap) Strobe() bool {
	return !t.prev.Q() && t.ClkOut()
}

// Eval increments the counter and samples the divided clock.
func (t *Tap) Eval() {
	t.counter.D(t.counter.Q() + 1)
	t.prev.D(t.ClkOut())
}

// Countdown strobes once every N cycles, when its counter reaches zero. It
// has no clock output.
type Countdown struct {
	period  uint8
	counter *rtl.Reg[uint8]
}

// NewCountdown creates a Countdown with the given period.
func NewCountdown(bank *rtl.Bank, period uint8) *Countdown {
	if period == 0 {
		log.Panic("countdown period must be at least 1")
	}

	return &Countdown{
		period:  period,
		counter: rtl.NewReg(bank, period-1),
	}
}

// Period returns the number of cycles between two strobes.
func (c *Countdown) Period() uint8 {
	return c.period
}

// Strobe is true when the counter is zero.
func (c *Countdown) Strobe() bool {
	return c.counter.Q() == 0
}

// Eval reloads the counter at zero and decrements it otherwise.
func (c *Countdown) Eval() {
	if c.counter.Q() == 0 {
		c.counter.D(c.period - 1)
		return
	}

	c.counter.D(c.counter.Q() - 1)
}

// Edge strobes on the rising edge of an external clock line.
type Edge struct {
	line ClockLine
	prev *rtl.Reg[bool]
}

// NewEdge creates an Edge that follows the line.
func NewEdge(bank *rtl.Bank, line ClockLine) *Edge {
	return &Edge{
		line: line,
		prev: rtl.NewReg(bank, false),
	}
}

// Strobe is true in the first cycle in which the line is high.
func (e *Edge) Strobe() bool {
	return !e.prev.Q() && e.line.ClkOut()
}

// Eval samples the line.
func (e *Edge) Eval() {
	e.prev.D(e.line.ClkOut())
}

// Always strobes in every cycle.
type Always struct{}

// Strobe always returns true.
func (Always) Strobe() bool {
	return true
}

// Eval does nothing.
func (Always) Eval() {}

// FixedDivisor is a DivisorSource with a constant value.
type FixedDivisor uint8

// Divisor returns the constant.
func (d FixedDivisor) Divisor() uint8 {
	return uint8(d)
}
