package host

import (
	"log"

	"github.com/sarchlab/simplebus/csr"
	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/strobe"
	"github.com/sarchlab/simplebus/wishbone"
)

// Builder constructs a host from a Spec or per-field setters.
type Builder struct {
	spec Spec
}

// MakeBuilder returns a Builder with the default Spec.
func MakeBuilder() Builder {
	return Builder{spec: Defaults()}
}

// WithSpec replaces the whole spec.
func (b Builder) WithSpec(spec Spec) Builder {
	b.spec = spec
	return b
}

// WithAddrWidth sets the width of a byte address in bits.
func (b Builder) WithAddrWidth(w int) Builder {
	b.spec.AddrWidth = w
	return b
}

// WithDataWidth sets the width of a data word in bits.
func (b Builder) WithDataWidth(w int) Builder {
	b.spec.DataWidth = w
	return b
}

// WithDivisor sets the reset value of the clock divisor.
func (b Builder) WithDivisor(d uint8) Builder {
	b.spec.Divisor = d
	return b
}

// WithEnabled sets the reset value of the enable bit.
func (b Builder) WithEnabled(enabled bool) Builder {
	b.spec.Enabled = enabled
	return b
}

// WithParityMode selects how the parity line is computed.
func (b Builder) WithParityMode(m protocol.ParityMode) Builder {
	b.spec.ParityMode = m
	return b
}

// WithReadSel makes read frames carry a select byte.
func (b Builder) WithReadSel(on bool) Builder {
	b.spec.ReadSel = on
	return b
}

// WithTapStrobe paces the bus from the free-running counter.
func (b Builder) WithTapStrobe() Builder {
	b.spec.Strobe = StrobeTap
	return b
}

// WithCountdownStrobe paces the bus with a mod-N countdown.
func (b Builder) WithCountdownStrobe(period uint8) Builder {
	b.spec.Strobe = StrobeCountdown
	b.spec.CountdownPeriod = period

	return b
}

// Build creates the host. It panics if the spec is invalid.
func (b Builder) Build(name string) *Comp {
	if err := b.spec.Validate(); err != nil {
		log.Panicf("host %s: %v", name, err)
	}

	c := &Comp{
		BlockBase: rtl.MakeBlockBase(name),
		spec:      b.spec,
		geometry:  b.spec.Geometry(),
	}

	c.csr = csr.New(name+".CSR", csr.MakeConfig(b.spec.Divisor, b.spec.Enabled))

	switch b.spec.Strobe {
	case StrobeTap:
		c.tap = strobe.NewTap(&c.Bank, c.csr)
		c.strobe = c.tap
	case StrobeCountdown:
		c.strobe = strobe.NewCountdown(&c.Bank, b.spec.CountdownPeriod)
	}

	c.state = rtl.NewReg(&c.Bank, Idle)
	c.count = rtl.NewReg(&c.Bank, 0)
	c.addr = rtl.NewReg(&c.Bank, protocol.Word(0))
	c.data = rtl.NewReg(&c.Bank, protocol.Word(0))
	c.sel = rtl.NewReg(&c.Bank, uint8(0))
	c.busOut = rtl.NewReg(&c.Bank, uint8(0))
	c.ack = rtl.NewReg(&c.Bank, false)
	c.current = rtl.NewReg[*wishbone.Transaction](&c.Bank, nil)

	c.AddMiddleware(&acceptMiddleware{Comp: c})
	c.AddMiddleware(&sendMiddleware{Comp: c})
	c.AddMiddleware(&receiveMiddleware{Comp: c})

	return c
}
