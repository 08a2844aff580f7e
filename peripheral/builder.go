package peripheral

import (
	"log"

	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/strobe"
	"github.com/sarchlab/simplebus/wishbone"
)

// Builder constructs a peripheral from a Spec or per-field setters.
type Builder struct {
	spec   Spec
	line   strobe.ClockLine
	source strobe.Source
}

// MakeBuilder returns a Builder with the default Spec. The peripheral built
// advances in every cycle unless a clock line or a strobe source is given.
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

// WithParityMode selects how the parity line is computed.
func (b Builder) WithParityMode(m protocol.ParityMode) Builder {
	b.spec.ParityMode = m
	return b
}

// WithReadSel makes the peripheral expect a select byte in read frames.
func (b Builder) WithReadSel(on bool) Builder {
	b.spec.ReadSel = on
	return b
}

// WithClockLine makes the peripheral advance on rising edges of the line,
// usually the clock output of the host.
func (b Builder) WithClockLine(line strobe.ClockLine) Builder {
	b.line = line
	b.source = nil

	return b
}

// WithStrobeSource makes the peripheral advance on an external strobe. The
// peripheral evaluates the source but does not own its registers.
func (b Builder) WithStrobeSource(s strobe.Source) Builder {
	b.source = s
	b.line = nil

	return b
}

// Build creates the peripheral. It panics if the spec is invalid.
func (b Builder) Build(name string) *Comp {
	if err := b.spec.Validate(); err != nil {
		log.Panicf("peripheral %s: %v", name, err)
	}

	c := &Comp{
		BlockBase: rtl.MakeBlockBase(name),
		spec:      b.spec,
		geometry:  b.spec.Geometry(),
	}

	switch {
	case b.source != nil:
		c.strobe = b.source
	case b.line != nil:
		c.strobe = strobe.NewEdge(&c.Bank, b.line)
	default:
		c.strobe = strobe.Always{}
	}

	c.state = rtl.NewReg(&c.Bank, Idle)
	c.count = rtl.NewReg(&c.Bank, 0)
	c.addr = rtl.NewReg(&c.Bank, protocol.Word(0))
	c.data = rtl.NewReg(&c.Bank, protocol.Word(0))
	c.sel = rtl.NewReg(&c.Bank, uint8(0))
	c.busOut = rtl.NewReg(&c.Bank, uint8(0))
	c.current = rtl.NewReg[*wishbone.Transaction](&c.Bank, nil)

	c.AddMiddleware(&receiveMiddleware{Comp: c})
	c.AddMiddleware(&wideBusMiddleware{Comp: c})
	c.AddMiddleware(&respondMiddleware{Comp: c})

	return c
}
