package system

import (
	"log"

	"github.com/sarchlab/simplebus/csr"
	"github.com/sarchlab/simplebus/host"
	"github.com/sarchlab/simplebus/mem"
	"github.com/sarchlab/simplebus/peripheral"
	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/serial"
	"github.com/sarchlab/simplebus/wishbone"
)

// Builder assembles a System.
type Builder struct {
	spec    Spec
	storage *mem.Storage
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

// WithParityMode sets the parity rule of both controllers.
func (b Builder) WithParityMode(m protocol.ParityMode) Builder {
	b.spec.ParityMode = m
	return b
}

// WithReadSel makes read frames carry a select byte.
func (b Builder) WithReadSel(on bool) Builder {
	b.spec.ReadSel = on
	return b
}

// WithCountdownStrobe paces the bus with a countdown of period 1 and runs the
// peripheral on the system clock.
func (b Builder) WithCountdownStrobe() Builder {
	b.spec.Strobe = host.StrobeCountdown
	b.spec.CountdownPeriod = 1

	return b
}

// WithMemLatency sets the number of cycles the RAM takes to ack.
func (b Builder) WithMemLatency(cycles int) Builder {
	b.spec.MemLatency = cycles
	return b
}

// WithMemCapacity sets the size of the RAM in bytes.
func (b Builder) WithMemCapacity(capacity uint64) Builder {
	b.spec.MemCapacity = capacity
	return b
}

// WithStorage makes the RAM use an existing storage.
func (b Builder) WithStorage(s *mem.Storage) Builder {
	b.storage = s
	return b
}

// WithCycleLimit sets how many cycles a transaction may take.
func (b Builder) WithCycleLimit(n uint64) Builder {
	b.spec.CycleLimit = n
	return b
}

// WithoutCtrl leaves the control bus of the host unconnected.
func (b Builder) WithoutCtrl() Builder {
	b.spec.Ctrl = false
	return b
}

// Build creates and connects all the blocks. It panics if the spec is
// invalid.
func (b Builder) Build(name string) *System {
	if err := b.spec.Validate(); err != nil {
		log.Panicf("system %s: %v", name, err)
	}

	s := &System{
		spec:   b.spec,
		Domain: rtl.NewDomain(name),
	}

	s.Master = wishbone.NewMaster(name+".Master", b.spec.Geometry(),
		b.spec.QueueSize)
	s.Host = host.MakeBuilder().
		WithSpec(b.spec.HostSpec()).
		Build(name + ".Host")
	s.Bus = serial.NewBus(name + ".Bus")

	pb := peripheral.MakeBuilder().WithSpec(b.spec.PeripheralSpec())
	if s.Host.HasClkOut() {
		pb = pb.WithClockLine(s.Host)
	}

	s.Peripheral = pb.Build(name + ".Peripheral")

	mb := mem.MakeBuilder().WithSpec(b.spec.MemSpec())
	if b.storage != nil {
		mb = mb.WithStorage(b.storage)
	}

	s.RAM = mb.Build(name + ".RAM")

	s.Master.ConnectTo(s.Host)
	s.Host.ConnectUpstream(s.Master)
	s.Host.ConnectBus(s.Bus)
	s.Bus.Connect(s.Host, s.Peripheral)
	s.Peripheral.ConnectBus(s.Bus)
	s.Peripheral.ConnectDownstream(s.RAM)
	s.RAM.ConnectTo(s.Peripheral)

	s.Domain.Add(s.Master, s.Host, s.Bus, s.Peripheral, s.RAM)

	if b.spec.Ctrl {
		s.Ctrl = wishbone.NewMaster(name+".Ctrl", csr.Geometry, 4)
		s.Ctrl.ConnectTo(s.Host.CSR())
		s.Host.ConnectCtrl(s.Ctrl)
		s.Domain.Add(s.Ctrl)
	}

	return s
}
