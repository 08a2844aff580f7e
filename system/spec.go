package system

import (
	"fmt"

	"github.com/sarchlab/simplebus/host"
	"github.com/sarchlab/simplebus/mem"
	"github.com/sarchlab/simplebus/peripheral"
	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/wishbone"
)

// Spec configures a whole bridge. The host and the peripheral always share
// the bus geometry, the parity mode and the read select option.
type Spec struct {
	AddrWidth  int
	DataWidth  int
	ParityMode protocol.ParityMode
	ReadSel    bool

	Divisor         uint8
	Enabled         bool
	Strobe          host.StrobeKind
	CountdownPeriod uint8

	MemCapacity uint64
	MemLatency  int

	// Number of transactions the test master can hold.
	QueueSize int

	// Cycles a single transaction may take before Read and Write give up.
	// Zero derives a bound from the frame length and the strobe period.
	CycleLimit uint64

	// Add a master on the control bus of the host.
	Ctrl bool
}

// Defaults returns a 32-bit address, 64-bit data bridge with the bus clock
// at a quarter of the system clock.
func Defaults() Spec {
	return Spec{
		AddrWidth:       32,
		DataWidth:       64,
		ParityMode:      protocol.ParityInverted,
		Divisor:         1,
		Enabled:         true,
		Strobe:          host.StrobeTap,
		CountdownPeriod: 1,
		MemCapacity:     1 << 20,
		MemLatency:      1,
		QueueSize:       16,
		Ctrl:            true,
	}
}

// HostSpec returns the part of the spec that configures the host.
func (s Spec) HostSpec() host.Spec {
	return host.Spec{
		AddrWidth:       s.AddrWidth,
		DataWidth:       s.DataWidth,
		Divisor:         s.Divisor,
		Enabled:         s.Enabled,
		ParityMode:      s.ParityMode,
		ReadSel:         s.ReadSel,
		Strobe:          s.Strobe,
		CountdownPeriod: s.CountdownPeriod,
	}
}

// PeripheralSpec returns the part of the spec that configures the
// peripheral.
func (s Spec) PeripheralSpec() peripheral.Spec {
	return peripheral.Spec{
		AddrWidth:  s.AddrWidth,
		DataWidth:  s.DataWidth,
		ParityMode: s.ParityMode,
		ReadSel:    s.ReadSel,
	}
}

// MemSpec returns the part of the spec that configures the RAM.
func (s Spec) MemSpec() mem.Spec {
	return mem.Spec{
		AddrWidth:     s.AddrWidth,
		DataWidth:     s.DataWidth,
		Capacity:      s.MemCapacity,
		LatencyCycles: s.MemLatency,
	}
}

// Geometry returns the shape of the wide buses.
func (s Spec) Geometry() wishbone.Geometry {
	return wishbone.Geometry{AddrWidth: s.AddrWidth, DataWidth: s.DataWidth}
}

// Validate reports the first problem in the spec.
func (s Spec) Validate() error {
	if err := s.HostSpec().Validate(); err != nil {
		return fmt.Errorf("host: %w", err)
	}

	if err := s.PeripheralSpec().Validate(); err != nil {
		return fmt.Errorf("peripheral: %w", err)
	}

	if err := s.MemSpec().Validate(); err != nil {
		return fmt.Errorf("memory: %w", err)
	}

	// Without a clock pin the peripheral runs on the system clock, so the
	// host must send one byte per cycle too.
	if s.Strobe == host.StrobeCountdown && s.CountdownPeriod != 1 {
		return fmt.Errorf(
			"countdown period must be 1 when the peripheral has no "+
				"clock line, got %d", s.CountdownPeriod)
	}

	if s.QueueSize < 1 {
		return fmt.Errorf("queue size must be at least 1, got %d",
			s.QueueSize)
	}

	return nil
}

// StrobePeriod returns the number of system cycles between two bus strobes
// at the configured divisor.
func (s Spec) StrobePeriod() uint64 {
	if s.Strobe == host.StrobeCountdown {
		return uint64(s.CountdownPeriod)
	}

	return uint64(1) << (s.Divisor + 1)
}

// TransactionCycleBound returns the cycle limit of one transaction.
func (s Spec) TransactionCycleBound() uint64 {
	if s.CycleLimit != 0 {
		return s.CycleLimit
	}

	g := s.Geometry().Protocol()
	g.ReadSel = s.ReadSel

	write := protocol.FrameLen(protocol.Write, g) + 1
	read := protocol.FrameLen(protocol.Read, g) + 1 + g.DataBytes
	strobes := uint64(max(write, read) + 4)

	return 2 * (strobes*s.StrobePeriod() + uint64(s.MemLatency) + 4)
}
