package host

import (
	"fmt"
	"strings"

	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/strobe"
	"github.com/sarchlab/simplebus/wishbone"
)

// StrobeKind selects how the host paces the narrow bus.
type StrobeKind int

const (
	// StrobeTap takes one bit of a free-running counter and exposes it as
	// the bus clock.
	StrobeTap StrobeKind = iota

	// StrobeCountdown strobes every CountdownPeriod cycles and has no clock
	// output.
	StrobeCountdown
)

func (k StrobeKind) String() string {
	switch k {
	case StrobeTap:
		return "tap"
	case StrobeCountdown:
		return "countdown"
	default:
		return fmt.Sprintf("StrobeKind(%d)", int(k))
	}
}

// ParseStrobeKind converts "tap" or "countdown" into a StrobeKind.
func ParseStrobeKind(s string) (StrobeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tap":
		return StrobeTap, nil
	case "countdown":
		return StrobeCountdown, nil
	default:
		return 0, fmt.Errorf("unknown strobe kind %q", s)
	}
}

// Spec holds the configuration of a host.
type Spec struct {
	// Wide bus
	AddrWidth int
	DataWidth int

	// Reset value of the config register
	Divisor uint8
	Enabled bool

	// Narrow bus
	ParityMode      protocol.ParityMode
	ReadSel         bool
	Strobe          StrobeKind
	CountdownPeriod uint8
}

// Validate reports the first problem in the spec.
func (s Spec) Validate() error {
	if err := s.Geometry().Validate(); err != nil {
		return err
	}

	if s.Divisor > strobe.MaxDivisor {
		return fmt.Errorf("divisor %d is larger than %d",
			s.Divisor, strobe.MaxDivisor)
	}

	switch s.Strobe {
	case StrobeTap:
	case StrobeCountdown:
		if s.CountdownPeriod == 0 {
			return fmt.Errorf("countdown period must be at least 1")
		}
	default:
		return fmt.Errorf("unknown strobe kind %d", int(s.Strobe))
	}

	if s.ParityMode != protocol.ParityEven &&
		s.ParityMode != protocol.ParityInverted {
		return fmt.Errorf("unknown parity mode %d", int(s.ParityMode))
	}

	return nil
}

// Geometry returns the shape of the wide bus.
func (s Spec) Geometry() wishbone.Geometry {
	return wishbone.Geometry{AddrWidth: s.AddrWidth, DataWidth: s.DataWidth}
}

// Defaults returns the configuration of the reference design: a 32-bit
// address, a 64-bit data word, divisor 1 and inverted parity.
func Defaults() Spec {
	return Spec{
		AddrWidth:       32,
		DataWidth:       64,
		Divisor:         1,
		ParityMode:      protocol.ParityInverted,
		Strobe:          StrobeTap,
		CountdownPeriod: 1,
	}
}
