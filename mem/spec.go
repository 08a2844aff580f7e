package mem

import (
	"fmt"

	"github.com/sarchlab/simplebus/wishbone"
)

// Spec holds the configuration of a RAM.
type Spec struct {
	AddrWidth int
	DataWidth int

	// Capacity in bytes. Zero means the whole address space.
	Capacity uint64

	// Cycles from the first cycle a request is seen to the cycle ack is
	// visible.
	LatencyCycles int
}

// Validate reports the first problem in the spec.
func (s Spec) Validate() error {
	if err := s.Geometry().Validate(); err != nil {
		return err
	}

	if s.LatencyCycles < 1 {
		return fmt.Errorf("latency must be at least 1 cycle, got %d",
			s.LatencyCycles)
	}

	if s.Capacity%uint64(s.Geometry().DataBytes()) != 0 {
		return fmt.Errorf("capacity %d is not a whole number of words",
			s.Capacity)
	}

	return nil
}

// Geometry returns the shape of the wide bus.
func (s Spec) Geometry() wishbone.Geometry {
	return wishbone.Geometry{AddrWidth: s.AddrWidth, DataWidth: s.DataWidth}
}

// EffectiveCapacity resolves a zero capacity into the size of the address
// space. A 64-bit space does not fit in a uint64, so it is cut down to the
// last whole word and the top word aliases word 0.
func (s Spec) EffectiveCapacity() uint64 {
	if s.Capacity != 0 {
		return s.Capacity
	}

	if s.AddrWidth >= 64 {
		return ^uint64(0) &^ uint64(s.Geometry().DataBytes()-1)
	}

	return uint64(1) << s.AddrWidth
}

// Defaults returns a RAM that covers a 32-bit address space with 64-bit words
// and acks one cycle after a request appears.
func Defaults() Spec {
	return Spec{
		AddrWidth:     32,
		DataWidth:     64,
		LatencyCycles: 1,
	}
}
