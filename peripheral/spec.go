package peripheral

import (
	"fmt"

	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/wishbone"
)

// Spec holds the configuration of a peripheral. It must match the host it
// talks to.
type Spec struct {
	AddrWidth  int
	DataWidth  int
	ParityMode protocol.ParityMode
	ReadSel    bool
}

// Validate reports the first problem in the spec.
func (s Spec) Validate() error {
	if err := s.Geometry().Validate(); err != nil {
		return err
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

// Defaults returns a spec that matches the default host.
func Defaults() Spec {
	return Spec{
		AddrWidth:  32,
		DataWidth:  64,
		ParityMode: protocol.ParityInverted,
	}
}
