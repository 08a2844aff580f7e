package mem

import (
	"log"

	"github.com/sarchlab/simplebus/rtl"
)

// Builder constructs a RAM from a Spec or per-field setters.
type Builder struct {
	spec    Spec
	storage *Storage
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

// WithLatency sets the number of cycles before ack.
func (b Builder) WithLatency(cycles int) Builder {
	b.spec.LatencyCycles = cycles
	return b
}

// WithNewStorage makes the RAM create a storage of the given capacity.
func (b Builder) WithNewStorage(capacity uint64) Builder {
	b.storage = nil
	b.spec.Capacity = capacity

	return b
}

// WithStorage makes the RAM use an existing storage.
func (b Builder) WithStorage(s *Storage) Builder {
	b.storage = s
	return b
}

// Build creates the RAM. It panics if the spec is invalid.
func (b Builder) Build(name string) *RAM {
	if err := b.spec.Validate(); err != nil {
		log.Panicf("ram %s: %v", name, err)
	}

	r := &RAM{
		BlockBase: rtl.MakeBlockBase(name),
		spec:      b.spec,
		geometry:  b.spec.Geometry(),
		storage:   b.storage,
	}

	if r.storage == nil {
		r.storage = NewStorage(b.spec.EffectiveCapacity())
	}

	r.ack = rtl.NewReg(&r.Bank, false)
	r.datR = rtl.NewReg(&r.Bank, uint64(0))
	r.wait = rtl.NewReg(&r.Bank, 0)

	return r
}
