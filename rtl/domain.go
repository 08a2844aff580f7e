package rtl

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/simplebus/sim"
)

// ErrCycleLimit is returned when a run does not reach its stop condition
// within the allowed number of cycles.
var ErrCycleLimit = errors.New("cycle limit reached")

// HookPosCycle marks the end of a clock cycle, after all the registers have
// latched. The hook item is the cycle number that just completed.
var HookPosCycle = &sim.HookPos{Name: "Cycle"}

// A Domain is a set of blocks driven by one clock.
type Domain struct {
	sim.HookableBase

	name   string
	blocks []Block
	names  map[string]bool
	cycle  uint64
}

// NewDomain creates an empty clock domain.
func NewDomain(name string) *Domain {
	sim.NameMustBeValid(name)

	return &Domain{
		name:  name,
		names: make(map[string]bool),
	}
}

// Name returns the name of the domain.
func (d *Domain) Name() string {
	return d.name
}

// Add registers blocks with the domain. Block names must be unique.
func (d *Domain) Add(blocks ...Block) {
	for _, b := range blocks {
		if d.names[b.Name()] {
			log.Panicf("block %s already added to domain %s",
				b.Name(), d.name)
		}

		d.names[b.Name()] = true
		d.blocks = append(d.blocks, b)
	}
}

// Blocks returns the blocks in the order they were added.
func (d *Domain) Blocks() []Block {
	return d.blocks
}

// Cycle returns the number of clock edges since the last reset.
func (d *Domain) Cycle() uint64 {
	return d.cycle
}

// Step advances the domain by one clock cycle.
func (d *Domain) Step() {
	for _, b := range d.blocks {
		b.Eval()
	}

	for _, b := range d.blocks {
		b.Latch()
	}

	d.cycle++

	if d.NumHooks() > 0 {
		d.InvokeHook(sim.HookCtx{
			Domain: d,
			Pos:    HookPosCycle,
			Item:   d.cycle,
		})
	}
}

// Run advances the domain by n cycles.
func (d *Domain) Run(n uint64) {
	for i := uint64(0); i < n; i++ {
		d.Step()
	}
}

// RunUntil steps the domain until cond holds, checking it before every
// cycle. It returns the number of cycles stepped. If cond is still false
// after limit cycles, the returned error wraps ErrCycleLimit.
func (d *Domain) RunUntil(cond func() bool, limit uint64) (uint64, error) {
	var n uint64

	for !cond() {
		if n >= limit {
			return n, fmt.Errorf("%s: %w after %d cycles",
				d.name, ErrCycleLimit, n)
		}

		d.Step()
		n++
	}

	return n, nil
}

// Reset puts every block back into its reset state and clears the cycle
// counter.
func (d *Domain) Reset() {
	for _, b := range d.blocks {
		b.Reset()
	}

	d.cycle = 0
}
