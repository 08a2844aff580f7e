package rtl

import "github.com/sarchlab/simplebus/sim"

// An Evaluator computes next register values from current register outputs.
// Eval must only read Q values, never the next values written in the same
// cycle, so that the order in which blocks are evaluated does not matter.
type Evaluator interface {
	Eval()
}

// A Block is a named unit of synchronous logic.
type Block interface {
	sim.Named
	Evaluator
	Latcher
}

// A StateReporter can describe its current state in a short string. The
// CycleLogger prints it.
type StateReporter interface {
	StateString() string
}

// BlockBase provides the name and the register bank for a block.
type BlockBase struct {
	Bank

	name string
}

// MakeBlockBase creates a BlockBase with a validated name.
func MakeBlockBase(name string) BlockBase {
	sim.NameMustBeValid(name)

	return BlockBase{name: name}
}

// Name returns the name of the block.
func (b *BlockBase) Name() string {
	return b.name
}
