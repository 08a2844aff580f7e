package system

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/wishbone"
)

// ErrMismatch is returned when a read does not return what was last
// written.
var ErrMismatch = errors.New("read data mismatch")

// Traffic generates random word accesses inside a window of memory and
// checks the read data against a model of the memory.
type Traffic struct {
	r        *rand.Rand
	g        wishbone.Geometry
	numWords uint64
	readFrac float64

	model    map[uint64]uint64
	expected map[string]uint64

	numReads, numWrites int
}

// NewTraffic creates a generator over the first span bytes of memory. About
// readFrac of the transactions are reads.
func NewTraffic(
	seed int64,
	g wishbone.Geometry,
	span uint64,
	readFrac float64,
) *Traffic {
	numWords := span / uint64(g.DataBytes())
	if numWords == 0 {
		numWords = 1
	}

	return &Traffic{
		r:        rand.New(rand.NewSource(seed)),
		g:        g,
		numWords: numWords,
		readFrac: readFrac,
		model:    make(map[uint64]uint64),
		expected: make(map[string]uint64),
	}
}

// Next returns a new transaction. Transactions must be run in the order
// they are generated.
func (t *Traffic) Next() *wishbone.Transaction {
	addr := uint64(t.r.Int63n(int64(t.numWords))) * uint64(t.g.DataBytes())

	if t.r.Float64() < t.readFrac {
		tr := wishbone.NewRead(addr)
		t.expected[tr.ID] = t.model[addr]
		t.numReads++

		return tr
	}

	data := t.r.Uint64() & t.g.DataMask()
	sel := uint8(t.r.Intn(int(t.g.SelMask()) + 1))
	tr := wishbone.NewWrite(addr, data, sel)

	t.model[addr] = wishbone.ApplySel(t.model[addr], data, sel)
	t.numWrites++

	return tr
}

// Check compares a completed read with the model. Writes always pass.
func (t *Traffic) Check(tr *wishbone.Transaction) error {
	if tr.Dir != protocol.Read {
		return nil
	}

	want, ok := t.expected[tr.ID]
	if !ok {
		return fmt.Errorf("read %s was not generated here", tr.ID)
	}

	delete(t.expected, tr.ID)

	if tr.Data != want {
		return fmt.Errorf("%w: %v returned %#x, want %#x",
			ErrMismatch, tr, tr.Data, want)
	}

	return nil
}

// NumReads returns the number of reads generated.
func (t *Traffic) NumReads() int {
	return t.numReads
}

// NumWrites returns the number of writes generated.
func (t *Traffic) NumWrites() int {
	return t.numWrites
}
