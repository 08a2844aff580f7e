// Package wishbone models the signals of a classic Wishbone bus.
package wishbone

import (
	"fmt"
	"log"
	"math/bits"

	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/sim"
)

// Request carries the signals driven by an initiator. Adr is a word address.
type Request struct {
	Adr  uint64
	DatW uint64
	Sel  uint8
	Cyc  bool
	Stb  bool
	We   bool
}

// Active tells if the request asks for a transfer in this cycle.
func (r Request) Active() bool {
	return r.Cyc && r.Stb
}

// Response carries the signals driven by a responder.
type Response struct {
	DatR  uint64
	Ack   bool
	Stall bool
}

// An Initiator drives requests onto a bus.
type Initiator interface {
	Request() Request
}

// A Responder answers requests on a bus.
type Responder interface {
	Response() Response
}

// A Transaction is one access to the bus, as issued by a test bench or a
// traffic generator. Address is a byte address.
type Transaction struct {
	ID      string
	Address uint64
	Data    uint64
	Sel     uint8
	Dir     protocol.Direction

	// Cycle at which the transaction was issued and completed.
	IssueCycle    uint64
	CompleteCycle uint64
}

// NewWrite creates a write transaction.
func NewWrite(address, data uint64, sel uint8) *Transaction {
	return &Transaction{
		ID:      sim.GetIDGenerator().Generate(),
		Address: address,
		Data:    data,
		Sel:     sel,
		Dir:     protocol.Write,
	}
}

// NewRead creates a read transaction.
func NewRead(address uint64) *Transaction {
	return &Transaction{
		ID:      sim.GetIDGenerator().Generate(),
		Address: address,
		Dir:     protocol.Read,
	}
}

func (t *Transaction) String() string {
	if t.Dir == protocol.Write {
		return fmt.Sprintf("write %#x <- %#x sel %#02x",
			t.Address, t.Data, t.Sel)
	}

	return fmt.Sprintf("read %#x", t.Address)
}

// Geometry describes the width of a bus.
type Geometry struct {
	AddrWidth int
	DataWidth int
}

// AddrBytes returns the number of bytes in an address.
func (g Geometry) AddrBytes() int {
	return g.AddrWidth / 8
}

// DataBytes returns the number of bytes in a data word.
func (g Geometry) DataBytes() int {
	return g.DataWidth / 8
}

// SubWordBits returns the number of low address bits that select a byte
// within a data word.
func (g Geometry) SubWordBits() int {
	return bits.TrailingZeros(uint(g.DataBytes()))
}

// WordAddress converts a byte address into a word address.
func (g Geometry) WordAddress(byteAddr uint64) uint64 {
	return byteAddr >> g.SubWordBits()
}

// ByteAddress converts a word address into a byte address.
func (g Geometry) ByteAddress(wordAddr uint64) uint64 {
	return wordAddr << g.SubWordBits()
}

// AddrMask returns the mask of valid byte address bits.
func (g Geometry) AddrMask() uint64 {
	if g.AddrWidth >= 64 {
		return ^uint64(0)
	}

	return uint64(1)<<g.AddrWidth - 1
}

// DataMask returns the mask of valid data bits.
func (g Geometry) DataMask() uint64 {
	if g.DataWidth >= 64 {
		return ^uint64(0)
	}

	return uint64(1)<<g.DataWidth - 1
}

// SelMask returns the select mask that enables every byte.
func (g Geometry) SelMask() uint8 {
	return uint8(uint16(1)<<g.DataBytes() - 1)
}

// Protocol returns the frame geometry on the narrow bus.
func (g Geometry) Protocol() protocol.Geometry {
	return protocol.Geometry{
		AddrBytes: g.AddrBytes(),
		DataBytes: g.DataBytes(),
	}
}

// Validate checks that both widths are whole numbers of bytes, that the
// select mask fits in one byte and that a data word has a power-of-two
// number of bytes.
func (g Geometry) Validate() error {
	if g.AddrWidth <= 0 || g.AddrWidth%8 != 0 || g.AddrWidth > 64 {
		return fmt.Errorf("address width %d is not a multiple of 8 in [8, 64]",
			g.AddrWidth)
	}

	if g.DataWidth <= 0 || g.DataWidth%8 != 0 || g.DataWidth > 64 {
		return fmt.Errorf("data width %d is not a multiple of 8 in [8, 64]",
			g.DataWidth)
	}

	if n := g.DataBytes(); n&(n-1) != 0 {
		return fmt.Errorf("data width %d is not a power-of-two number of bytes",
			g.DataWidth)
	}

	return nil
}

// MustBeValid panics if the geometry is invalid.
func (g Geometry) MustBeValid() {
	if err := g.Validate(); err != nil {
		log.Panic(err)
	}
}

// ApplySel merges newData into oldData, taking each byte whose bit is set in
// sel from newData.
func ApplySel(oldData, newData uint64, sel uint8) uint64 {
	out := oldData
	for i := 0; i < 8; i++ {
		if sel&(1<<i) == 0 {
			continue
		}

		mask := uint64(0xff) << (8 * i)
		out = (out &^ mask) | (newData & mask)
	}

	return out
}
