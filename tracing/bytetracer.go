package tracing

import (
	"log"

	"github.com/sarchlab/simplebus/datarecording"
	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/serial"
	"github.com/sarchlab/simplebus/sim"
	"github.com/sarchlab/simplebus/wishbone"
)

// ByteTable is the table a ByteTracer writes into.
const ByteTable = "bus_bytes"

// ByteEntry is a byte seen on the narrow bus on a strobe.
type ByteEntry struct {
	Cycle    uint64
	Driver   string
	Value    uint8
	Parity   bool
	ParityOK bool
}

// A BusProbe shows what is on the narrow bus.
type BusProbe interface {
	Pins() serial.Pins
	HostDriving() bool
	PeripheralDriving() bool
}

// A HostProbe tells if the narrow bus advances in the current cycle and
// whether the host is still working on a transaction.
type HostProbe interface {
	Strobe() bool
	Current() *wishbone.Transaction
	Response() wishbone.Response
}

// ByteTracer records every byte that is driven on the narrow bus on a
// strobe while the host serves a transaction. It checks the parity bit
// against the mode of the receiving side, so a host and a peripheral that
// disagree on the parity rule show up as failures. It never acts on a
// mismatch.
type ByteTracer struct {
	bus            BusProbe
	host           HostProbe
	hostMode       protocol.ParityMode
	peripheralMode protocol.ParityMode
	recorder       datarecording.DataRecorder

	numBytes       int
	numParityFails int
}

// NewByteTracer creates the byte table in the recorder. Attach the tracer to
// the clock domain of the bus with AcceptHook.
func NewByteTracer(
	recorder datarecording.DataRecorder,
	bus BusProbe,
	host HostProbe,
	hostMode, peripheralMode protocol.ParityMode,
) (*ByteTracer, error) {
	if err := recorder.CreateTable(ByteTable, ByteEntry{}); err != nil {
		return nil, err
	}

	return &ByteTracer{
		bus:            bus,
		host:           host,
		hostMode:       hostMode,
		peripheralMode: peripheralMode,
		recorder:       recorder,
	}, nil
}

// Func samples the bus after every clock edge.
func (t *ByteTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != rtl.HookPosCycle ||
		!t.host.Strobe() ||
		t.host.Current() == nil ||
		t.host.Response().Ack {
		return
	}

	var (
		driver string
		mode   protocol.ParityMode
	)

	switch {
	case t.bus.HostDriving():
		driver, mode = "host", t.peripheralMode
	case t.bus.PeripheralDriving():
		driver, mode = "peripheral", t.hostMode
	default:
		return
	}

	pins := t.bus.Pins()
	entry := ByteEntry{
		Cycle:    ctx.Item.(uint64),
		Driver:   driver,
		Value:    pins.Data,
		Parity:   pins.Parity,
		ParityOK: protocol.Parity(pins.Data, mode) == pins.Parity,
	}

	t.numBytes++
	if !entry.ParityOK {
		t.numParityFails++
	}

	if err := t.recorder.InsertData(ByteTable, entry); err != nil {
		log.Panic(err)
	}
}

// NumBytes returns the number of bytes recorded.
func (t *ByteTracer) NumBytes() int {
	return t.numBytes
}

// NumParityFails returns the number of bytes whose parity bit the receiver
// would reject.
func (t *ByteTracer) NumParityFails() int {
	return t.numParityFails
}
