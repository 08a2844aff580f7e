package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/sarchlab/simplebus/host"
	"github.com/sarchlab/simplebus/protocol"
	"github.com/sarchlab/simplebus/system"
)

// addBridgeFlags adds the flags that configure a bridge.
func addBridgeFlags(flags *pflag.FlagSet) {
	d := system.Defaults()

	flags.Uint8("divisor", d.Divisor,
		"Clock divisor; the bus advances every 2^(divisor+1) cycles.")
	flags.Int("addr-width", d.AddrWidth,
		"Width of a wide-bus byte address in bits, a multiple of 8.")
	flags.Int("data-width", d.DataWidth,
		"Width of a wide-bus data word in bits, a multiple of 8 up to 64.")
	flags.String("parity", d.ParityMode.String(),
		"Parity rule of the narrow bus, even or inverted.")
	flags.Bool("read-sel", d.ReadSel,
		"Send the select byte in read frames too.")
	flags.String("strobe", d.Strobe.String(),
		"Strobe generator of the host, tap or countdown.")
	flags.Int("latency", d.MemLatency,
		"Cycles the memory waits before it acks.")
	flags.Uint64("mem-size", d.MemCapacity, "Size of the memory in bytes.")
	flags.Int("queue-size", d.QueueSize,
		"Number of transactions the test master holds.")
}

// specFromFlags builds the bridge spec from the flags added by
// addBridgeFlags.
func specFromFlags(flags *pflag.FlagSet) (system.Spec, error) {
	spec := system.Defaults()

	var err error

	if spec.Divisor, err = flags.GetUint8("divisor"); err != nil {
		return spec, err
	}

	if spec.AddrWidth, err = flags.GetInt("addr-width"); err != nil {
		return spec, err
	}

	if spec.DataWidth, err = flags.GetInt("data-width"); err != nil {
		return spec, err
	}

	if spec.ReadSel, err = flags.GetBool("read-sel"); err != nil {
		return spec, err
	}

	if spec.MemLatency, err = flags.GetInt("latency"); err != nil {
		return spec, err
	}

	if spec.MemCapacity, err = flags.GetUint64("mem-size"); err != nil {
		return spec, err
	}

	if spec.QueueSize, err = flags.GetInt("queue-size"); err != nil {
		return spec, err
	}

	parity, _ := flags.GetString("parity")
	if spec.ParityMode, err = protocol.ParseParityMode(parity); err != nil {
		return spec, err
	}

	strobe, _ := flags.GetString("strobe")
	if spec.Strobe, err = host.ParseStrobeKind(strobe); err != nil {
		return spec, err
	}

	if spec.Strobe == host.StrobeCountdown {
		spec.CountdownPeriod = 1
	}

	if err := spec.Validate(); err != nil {
		return spec, fmt.Errorf("invalid bridge: %w", err)
	}

	return spec, nil
}
