// Package protocol defines the bytes exchanged on the narrow serial bus.
package protocol

import "fmt"

// Direction tells if a transaction reads or writes.
type Direction int

// The two transaction directions.
const (
	Read Direction = iota
	Write
)

func (d Direction) String() string {
	switch d {
	case Read:
		return "Read"
	case Write:
		return "Write"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Cmd is a command byte.
type Cmd uint8

// Command byte values. An ack carries the request value with the high bit
// set.
const (
	CmdRead     Cmd = 0x02
	CmdWrite    Cmd = 0x03
	CmdReadAck  Cmd = 0x80 | CmdRead
	CmdWriteAck Cmd = 0x80 | CmdWrite
)

const ackBit = 0x80

// Encode returns the request command byte for the direction.
func Encode(dir Direction) uint8 {
	if dir == Write {
		return uint8(CmdWrite)
	}

	return uint8(CmdRead)
}

// EncodeAck returns the acknowledgment command byte for the direction.
func EncodeAck(dir Direction) uint8 {
	return ackBit | Encode(dir)
}

// IsAck tells if b acknowledges a transaction in the direction.
func IsAck(b uint8, dir Direction) bool {
	return b == EncodeAck(dir)
}

// Decode interprets b as a command byte. The second return value is false if
// b is not one of the four commands.
func Decode(b uint8) (Cmd, bool) {
	switch c := Cmd(b); c {
	case CmdRead, CmdWrite, CmdReadAck, CmdWriteAck:
		return c, true
	default:
		return c, false
	}
}

// IsAck tells if the command acknowledges a request.
func (c Cmd) IsAck() bool {
	return c&ackBit != 0
}

// Direction returns the direction that the command belongs to.
func (c Cmd) Direction() Direction {
	if c&^ackBit == CmdWrite {
		return Write
	}

	return Read
}

func (c Cmd) String() string {
	switch c {
	case CmdRead:
		return "READ"
	case CmdWrite:
		return "WRITE"
	case CmdReadAck:
		return "READ_ACK"
	case CmdWriteAck:
		return "WRITE_ACK"
	default:
		return fmt.Sprintf("Cmd(%#02x)", uint8(c))
	}
}
