package protocol

import (
	"errors"
	"fmt"
)

// ErrMalformedFrame is returned when a byte sequence cannot be decoded into
// a frame.
var ErrMalformedFrame = errors.New("malformed frame")

// A Frame is the byte sequence that carries one request from the host to the
// peripheral.
type Frame struct {
	Cmd     Cmd
	Address Word
	Sel     uint8
	Data    Word
}

// Geometry gives the number of address and data bytes in a frame. When
// ReadSel is set, read frames carry a select byte after the address.
type Geometry struct {
	AddrBytes int
	DataBytes int
	ReadSel   bool
}

// FrameLen returns the number of bytes of a request frame in the direction.
func FrameLen(dir Direction, g Geometry) int {
	if dir == Write {
		return 1 + g.AddrBytes + 1 + g.DataBytes
	}

	if g.ReadSel {
		return 1 + g.AddrBytes + 1
	}

	return 1 + g.AddrBytes
}

// EncodeFrame serializes a frame. Multi-byte fields go least significant byte
// first. Read frames carry no data.
func EncodeFrame(f Frame, g Geometry) []uint8 {
	dir := f.Cmd.Direction()
	out := make([]uint8, 0, FrameLen(dir, g))

	out = append(out, Encode(dir))
	out = append(out, f.Address.Bytes(g.AddrBytes)...)

	switch {
	case dir == Write:
		out = append(out, f.Sel)
		out = append(out, f.Data.Bytes(g.DataBytes)...)
	case g.ReadSel:
		out = append(out, f.Sel)
	}

	return out
}

// DecodeFrame parses the bytes of a request frame.
func DecodeFrame(b []uint8, g Geometry) (Frame, error) {
	if len(b) == 0 {
		return Frame{}, fmt.Errorf("%w: empty", ErrMalformedFrame)
	}

	cmd, ok := Decode(b[0])
	if !ok || cmd.IsAck() {
		return Frame{}, fmt.Errorf("%w: %s is not a request",
			ErrMalformedFrame, cmd)
	}

	dir := cmd.Direction()
	if want := FrameLen(dir, g); len(b) != want {
		return Frame{}, fmt.Errorf("%w: %s frame has %d bytes, want %d",
			ErrMalformedFrame, cmd, len(b), want)
	}

	f := Frame{
		Cmd:     cmd,
		Address: WordFromBytes(b[1 : 1+g.AddrBytes]),
	}

	rest := b[1+g.AddrBytes:]

	switch {
	case dir == Write:
		f.Sel = rest[0]
		f.Data = WordFromBytes(rest[1:])
	case g.ReadSel:
		f.Sel = rest[0]
	}

	return f, nil
}

// EncodeResponse serializes what the peripheral sends back: the ack byte,
// followed by the data bytes for a read.
func EncodeResponse(dir Direction, data Word, g Geometry) []uint8 {
	out := []uint8{EncodeAck(dir)}
	if dir == Read {
		out = append(out, data.Bytes(g.DataBytes)...)
	}

	return out
}
