package protocol

import "log"

// Word holds up to 8 bytes of an address or data value, least significant
// byte at index 0. Controllers index into it with their byte countdown
// instead of shifting.
type Word uint64

// Byte returns byte i of the word.
func (w Word) Byte(i int) uint8 {
	mustBeByteIndex(i)

	return uint8(w >> (8 * uint(i)))
}

// WithByte returns a copy of the word with byte i replaced by b.
func (w Word) WithByte(i int, b uint8) Word {
	mustBeByteIndex(i)

	shift := 8 * uint(i)
	mask := Word(0xff) << shift

	return (w &^ mask) | Word(b)<<shift
}

// Truncate keeps the lowest n bytes of the word.
func (w Word) Truncate(n int) Word {
	if n >= 8 {
		return w
	}

	return w & (Word(1)<<(8*uint(n)) - 1)
}

// Bytes returns the lowest n bytes of the word, least significant first.
func (w Word) Bytes(n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = w.Byte(i)
	}

	return out
}

// WordFromBytes assembles a word from bytes given least significant first.
func WordFromBytes(b []uint8) Word {
	var w Word
	for i, v := range b {
		w = w.WithByte(i, v)
	}

	return w
}

func mustBeByteIndex(i int) {
	if i < 0 || i >= 8 {
		log.Panicf("byte index %d out of range", i)
	}
}
