package protocol

import (
	"fmt"
	"math/bits"
	"strings"
)

// ParityMode selects how the parity line is derived from the data byte.
type ParityMode int

const (
	// ParityEven drives the XOR of all the data bits.
	ParityEven ParityMode = iota

	// ParityInverted drives the negated XOR of all the data bits.
	ParityInverted
)

// Parity returns the parity bit transmitted alongside b.
func Parity(b uint8, mode ParityMode) bool {
	odd := bits.OnesCount8(b)%2 == 1

	if mode == ParityInverted {
		return !odd
	}

	return odd
}

func (m ParityMode) String() string {
	switch m {
	case ParityEven:
		return "even"
	case ParityInverted:
		return "inverted"
	default:
		return fmt.Sprintf("ParityMode(%d)", int(m))
	}
}

// ParseParityMode converts "even" or "inverted" into a ParityMode.
func ParseParityMode(s string) (ParityMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "even", "xor":
		return ParityEven, nil
	case "inverted", "inv", "xnor":
		return ParityInverted, nil
	default:
		return 0, fmt.Errorf("unknown parity mode %q", s)
	}
}
