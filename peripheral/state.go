package peripheral

import "fmt"

// State is the state of the peripheral state machine.
type State int

// States of the peripheral.
const (
	Idle State = iota
	WriteAddr
	ReadAddr
	WriteSel
	ReadSel
	WriteData
	WriteWishbone
	ReadWishbone
	ReadAck
	ReadData
	WriteAck
)

var stateNames = [...]string{
	"Idle",
	"WriteAddr",
	"ReadAddr",
	"WriteSel",
	"ReadSel",
	"WriteData",
	"WriteWishbone",
	"ReadWishbone",
	"ReadAck",
	"ReadData",
	"WriteAck",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// Driving tells if the peripheral drives the narrow bus in the state.
func (s State) Driving() bool {
	return s == WriteAck || s == ReadAck || s == ReadData
}

// OnWideBus tells if the peripheral holds a wide-bus request in the state.
func (s State) OnWideBus() bool {
	return s == WriteWishbone || s == ReadWishbone
}
