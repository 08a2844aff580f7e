package host

import "fmt"

// State is the state of the host state machine.
type State int

// States of the host, in transaction order.
const (
	Idle State = iota
	WriteCmd
	ReadCmd
	WriteAddr
	ReadAddr
	WriteSel
	ReadSel
	WriteData
	ReadData
	WriteAck
	ReadAck
	WishboneAck
)

var stateNames = [...]string{
	"Idle",
	"WriteCmd",
	"ReadCmd",
	"WriteAddr",
	"ReadAddr",
	"WriteSel",
	"ReadSel",
	"WriteData",
	"ReadData",
	"WriteAck",
	"ReadAck",
	"WishboneAck",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// Listening tells if the host releases the narrow bus in the state.
func (s State) Listening() bool {
	return s == WriteAck || s == ReadAck || s == ReadData
}
