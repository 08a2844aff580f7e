package host

// sendMiddleware streams the command, address, select and data bytes of the
// frame, one byte per strobe.
type sendMiddleware struct {
	*Comp
}

func (m *sendMiddleware) Tick() bool {
	switch m.state.Q() {
	case WriteCmd, ReadCmd, WriteAddr, ReadAddr, WriteSel, ReadSel, WriteData:
	default:
		return false
	}

	if !m.strobe.Strobe() {
		return false
	}

	switch m.state.Q() {
	case WriteCmd:
		m.startAddress(WriteAddr)
	case ReadCmd:
		m.startAddress(ReadAddr)
	case WriteAddr:
		m.sendAddress(WriteSel)
	case ReadAddr:
		if m.spec.ReadSel {
			m.sendAddress(ReadSel)
		} else {
			m.sendAddress(ReadAck)
		}
	case WriteSel:
		m.startData()
	case ReadSel:
		m.busOut.D(0)
		m.state.D(ReadAck)
	case WriteData:
		m.sendData()
	}

	return true
}

func (m *sendMiddleware) startAddress(next State) {
	m.count.D(m.addrBytes() - 1)
	m.emit(m.addr.Q().Byte(0))
	m.state.D(next)
}

// sendAddress sends the next address byte. After the last one it sends the
// select byte, or releases the bus if the frame has no select byte.
func (m *sendMiddleware) sendAddress(next State) {
	count := m.count.Q()
	if count > 0 {
		m.emit(m.addr.Q().Byte(m.addrBytes() - count))
		m.count.D(count - 1)

		return
	}

	if next == ReadAck {
		m.busOut.D(0)
	} else {
		m.emit(m.sel.Q())
	}

	m.state.D(next)
}

func (m *sendMiddleware) startData() {
	m.count.D(m.dataBytes() - 1)
	m.emit(m.data.Q().Byte(0))
	m.state.D(WriteData)
}

func (m *sendMiddleware) sendData() {
	count := m.count.Q()
	if count > 0 {
		m.emit(m.data.Q().Byte(m.dataBytes() - count))
		m.count.D(count - 1)

		return
	}

	m.busOut.D(0)
	m.state.D(WriteAck)
}
