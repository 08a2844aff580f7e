package peripheral

// respondMiddleware sends the answer to the host: the ack byte, and for
// reads the data bytes, least significant first.
type respondMiddleware struct {
	*Comp
}

func (m *respondMiddleware) Tick() bool {
	s := m.state.Q()
	if !s.Driving() {
		return false
	}

	if !m.strobe.Strobe() {
		return false
	}

	switch s {
	case WriteAck:
		m.state.D(Idle)
	case ReadAck:
		m.busOut.D(m.data.Q().Byte(0))
		m.count.D(m.dataBytes() - 1)
		m.state.D(ReadData)
	case ReadData:
		m.sendData()
	}

	return true
}

func (m *respondMiddleware) sendData() {
	count := m.count.Q()
	if count == 0 {
		m.state.D(Idle)
		return
	}

	m.busOut.D(m.data.Q().Byte(m.dataBytes() - count))
	m.count.D(count - 1)
}
