package system

import "github.com/sarchlab/simplebus/vcd"

// AddProbes registers the pins of the bridge with a waveform writer. Attach
// the writer to s.Domain to sample them.
func (s *System) AddProbes(w *vcd.Writer) {
	top := s.Name()
	g := s.spec.Geometry()

	w.AddBoolProbe(top+".Master", "cyc", func() bool {
		return s.Master.Request().Cyc
	})
	w.AddBoolProbe(top+".Master", "we", func() bool {
		return s.Master.Request().We
	})
	w.AddProbe(top+".Master", "adr", s.spec.AddrWidth, func() uint64 {
		return s.Master.Request().Adr
	})
	w.AddProbe(top+".Master", "dat_w", s.spec.DataWidth, func() uint64 {
		return s.Master.Request().DatW
	})
	w.AddProbe(top+".Master", "sel", g.DataBytes(), func() uint64 {
		return uint64(s.Master.Request().Sel)
	})

	w.AddBoolProbe(top+".Host", "ack", func() bool {
		return s.Host.Response().Ack
	})
	w.AddBoolProbe(top+".Host", "stall", func() bool {
		return s.Host.Response().Stall
	})
	w.AddProbe(top+".Host", "dat_r", s.spec.DataWidth, func() uint64 {
		return s.Host.Response().DatR
	})
	w.AddBoolProbe(top+".Host", "clk_out", s.Host.ClkOut)
	w.AddBoolProbe(top+".Host", "strobe", s.Host.Strobe)
	w.AddBoolProbe(top+".Host", "enabled", s.Host.Enabled)
	w.AddProbe(top+".Host", "state", 4, func() uint64 {
		return uint64(s.Host.State())
	})

	w.AddProbe(top+".Bus", "data", 8, func() uint64 {
		return uint64(s.Bus.Value())
	})
	w.AddBoolProbe(top+".Bus", "parity", func() bool {
		return s.Bus.Pins().Parity
	})
	w.AddBoolProbe(top+".Bus", "host_oe", s.Bus.HostDriving)
	w.AddBoolProbe(top+".Bus", "peripheral_oe", s.Bus.PeripheralDriving)

	w.AddProbe(top+".Peripheral", "state", 4, func() uint64 {
		return uint64(s.Peripheral.State())
	})
	w.AddBoolProbe(top+".Peripheral", "cyc", func() bool {
		return s.Peripheral.Request().Cyc
	})

	w.AddBoolProbe(top+".RAM", "ack", func() bool {
		return s.RAM.Response().Ack
	})
}
