// Package system assembles a complete bridge: a test master drives the host,
// the host talks to the peripheral over the narrow bus and the peripheral
// serves the requests from a RAM.
package system

import (
	"errors"
	"fmt"

	"github.com/sarchlab/simplebus/csr"
	"github.com/sarchlab/simplebus/host"
	"github.com/sarchlab/simplebus/mem"
	"github.com/sarchlab/simplebus/peripheral"
	"github.com/sarchlab/simplebus/rtl"
	"github.com/sarchlab/simplebus/serial"
	"github.com/sarchlab/simplebus/sim"
	"github.com/sarchlab/simplebus/wishbone"
)

// ErrNoCtrl is returned by register accesses on a system built without a
// control bus master.
var ErrNoCtrl = errors.New("system has no control bus master")

// System holds all the blocks of a bridge. All of them are clocked by
// Domain.
type System struct {
	spec Spec

	Domain     *rtl.Domain
	Master     *wishbone.Master
	Ctrl       *wishbone.Master
	Host       *host.Comp
	Bus        *serial.Bus
	Peripheral *peripheral.Comp
	RAM        *mem.RAM
}

// Spec returns the configuration of the system.
func (s *System) Spec() Spec {
	return s.spec
}

// Name returns the name of the system.
func (s *System) Name() string {
	return s.Domain.Name()
}

// Busy tells if any master still has work.
func (s *System) Busy() bool {
	if s.Ctrl != nil && s.Ctrl.Busy() {
		return true
	}

	return s.Master.Busy()
}

// Submit queues a transaction on the test master without running the clock.
// It returns false if the queue is full.
func (s *System) Submit(t *wishbone.Transaction) bool {
	if !s.Master.CanEnqueue() {
		return false
	}

	s.Master.Enqueue(t)

	return true
}

// Drain runs the clock until every queued transaction has completed.
func (s *System) Drain() error {
	limit := s.CycleBound() * uint64(s.spec.QueueSize+1)

	_, err := s.Domain.RunUntil(func() bool { return !s.Busy() }, limit)
	if err != nil {
		return fmt.Errorf("draining %s: %w", s.Name(), err)
	}

	return nil
}

// CycleBound returns the cycle limit of one transaction at the divisor the
// host's config register holds now.
func (s *System) CycleBound() uint64 {
	spec := s.spec
	if spec.Strobe != host.StrobeCountdown {
		spec.Divisor = s.Host.CSR().Divisor()
	}

	return spec.TransactionCycleBound()
}

// Do runs a single transaction to completion. Read data is stored into the
// transaction.
func (s *System) Do(t *wishbone.Transaction) error {
	return s.do(s.Master, t)
}

func (s *System) do(m *wishbone.Master, t *wishbone.Transaction) error {
	if m.Busy() {
		return fmt.Errorf("%s: master %s is busy", s.Name(), m.Name())
	}

	m.Enqueue(t)

	_, err := s.Domain.RunUntil(
		func() bool { return !m.Busy() },
		s.CycleBound(),
	)
	if err != nil {
		return fmt.Errorf("%v: %w", t, err)
	}

	return nil
}

// Write stores data at a byte address, changing only the bytes whose bit
// is set in sel.
func (s *System) Write(addr, data uint64, sel uint8) error {
	return s.Do(wishbone.NewWrite(addr, data, sel))
}

// Read returns the word at a byte address.
func (s *System) Read(addr uint64) (uint64, error) {
	t := wishbone.NewRead(addr)

	if err := s.Do(t); err != nil {
		return 0, err
	}

	return t.Data, nil
}

// WriteCSR writes a register of the host through the control bus.
func (s *System) WriteCSR(index uint64, value uint32, sel uint8) error {
	if s.Ctrl == nil {
		return ErrNoCtrl
	}

	t := wishbone.NewWrite(csr.Geometry.ByteAddress(index), uint64(value), sel)

	return s.do(s.Ctrl, t)
}

// ReadCSR reads a register of the host through the control bus.
func (s *System) ReadCSR(index uint64) (uint32, error) {
	if s.Ctrl == nil {
		return 0, ErrNoCtrl
	}

	t := wishbone.NewRead(csr.Geometry.ByteAddress(index))
	if err := s.do(s.Ctrl, t); err != nil {
		return 0, err
	}

	return uint32(t.Data), nil
}

// Configure sets the clock divisor and the enable bit of the host. The bus
// must be idle.
func (s *System) Configure(divisor uint8, enabled bool) error {
	if s.Master.Busy() {
		return fmt.Errorf("%s: cannot reconfigure while a transaction is "+
			"in flight", s.Name())
	}

	return s.WriteCSR(csr.ConfigIndex, csr.MakeConfig(divisor, enabled), 0xF)
}

// NewClock creates a clock that steps the domain from an engine at freq.
// The clock stops once no master has work.
func (s *System) NewClock(engine sim.Engine, freq sim.Freq) *rtl.Clock {
	c := rtl.NewClock(s.Name()+".Clock", engine, freq, s.Domain)
	c.StopWhen(func() bool { return !s.Busy() })

	return c
}

// Reset puts every block back into its reset state.
func (s *System) Reset() {
	s.Domain.Reset()
}
