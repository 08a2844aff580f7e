package rtl

import "github.com/sarchlab/simplebus/sim"

// Clock drives a Domain from a simulation engine. Every tick event steps the
// domain once, so one simulated clock period equals one domain cycle.
type Clock struct {
	*sim.TickingComponent

	domain *Domain
	stop   func() bool
}

// NewClock creates a clock for the domain.
func NewClock(
	name string,
	engine sim.Engine,
	freq sim.Freq,
	domain *Domain,
) *Clock {
	c := &Clock{domain: domain}
	c.TickingComponent = sim.NewTickingComponent(name, engine, freq, c)

	return c
}

// StopWhen sets the condition under which the clock stops ticking. Without a
// condition the clock ticks forever.
func (c *Clock) StopWhen(cond func() bool) {
	c.stop = cond
}

// Domain returns the domain driven by the clock.
func (c *Clock) Domain() *Domain {
	return c.domain
}

// Tick steps the domain unless the stop condition holds.
func (c *Clock) Tick() bool {
	if c.stop != nil && c.stop() {
		return false
	}

	c.domain.Step()

	return true
}
