package sim

// A TimeTeller tells the current simulated time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// An EventScheduler accepts events to run in the future.
type EventScheduler interface {
	Schedule(e Event)
}

// A SimulationEndHandler is called once the simulation has finished.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// An Engine runs events in time order. Hooks see every event before and
// after it is handled.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run handles events until none is left.
	Run() error

	// Pause blocks Run before the next event until Continue is called.
	Pause()

	// Continue lets a paused Run go on.
	Continue()

	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished calls the simulation end handlers.
	Finished()
}
