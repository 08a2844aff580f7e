package sim

import (
	"fmt"
	"log"
	"reflect"
	"sync"
)

// A SerialEngine handles one event at a time on the calling goroutine.
// Pause and Continue may be called from other goroutines, for example by a
// monitoring server.
type SerialEngine struct {
	HookableBase

	timeLock sync.RWMutex
	time     VTimeInSec
	queue    EventQueue

	pauseLock sync.Mutex
	resumed   *sync.Cond
	paused    bool

	runLock sync.Mutex

	endHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine at time 0.
func NewSerialEngine() *SerialEngine {
	e := &SerialEngine{queue: NewEventQueue()}
	e.resumed = sync.NewCond(&e.pauseLock)

	return e
}

// Schedule adds an event. Events may not be scheduled in the past.
func (e *SerialEngine) Schedule(evt Event) {
	if evt.Time() < e.CurrentTime() {
		log.Panicf("scheduling %s @ %.10f, before now (%.10f)",
			reflect.TypeOf(evt), evt.Time(), e.CurrentTime())
	}

	e.queue.Push(evt)
}

// Run handles all the scheduled events, including those scheduled while
// it runs. It stops at the first handler error.
func (e *SerialEngine) Run() error {
	e.runLock.Lock()
	defer e.runLock.Unlock()

	for e.queue.Len() > 0 {
		e.waitIfPaused()

		evt := e.queue.Pop()
		if evt.Time() < e.CurrentTime() {
			log.Panicf("cannot run %s @ %.10f, now is %.10f",
				reflect.TypeOf(evt), evt.Time(), e.CurrentTime())
		}

		e.setTime(evt.Time())

		if err := e.handle(evt); err != nil {
			return fmt.Errorf("handling %s @ %.10f: %w",
				reflect.TypeOf(evt), evt.Time(), err)
		}
	}

	return nil
}

func (e *SerialEngine) handle(evt Event) error {
	ctx := HookCtx{Domain: e, Pos: HookPosBeforeEvent, Item: evt}
	e.InvokeHook(ctx)

	err := evt.Handler().Handle(evt)

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)

	return err
}

func (e *SerialEngine) waitIfPaused() {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	for e.paused {
		e.resumed.Wait()
	}
}

func (e *SerialEngine) setTime(t VTimeInSec) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// Pause stops Run before the next event.
func (e *SerialEngine) Pause() {
	e.pauseLock.Lock()
	e.paused = true
	e.pauseLock.Unlock()
}

// Continue resumes a paused Run.
func (e *SerialEngine) Continue() {
	e.pauseLock.Lock()
	e.paused = false
	e.pauseLock.Unlock()

	e.resumed.Broadcast()
}

// Paused tells if the engine is paused.
func (e *SerialEngine) Paused() bool {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	return e.paused
}

// CurrentTime returns the time of the event being handled, or of the last
// handled event.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	e.timeLock.RLock()
	defer e.timeLock.RUnlock()

	return e.time
}

// RegisterSimulationEndHandler adds a handler that Finished calls.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.endHandlers = append(e.endHandlers, handler)
}

// Finished calls the simulation end handlers with the current time.
func (e *SerialEngine) Finished() {
	now := e.CurrentTime()
	for _, h := range e.endHandlers {
		h.Handle(now)
	}
}
