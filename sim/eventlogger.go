package sim

import (
	"log"
	"reflect"
)

// LogHookBase is embedded by hooks that write to a logger.
type LogHookBase struct {
	*log.Logger
}

// EventLogger is a hook for engines that logs every event before it is
// handled.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger creates an EventLogger that writes into logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger

	return h
}

// Func logs the time, the type and the handler of the event.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	target := reflect.TypeOf(evt.Handler()).String()
	if n, ok := evt.Handler().(Named); ok {
		target = n.Name()
	}

	h.Printf("%.10f %s -> %s", evt.Time(), reflect.TypeOf(evt), target)
}
