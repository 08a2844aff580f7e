package rtl

import (
	"log"
	"strings"

	"github.com/sarchlab/simplebus/sim"
)

// CycleLogger is a hook that prints the state of every block that reports
// one, once per cycle.
type CycleLogger struct {
	sim.LogHookBase

	domain *Domain
}

// NewCycleLogger creates a CycleLogger that writes into the logger.
func NewCycleLogger(logger *log.Logger, domain *Domain) *CycleLogger {
	h := new(CycleLogger)
	h.Logger = logger
	h.domain = domain

	return h
}

// Func writes the state summary of the domain.
func (h *CycleLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosCycle {
		return
	}

	var sb strings.Builder

	for _, b := range h.domain.Blocks() {
		r, ok := b.(StateReporter)
		if !ok {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(b.Name())
		sb.WriteString("=")
		sb.WriteString(r.StateString())
	}

	h.Logger.Printf("%d, %s", ctx.Item, sb.String())
}
