package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/simplebus/host"
	"github.com/sarchlab/simplebus/peripheral"
	"github.com/sarchlab/simplebus/sim"
	"github.com/sarchlab/simplebus/wishbone"
)

// NamedHookable is something that has a name and accepts hooks.
type NamedHookable interface {
	sim.Named
	sim.Hookable
}

type hookPair struct {
	start, end *sim.HookPos
}

// CollectTransactions makes the tracer see the transactions of a host or the
// wide-bus requests of a peripheral as tasks.
func CollectTransactions(domain NamedHookable, tracer Tracer) {
	var pair hookPair

	switch domain.(type) {
	case *host.Comp:
		pair = hookPair{host.HookPosTransactionStart, host.HookPosTransactionEnd}
	case *peripheral.Comp:
		pair = hookPair{
			peripheral.HookPosRequestIssued,
			peripheral.HookPosRequestDone,
		}
	default:
		panic(fmt.Sprintf("cannot collect transactions from %s",
			reflect.TypeOf(domain)))
	}

	domain.AcceptHook(&transactionHook{
		where:  domain.Name(),
		pair:   pair,
		tracer: tracer,
	})
}

type transactionHook struct {
	where  string
	pair   hookPair
	tracer Tracer
}

func (h *transactionHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != h.pair.start && ctx.Pos != h.pair.end {
		return
	}

	t := ctx.Item.(*wishbone.Transaction)
	task := Task{
		ID:     t.ID,
		Kind:   t.Dir.String(),
		What:   t.String(),
		Where:  h.where,
		Detail: t,
	}

	if ctx.Pos == h.pair.start {
		h.tracer.StartTask(task)
	} else {
		h.tracer.EndTask(task)
	}
}
