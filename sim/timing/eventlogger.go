package timing

import (
	"fmt"
	"log"

	"github.com/sarchlab/idma/sim/hooking"
)

// EventLogger prints one line per dispatched event: the cycle, the event
// type and the handler.
type EventLogger struct {
	hooking.LogHookBase
}

// NewEventLogger creates an EventLogger writing to logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{LogHookBase: hooking.LogHookBase{Logger: logger}}
}

// Func implements hooking.Hook.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	evt, ok := ctx.Item.(*ScheduledEvent)
	if ctx.Pos != HookPosBeforeEvent || !ok {
		return
	}

	h.Printf("%d, %T -> %s", evt.Time, evt.Event, handlerName(evt.Handler))
}

func handlerName(h Handler) string {
	switch h := h.(type) {
	case nil:
		return "<nil>"
	case interface{ Name() string }:
		return h.Name()
	default:
		return fmt.Sprintf("%T", h)
	}
}
