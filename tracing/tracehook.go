package tracing

import (
	"fmt"

	"github.com/sarchlab/idma/dma"
	"github.com/sarchlab/idma/mem/idma"
	"github.com/sarchlab/idma/sim/hooking"
)

// Task kinds.
const (
	KindTransfer = "transfer"
	KindWait     = "wait"
)

// NamedHookable represent something both have a name and can be hooked
type NamedHookable interface {
	Name() string
	hooking.Hookable
}

// CollectTrace lets the tracer record the tasks of domain. Engine models
// report transfers from launch to completion. Driver engines report the
// time from issue to a successful wait.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	domain.AcceptHook(&traceHook{domain: domain, tracer: tracer})
}

type traceHook struct {
	domain NamedHookable
	tracer Tracer
}

// JobTaskID returns the ID of the transfer task of a launched job.
func JobTaskID(model string, stream int, id uint32) string {
	return fmt.Sprintf("%s.%d.%d", model, stream, id)
}

func ticketTaskID(engine string, t dma.Ticket) string {
	return fmt.Sprintf("%s.%s", engine, t)
}

func (h *traceHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case idma.HookPosLaunch:
		job := ctx.Item.(idma.Job)
		h.tracer.StartTask(Task{
			ID:       JobTaskID(h.domain.Name(), job.Stream, job.ID),
			Kind:     KindTransfer,
			What:     job.Transfer.Dim.String() + " " + job.Transfer.Route.String(),
			Location: h.domain.Name(),
			Detail:   job,
		})
	case idma.HookPosComplete:
		job := ctx.Item.(idma.Job)
		h.tracer.EndTask(Task{
			ID: JobTaskID(h.domain.Name(), job.Stream, job.ID),
		})
	case dma.HookPosIssue:
		t := ctx.Item.(dma.Transfer)
		ticket := ctx.Detail.(dma.Ticket)
		h.tracer.StartTask(Task{
			ID:       ticketTaskID(h.domain.Name(), ticket),
			Kind:     KindWait,
			What:     t.Dim.String() + " " + t.Route.String(),
			Location: h.domain.Name(),
			Detail:   t,
		})
	case dma.HookPosWaitDone:
		ticket := ctx.Item.(dma.Ticket)
		h.tracer.EndTask(Task{ID: ticketTaskID(h.domain.Name(), ticket)})
	}
}
