package dma

import (
	"context"
	"fmt"
	"sync"

	"github.com/sarchlab/idma/regs"
	"github.com/sarchlab/idma/sim/hooking"
)

// EventBit is the event-unit line the engine raises on every completion.
const EventBit = 8

// EventLine is the event wait primitive of the calling core.
type EventLine interface {
	// WaitAndClear sleeps until a bit of mask is pending, then clears the
	// bits of mask.
	WaitAndClear(ctx context.Context, mask uint32) error
}

// Hook positions raised by an Engine.
var (
	// HookPosIssue fires after a launch. Item is the Transfer, Detail the
	// Ticket.
	HookPosIssue = &hooking.HookPos{Name: "DMAIssue"}

	// HookPosWaitDone fires when Wait returns successfully. Item is the
	// Ticket.
	HookPosWaitDone = &hooking.HookPos{Name: "DMAWaitDone"}

	// HookPosBarrierDone fires when Barrier returns successfully. Item is the
	// Queue.
	HookPosBarrierDone = &hooking.HookPos{Name: "DMABarrierDone"}
)

// An Engine is one core's handle on the iDMA register block.
type Engine struct {
	*hooking.HookableBase

	name      string
	block     regs.Block
	events    EventLine
	issueLock sync.Locker
	eventMask uint32
}

// Name returns the name of the engine.
func (e *Engine) Name() string {
	return e.name
}

// Issue programs t and launches it. The returned ticket completes once the
// engine has written every byte of t.
func (e *Engine) Issue(t Transfer) (Ticket, error) {
	if err := t.Validate(); err != nil {
		return Ticket{}, err
	}

	q := t.Queue()

	e.issueLock.Lock()
	for _, f := range fieldsOf[t.Dim] {
		e.block.Write(f.offset, f.value(&t))
	}
	e.block.Fence()
	id := ID(e.block.Read(regs.NextID(int(q))))
	e.issueLock.Unlock()

	ticket := Ticket{Queue: q, ID: id}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosIssue,
		Item:   t,
		Detail: ticket,
	})

	return ticket, nil
}

// Issue1D launches a contiguous copy of length bytes.
func (e *Engine) Issue1D(d Direction, src, dst, length uint32) (Ticket, error) {
	return e.Issue(MakeTransferBuilder().
		WithDirection(d).
		WithSrc(src).
		WithDst(dst).
		WithLength(length).
		Build())
}

// Issue2D launches reps runs of length bytes, advancing the source and
// destination by their strides after each run.
func (e *Engine) Issue2D(
	d Direction,
	src, dst, length uint32,
	srcStride, dstStride, reps uint32,
) (Ticket, error) {
	return e.Issue(MakeTransferBuilder().
		WithDirection(d).
		WithSrc(src).
		WithDst(dst).
		WithLength(length).
		With2D(srcStride, dstStride, reps).
		Build())
}

// Issue3D launches reps3D planes of the 2D pattern.
func (e *Engine) Issue3D(
	d Direction,
	src, dst, length uint32,
	srcStride2D, dstStride2D, reps2D uint32,
	srcStride3D, dstStride3D, reps3D uint32,
) (Ticket, error) {
	return e.Issue(MakeTransferBuilder().
		WithDirection(d).
		WithSrc(src).
		WithDst(dst).
		WithLength(length).
		With2D(srcStride2D, dstStride2D, reps2D).
		With3D(srcStride3D, dstStride3D, reps3D).
		Build())
}

// Copy issues t and waits for it.
func (e *Engine) Copy(ctx context.Context, t Transfer) (Ticket, error) {
	ticket, err := e.Issue(t)
	if err != nil {
		return Ticket{}, err
	}

	return ticket, e.Wait(ctx, ticket)
}

// DoneID reads the identifier of the latest completed transfer of q.
func (e *Engine) DoneID(q Queue) ID {
	return ID(e.block.Read(regs.DoneID(int(q))))
}

// Status reads the number of transfers of q the engine has not finished.
func (e *Engine) Status(q Queue) uint32 {
	return e.block.Read(regs.Status(int(q)))
}

// IsComplete tells whether the transfer of t has finished.
func (e *Engine) IsComplete(t Ticket) bool {
	return IsDone(e.DoneID(t.Queue), t.ID)
}

// Wait blocks until t completes or ctx is done. Every wake re-reads the
// done counter, so unrelated completions only cost a spurious loop.
func (e *Engine) Wait(ctx context.Context, t Ticket) error {
	for !e.IsComplete(t) {
		if err := e.events.WaitAndClear(ctx, e.eventMask); err != nil {
			return fmt.Errorf("dma: waiting for %s: %w", t, err)
		}
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosWaitDone,
		Item:   t,
	})

	return nil
}

// Barrier blocks until q has no transfer in flight or ctx is done.
func (e *Engine) Barrier(ctx context.Context, q Queue) error {
	for e.Status(q) != 0 {
		if err := e.events.WaitAndClear(ctx, e.eventMask); err != nil {
			return fmt.Errorf("dma: barrier on %s: %w", q, err)
		}
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBarrierDone,
		Item:   q,
	})

	return nil
}
