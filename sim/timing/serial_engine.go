package timing

import (
	"fmt"
	"sync"

	"github.com/sarchlab/idma/sim/hooking"
)

// SerialEngine dispatches events one at a time in cycle order. Events of
// the same cycle run in the order they were scheduled.
type SerialEngine struct {
	*hooking.HookableBase

	mu    sync.Mutex
	now   VTimeInCycle
	queue pending
	runMu sync.Mutex
}

// NewSerialEngine creates an engine at cycle 0.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{HookableBase: hooking.NewHookableBase()}
}

// Schedule queues evt. Scheduling before the current cycle panics.
func (e *SerialEngine) Schedule(evt ScheduledEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if evt.Time < e.now {
		panic(fmt.Sprintf("timing: %T scheduled at cycle %d, now %d",
			evt.Event, evt.Time, e.now))
	}

	e.queue.add(&evt)
}

// CurrentTime returns the cycle of the latest dispatched event.
func (e *SerialEngine) CurrentTime() VTimeInCycle {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.now
}

// Run dispatches events until none is left. A handler error stops the run
// and is returned; the remaining events stay queued.
func (e *SerialEngine) Run() error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	for {
		evt := e.advance()
		if evt == nil {
			return nil
		}

		if err := e.dispatch(evt); err != nil {
			return err
		}
	}
}

func (e *SerialEngine) advance() *ScheduledEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	evt := e.queue.take()
	if evt != nil {
		e.now = evt.Time
	}

	return evt
}

func (e *SerialEngine) dispatch(evt *ScheduledEvent) error {
	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	})

	var err error
	if evt.Handler != nil {
		err = evt.Handler.Handle(evt.Event)
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    HookPosAfterEvent,
		Item:   evt,
	})

	return err
}

var _ EventScheduler = (*SerialEngine)(nil)
