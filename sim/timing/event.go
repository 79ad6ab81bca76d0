// Package timing counts simulated time in cycles and dispatches scheduled
// events in cycle order.
package timing

import "github.com/sarchlab/idma/sim/hooking"

// VTimeInCycle is a cycle count on the simulated timeline.
type VTimeInCycle uint64

// A Handler reacts to the events scheduled for it. Events are plain values;
// handlers switch on their type.
type Handler interface {
	Handle(event any) error
}

// TimeTeller reports the cycle the timeline has reached.
type TimeTeller interface {
	CurrentTime() VTimeInCycle
}

// EventScheduler accepts events for future cycles.
type EventScheduler interface {
	TimeTeller
	Schedule(event ScheduledEvent)
}

// ScheduledEvent binds an event to the cycle and handler that process it.
type ScheduledEvent struct {
	Event   any
	Time    VTimeInCycle
	Handler Handler
}

// Hook positions raised around every dispatched event. Item is the
// *ScheduledEvent.
var (
	HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &hooking.HookPos{Name: "AfterEvent"}
)
