// Package hooking lets a component announce what it does at named positions
// so that loggers and tracers can observe it without the component knowing
// them.
package hooking

import (
	"log"
	"sync"
)

// HookPos names a place a component reports from. Positions are compared by
// pointer.
type HookPos struct {
	Name string
}

// HookCtx is what a hook receives.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos

	// Item is the subject of the report, such as a transfer or a register
	// access. Detail is optional extra data.
	Item   any
	Detail any
}

// Hookable is implemented by everything hooks can attach to.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
	InvokeHook(ctx HookCtx)
}

// A Hook observes the reports of a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc lets a function be used as a Hook.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase implements Hookable for embedding. Hooks may be added while
// other goroutines invoke them.
type HookableBase struct {
	mu    sync.RWMutex
	hooks []Hook
}

// NewHookableBase creates a HookableBase without hooks.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// NumHooks returns the number of hooks attached.
func (h *HookableBase) NumHooks() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.hooks)
}

// Hooks returns a copy of the attached hooks.
func (h *HookableBase) Hooks() []Hook {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return append([]Hook(nil), h.hooks...)
}

// AcceptHook attaches hook. Attaching the same hook value twice panics;
// HookFunc values are not comparable and are always accepted.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, isFunc := hook.(HookFunc); !isFunc {
		for _, existing := range h.hooks {
			if existing == hook {
				panic("hooking: hook attached twice")
			}
		}
	}

	h.hooks = append(h.hooks, hook)
}

// InvokeHook calls every attached hook in the order they were attached.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	h.mu.RLock()
	hooks := h.hooks
	h.mu.RUnlock()

	for _, hook := range hooks {
		hook.Func(ctx)
	}
}

// LogHookBase gives printing hooks their logger.
type LogHookBase struct {
	*log.Logger
}

var _ Hookable = (*HookableBase)(nil)
