package regs

import (
	"github.com/sarchlab/idma/sim/hooking"
)

// Hook positions raised by a HookedBlock.
var (
	HookPosRegRead  = &hooking.HookPos{Name: "RegRead"}
	HookPosRegWrite = &hooking.HookPos{Name: "RegWrite"}
	HookPosFence    = &hooking.HookPos{Name: "Fence"}
)

// Access describes one register access.
type Access struct {
	Offset Offset
	Value  uint32
}

// HookedBlock decorates a Block and reports every access to its hooks.
type HookedBlock struct {
	*hooking.HookableBase

	inner Block
}

// NewHookedBlock wraps inner.
func NewHookedBlock(inner Block) *HookedBlock {
	return &HookedBlock{
		HookableBase: hooking.NewHookableBase(),
		inner:        inner,
	}
}

// Read reads from the wrapped block and reports the value read.
func (b *HookedBlock) Read(off Offset) uint32 {
	v := b.inner.Read(off)

	b.InvokeHook(hooking.HookCtx{
		Domain: b,
		Pos:    HookPosRegRead,
		Item:   Access{Offset: off, Value: v},
	})

	return v
}

// Write reports the access and forwards it to the wrapped block.
func (b *HookedBlock) Write(off Offset, value uint32) {
	b.InvokeHook(hooking.HookCtx{
		Domain: b,
		Pos:    HookPosRegWrite,
		Item:   Access{Offset: off, Value: value},
	})

	b.inner.Write(off, value)
}

// Fence forwards the fence.
func (b *HookedBlock) Fence() {
	b.InvokeHook(hooking.HookCtx{Domain: b, Pos: HookPosFence})
	b.inner.Fence()
}

// LogHook prints register accesses.
type LogHook struct {
	hooking.LogHookBase
}

// Func prints the access carried by ctx.
func (h *LogHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosRegRead:
		a := ctx.Item.(Access)
		h.Printf("read  %-16s -> 0x%08x", a.Offset, a.Value)
	case HookPosRegWrite:
		a := ctx.Item.(Access)
		h.Printf("write %-16s <- 0x%08x", a.Offset, a.Value)
	case HookPosFence:
		h.Printf("fence")
	}
}

var _ Block = (*HookedBlock)(nil)
