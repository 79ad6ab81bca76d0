package regs

// Block is the register-level contract of the engine: 32-bit reads and
// writes at offsets of one register block. A failed access is a hardware
// fault and is not reported here.
type Block interface {
	Read(off Offset) uint32
	Write(off Offset, value uint32)

	// Fence orders all earlier writes before any later access.
	Fence()
}

// Bus performs 32-bit accesses at absolute addresses.
type Bus interface {
	Load32(addr uint64) uint32
	Store32(addr uint64, value uint32)
}

// Base addresses of the engine as seen from a cluster core.
const (
	// DirectBase reaches the engine directly.
	DirectBase uint64 = 0x10201800

	// DemuxBase reaches the engine through the peripheral demultiplexer
	// shared by several front-ends.
	DemuxBase uint64 = 0x10204400
)

// A Window is a Block at a fixed base address of a Bus. The base is chosen
// once, when the window is built.
type Window struct {
	bus  Bus
	base uint64
}

// NewWindow creates a Window at an arbitrary base address.
func NewWindow(bus Bus, base uint64) *Window {
	return &Window{bus: bus, base: base}
}

// NewDirectWindow creates a Window at DirectBase.
func NewDirectWindow(bus Bus) *Window {
	return NewWindow(bus, DirectBase)
}

// NewDemuxWindow creates a Window at DemuxBase.
func NewDemuxWindow(bus Bus) *Window {
	return NewWindow(bus, DemuxBase)
}

// Base returns the base address of the window.
func (w *Window) Base() uint64 {
	return w.base
}

// Read loads the register at off.
func (w *Window) Read(off Offset) uint32 {
	return w.bus.Load32(w.base + uint64(off))
}

// Write stores value into the register at off.
func (w *Window) Write(off Offset, value uint32) {
	w.bus.Store32(w.base+uint64(off), value)
}

// Fence forwards to the bus when it supports explicit ordering. Buses that
// access memory with sequentially consistent atomics need no fence.
func (w *Window) Fence() {
	if f, ok := w.bus.(interface{ Fence() }); ok {
		f.Fence()
	}
}

// Config selects how software reaches the register block.
type Config struct {
	// Demux selects the demultiplexed address instead of the direct one.
	Demux bool

	// Base overrides both when non-zero.
	Base uint64
}

// BaseAddress returns the base address selected by the config.
func (c Config) BaseAddress() uint64 {
	switch {
	case c.Base != 0:
		return c.Base
	case c.Demux:
		return DemuxBase
	default:
		return DirectBase
	}
}

// Open creates the Window described by the config.
func (c Config) Open(bus Bus) *Window {
	return NewWindow(bus, c.BaseAddress())
}

var _ Block = (*Window)(nil)
