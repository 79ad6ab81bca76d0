package idma

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/idma/dma"
	"github.com/sarchlab/idma/mem"
	"github.com/sarchlab/idma/regs"
	"github.com/sarchlab/idma/sim/hooking"
	"github.com/sarchlab/idma/sim/timing"
)

// EventBroadcaster raises an event line on every core of the cluster.
type EventBroadcaster interface {
	Broadcast(mask uint32)
}

// Hook positions raised by the model.
var (
	// HookPosLaunch fires when a NEXT_ID read launches a job. Item is the
	// Job.
	HookPosLaunch = &hooking.HookPos{Name: "IDMALaunch"}

	// HookPosComplete fires after a job's counters are updated. Item is the
	// Job.
	HookPosComplete = &hooking.HookPos{Name: "IDMAComplete"}
)

// QueueStats counts the work a stream has completed.
type QueueStats struct {
	Transfers  uint64
	Bytes      uint64
	BusyCycles uint64
}

type completionEvent struct {
	job Job
}

// Comp is the behavioural model of the engine. It implements regs.Block at
// its register offsets and regs.Bus over the whole address map.
type Comp struct {
	*hooking.HookableBase

	Spec Spec

	name   string
	memory *mem.AddressMap
	events EventBroadcaster
	engine *timing.SerialEngine

	mu    sync.Mutex
	state State
	stats [regs.NumStreams]QueueStats
	kick  chan struct{}

	execLock sync.Mutex
}

// Name returns the name of the model.
func (c *Comp) Name() string {
	return c.name
}

// Memory returns the address map the model moves data in.
func (c *Comp) Memory() *mem.AddressMap {
	return c.memory
}

// Engine returns the timing engine that orders completions.
func (c *Comp) Engine() *timing.SerialEngine {
	return c.engine
}

// Read implements regs.Block.
func (c *Comp) Read(off regs.Offset) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.state.Staging.read(off); ok {
		return v
	}

	if stream, ok := streamOf(off, regs.NextID0); ok {
		return c.launch(stream)
	}

	if stream, ok := streamOf(off, regs.DoneID0); ok {
		return c.state.Done[stream]
	}

	if stream, ok := streamOf(off, regs.Status0); ok {
		return c.state.Status[stream]
	}

	log.Panicf("idma: read of unmapped register %s", off)

	return 0
}

// Write implements regs.Block.
func (c *Comp) Write(off regs.Offset, value uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Staging.write(off, value) {
		log.Panicf("idma: write of read-only register %s", off)
	}
}

// Fence implements regs.Block. Register accesses are serialized by the
// model lock, so there is nothing to drain.
func (c *Comp) Fence() {}

func streamOf(off, base regs.Offset) (int, bool) {
	if off < base || off >= base+regs.NumStreams*regs.StreamStride {
		return 0, false
	}

	if (off-base)%regs.StreamStride != 0 {
		return 0, false
	}

	return int(off-base) / regs.StreamStride, true
}

func (c *Comp) launch(stream int) uint32 {
	t, ok := c.state.Staging.decode()
	if !ok {
		log.Panicf("idma: invalid configuration 0x%08x", c.state.Staging.Conf)
	}

	c.state.Next[stream]++
	c.state.Status[stream]++

	job := Job{
		Stream:   stream,
		ID:       c.state.Next[stream],
		Staging:  c.state.Staging,
		Transfer: t,
	}
	c.state.Pending = append(c.state.Pending, job)

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosLaunch,
		Item:   job,
	})

	select {
	case c.kick <- struct{}{}:
	default:
	}

	return job.ID
}

func (c *Comp) pop() (Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.state.Pending) == 0 {
		return Job{}, false
	}

	job := c.state.Pending[0]
	c.state.Pending = c.state.Pending[1:]

	return job, true
}

// Step executes the oldest launched job, if any, and reports whether it did.
func (c *Comp) Step() bool {
	job, ok := c.pop()
	if !ok {
		return false
	}

	c.execute(job)

	return true
}

// Drain executes every launched job.
func (c *Comp) Drain() {
	for c.Step() {
	}
}

// Run executes jobs as they are launched until ctx is done.
func (c *Comp) Run(ctx context.Context) error {
	for {
		if c.Step() {
			continue
		}

		select {
		case <-c.kick:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Cycles returns the number of cycles a job of n bytes occupies the engine.
func (c *Comp) Cycles(n uint64) timing.VTimeInCycle {
	bpc := uint64(c.Spec.BytesPerCycle)

	return timing.VTimeInCycle((n+bpc-1)/bpc + uint64(c.Spec.LatencyCycles))
}

func (c *Comp) execute(job Job) {
	c.execLock.Lock()
	defer c.execLock.Unlock()

	now := c.engine.CurrentTime()
	c.engine.Schedule(timing.ScheduledEvent{
		Event:   completionEvent{job: job},
		Time:    now + c.Cycles(job.Transfer.Bytes()),
		Handler: c,
	})

	if err := c.engine.Run(); err != nil {
		log.Panicf("idma: %v", err)
	}
}

// Handle implements timing.Handler.
func (c *Comp) Handle(event any) error {
	switch e := event.(type) {
	case completionEvent:
		c.complete(e.job)
	default:
		return fmt.Errorf("idma: unknown event type %T", event)
	}

	return nil
}

func (c *Comp) complete(job Job) {
	c.move(job.Transfer)

	c.mu.Lock()
	c.state.Done[job.Stream] = job.ID
	c.state.Status[job.Stream]--

	st := &c.stats[job.Stream]
	st.Transfers++
	st.Bytes += job.Transfer.Bytes()
	st.BusyCycles += uint64(c.Cycles(job.Transfer.Bytes()))
	c.mu.Unlock()

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosComplete,
		Item:   job,
	})

	if c.events != nil {
		c.events.Broadcast(1 << c.Spec.EventBit)
	}
}

func (c *Comp) move(t dma.Transfer) {
	t.ForEachRun(func(r dma.Run) {
		if r.Length == 0 {
			return
		}

		data := c.load(t.Route.Src, r.Src, r.Length)
		c.store(t.Route.Dst, r.Dst, data)
	})
}

func (c *Comp) endpoint(p dma.Protocol, addr, n uint32) *mem.Region {
	var d mem.Domain

	switch p {
	case dma.ProtocolOBI:
		d = mem.Scratchpad
	case dma.ProtocolAXI:
		d = mem.External
	default:
		log.Panicf("idma: unsupported protocol %s", p)
	}

	r, ok := c.memory.Region(d)
	if !ok || !r.Contains(addr, n) {
		log.Panicf("idma: bus fault, %s access [0x%08x, +%d) outside %s",
			p, addr, n, d)
	}

	return r
}

func (c *Comp) load(p dma.Protocol, addr, n uint32) []byte {
	if p == dma.ProtocolINIT {
		return make([]byte, n)
	}

	data, err := c.endpoint(p, addr, n).Read(addr, n)
	if err != nil {
		log.Panicf("idma: %v", err)
	}

	return data
}

func (c *Comp) store(p dma.Protocol, addr uint32, data []byte) {
	if p == dma.ProtocolINIT {
		return
	}

	err := c.endpoint(p, addr, uint32(len(data))).Write(addr, data)
	if err != nil {
		log.Panicf("idma: %v", err)
	}
}

// Stats returns the statistics of a stream.
func (c *Comp) Stats(stream int) QueueStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats[stream]
}

// SnapshotState returns a copy of the register state.
func (c *Comp) SnapshotState() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Pending = append([]Job(nil), c.state.Pending...)

	return s
}

// Load32 implements regs.Bus. Addresses inside the register block reach the
// registers, all others reach memory.
func (c *Comp) Load32(addr uint64) uint32 {
	if off, ok := c.registerOffset(addr); ok {
		return c.Read(off)
	}

	data, err := c.memory.Read(uint32(addr), 4)
	if err != nil {
		log.Panicf("idma: bus fault: %v", err)
	}

	return binary.LittleEndian.Uint32(data)
}

// Store32 implements regs.Bus.
func (c *Comp) Store32(addr uint64, value uint32) {
	if off, ok := c.registerOffset(addr); ok {
		c.Write(off, value)
		return
	}

	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, value)

	if err := c.memory.Write(uint32(addr), data); err != nil {
		log.Panicf("idma: bus fault: %v", err)
	}
}

func (c *Comp) registerOffset(addr uint64) (regs.Offset, bool) {
	if addr < c.Spec.Base || addr >= c.Spec.Base+regs.BlockSize {
		return 0, false
	}

	return regs.Offset(addr - c.Spec.Base), true
}

var (
	_ regs.Block     = (*Comp)(nil)
	_ regs.Bus       = (*Comp)(nil)
	_ timing.Handler = (*Comp)(nil)
)
