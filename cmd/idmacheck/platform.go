package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/rs/xid"

	"github.com/sarchlab/idma/datarecording"
	"github.com/sarchlab/idma/dma"
	"github.com/sarchlab/idma/mem"
	"github.com/sarchlab/idma/mem/idma"
	"github.com/sarchlab/idma/monitoring"
	"github.com/sarchlab/idma/regs"
	"github.com/sarchlab/idma/sim/hooking"
	"github.com/sarchlab/idma/sim/timing"
	"github.com/sarchlab/idma/team"
	"github.com/sarchlab/idma/tracing"
	"github.com/sarchlab/idma/verify"
)

const caseTable = "cases"

// caseEntry is a row of the cases table.
type caseEntry struct {
	RunID      string
	Suite      string
	Core       int
	Preset     string
	Direction  string
	Bytes      uint64
	Mismatches int
}

// A platform is a cluster of cores sharing one engine model.
type platform struct {
	cfg       config
	runID     string
	model     *idma.Comp
	team      *team.Team
	engines   []*dma.Engine
	allocator *mem.Allocator

	busy     *tracing.BusyTimeTracer
	recorder datarecording.DataRecorder
	monitor  *monitoring.Monitor

	cancel context.CancelFunc
	done   chan error
}

func newPlatform(cfg config) (*platform, error) {
	if cfg.Cores < 1 || cfg.Cores > verify.MaxCores {
		return nil, fmt.Errorf("cores must be in [1, %d], got %d",
			verify.MaxCores, cfg.Cores)
	}

	window := regs.Config{Demux: cfg.Demux}

	spec := idma.Defaults()
	spec.BytesPerCycle = cfg.BytesPerCycle
	spec.LatencyCycles = cfg.Latency
	spec.InitialID = cfg.InitialID
	spec.Base = window.BaseAddress()

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	t := team.New(cfg.Cores)
	model := idma.MakeBuilder().
		WithSpec(spec).
		WithEvents(t.Events()).
		Build("IDMA")

	p := &platform{
		cfg:       cfg,
		runID:     xid.New().String(),
		model:     model,
		team:      t,
		allocator: mem.NewAllocator(model.Memory()),
		busy:      tracing.NewBusyTimeTracer(model.Engine(), nil),
	}
	tracing.CollectTrace(model, p.busy)

	if cfg.LogEvents {
		model.Engine().AcceptHook(
			timing.NewEventLogger(log.New(os.Stderr, "[engine] ", 0)))
	}

	issueLock := &sync.Mutex{}
	for i := 0; i < cfg.Cores; i++ {
		var block regs.Block = window.Open(model)
		if cfg.LogRegs {
			hooked := regs.NewHookedBlock(block)
			hooked.AcceptHook(&regs.LogHook{
				LogHookBase: hooking.LogHookBase{
					Logger: log.New(os.Stderr, fmt.Sprintf("[core %d] ", i), 0),
				},
			})
			block = hooked
		}

		p.engines = append(p.engines, dma.MakeBuilder().
			WithBlock(block).
			WithEventLine(t.Events().Core(i)).
			WithIssueLock(issueLock).
			Build(fmt.Sprintf("DMA[%d]", i)))
	}

	if cfg.TraceDB != "" {
		p.recorder = datarecording.New(cfg.TraceDB)
		p.recorder.CreateTable(caseTable, caseEntry{})
		tracing.CollectTrace(model,
			tracing.NewDBTracer(model.Engine(), p.recorder))
	}

	if cfg.MonitorPort != 0 || cfg.OpenBrowser {
		p.monitor = monitoring.NewMonitor().
			WithPortNumber(cfg.MonitorPort).
			WithBrowser(cfg.OpenBrowser)
		p.monitor.RegisterModel(model)
		p.monitor.RegisterTimeTeller(model.Engine())
	}

	return p, nil
}

func (p *platform) env() verify.Env {
	return verify.Env{
		Team:      p.team,
		Allocator: p.allocator,
		Memory:    p.model.Memory(),
		Engine:    func(core int) *dma.Engine { return p.engines[core] },
	}
}

// start runs the model in the background and, if configured, the monitor.
func (p *platform) start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan error, 1)

	go func() { p.done <- p.model.Run(ctx) }()

	if p.monitor != nil {
		p.monitor.StartServer()
	}
}

// stop halts the model and flushes the recorder.
func (p *platform) stop() {
	p.cancel()
	<-p.done

	p.busy.TerminateAllTasks(p.model.Engine().CurrentTime())

	if p.recorder != nil {
		p.recorder.Flush()
	}
}

func (p *platform) record(suite string, c verify.Case) {
	if p.recorder == nil {
		return
	}

	p.recorder.InsertData(caseTable, caseEntry{
		RunID:      p.runID,
		Suite:      suite,
		Core:       c.Core,
		Preset:     c.Preset.String(),
		Direction:  c.Direction.String(),
		Bytes:      c.Preset.Transfer(c.Direction, 0, 0).Bytes(),
		Mismatches: c.Mismatches,
	})
}
