package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cfg := defaultConfig()

	rootCmd := &cobra.Command{
		Use:   "idmacheck",
		Short: "idmacheck checks the iDMA driver against the engine model.",
		Long: `idmacheck checks the iDMA driver against the engine model. ` +
			`It runs the 1D, 2D and 3D round-trip presets on a simulated ` +
			`cluster and reports every byte that did not arrive.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVar(&cfg.Cores, "cores", cfg.Cores,
		"number of cluster cores ($"+envCores+")")
	flags.BoolVar(&cfg.Demux, "demux", cfg.Demux,
		"reach the engine through the demultiplexed address ($"+envDemux+")")
	flags.IntVar(&cfg.Latency, "latency", cfg.Latency,
		"fixed cycles per transfer ($"+envLatency+")")
	flags.IntVar(&cfg.BytesPerCycle, "bytes-per-cycle", cfg.BytesPerCycle,
		"engine bandwidth ($"+envBytesPerCycle+")")
	flags.Uint32Var(&cfg.InitialID, "initial-id", cfg.InitialID,
		"reset value of the transfer ID counters")
	flags.StringVar(&cfg.TraceDB, "trace-db", cfg.TraceDB,
		"record cases and transfer traces into this SQLite file ($"+
			envTraceDB+")")
	flags.IntVar(&cfg.MonitorPort, "monitor-port", cfg.MonitorPort,
		"serve the monitor on this port, 0 disables it ($"+
			envMonitorPort+")")
	flags.BoolVar(&cfg.OpenBrowser, "open-browser", false,
		"open the monitor in a web browser")
	flags.BoolVar(&cfg.LogRegs, "log-regs", false,
		"print every register access")
	flags.BoolVar(&cfg.LogEvents, "log-events", false,
		"print every event the engine model dispatches")

	rootCmd.AddCommand(
		newRunCmd(&cfg),
		newPresetsCmd(),
		newRegsCmd(),
	)

	return rootCmd
}
