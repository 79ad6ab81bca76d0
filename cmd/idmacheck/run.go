package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/idma/dma"
	"github.com/sarchlab/idma/verify"
)

// suiteNames lists the preset groups in the order "all" runs them.
var suiteNames = []string{"1d", "2d", "3d", "params"}

func presetGroup(name string) []verify.Preset {
	switch name {
	case "1d":
		return verify.Presets1D
	case "2d":
		return verify.Presets2D
	case "3d":
		return verify.Presets3D
	case "params":
		return verify.Params3D
	default:
		return nil
	}
}

func randomGroup(name string, rng *rand.Rand, n int) []verify.Preset {
	switch name {
	case "1d":
		return verify.RandomPresets1D(rng, n)
	case "2d":
		return verify.RandomPresets2D(rng, n)
	default:
		return verify.RandomPresets3D(rng, n)
	}
}

func parseDirections(names []string) ([]dma.Direction, error) {
	if len(names) == 0 {
		return dma.Directions, nil
	}

	dirs := make([]dma.Direction, 0, len(names))

NextName:
	for _, n := range names {
		for _, d := range dma.Directions {
			if strings.EqualFold(d.String(), n) {
				dirs = append(dirs, d)
				continue NextName
			}
		}

		return nil, fmt.Errorf("unknown direction %q", n)
	}

	return dirs, nil
}

type runOptions struct {
	mode       string
	directions []string
	random     int
	seed       int64
}

func newRunCmd(cfg *config) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:       "run [1d|2d|3d|params|all]...",
		Short:     "Run round-trip presets on the simulated cluster.",
		ValidArgs: append([]string{"all"}, suiteNames...),
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runSuites(ctx, *cfg, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.mode, "mode", "parallel",
		"single, parallel or serial")
	cmd.Flags().StringSliceVar(&opts.directions, "direction", nil,
		"restrict to L1ToL2, L2ToL1 or L1ToL1")
	cmd.Flags().IntVar(&opts.random, "random", 0,
		"run this many random presets per group instead of the fixed ones")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "seed of the random presets")

	return cmd
}

func expandSuites(args []string) []string {
	if len(args) == 0 {
		return suiteNames
	}

	var names []string
	for _, a := range args {
		if a == "all" {
			return suiteNames
		}

		names = append(names, a)
	}

	return names
}

func runSuites(
	ctx context.Context,
	cfg config,
	opts runOptions,
	args []string,
) error {
	mode, err := verify.ParseMode(opts.mode)
	if err != nil {
		return err
	}

	dirs, err := parseDirections(opts.directions)
	if err != nil {
		return err
	}

	p, err := newPlatform(cfg)
	if err != nil {
		return err
	}

	p.start(ctx)
	defer p.stop()

	rng := rand.New(rand.NewSource(opts.seed))
	failed := 0

	for _, name := range expandSuites(args) {
		presets := presetGroup(name)
		if opts.random > 0 {
			presets = randomGroup(name, rng, opts.random)
		}

		n, err := runSuite(ctx, p, name, verify.Suite{
			Presets:    presets,
			Mode:       mode,
			Directions: dirs,
		})
		if err != nil {
			return err
		}

		failed += n
	}

	busy := p.busy.BusyTime()
	fmt.Fprintf(os.Stderr, "engine busy for %d cycles (%.3g s)\n",
		busy, p.model.Spec.Freq.Seconds(busy))

	if failed > 0 {
		return fmt.Errorf("%d mismatching bytes", failed)
	}

	return nil
}

func runSuite(
	ctx context.Context,
	p *platform,
	name string,
	s verify.Suite,
) (int, error) {
	cases := uint64(len(s.Presets) * len(s.Directions))

	cores := uint64(1)
	if s.Mode != verify.SingleMode {
		cores = uint64(p.team.Size())
	}

	if p.monitor != nil {
		bar := p.monitor.CreateProgressBar(name, cases*cores)
		defer p.monitor.CompleteProgressBar(bar)

		s.OnCase = func(c verify.Case) {
			p.record(name, c)
			bar.Record(c.Mismatches == 0)
		}
	} else {
		s.OnCase = func(c verify.Case) { p.record(name, c) }
	}

	report, err := s.Run(ctx, p.env())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}

	for _, c := range report.Failed() {
		fmt.Fprintf(os.Stderr, "FAIL %s core %d %s %s: %d bytes\n",
			name, c.Core, c.Direction, c.Preset, c.Mismatches)
	}

	fmt.Fprintf(os.Stderr, "%-6s %s: %d cases, %d errors\n",
		name, s.Mode, len(report.Cases), report.Errors())

	return report.Errors(), nil
}
