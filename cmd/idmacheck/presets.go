package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/idma/dma"
	"github.com/sarchlab/idma/regs"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the fixed presets with the bytes they move.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GROUP\tPRESET\tBYTES\tSRC SPAN\tDST SPAN")

			for _, name := range suiteNames {
				for _, p := range presetGroup(name) {
					src, dst := p.Footprint()
					bytes := p.Transfer(dma.ScratchpadToExternal, 0, 0).Bytes()
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n",
						name, p, bytes, src, dst)
				}
			}

			return w.Flush()
		},
	}
}

func newRegsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regs",
		Short: "Show the register map and the configuration words.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			fmt.Fprintln(w, "DIRECTION\tDIM\tCONF\tQUEUE")
			for _, d := range dma.Directions {
				for _, dim := range []dma.Dim{dma.Dim1D, dma.Dim2D, dma.Dim3D} {
					fmt.Fprintf(w, "%s\t%s\t0x%04x\t%s\n",
						d, dim, dma.ConfigWord(dim, d.Route()), d.Route().Queue())
				}
			}

			fmt.Fprintln(w)
			fmt.Fprintln(w, "OFFSET\tREGISTER")
			for _, off := range registerMap() {
				fmt.Fprintf(w, "0x%03x\t%s\n", uint32(off), off)
			}

			return w.Flush()
		},
	}
}

func registerMap() []regs.Offset {
	offs := []regs.Offset{regs.Conf}
	for _, q := range []dma.Queue{dma.QueueToExternal, dma.QueueToScratchpad} {
		offs = append(offs, regs.Status(int(q)), regs.NextID(int(q)),
			regs.DoneID(int(q)))
	}

	return append(offs,
		regs.DstAddrLow, regs.SrcAddrLow, regs.LengthLow,
		regs.DstStride2Low, regs.SrcStride2Low, regs.Reps2Low,
		regs.DstStride3Low, regs.SrcStride3Low, regs.Reps3Low,
	)
}
