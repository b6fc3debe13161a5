package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coreman2200/neopixelsim/internal/coords"
	"github.com/coreman2200/neopixelsim/internal/layout"
	"github.com/coreman2200/neopixelsim/internal/render"
	"github.com/coreman2200/neopixelsim/internal/simerr"
)

func newCoordsCmd() *cobra.Command {
	var (
		lattice    string
		out        string
		pitch      float64
		gap        float64
		flipRows   bool
		flipPanels bool
	)
	cmd := &cobra.Command{
		Use:   "coords [file]",
		Short: "Validate a coordinate file, or write a lattice layout with --lattice",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if lattice != "" {
				if len(args) > 0 {
					return simerr.Configf("--lattice takes no coordinate file")
				}
				if out == "" {
					return simerr.Configf("--lattice needs --out")
				}
				d, err := layout.ParseDim(lattice)
				if err != nil {
					return err
				}
				l := layout.Layout{
					Dim:        d,
					Order:      layout.Serpentine{XFlipEveryRow: flipRows, YFlipEveryPanel: flipPanels},
					PitchMM:    pitch,
					PanelGapMM: gap,
				}
				if err := coords.Save(out, l.Positions()); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				_, err = fmt.Fprintf(w, "wrote %d positions to %s\n", l.Count(), out)
				return err
			}

			if len(args) == 0 {
				return simerr.Configf("coords needs a file or --lattice")
			}
			locs, err := coords.Load(args[0])
			if err != nil {
				return err
			}
			b := render.ComputeBounds(locs)
			_, err = fmt.Fprintf(w, "%d leds\nmin %.3f %.3f %.3f\nmax %.3f %.3f %.3f\n",
				len(locs), b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
			return err
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&lattice, "lattice", "", "generate an x,y,z panel lattice instead of reading a file")
	fl.StringVar(&out, "out", "", "CSV file for --lattice")
	fl.Float64Var(&pitch, "pitch-mm", 0, "LED spacing within a panel (0 is unit spacing)")
	fl.Float64Var(&gap, "panel-gap-mm", 0, "extra spacing between panels")
	fl.BoolVar(&flipRows, "x-flip-every-row", false, "serpentine rows")
	fl.BoolVar(&flipPanels, "y-flip-every-panel", false, "serpentine panels")
	return cmd
}
