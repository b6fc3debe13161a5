// Command neopixelsim runs LED animations against a simulated NeoPixel strip.
package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/neopixelsim/internal/animation"
	"github.com/coreman2200/neopixelsim/internal/simerr"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("neopixelsim failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "neopixelsim",
		Short:         "Simulated NeoPixel driver and animation runner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newListCmd(), newCoordsCmd())
	return root
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in animations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, name := range animation.Builtins(0).List() {
				if _, err := io.WriteString(w, name+"\n"); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// setupLogging points the global logger at w with the given level.
func setupLogging(w io.Writer, level string, color bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return simerr.Configf("unknown log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !color})
	return nil
}
