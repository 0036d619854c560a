package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"auto-offset-z/pkg/config"
	"auto-offset-z/pkg/printer"
)

func buildRuntime() (*printer.Runtime, error) {
	f, err := config.Load(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load %s", configPath)
	}
	rt, err := printer.New(f, printer.Options{
		BedSurfaceZ:     bedZ,
		EndstopSurfaceZ: endstopZ,
		ProbeNoise:      noise,
		Seed:            seed,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to build printer runtime")
	}
	return rt, nil
}

// NewRunCommand builds the run subcommand.
func NewRunCommand() *cobra.Command {
	var (
		offsetAdjust float64
		skipHome     bool
		skipLevel    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one calibration pass against the simulated printer",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime()
			if err != nil {
				return err
			}
			rt.Responder().SetOutputFunc(func(msg string) {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			})

			var script []string
			if !skipHome {
				script = append(script, "G28")
			}
			if !skipLevel {
				for _, name := range rt.Dispatcher().CommandNames() {
					if name == "QUAD_GANTRY_LEVEL" || name == "Z_TILT_ADJUST" {
						script = append(script, name)
					}
				}
			}
			autoOffset := "AUTO_OFFSET_Z"
			if offsetAdjust != 0 {
				autoOffset = fmt.Sprintf("AUTO_OFFSET_Z OFFSETADJUST=%g", offsetAdjust)
			}
			script = append(script, autoOffset)

			if err := rt.ExecuteGCode(strings.Join(script, "\n")); err != nil {
				return err
			}

			status := rt.Controller().GetStatus()
			fmt.Fprintf(cmd.OutOrStdout(), "applied=%v offset=%.6f\n",
				status["applied"], status["last_offset"])
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&offsetAdjust, "offsetadjust", 0.0, "override the configured manual adjustment for this run")
	flags.BoolVar(&skipHome, "skip-home", false, "skip the homing step (demonstrates the homing guard)")
	flags.BoolVar(&skipLevel, "skip-level", false, "skip the leveling step (demonstrates the alignment guard)")

	return cmd
}
