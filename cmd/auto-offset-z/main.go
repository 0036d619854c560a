package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath = "printer.cfg"
	logLevel   = "info"

	bedZ     = 0.0
	endstopZ = 0.0
	noise    = 0.0
	seed     = int64(0)
)

// NewCommand builds the root command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auto-offset-z",
		Short: "auto-offset-z calibrates the Z gcode offset against a physical Z endstop",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&configPath, "config", "c", "printer.cfg", "printer configuration file")
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.Float64Var(&bedZ, "bed-z", 0.0, "simulated probe trigger height over the bed center")
	globalFlags.Float64Var(&endstopZ, "endstop-z", 0.0, "simulated probe trigger height at the endstop")
	globalFlags.Float64Var(&noise, "noise", 0.0, "simulated probe noise stddev in mm")
	globalFlags.Int64Var(&seed, "seed", 0, "probe noise seed")

	cmd.AddCommand(
		NewRunCommand(),
		NewServeCommand(),
	)

	return cmd
}

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		FullTimestamp:   true,
	})
	return nil
}

func main() {
	if err := NewCommand().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
