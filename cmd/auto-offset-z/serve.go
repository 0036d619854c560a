package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"auto-offset-z/pkg/moonraker"
)

// NewServeCommand builds the serve subcommand.
func NewServeCommand() *cobra.Command {
	var (
		addr     string
		lockPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the printer runtime over a Moonraker-style API",
		RunE: func(cmd *cobra.Command, args []string) error {
			lock, err := acquireLock(lockPath)
			if err != nil {
				return err
			}
			defer lock.Release()

			rt, err := buildRuntime()
			if err != nil {
				return err
			}

			srv := moonraker.New(moonraker.Config{
				Addr:    addr,
				Printer: rt,
			})
			// forward operator messages to connected clients
			rt.Responder().SetOutputFunc(func(msg string) {
				logrus.Info(msg)
				srv.BroadcastGCodeResponse(msg)
			})

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigc:
				logrus.Infof("caught signal %s: shutting down", sig)
				return srv.Stop()
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", ":7125", "HTTP listen address")
	flags.StringVar(&lockPath, "lockfile", "/tmp/auto-offset-z.lock", "lockfile guarding against concurrent instances")

	return cmd
}
