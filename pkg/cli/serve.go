package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	httpctrl "github.com/secmon-lab/risktree/pkg/controller/http"
	"github.com/secmon-lab/risktree/pkg/service/metrics"
	"github.com/secmon-lab/risktree/pkg/usecase"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func cmdServe() *cli.Command {
	var env treeEnv
	var addr string
	var enableMetrics bool

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("RISKTREE_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Expose Prometheus metrics on /metrics",
			Value:       true,
			Sources:     cli.EnvVars("RISKTREE_METRICS"),
			Destination: &enableMetrics,
		},
	}
	flags = append(flags, env.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP API server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			var ucOpts []usecase.Option
			var httpOpts []httpctrl.Options
			if enableMetrics {
				collector, err := metrics.New(nil)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize metrics")
				}
				ucOpts = append(ucOpts, usecase.WithMetrics(collector))
				httpOpts = append(httpOpts, httpctrl.WithMetrics(collector))
			}

			uc, closer, err := env.Open(ctx, ucOpts...)
			if err != nil {
				return err
			}
			defer closer()

			httpHandler, err := httpctrl.New(uc, httpOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				logging.Default().Info("Starting HTTP server", "addr", addr, "metrics", enableMetrics)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return goerr.Wrap(err, "failed to start server")
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				logging.Default().Info("Shutting down HTTP server")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				logging.Default().Info("Server shutdown completed")
				return nil
			})

			return eg.Wait()
		},
	}
}
