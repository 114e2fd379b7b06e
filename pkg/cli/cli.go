package cli

import (
	"context"
	"io"
	"os"

	"github.com/secmon-lab/risktree/pkg/cli/config"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	app := newApp(version, os.Stdin, os.Stdout)
	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}
	return nil
}

func newApp(version string, in io.Reader, out io.Writer) *cli.Command {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closers []func()

	var flags []cli.Flag
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "risktree",
		Usage:   "Hierarchical risk assessment for a retail organization",
		Version: version,
		Flags:   flags,
		Reader:  in,
		Writer:  out,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, f)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)

			logging.Default().Debug("Starting risktree", "logger", loggerCfg, "sentry", sentryCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdShell(),
			cmdTree(),
			cmdAdd(),
			cmdRename(),
			cmdSetRisk(),
			cmdDelete(),
			cmdDuplicate(),
			cmdMove(),
			cmdRecompute(),
			cmdReport(),
			cmdValidate(),
			cmdMigrate(),
		},
	}
}
