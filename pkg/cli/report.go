package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/usecase"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdReport() *cli.Command {
	var env treeEnv
	var sortKey, order, format, output string
	var publish bool

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "sort",
			Usage:       "Sort key [name|prob|loss_min|loss_max|expected_min|expected_max|severity|risk_score]",
			Value:       string(types.SortKeyRiskScore),
			Destination: &sortKey,
		},
		&cli.StringFlag{
			Name:        "order",
			Usage:       "Sort order [asc|desc]",
			Value:       string(types.SortOrderDesc),
			Destination: &order,
		},
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Report format [pdf|text]",
			Value:       string(types.ReportFormatPDF),
			Destination: &format,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output path, '-' for stdout (default: report.output of the config for pdf, stdout for text)",
			Destination: &output,
		},
		&cli.BoolFlag{
			Name:        "publish",
			Usage:       "Upload the report and notify Slack when configured",
			Destination: &publish,
		},
	}
	flags = append(flags, env.Flags()...)

	return &cli.Command{
		Name:    "report",
		Aliases: []string{"r"},
		Usage:   "Generate the risk report",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := env.Open(ctx)
			if err != nil {
				return err
			}
			defer closer()

			result, err := uc.Report.Generate(ctx, usecase.ReportRequest{
				SortKey: types.SortKey(sortKey),
				Order:   types.SortOrder(order),
				Format:  types.ReportFormat(format),
				Publish: publish,
			})
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = "-"
				if result.Format == types.ReportFormatPDF {
					path = env.report.Output
				}
			}

			w := c.Root().Writer
			if path == "-" {
				if _, err := w.Write(result.Data); err != nil {
					return goerr.Wrap(err, "failed to write report")
				}
			} else {
				if err := writeReportFile(path, result.Data); err != nil {
					return err
				}
				logging.From(ctx).Info("report written", "path", path, "bytes", len(result.Data))
				fmt.Fprintf(w, "report saved to %s\n", path)
			}

			for _, loc := range result.Locations {
				fmt.Fprintf(w, "published to %s\n", loc)
			}
			return nil
		},
	}
}

func writeReportFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return goerr.Wrap(usecase.ErrReportGeneration, "failed to create report directory",
				goerr.V("path", dir), goerr.V("error", err.Error()))
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return goerr.Wrap(usecase.ErrReportGeneration, "failed to write report file",
			goerr.V("path", path), goerr.V("error", err.Error()))
	}
	return nil
}
