package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var env treeEnv
	var repair bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "recompute",
			Usage:       "Repair stale aggregates when they are the only issues found",
			Destination: &repair,
		},
	}
	flags = append(flags, env.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate configuration and check tree integrity",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			uc, closer, err := env.Open(ctx)
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}
			defer closer()

			result, err := uc.Node.ValidateTree(ctx)
			if err != nil {
				return goerr.Wrap(err, "integrity check failed")
			}

			w := c.Root().Writer
			if !result.HasIssues() {
				fmt.Fprintf(w, "ok: %d node(s), no issues\n", result.Nodes)
				return nil
			}

			for _, issue := range result.Issues {
				logger.Warn("integrity issue found",
					"node_id", int64(issue.NodeID),
					"kind", string(issue.Kind),
					"message", issue.Message,
				)
				fmt.Fprintf(w, "#%d %s: %s\n", issue.NodeID, issue.Kind, issue.Message)
			}

			counts := result.CountByKind()
			if repair && counts[model.IssueAggregateDrift] == len(result.Issues) {
				if err := uc.Node.Recompute(ctx); err != nil {
					return err
				}
				fmt.Fprintf(w, "recomputed %d stale aggregate(s)\n", len(result.Issues))
				return nil
			}

			return goerr.New("tree integrity check found issues", goerr.V("count", len(result.Issues)))
		},
	}
}
