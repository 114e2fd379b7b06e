package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func nodeArg(c *cli.Command, index int) (types.NodeID, error) {
	raw := c.Args().Get(index)
	if raw == "" {
		return 0, goerr.Wrap(usecase.ErrValidation, "node ID argument is required")
	}
	id, err := types.ParseNodeID(raw)
	if err != nil {
		return 0, goerr.Wrap(usecase.ErrValidation, "invalid node ID", goerr.V(usecase.NodeIDKey, raw))
	}
	return id, nil
}

func nameArgs(c *cli.Command, from int) string {
	args := c.Args().Slice()
	if len(args) <= from {
		return ""
	}
	return strings.Join(args[from:], " ")
}

// confirm asks question on w and reads a y/N answer from r
func confirm(r io.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	line, _ := bufio.NewReader(r).ReadString('\n')
	return isYes(line)
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "д", "да":
		return true
	default:
		return false
	}
}

func cmdAdd() *cli.Command {
	var env treeEnv
	var parent int64

	flags := []cli.Flag{
		&cli.Int64Flag{
			Name:        "parent",
			Aliases:     []string{"p"},
			Usage:       "Parent node ID",
			Value:       int64(types.RootNodeID),
			Destination: &parent,
		},
	}
	flags = append(flags, env.Flags()...)

	return &cli.Command{
		Name:      "add",
		Usage:     "Add a child node",
		ArgsUsage: "NAME",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := env.Open(ctx)
			if err != nil {
				return err
			}
			defer closer()

			id, err := uc.Node.Add(ctx, types.NodeID(parent), nameArgs(c, 0))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "added #%d\n", id)
			return nil
		},
	}
}

func cmdRename() *cli.Command {
	var env treeEnv

	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename a node",
		ArgsUsage: "ID NAME",
		Flags:     env.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := nodeArg(c, 0)
			if err != nil {
				return err
			}
			uc, closer, err := env.Open(ctx)
			if err != nil {
				return err
			}
			defer closer()

			return uc.Node.Rename(ctx, id, nameArgs(c, 1))
		},
	}
}

func cmdSetRisk() *cli.Command {
	var env treeEnv
	var prob, lossMin, lossMax, severity string

	flags := []cli.Flag{
		&cli.StringFlag{Name: "prob", Usage: "Probability [0..1]", Destination: &prob},
		&cli.StringFlag{Name: "loss-min", Usage: "Minimum loss", Destination: &lossMin},
		&cli.StringFlag{Name: "loss-max", Usage: "Maximum loss", Destination: &lossMax},
		&cli.StringFlag{Name: "severity", Usage: "Severity [1..5]", Destination: &severity},
	}
	flags = append(flags, env.Flags()...)

	return &cli.Command{
		Name:      "set-risk",
		Usage:     "Enter risk values of a leaf node; omitted values are kept",
		ArgsUsage: "ID",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := nodeArg(c, 0)
			if err != nil {
				return err
			}
			uc, closer, err := env.Open(ctx)
			if err != nil {
				return err
			}
			defer closer()

			current, err := uc.Node.Get(ctx, id)
			if err != nil {
				return err
			}
			keep := func(set bool, v string, cur float64) string {
				if set {
					return v
				}
				return strconv.FormatFloat(cur, 'f', -1, 64)
			}

			defaulted, err := uc.Node.UpdateLeafRiskText(ctx, id,
				keep(c.IsSet("prob"), prob, current.Prob),
				keep(c.IsSet("loss-min"), lossMin, current.LossMin),
				keep(c.IsSet("loss-max"), lossMax, current.LossMax),
				keep(c.IsSet("severity"), severity, current.Severity),
			)
			if err != nil {
				return err
			}
			if len(defaulted) > 0 {
				fmt.Fprintf(c.Root().Writer, "not a number, default used: %s\n", strings.Join(defaulted, ", "))
			}

			updated, err := uc.Node.Get(ctx, id)
			if err != nil {
				return err
			}
			newTreePrinter(c, &env).Node(updated)
			return nil
		},
	}
}

func cmdDelete() *cli.Command {
	var env treeEnv
	var yes bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "yes",
			Aliases:     []string{"y"},
			Usage:       "Delete without confirmation",
			Destination: &yes,
		},
	}
	flags = append(flags, env.Flags()...)

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a node and its whole subtree",
		ArgsUsage: "ID",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := nodeArg(c, 0)
			if err != nil {
				return err
			}
			uc, closer, err := env.Open(ctx)
			if err != nil {
				return err
			}
			defer closer()

			n, err := uc.Node.Get(ctx, id)
			if err != nil {
				return err
			}
			if !yes && !confirm(c.Root().Reader, c.Root().Writer, fmt.Sprintf("Delete %q and all its children?", n.Name)) {
				fmt.Fprintln(c.Root().Writer, "cancelled")
				return nil
			}

			removed, err := uc.Node.Delete(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "deleted %d node(s)\n", len(removed))
			return nil
		},
	}
}

func cmdDuplicate() *cli.Command {
	var env treeEnv

	return &cli.Command{
		Name:      "duplicate",
		Aliases:   []string{"dup"},
		Usage:     "Copy a node with its subtree under the same parent",
		ArgsUsage: "ID",
		Flags:     env.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := nodeArg(c, 0)
			if err != nil {
				return err
			}
			uc, closer, err := env.Open(ctx)
			if err != nil {
				return err
			}
			defer closer()

			copyID, err := uc.Node.Duplicate(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "duplicated #%d as #%d\n", id, copyID)
			return nil
		},
	}
}

func cmdMove() *cli.Command {
	var env treeEnv
	var up, down bool

	flags := []cli.Flag{
		&cli.BoolFlag{Name: "up", Usage: "Swap with the previous sibling", Destination: &up},
		&cli.BoolFlag{Name: "down", Usage: "Swap with the next sibling", Destination: &down},
	}
	flags = append(flags, env.Flags()...)

	return &cli.Command{
		Name:      "move",
		Usage:     "Reorder a node among its siblings",
		ArgsUsage: "ID",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if up == down {
				return goerr.Wrap(usecase.ErrValidation, "exactly one of --up and --down is required")
			}
			id, err := nodeArg(c, 0)
			if err != nil {
				return err
			}
			uc, closer, err := env.Open(ctx)
			if err != nil {
				return err
			}
			defer closer()

			move := uc.Node.MoveDown
			if up {
				move = uc.Node.MoveUp
			}
			moved, err := move(ctx, id)
			if err != nil {
				return err
			}
			if !moved {
				fmt.Fprintln(c.Root().Writer, "already at the edge, nothing moved")
			}
			return nil
		},
	}
}

func cmdRecompute() *cli.Command {
	var env treeEnv

	return &cli.Command{
		Name:  "recompute",
		Usage: "Recompute every aggregate from the leaves",
		Flags: env.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := env.Open(ctx)
			if err != nil {
				return err
			}
			defer closer()

			if err := uc.Node.Recompute(ctx); err != nil {
				return err
			}
			return printTree(ctx, uc, newTreePrinter(c, &env))
		},
	}
}
