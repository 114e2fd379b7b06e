package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/usecase"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const shellHelp = `commands:
  tree                         print the tree
  select ID                    choose the node to edit
  show                         print the selected node
  add NAME                     add a child to the selected node
  rename NAME                  rename the selected node
  risk P LMIN LMAX SEVERITY    enter risk values of the selected leaf
  delete                       delete the selected node with its subtree
  dup                          duplicate the selected node
  up | down                    move the selected node among its siblings
  recompute                    recompute every aggregate
  totals                       print tree totals
  check                        run the integrity check
  report [FORMAT [SORT [ORDER [PATH]]]]
  help | quit`

var errQuit = errors.New("quit")

// shell is a line based editor over the tree. The selected node is the
// target of every edit command.
type shell struct {
	uc         *usecase.UseCases
	in         *bufio.Scanner
	out        io.Writer
	printer    *treePrinter
	reportPath string
}

func newShell(uc *usecase.UseCases, in io.Reader, printer *treePrinter, reportPath string) *shell {
	return &shell{
		uc:         uc,
		in:         bufio.NewScanner(in),
		out:        printer.w,
		printer:    printer,
		reportPath: reportPath,
	}
}

func (s *shell) prompt(ctx context.Context) {
	id := s.uc.Node.Selected()
	name := ""
	if n, err := s.uc.Node.Get(ctx, id); err == nil {
		name = n.Name
	}
	fmt.Fprintf(s.out, "[#%d %s]> ", id, name)
}

// Run reads commands until quit or end of input. Command errors are
// printed and do not stop the shell.
func (s *shell) Run(ctx context.Context) error {
	for {
		s.prompt(ctx)
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}

		err := s.exec(ctx, s.in.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			logging.From(ctx).Debug("shell command failed", "error", err)
			fmt.Fprintf(s.out, "error: %s\n", err.Error())
		}
	}
}

func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
	selected := s.uc.Node.Selected()

	switch cmd {
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)

	case "quit", "exit", "q":
		return errQuit

	case "tree", "ls":
		return printTree(ctx, s.uc, s.printer)

	case "select", "sel", "cd":
		if len(args) != 1 {
			return goerr.Wrap(usecase.ErrValidation, "usage: select ID")
		}
		id, err := types.ParseNodeID(args[0])
		if err != nil {
			return goerr.Wrap(usecase.ErrValidation, "invalid node ID", goerr.V(usecase.NodeIDKey, args[0]))
		}
		return s.uc.Node.Select(ctx, id)

	case "show":
		n, err := s.uc.Node.Get(ctx, selected)
		if err != nil {
			return err
		}
		s.printer.Node(n)
		editable, err := s.uc.Node.RiskEditable(ctx, selected)
		if err != nil {
			return err
		}
		if !editable {
			fmt.Fprintln(s.out, "values are derived from children")
		}

	case "add":
		id, err := s.uc.Node.Add(ctx, selected, rest)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "added #%d\n", id)

	case "rename":
		return s.uc.Node.Rename(ctx, selected, rest)

	case "risk":
		if len(args) != 4 {
			return goerr.Wrap(usecase.ErrValidation, "usage: risk P LMIN LMAX SEVERITY")
		}
		defaulted, err := s.uc.Node.UpdateLeafRiskText(ctx, selected, args[0], args[1], args[2], args[3])
		if err != nil {
			return err
		}
		if len(defaulted) > 0 {
			fmt.Fprintf(s.out, "not a number, default used: %s\n", strings.Join(defaulted, ", "))
		}
		n, err := s.uc.Node.Get(ctx, selected)
		if err != nil {
			return err
		}
		s.printer.Node(n)

	case "delete", "del", "rm":
		if selected.IsRoot() {
			return goerr.Wrap(usecase.ErrForbiddenOperation, "the root node cannot be deleted")
		}
		n, err := s.uc.Node.Get(ctx, selected)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Delete %q and all its children? [y/N]: ", n.Name)
		if !s.in.Scan() || !isYes(s.in.Text()) {
			fmt.Fprintln(s.out, "cancelled")
			return nil
		}
		removed, err := s.uc.Node.Delete(ctx, selected)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "deleted %d node(s)\n", len(removed))

	case "dup", "duplicate":
		copyID, err := s.uc.Node.Duplicate(ctx, selected)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "duplicated as #%d\n", copyID)

	case "up", "down":
		move := s.uc.Node.MoveDown
		if cmd == "up" {
			move = s.uc.Node.MoveUp
		}
		moved, err := move(ctx, selected)
		if err != nil {
			return err
		}
		if !moved {
			fmt.Fprintln(s.out, "already at the edge, nothing moved")
		}

	case "recompute":
		if err := s.uc.Node.Recompute(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "recomputed")

	case "totals":
		totals, err := s.uc.Node.Totals(ctx)
		if err != nil {
			return err
		}
		s.printer.Totals(totals)

	case "check":
		result, err := s.uc.Node.ValidateTree(ctx)
		if err != nil {
			return err
		}
		for _, issue := range result.Issues {
			fmt.Fprintf(s.out, "#%d %s: %s\n", issue.NodeID, issue.Kind, issue.Message)
		}
		fmt.Fprintf(s.out, "%d node(s), %d issue(s)\n", result.Nodes, len(result.Issues))

	case "report":
		return s.report(ctx, args)

	default:
		return goerr.Wrap(usecase.ErrValidation, "unknown command, type help", goerr.V("command", cmd))
	}
	return nil
}

func (s *shell) report(ctx context.Context, args []string) error {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	result, err := s.uc.Report.Generate(ctx, usecase.ReportRequest{
		Format:  types.ReportFormat(arg(0)),
		SortKey: types.SortKey(arg(1)),
		Order:   types.SortOrder(arg(2)),
	})
	if err != nil {
		return err
	}

	path := arg(3)
	if path == "" {
		path = "-"
		if result.Format == types.ReportFormatPDF {
			path = s.reportPath
		}
	}
	if path == "-" {
		_, err := s.out.Write(result.Data)
		return err
	}
	if err := writeReportFile(path, result.Data); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "report saved to %s\n", path)
	return nil
}

func cmdShell() *cli.Command {
	var env treeEnv

	return &cli.Command{
		Name:  "shell",
		Usage: "Edit the tree interactively",
		Flags: env.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := env.Open(ctx)
			if err != nil {
				return err
			}
			defer closer()

			fmt.Fprintln(c.Root().Writer, "type help for commands")
			return newShell(uc, c.Root().Reader, newTreePrinter(c, &env), env.report.Output).Run(ctx)
		},
	}
}
