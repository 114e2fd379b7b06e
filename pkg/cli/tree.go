package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	domainConfig "github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/service/report"
	"github.com/secmon-lab/risktree/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// treePrinter writes the tree in an indented, optionally coloured form
type treePrinter struct {
	w     io.Writer
	bands domainConfig.RiskBands
	color bool
}

func (p *treePrinter) paint(c *color.Color, s string) string {
	if !p.color || c == nil {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

func (p *treePrinter) nodeLine(n *model.RiskNode) string {
	m := model.MetricsOf(n)
	score := p.paint(report.BandColor(model.Band(m.RiskScore, p.bands)), fmt.Sprintf("%.2f", m.RiskScore))
	return fmt.Sprintf("#%d %s  P=%.3f L=[%.2f..%.2f] S=%.1f E=[%.2f..%.2f] R=%s",
		n.ID, n.Name, n.Prob, n.LossMin, n.LossMax, n.Severity, m.ExpectedMin, m.ExpectedMax, score)
}

// Tree prints every entry indented by depth. The selected node is marked.
func (p *treePrinter) Tree(entries []usecase.NodeEntry, selected types.NodeID) {
	for _, e := range entries {
		marker := "  "
		if e.Node.ID == selected {
			marker = p.paint(color.New(color.FgHiMagenta), "→ ")
		}
		fmt.Fprintf(p.w, "%s%s%s\n", marker, strings.Repeat("    ", e.Depth), p.nodeLine(e.Node))
	}
}

func (p *treePrinter) Node(n *model.RiskNode) {
	fmt.Fprintln(p.w, p.nodeLine(n))
}

func (p *treePrinter) Totals(t model.Totals) {
	fmt.Fprintf(p.w, "Итого: ожидаемый ущерб %.2f – %.2f (узлов %d, листьев %d)\n",
		t.ExpectedMin, t.ExpectedMax, t.Nodes, t.Leaves)
}

func newTreePrinter(c *cli.Command, env *treeEnv) *treePrinter {
	return &treePrinter{
		w:     c.Root().Writer,
		bands: env.Bands(),
		color: env.reportCfg.ForceColor() || !color.NoColor,
	}
}

func cmdTree() *cli.Command {
	var env treeEnv

	return &cli.Command{
		Name:    "tree",
		Aliases: []string{"t"},
		Usage:   "Print the risk tree with derived metrics",
		Flags:   env.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := env.Open(ctx)
			if err != nil {
				return err
			}
			defer closer()

			return printTree(ctx, uc, newTreePrinter(c, &env))
		},
	}
}

func printTree(ctx context.Context, uc *usecase.UseCases, p *treePrinter) error {
	entries, err := uc.Node.List(ctx)
	if err != nil {
		return err
	}
	totals, err := uc.Node.Totals(ctx)
	if err != nil {
		return err
	}
	p.Tree(entries, uc.Node.Selected())
	p.Totals(totals)
	return nil
}
