package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/cli"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/repository/memory"
	"github.com/secmon-lab/risktree/pkg/usecase"
)

func newShellUseCases(t *testing.T) *usecase.UseCases {
	t.Helper()
	uc := usecase.New(memory.New())
	gt.NoError(t, uc.Node.Load(context.Background())).Required()
	return uc
}

func runShell(t *testing.T, uc *usecase.UseCases, script string) string {
	t.Helper()
	var out bytes.Buffer
	gt.NoError(t, cli.RunShellForTest(context.Background(), uc, strings.NewReader(script), &out, filepath.Join(t.TempDir(), "r.pdf"))).Required()
	return out.String()
}

func TestShell_Editing(t *testing.T) {
	ctx := context.Background()
	uc := newShellUseCases(t)

	out := runShell(t, uc, strings.Join([]string{
		"add г.Москва",
		"select 2",
		"add Store A",
		"select 3",
		"risk 0,5 100 200 4",
		"rename Store B",
		"up",
		"totals",
		"quit",
		"tree",
	}, "\n"))

	gt.S(t, out).Contains("added #2")
	gt.S(t, out).Contains("added #3")
	gt.S(t, out).Contains("[#3 Store A]> ")
	gt.S(t, out).Contains("E=[50.00..100.00]")
	gt.S(t, out).Contains("already at the edge, nothing moved")
	gt.S(t, out).Contains("Итого: ожидаемый ущерб 50.00 – 100.00")
	// commands after quit are not run
	gt.Bool(t, strings.Contains(out, "→ ")).False()

	n, err := uc.Node.Get(ctx, 3)
	gt.NoError(t, err).Required()
	gt.Value(t, n.Name).Equal("Store B")
	gt.Value(t, n.Prob).Equal(0.5)
	gt.Value(t, uc.Node.Selected()).Equal(types.NodeID(3))
}

func TestShell_ErrorsDoNotStop(t *testing.T) {
	uc := newShellUseCases(t)

	out := runShell(t, uc, strings.Join([]string{
		"frobnicate",
		"select x",
		"select 42",
		"risk 1 2 3 4",
		"delete",
		"add Leaf",
	}, "\n"))

	gt.S(t, out).Contains("error: unknown command")
	gt.S(t, out).Contains("error: invalid node ID")
	// root is not a leaf and cannot be deleted
	gt.Value(t, strings.Count(out, "error: ")).Equal(5)
	gt.S(t, out).Contains("added #2")
}

func TestShell_Delete(t *testing.T) {
	ctx := context.Background()
	uc := newShellUseCases(t)
	_, err := uc.Node.Add(ctx, types.RootNodeID, "A")
	gt.NoError(t, err).Required()
	_, err = uc.Node.Add(ctx, 2, "A1")
	gt.NoError(t, err).Required()

	out := runShell(t, uc, "select 2\ndelete\nno\n")
	gt.S(t, out).Contains("cancelled")
	gt.Bool(t, len(mustList(t, uc)) == 3).True()

	out = runShell(t, uc, "select 2\ndelete\nда\n")
	gt.S(t, out).Contains("deleted 2 node(s)")
	gt.A(t, mustList(t, uc)).Length(1)
	gt.Value(t, uc.Node.Selected()).Equal(types.RootNodeID)
}

func TestShell_DuplicateAndReport(t *testing.T) {
	uc := newShellUseCases(t)
	dir := t.TempDir()
	textPath := filepath.Join(dir, "report.txt")

	out := runShell(t, uc, strings.Join([]string{
		"add Store",
		"select 2",
		"dup",
		"check",
		"report text name asc " + textPath,
	}, "\n"))

	gt.S(t, out).Contains("duplicated as #3")
	gt.S(t, out).Contains("3 node(s), 0 issue(s)")
	gt.S(t, out).Contains("report saved to " + textPath)

	data, err := os.ReadFile(textPath)
	gt.NoError(t, err).Required()
	gt.S(t, string(data)).Contains("Таблица № 1")
}

func mustList(t *testing.T, uc *usecase.UseCases) []usecase.NodeEntry {
	t.Helper()
	entries, err := uc.Node.List(context.Background())
	gt.NoError(t, err).Required()
	return entries
}
