package model_test

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

func newSeededTree(t *testing.T) *model.Tree {
	t.Helper()
	tree := model.NewTree()
	gt.Bool(t, tree.SeedRoot("Org")).True()
	return tree
}

// attach links a new node below parent without recomputing.
func attach(t *testing.T, tree *model.Tree, parent types.NodeID, name string, risk model.RiskInput) types.NodeID {
	t.Helper()
	p, err := tree.Get(parent)
	gt.NoError(t, err).Required()

	n := model.NewRiskNode(tree.AllocateID(), name, parent)
	n.SetRisk(risk)
	gt.NoError(t, tree.Insert(n)).Required()
	p.Children = append(p.Children, n.ID)
	return n.ID
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func mustGet(t *testing.T, tree *model.Tree, id types.NodeID) *model.RiskNode {
	t.Helper()
	n, err := tree.Get(id)
	gt.NoError(t, err).Required()
	return n
}
