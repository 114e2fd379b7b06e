package model

import (
	"fmt"
	"math"

	"github.com/secmon-lab/risktree/pkg/domain/types"
)

// IssueKind categorizes an integrity problem found by Tree.Check.
type IssueKind string

const (
	IssueMissingRoot     IssueKind = "missing_root"
	IssueRootHasParent   IssueKind = "root_has_parent"
	IssueDanglingChild   IssueKind = "dangling_child"
	IssueParentMismatch  IssueKind = "parent_mismatch"
	IssueDuplicateChild  IssueKind = "duplicate_child"
	IssueUnreachable     IssueKind = "unreachable"
	IssueOutOfRange      IssueKind = "out_of_range"
	IssueInvertedLoss    IssueKind = "inverted_loss"
	IssueAggregateDrift  IssueKind = "aggregate_drift"
	IssueMultipleParents IssueKind = "multiple_parents"
)

// Structural reports whether the kind breaks the parent/child links that
// tree walks rely on. Value problems and drift are not structural.
func (k IssueKind) Structural() bool {
	switch k {
	case IssueMissingRoot, IssueRootHasParent, IssueDanglingChild,
		IssueParentMismatch, IssueUnreachable, IssueMultipleParents:
		return true
	}
	return false
}

// Issue is a single integrity problem.
type Issue struct {
	NodeID  types.NodeID
	Kind    IssueKind
	Message string
}

// CheckTolerance is the allowed difference between a stored aggregate and
// the mean recomputed from its children.
const CheckTolerance = 1e-9

// Check verifies referential integrity, value ranges and aggregate
// consistency. It never modifies the tree.
func (t *Tree) Check() []Issue {
	var issues []Issue
	add := func(id types.NodeID, kind IssueKind, format string, args ...any) {
		issues = append(issues, Issue{NodeID: id, Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	root, ok := t.nodes[t.RootID()]
	if !ok {
		add(t.RootID(), IssueMissingRoot, "root node is missing")
	} else if root.HasParent() {
		add(root.ID, IssueRootHasParent, "root has parent %d", root.ParentID)
	}

	listedBy := make(map[types.NodeID]types.NodeID)
	for _, n := range t.All() {
		seen := make(map[types.NodeID]bool, len(n.Children))
		for _, cid := range n.Children {
			if seen[cid] {
				add(n.ID, IssueDuplicateChild, "child %d listed more than once", cid)
				continue
			}
			seen[cid] = true

			c, ok := t.nodes[cid]
			if !ok {
				add(n.ID, IssueDanglingChild, "child %d does not exist", cid)
				continue
			}
			if c.ParentID != n.ID {
				add(cid, IssueParentMismatch, "listed by %d but parent is %d", n.ID, c.ParentID)
			}
			if prev, dup := listedBy[cid]; dup {
				add(cid, IssueMultipleParents, "listed by both %d and %d", prev, n.ID)
			}
			listedBy[cid] = n.ID
		}

		if n.Prob < MinProb || n.Prob > MaxProb || math.IsNaN(n.Prob) {
			add(n.ID, IssueOutOfRange, "prob %v is outside [%v, %v]", n.Prob, MinProb, MaxProb)
		}
		if n.Severity < MinSeverity || n.Severity > MaxSeverity || math.IsNaN(n.Severity) {
			add(n.ID, IssueOutOfRange, "severity %v is outside [%v, %v]", n.Severity, MinSeverity, MaxSeverity)
		}
		if n.LossMin < 0 || n.LossMax < 0 {
			add(n.ID, IssueOutOfRange, "negative loss bounds %v..%v", n.LossMin, n.LossMax)
		}
		if n.LossMin > n.LossMax {
			add(n.ID, IssueInvertedLoss, "loss_min %v exceeds loss_max %v", n.LossMin, n.LossMax)
		}

		if !n.IsLeaf() {
			mean := n.Clone()
			if t.aggregate(mean) && drifted(n, mean) {
				add(n.ID, IssueAggregateDrift, "stored values differ from the mean of children")
			}
		}
	}

	reachable := make(map[types.NodeID]bool, len(t.nodes))
	for _, n := range t.PreOrder() {
		reachable[n.ID] = true
	}
	for _, n := range t.All() {
		if !reachable[n.ID] {
			add(n.ID, IssueUnreachable, "node is not reachable from the root")
		}
	}

	return issues
}

func drifted(a, b *RiskNode) bool {
	return math.Abs(a.Prob-b.Prob) > CheckTolerance ||
		math.Abs(a.LossMin-b.LossMin) > CheckTolerance ||
		math.Abs(a.LossMax-b.LossMax) > CheckTolerance ||
		math.Abs(a.Severity-b.Severity) > CheckTolerance
}
