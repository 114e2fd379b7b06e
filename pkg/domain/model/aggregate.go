package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

// RecomputeUpward re-derives the risk values of from and each of its
// ancestors. A node with children gets the mean of its direct children;
// a leaf keeps its entered values. Only the ancestor chain is visited, so
// the cost is proportional to the depth of from.
func (t *Tree) RecomputeUpward(from types.NodeID) error {
	return t.recomputeUpward(from, false)
}

// RecomputeUpwardAfterUnlink is RecomputeUpward for the former parent of a
// removed child: if from has no children left its values are reset to the
// defaults instead of being kept.
func (t *Tree) RecomputeUpwardAfterUnlink(from types.NodeID) error {
	return t.recomputeUpward(from, true)
}

func (t *Tree) recomputeUpward(from types.NodeID, unlinked bool) error {
	id := from
	for steps, first := 0, true; id != NoParent; steps, first = steps+1, false {
		if steps > len(t.nodes) {
			return goerr.Wrap(ErrParentCycle, "parent chain is longer than the tree", goerr.V("node_id", int64(from)))
		}
		n, err := t.Get(id)
		if err != nil {
			return err
		}

		if !t.aggregate(n) && first && unlinked {
			n.ResetRisk()
		}

		id = n.ParentID
	}
	return nil
}

// RecomputeAll re-derives every non-leaf node reachable from the root,
// children before parents. Use it to recover when the incremental
// invariant may have been broken, e.g. after bulk changes or a load.
func (t *Tree) RecomputeAll() error {
	root, err := t.Get(t.RootID())
	if err != nil {
		return err
	}

	var walk func(n *RiskNode)
	walk = func(n *RiskNode) {
		for _, cid := range n.Children {
			if c, ok := t.nodes[cid]; ok {
				walk(c)
			}
		}
		if !t.aggregate(n) && len(n.Children) > 0 {
			// every child ID was dangling
			n.ResetRisk()
		}
	}
	walk(root)
	return nil
}

// aggregate sets n to the mean of its live children. It reports false and
// leaves n untouched when n has no live child.
func (t *Tree) aggregate(n *RiskNode) bool {
	var sum RiskInput
	count := 0
	for _, cid := range n.Children {
		c, ok := t.nodes[cid]
		if !ok {
			continue
		}
		sum.Prob += orDefault(c.Prob, DefaultProb)
		sum.LossMin += orDefault(c.LossMin, DefaultLossMin)
		sum.LossMax += orDefault(c.LossMax, DefaultLossMax)
		sum.Severity += orDefault(c.Severity, DefaultSeverity)
		count++
	}
	if count == 0 {
		return false
	}

	k := float64(count)
	n.Prob = sum.Prob / k
	n.LossMin = sum.LossMin / k
	n.LossMax = sum.LossMax / k
	n.Severity = sum.Severity / k
	return true
}
