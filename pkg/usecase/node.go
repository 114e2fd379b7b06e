package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/interfaces"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/utils/logging"
)

// NodeEntry is a node together with its distance from the root
type NodeEntry struct {
	Node  *model.RiskNode
	Depth int
}

// NodeUseCase edits the risk tree. Every mutating method applies the
// structural change, re-aggregates the affected ancestors and saves the
// whole tree before returning. If any step fails the tree is restored to
// its state before the call.
type NodeUseCase struct {
	mu       sync.Mutex
	repo     interfaces.NodeRepository
	org      config.OrganizationConfig
	metrics  interfaces.MetricsRecorder
	tree     *model.Tree
	selected types.NodeID
}

func NewNodeUseCase(repo interfaces.NodeRepository, org config.OrganizationConfig, metrics interfaces.MetricsRecorder) *NodeUseCase {
	if org.RootName == "" {
		org.RootName = config.DefaultRootName
	}
	return &NodeUseCase{
		repo:     repo,
		org:      org,
		metrics:  metrics,
		selected: types.RootNodeID,
	}
}

// Load reads the tree from the repository. An empty repository is seeded
// with the root node, which is saved immediately. Snapshots with broken
// parent/child links are rejected with ErrPersistence.
func (uc *NodeUseCase) Load(ctx context.Context) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.load(ctx)
}

func (uc *NodeUseCase) load(ctx context.Context) error {
	nodes, err := uc.repo.Load(ctx)
	if err != nil {
		return goerr.Wrap(ErrPersistence, "failed to load nodes", goerr.V("error", err.Error()))
	}

	tree, err := model.NewTreeFromNodes(nodes)
	if err != nil {
		return goerr.Wrap(ErrPersistence, "loaded nodes are inconsistent", goerr.V("error", err.Error()))
	}

	if tree.Len() > 0 {
		for _, issue := range tree.Check() {
			if issue.Kind.Structural() {
				return goerr.Wrap(ErrPersistence, "loaded nodes are inconsistent",
					goerr.V(NodeIDKey, int64(issue.NodeID)),
					goerr.V("kind", string(issue.Kind)),
					goerr.V("issue", issue.Message))
			}
		}
	}

	uc.tree = tree
	uc.selected = tree.RootID()

	if tree.SeedRoot(uc.org.RootName) {
		logging.From(ctx).Info("seeded empty tree with root", "name", uc.org.RootName)
		if err := uc.save(ctx); err != nil {
			uc.tree = nil
			return err
		}
	}

	logging.From(ctx).Debug("tree loaded", "nodes", tree.Len(), "next_id", int64(tree.NextID()))
	return nil
}

func (uc *NodeUseCase) ensureLoaded(ctx context.Context) error {
	if uc.tree != nil {
		return nil
	}
	return uc.load(ctx)
}

func (uc *NodeUseCase) save(ctx context.Context) error {
	if err := uc.repo.Save(ctx, uc.tree.All()); err != nil {
		return goerr.Wrap(ErrPersistence, "failed to save nodes", goerr.V("error", err.Error()))
	}
	return nil
}

// mutate runs fn on the live tree and saves the result. fn reports whether
// it changed anything; unchanged trees are not saved.
func (uc *NodeUseCase) mutate(ctx context.Context, op string, fn func(t *model.Tree) (bool, error)) (err error) {
	start := time.Now()
	uc.mu.Lock()
	defer uc.mu.Unlock()

	defer func() {
		if uc.metrics == nil {
			return
		}
		uc.metrics.RecordOperation(op, err, time.Since(start))
		if err == nil && uc.tree != nil {
			uc.metrics.RecordTree(uc.tree.Totals())
		}
	}()

	if err := uc.ensureLoaded(ctx); err != nil {
		return err
	}

	before, selected := uc.tree.Clone(), uc.selected
	rollback := func() {
		uc.tree, uc.selected = before, selected
	}

	changed, err := fn(uc.tree)
	if err != nil {
		rollback()
		return err
	}
	if !changed {
		return nil
	}

	if err := uc.save(ctx); err != nil {
		rollback()
		return err
	}
	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", goerr.Wrap(ErrValidation, "node name is required")
	}
	return name, nil
}

func forbidRoot(id types.NodeID, action string) error {
	if id.IsRoot() {
		return goerr.Wrap(ErrForbiddenOperation, "cannot "+action+" the root node", goerr.V(NodeIDKey, int64(id)))
	}
	return nil
}

// Add creates a leaf named name under parentID and returns its ID.
func (uc *NodeUseCase) Add(ctx context.Context, parentID types.NodeID, name string) (types.NodeID, error) {
	var created types.NodeID

	err := uc.mutate(ctx, "add", func(t *model.Tree) (bool, error) {
		name, err := validateName(name)
		if err != nil {
			return false, err
		}
		parent, err := t.Get(parentID)
		if err != nil {
			return false, goerr.Wrap(ErrValidation, "parent node not found", goerr.V(ParentIDKey, int64(parentID)))
		}

		node := model.NewRiskNode(t.AllocateID(), name, parent.ID)
		if err := t.Insert(node); err != nil {
			return false, err
		}
		parent.Children = append(parent.Children, node.ID)

		if err := t.RecomputeUpward(parent.ID); err != nil {
			return false, err
		}
		created = node.ID
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	logging.From(ctx).Debug("node added", NodeIDKey, int64(created), ParentIDKey, int64(parentID))
	return created, nil
}

// Rename changes the name of id. Aggregates are unaffected.
func (uc *NodeUseCase) Rename(ctx context.Context, id types.NodeID, name string) error {
	err := uc.mutate(ctx, "rename", func(t *model.Tree) (bool, error) {
		name, err := validateName(name)
		if err != nil {
			return false, goerr.Wrap(err, "invalid name", goerr.V(NodeIDKey, int64(id)))
		}
		node, err := t.Get(id)
		if err != nil {
			return false, err
		}
		node.Name = name
		return true, nil
	})
	if err != nil {
		return err
	}

	logging.From(ctx).Debug("node renamed", NodeIDKey, int64(id))
	return nil
}

// UpdateLeafRisk stores the risk values of a leaf and re-aggregates its
// ancestors. Values are normalized: probability and severity are clamped
// and inverted loss bounds are swapped. The root and nodes with children
// cannot be edited.
func (uc *NodeUseCase) UpdateLeafRisk(ctx context.Context, id types.NodeID, in model.RiskInput) error {
	err := uc.mutate(ctx, "update_risk", func(t *model.Tree) (bool, error) {
		if err := forbidRoot(id, "edit risk values of"); err != nil {
			return false, err
		}
		node, err := t.Get(id)
		if err != nil {
			return false, err
		}
		if !node.IsLeaf() {
			return false, goerr.Wrap(ErrForbiddenOperation, "risk values of a node with children are derived",
				goerr.V(NodeIDKey, int64(id)))
		}

		node.SetRisk(in)
		if err := t.RecomputeUpward(id); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	logging.From(ctx).Debug("leaf risk updated", NodeIDKey, int64(id))
	return nil
}

// UpdateLeafRiskText is UpdateLeafRisk for text input. A field that is not
// a number falls back to its default instead of failing the update; the
// names of such fields are returned.
func (uc *NodeUseCase) UpdateLeafRiskText(ctx context.Context, id types.NodeID, prob, lossMin, lossMax, severity string) ([]string, error) {
	in, defaulted := model.ParseRiskInput(prob, lossMin, lossMax, severity)
	if err := uc.UpdateLeafRisk(ctx, id, in); err != nil {
		return nil, err
	}

	if len(defaulted) > 0 {
		logging.From(ctx).Warn("non-numeric risk fields replaced by defaults",
			NodeIDKey, int64(id),
			"fields", defaulted,
		)
	}
	return defaulted, nil
}

// Delete removes id and its whole subtree, unlinks it from its parent and
// re-aggregates the former parent's chain. It returns the removed IDs,
// children before parents. Selection inside the removed subtree falls back
// to the root.
func (uc *NodeUseCase) Delete(ctx context.Context, id types.NodeID) ([]types.NodeID, error) {
	var removed []types.NodeID

	err := uc.mutate(ctx, "delete", func(t *model.Tree) (bool, error) {
		if err := forbidRoot(id, "delete"); err != nil {
			return false, err
		}
		node, err := t.Get(id)
		if err != nil {
			return false, err
		}
		subtree, err := t.Subtree(id)
		if err != nil {
			return false, err
		}

		for _, n := range subtree {
			if err := t.Remove(n.ID); err != nil {
				return false, err
			}
			removed = append(removed, n.ID)
			if n.ID == uc.selected {
				uc.selected = t.RootID()
			}
		}

		if !node.HasParent() {
			return true, nil
		}
		parent, err := t.Get(node.ParentID)
		if err != nil {
			return true, nil
		}
		if i := parent.IndexOfChild(id); i >= 0 {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
		}
		if err := t.RecomputeUpwardAfterUnlink(parent.ID); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Debug("subtree deleted", NodeIDKey, int64(id), "removed", len(removed))
	return removed, nil
}

// Duplicate deep-copies the subtree of id with fresh IDs and appends the
// copy to id's parent. Names and risk values are copied as they are. It
// returns the ID of the copied subtree root.
func (uc *NodeUseCase) Duplicate(ctx context.Context, id types.NodeID) (types.NodeID, error) {
	var copyID types.NodeID

	err := uc.mutate(ctx, "duplicate", func(t *model.Tree) (bool, error) {
		if err := forbidRoot(id, "duplicate"); err != nil {
			return false, err
		}
		node, err := t.Get(id)
		if err != nil {
			return false, err
		}
		parent, err := t.Get(node.ParentID)
		if err != nil {
			return false, goerr.Wrap(err, "duplicated node has no parent", goerr.V(NodeIDKey, int64(id)))
		}

		copyID, err = copySubtree(t, node, parent.ID)
		if err != nil {
			return false, err
		}
		parent.Children = append(parent.Children, copyID)

		if err := t.RecomputeUpward(parent.ID); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	logging.From(ctx).Debug("subtree duplicated", NodeIDKey, int64(id), "copy_id", int64(copyID))
	return copyID, nil
}

// copySubtree inserts a copy of src below parentID, allocating IDs in
// pre-order, and returns the copy's ID.
func copySubtree(t *model.Tree, src *model.RiskNode, parentID types.NodeID) (types.NodeID, error) {
	dup := src.Clone()
	dup.ID = t.AllocateID()
	dup.ParentID = parentID
	dup.Children = []types.NodeID{}
	if err := t.Insert(dup); err != nil {
		return 0, err
	}

	for _, cid := range src.Children {
		child, err := t.Get(cid)
		if err != nil {
			continue
		}
		childCopy, err := copySubtree(t, child, dup.ID)
		if err != nil {
			return 0, err
		}
		dup.Children = append(dup.Children, childCopy)
	}
	return dup.ID, nil
}

// MoveUp swaps id with its previous sibling. It reports false when id is
// already first or is the root.
func (uc *NodeUseCase) MoveUp(ctx context.Context, id types.NodeID) (bool, error) {
	return uc.move(ctx, "move_up", id, -1)
}

// MoveDown swaps id with its next sibling. It reports false when id is
// already last or is the root.
func (uc *NodeUseCase) MoveDown(ctx context.Context, id types.NodeID) (bool, error) {
	return uc.move(ctx, "move_down", id, +1)
}

func (uc *NodeUseCase) move(ctx context.Context, op string, id types.NodeID, delta int) (bool, error) {
	moved := false

	err := uc.mutate(ctx, op, func(t *model.Tree) (bool, error) {
		node, err := t.Get(id)
		if err != nil {
			return false, err
		}
		if id.IsRoot() || !node.HasParent() {
			return false, nil
		}
		parent, err := t.Get(node.ParentID)
		if err != nil {
			return false, err
		}

		i := parent.IndexOfChild(id)
		j := i + delta
		if i < 0 || j < 0 || j >= len(parent.Children) {
			return false, nil
		}
		parent.Children[i], parent.Children[j] = parent.Children[j], parent.Children[i]
		moved = true
		return true, nil
	})
	if err != nil {
		return false, err
	}

	logging.From(ctx).Debug("node reordered", NodeIDKey, int64(id), "op", op, "moved", moved)
	return moved, nil
}

// Recompute re-derives every aggregate from the leaves up and saves.
func (uc *NodeUseCase) Recompute(ctx context.Context) error {
	return uc.mutate(ctx, "recompute", func(t *model.Tree) (bool, error) {
		if err := t.RecomputeAll(); err != nil {
			return false, err
		}
		return true, nil
	})
}

// view runs fn on the live tree under the lock. fn must not retain or
// modify nodes.
func (uc *NodeUseCase) view(ctx context.Context, fn func(t *model.Tree) error) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.ensureLoaded(ctx); err != nil {
		return err
	}
	return fn(uc.tree)
}

// Get returns a copy of node id.
func (uc *NodeUseCase) Get(ctx context.Context, id types.NodeID) (*model.RiskNode, error) {
	var node *model.RiskNode
	err := uc.view(ctx, func(t *model.Tree) error {
		n, err := t.Get(id)
		if err != nil {
			return err
		}
		node = n.Clone()
		return nil
	})
	return node, err
}

// List returns copies of the nodes reachable from the root in display
// order: each node before its children.
func (uc *NodeUseCase) List(ctx context.Context) ([]NodeEntry, error) {
	var entries []NodeEntry
	err := uc.view(ctx, func(t *model.Tree) error {
		for _, n := range t.PreOrder() {
			entries = append(entries, NodeEntry{Node: n.Clone(), Depth: t.Depth(n.ID)})
		}
		return nil
	})
	return entries, err
}

// Totals returns the leaf-only expected loss totals.
func (uc *NodeUseCase) Totals(ctx context.Context) (model.Totals, error) {
	var totals model.Totals
	err := uc.view(ctx, func(t *model.Tree) error {
		totals = t.Totals()
		return nil
	})
	return totals, err
}

// Snapshot returns a deep copy of the whole tree.
func (uc *NodeUseCase) Snapshot(ctx context.Context) (*model.Tree, error) {
	var snapshot *model.Tree
	err := uc.view(ctx, func(t *model.Tree) error {
		snapshot = t.Clone()
		return nil
	})
	return snapshot, err
}

// Select marks id as the node being edited.
func (uc *NodeUseCase) Select(ctx context.Context, id types.NodeID) error {
	return uc.view(ctx, func(t *model.Tree) error {
		if _, err := t.Get(id); err != nil {
			return err
		}
		uc.selected = id
		return nil
	})
}

// Selected returns the node being edited. It is the root until Select is
// called and after the selected node is deleted.
func (uc *NodeUseCase) Selected() types.NodeID {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.selected
}

// RiskEditable reports whether the risk values of id may be entered
// directly: only leaves other than the root are.
func (uc *NodeUseCase) RiskEditable(ctx context.Context, id types.NodeID) (bool, error) {
	editable := false
	err := uc.view(ctx, func(t *model.Tree) error {
		n, err := t.Get(id)
		if err != nil {
			return err
		}
		editable = !id.IsRoot() && n.IsLeaf()
		return nil
	})
	return editable, err
}
