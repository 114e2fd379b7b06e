package model

import (
	"errors"
	"maps"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

var (
	// ErrNodeNotFound is returned when a node ID is not in the tree.
	ErrNodeNotFound = errors.New("node not found")
	// ErrNodeExists is returned when inserting a node whose ID is taken.
	ErrNodeExists = errors.New("node already exists")
	// ErrParentCycle is returned when a parent chain never reaches the root.
	ErrParentCycle = errors.New("parent chain does not reach the root")
)

// Tree owns the risk nodes keyed by ID and the ID counter. It performs no
// link maintenance: callers keep Children and ParentID consistent.
// Tree is not safe for concurrent use.
type Tree struct {
	nodes  map[types.NodeID]*RiskNode
	nextID types.NodeID
}

// NewTree returns an empty tree whose first allocated ID is the root ID.
func NewTree() *Tree {
	return &Tree{
		nodes:  make(map[types.NodeID]*RiskNode),
		nextID: types.RootNodeID,
	}
}

// NewTreeFromNodes builds a tree from loaded nodes. The ID counter continues
// after the largest loaded ID.
func NewTreeFromNodes(nodes []*RiskNode) (*Tree, error) {
	t := NewTree()
	for _, n := range nodes {
		if err := t.Insert(n); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// SeedRoot inserts the root node when the tree is empty. It reports whether
// a root was created.
func (t *Tree) SeedRoot(name string) bool {
	if len(t.nodes) > 0 {
		return false
	}
	root := NewRiskNode(types.RootNodeID, name, NoParent)
	t.nodes[root.ID] = root
	if t.nextID <= root.ID {
		t.nextID = root.ID + 1
	}
	return true
}

// RootID returns the fixed root ID.
func (t *Tree) RootID() types.NodeID {
	return types.RootNodeID
}

// Get returns the stored node. The returned pointer is live; callers outside
// the domain should Clone it.
func (t *Tree) Get(id types.NodeID) (*RiskNode, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, goerr.Wrap(ErrNodeNotFound, "node not found", goerr.V("node_id", int64(id)))
	}
	return n, nil
}

// Has reports whether id is stored.
func (t *Tree) Has(id types.NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}

// Len returns the number of stored nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// All returns every stored node ordered by ID.
func (t *Tree) All() []*RiskNode {
	ids := slices.Sorted(maps.Keys(t.nodes))
	nodes := make([]*RiskNode, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, t.nodes[id])
	}
	return nodes
}

// Insert stores n. The ID counter is advanced past n.ID.
func (t *Tree) Insert(n *RiskNode) error {
	if err := n.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid node")
	}
	if _, ok := t.nodes[n.ID]; ok {
		return goerr.Wrap(ErrNodeExists, "node already exists", goerr.V("node_id", int64(n.ID)))
	}
	if n.Children == nil {
		n.Children = []types.NodeID{}
	}
	t.nodes[n.ID] = n
	if n.ID >= t.nextID {
		t.nextID = n.ID + 1
	}
	return nil
}

// Remove deletes id from the store without touching any Children list.
func (t *Tree) Remove(id types.NodeID) error {
	if _, ok := t.nodes[id]; !ok {
		return goerr.Wrap(ErrNodeNotFound, "node not found", goerr.V("node_id", int64(id)))
	}
	delete(t.nodes, id)
	return nil
}

// AllocateID returns the next unused ID. IDs are never handed out twice.
func (t *Tree) AllocateID() types.NodeID {
	id := t.nextID
	t.nextID++
	return id
}

// NextID returns the ID AllocateID would return next.
func (t *Tree) NextID() types.NodeID {
	return t.nextID
}

// PreOrder returns the nodes reachable from the root, each node before its
// children and children in list order. Dangling child IDs are skipped and
// each node is returned once even if the links are corrupt.
func (t *Tree) PreOrder() []*RiskNode {
	root, ok := t.nodes[t.RootID()]
	if !ok {
		return nil
	}

	var out []*RiskNode
	visited := make(map[types.NodeID]bool, len(t.nodes))
	stack := []*RiskNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n.ID] {
			continue
		}
		visited[n.ID] = true
		out = append(out, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			if c, ok := t.nodes[n.Children[i]]; ok {
				stack = append(stack, c)
			}
		}
	}
	return out
}

// Depth returns the number of ancestors of id. A parent cycle stops the
// count at the size of the tree.
func (t *Tree) Depth(id types.NodeID) int {
	depth := 0
	n, ok := t.nodes[id]
	for ok && n.HasParent() && depth < len(t.nodes) {
		depth++
		n, ok = t.nodes[n.ParentID]
	}
	return depth
}

// Subtree returns id and all of its descendants, each node after its
// children (the order nodes are deleted in).
func (t *Tree) Subtree(id types.NodeID) ([]*RiskNode, error) {
	n, err := t.Get(id)
	if err != nil {
		return nil, err
	}

	var out []*RiskNode
	var walk func(n *RiskNode)
	walk = func(n *RiskNode) {
		for _, cid := range n.Children {
			if c, ok := t.nodes[cid]; ok {
				walk(c)
			}
		}
		out = append(out, n)
	}
	walk(n)
	return out, nil
}

// Clone returns a deep copy of the tree including the ID counter.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		nodes:  make(map[types.NodeID]*RiskNode, len(t.nodes)),
		nextID: t.nextID,
	}
	for id, n := range t.nodes {
		c.nodes[id] = n.Clone()
	}
	return c
}
