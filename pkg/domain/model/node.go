package model

import (
	"slices"

	"github.com/secmon-lab/risktree/pkg/domain/types"
)

// Default values of risk fields on a fresh or emptied node.
const (
	DefaultProb     = 0.0
	DefaultLossMin  = 0.0
	DefaultLossMax  = 0.0
	DefaultSeverity = 1.0

	MinProb     = 0.0
	MaxProb     = 1.0
	MinSeverity = 1.0
	MaxSeverity = 5.0
)

// NoParent is the ParentID of the root node.
const NoParent types.NodeID = 0

// RiskNode is an element of the organization tree: the organization itself,
// a city or a store. Leaves carry entered risk values; a node with children
// carries the mean of its children's values.
type RiskNode struct {
	ID       types.NodeID
	Name     string
	Prob     float64
	LossMin  float64
	LossMax  float64
	Severity float64
	ParentID types.NodeID
	Children []types.NodeID
}

// NewRiskNode returns a node with default risk values.
func NewRiskNode(id types.NodeID, name string, parentID types.NodeID) *RiskNode {
	return &RiskNode{
		ID:       id,
		Name:     name,
		Prob:     DefaultProb,
		LossMin:  DefaultLossMin,
		LossMax:  DefaultLossMax,
		Severity: DefaultSeverity,
		ParentID: parentID,
		Children: []types.NodeID{},
	}
}

// IsLeaf reports whether the node has no children.
func (n *RiskNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// HasParent reports whether the node is attached below another node.
func (n *RiskNode) HasParent() bool {
	return n.ParentID != NoParent
}

// ResetRisk restores the default risk values.
func (n *RiskNode) ResetRisk() {
	n.Prob = DefaultProb
	n.LossMin = DefaultLossMin
	n.LossMax = DefaultLossMax
	n.Severity = DefaultSeverity
}

// SetRisk copies normalized risk values onto the node.
func (n *RiskNode) SetRisk(in RiskInput) {
	in = in.Normalize()
	n.Prob = in.Prob
	n.LossMin = in.LossMin
	n.LossMax = in.LossMax
	n.Severity = in.Severity
}

// Risk returns the node's four risk values.
func (n *RiskNode) Risk() RiskInput {
	return RiskInput{
		Prob:     n.Prob,
		LossMin:  n.LossMin,
		LossMax:  n.LossMax,
		Severity: n.Severity,
	}
}

// IndexOfChild returns the position of id in Children, or -1.
func (n *RiskNode) IndexOfChild(id types.NodeID) int {
	return slices.Index(n.Children, id)
}

// Clone returns a deep copy of the node.
func (n *RiskNode) Clone() *RiskNode {
	c := *n
	c.Children = slices.Clone(n.Children)
	if c.Children == nil {
		c.Children = []types.NodeID{}
	}
	return &c
}
