package types

import (
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// NodeID identifies a node in the risk tree. IDs are positive and never reused.
type NodeID int64

// RootNodeID is the fixed ID of the organization root.
const RootNodeID NodeID = 1

// Validate checks if the NodeID is valid
func (id NodeID) Validate() error {
	if id <= 0 {
		return goerr.New("node ID must be positive", goerr.V("id", int64(id)))
	}
	return nil
}

// IsRoot reports whether id is the organization root
func (id NodeID) IsRoot() bool {
	return id == RootNodeID
}

// String returns the decimal representation of NodeID
func (id NodeID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseNodeID parses a decimal string into a NodeID
func ParseNodeID(s string) (NodeID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid node ID", goerr.V("id", s))
	}
	id := NodeID(v)
	if err := id.Validate(); err != nil {
		return 0, err
	}
	return id, nil
}
