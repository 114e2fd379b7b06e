// Package snapshot encodes the risk tree in the flat JSON file format:
// an object keyed by stringified node ID whose values carry id, name,
// prob, loss_min, loss_max, severity, parent_id (nullable) and children.
package snapshot

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

// ErrMalformed is returned when snapshot data cannot be decoded.
var ErrMalformed = goerr.New("malformed snapshot")

type nodeDocument struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Prob     *float64 `json:"prob"`
	LossMin  *float64 `json:"loss_min"`
	LossMax  *float64 `json:"loss_max"`
	Severity *float64 `json:"severity"`
	ParentID *int64   `json:"parent_id"`
	Children []int64  `json:"children"`
}

// Encode serializes nodes into the snapshot format.
func Encode(nodes []*model.RiskNode) ([]byte, error) {
	docs := make(map[string]nodeDocument, len(nodes))
	for _, n := range nodes {
		docs[n.ID.String()] = toDocument(n)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(docs); err != nil {
		return nil, goerr.Wrap(err, "failed to encode snapshot")
	}
	return buf.Bytes(), nil
}

// Decode parses snapshot data. Absent or null risk fields take their
// defaults (severity 1, everything else 0).
func Decode(data []byte) ([]*model.RiskNode, error) {
	var docs map[string]json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, goerr.Wrap(ErrMalformed, "failed to parse snapshot", goerr.V("error", err.Error()))
	}

	nodes := make([]*model.RiskNode, 0, len(docs))
	for key, raw := range docs {
		keyID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, goerr.Wrap(ErrMalformed, "node key is not an integer", goerr.V("key", key))
		}

		var doc nodeDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, goerr.Wrap(ErrMalformed, "failed to parse node", goerr.V("key", key), goerr.V("error", err.Error()))
		}
		if doc.ID == 0 {
			doc.ID = keyID
		}
		if doc.ID != keyID {
			return nil, goerr.Wrap(ErrMalformed, "node key does not match id", goerr.V("key", key), goerr.V("id", doc.ID))
		}

		nodes = append(nodes, FromDocument(doc.ID, doc.Name, doc.Prob, doc.LossMin, doc.LossMax, doc.Severity, doc.ParentID, doc.Children))
	}
	return nodes, nil
}

func toDocument(n *model.RiskNode) nodeDocument {
	prob, lossMin, lossMax, severity := n.Prob, n.LossMin, n.LossMax, n.Severity
	doc := nodeDocument{
		ID:       int64(n.ID),
		Name:     n.Name,
		Prob:     &prob,
		LossMin:  &lossMin,
		LossMax:  &lossMax,
		Severity: &severity,
		Children: ChildIDs(n),
	}
	if n.HasParent() {
		parent := int64(n.ParentID)
		doc.ParentID = &parent
	}
	return doc
}

// FromDocument builds a node from nullable stored fields. Backends with
// their own document types share it so defaults stay consistent.
func FromDocument(id int64, name string, prob, lossMin, lossMax, severity *float64, parentID *int64, children []int64) *model.RiskNode {
	n := model.NewRiskNode(types.NodeID(id), name, model.NoParent)
	if prob != nil {
		n.Prob = *prob
	}
	if lossMin != nil {
		n.LossMin = *lossMin
	}
	if lossMax != nil {
		n.LossMax = *lossMax
	}
	if severity != nil {
		n.Severity = *severity
	}
	if parentID != nil {
		n.ParentID = types.NodeID(*parentID)
	}
	for _, c := range children {
		n.Children = append(n.Children, types.NodeID(c))
	}
	return n
}

// ChildIDs returns the children of n as plain integers, never nil.
func ChildIDs(n *model.RiskNode) []int64 {
	ids := make([]int64, 0, len(n.Children))
	for _, c := range n.Children {
		ids = append(ids, int64(c))
	}
	return ids
}
