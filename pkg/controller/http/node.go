package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/usecase"
)

type nodeResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	ParentID     int64   `json:"parent_id,omitempty"`
	Children     []int64 `json:"children"`
	Depth        int     `json:"depth"`
	Leaf         bool    `json:"leaf"`
	RiskEditable bool    `json:"risk_editable"`
	Prob         float64 `json:"prob"`
	LossMin      float64 `json:"loss_min"`
	LossMax      float64 `json:"loss_max"`
	Severity     float64 `json:"severity"`
	ExpectedMin  float64 `json:"expected_min"`
	ExpectedMax  float64 `json:"expected_max"`
	RiskScore    float64 `json:"risk_score"`
	Band         string  `json:"band"`
}

func toNodeResponse(n *model.RiskNode, depth int, bands config.RiskBands) nodeResponse {
	m := model.MetricsOf(n)
	children := make([]int64, len(n.Children))
	for i, c := range n.Children {
		children[i] = int64(c)
	}
	return nodeResponse{
		ID:           int64(n.ID),
		Name:         n.Name,
		ParentID:     int64(n.ParentID),
		Children:     children,
		Depth:        depth,
		Leaf:         n.IsLeaf(),
		RiskEditable: !n.ID.IsRoot() && n.IsLeaf(),
		Prob:         n.Prob,
		LossMin:      n.LossMin,
		LossMax:      n.LossMax,
		Severity:     n.Severity,
		ExpectedMin:  m.ExpectedMin,
		ExpectedMax:  m.ExpectedMax,
		RiskScore:    m.RiskScore,
		Band:         model.Band(m.RiskScore, bands).String(),
	}
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	entries, err := s.uc.Node.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	bands := s.uc.Report.Bands()
	resp := struct {
		Nodes []nodeResponse `json:"nodes"`
	}{
		Nodes: make([]nodeResponse, len(entries)),
	}
	for i, e := range entries {
		resp.Nodes[i] = toNodeResponse(e.Node, e.Depth, bands)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tree, err := s.uc.Node.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := tree.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toNodeResponse(n, tree.Depth(id), s.uc.Report.Bands()))
}

// respondNode writes the current state of id after a successful edit
func (s *Server) respondNode(w http.ResponseWriter, r *http.Request, status int, id types.NodeID) {
	tree, err := s.uc.Node.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := tree.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, status, toNodeResponse(n, tree.Depth(id), s.uc.Report.Bands()))
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) addChild(w http.ResponseWriter, r *http.Request) {
	parentID, err := nodeIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.uc.Node.Add(r.Context(), parentID, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondNode(w, r, http.StatusCreated, id)
}

func (s *Server) renameNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.uc.Node.Rename(r.Context(), id, req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondNode(w, r, http.StatusOK, id)
}

// numberText holds a risk field as entered. It accepts a JSON number or a
// string so that values such as "0,5" reach the text parser unchanged.
type numberText string

func (n *numberText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = numberText(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return goerr.Wrap(err, "risk value must be a number or a string")
	}
	*n = numberText(num.String())
	return nil
}

type riskRequest struct {
	Prob     numberText `json:"prob"`
	LossMin  numberText `json:"loss_min"`
	LossMax  numberText `json:"loss_max"`
	Severity numberText `json:"severity"`
}

func (s *Server) updateRisk(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req riskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	defaulted, err := s.uc.Node.UpdateLeafRiskText(r.Context(), id,
		string(req.Prob), string(req.LossMin), string(req.LossMax), string(req.Severity))
	if err != nil {
		writeError(w, r, err)
		return
	}

	tree, err := s.uc.Node.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := tree.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if defaulted == nil {
		defaulted = []string{}
	}
	writeJSON(w, r, http.StatusOK, struct {
		Node      nodeResponse `json:"node"`
		Defaulted []string     `json:"defaulted"`
	}{
		Node:      toNodeResponse(n, tree.Depth(id), s.uc.Report.Bands()),
		Defaulted: defaulted,
	})
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	removed, err := s.uc.Node.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ids := make([]int64, len(removed))
	for i, v := range removed {
		ids[i] = int64(v)
	}
	writeJSON(w, r, http.StatusOK, struct {
		Removed []int64 `json:"removed"`
	}{Removed: ids})
}

func (s *Server) duplicateNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	copyID, err := s.uc.Node.Duplicate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondNode(w, r, http.StatusCreated, copyID)
}

func (s *Server) moveNode(up bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := nodeIDParam(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		move := s.uc.Node.MoveDown
		if up {
			move = s.uc.Node.MoveUp
		}
		moved, err := move(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, struct {
			Moved bool `json:"moved"`
		}{Moved: moved})
	}
}

func (s *Server) recompute(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Node.Recompute(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	s.totals(w, r)
}

func (s *Server) totals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.uc.Node.Totals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		ExpectedMin float64 `json:"expected_min"`
		ExpectedMax float64 `json:"expected_max"`
		Nodes       int     `json:"nodes"`
		Leaves      int     `json:"leaves"`
	}{
		ExpectedMin: totals.ExpectedMin,
		ExpectedMax: totals.ExpectedMax,
		Nodes:       totals.Nodes,
		Leaves:      totals.Leaves,
	})
}

func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	result, err := s.uc.Node.ValidateTree(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	type issue struct {
		NodeID  int64  `json:"node_id"`
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}
	issues := make([]issue, len(result.Issues))
	for i, v := range result.Issues {
		issues[i] = issue{NodeID: int64(v.NodeID), Kind: string(v.Kind), Message: v.Message}
	}
	writeJSON(w, r, http.StatusOK, struct {
		Nodes  int     `json:"nodes"`
		OK     bool    `json:"ok"`
		Issues []issue `json:"issues"`
	}{
		Nodes:  result.Nodes,
		OK:     !result.HasIssues(),
		Issues: issues,
	})
}
