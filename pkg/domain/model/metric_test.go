package model_test

import (
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

func TestMetrics(t *testing.T) {
	n := &model.RiskNode{Prob: 0.5, LossMin: 100, LossMax: 200, Severity: 2}

	m := model.MetricsOf(n)
	gt.Value(t, m.ExpectedMin).Equal(50.0)
	gt.Value(t, m.ExpectedMax).Equal(100.0)
	gt.Value(t, m.RiskScore).Equal(1.0)
}

func TestMetrics_UnsetValuesAreNeutral(t *testing.T) {
	n := &model.RiskNode{Prob: math.NaN(), LossMin: 100, LossMax: math.NaN(), Severity: math.NaN()}

	gt.Value(t, model.ExpectedLossMin(n)).Equal(0.0)
	gt.Value(t, model.ExpectedLossMax(n)).Equal(0.0)
	gt.Value(t, model.RiskScore(n)).Equal(0.0)

	n.Prob = 0.5
	gt.Value(t, model.RiskScore(n)).Equal(0.5)
}

func TestBand(t *testing.T) {
	bands := config.DefaultRiskBands()
	tests := []struct {
		score float64
		want  types.RiskBand
	}{
		{0.0, types.RiskBandNone},
		{0.99, types.RiskBandNone},
		{1.0, types.RiskBandLow},
		{2.49, types.RiskBandLow},
		{2.499, types.RiskBandMedium}, // displayed as 2.50
		{2.5, types.RiskBandMedium},
		{3.99, types.RiskBandMedium},
		{4.0, types.RiskBandHigh},
		{5.0, types.RiskBandHigh},
		{5.1, types.RiskBandNone},
	}

	for _, tt := range tests {
		gt.Value(t, model.Band(tt.score, bands)).Equal(tt.want)
	}
}

func TestTree_Totals(t *testing.T) {
	tree := newSeededTree(t)
	city := attach(t, tree, types.RootNodeID, "city", model.RiskInput{Severity: 1})
	attach(t, tree, city, "a", model.RiskInput{Prob: 0.5, LossMin: 100, LossMax: 200, Severity: 1})
	b := attach(t, tree, city, "b", model.RiskInput{Prob: 1, LossMin: 10, LossMax: 20, Severity: 1})
	gt.NoError(t, tree.RecomputeUpward(b))

	// orphan that is not reachable from root must not count
	gt.NoError(t, tree.Insert(&model.RiskNode{ID: 50, Name: "orphan", Prob: 1, LossMin: 1000, LossMax: 1000, Severity: 1, ParentID: 49}))

	totals := tree.Totals()
	gt.Value(t, totals.ExpectedMin).Equal(60.0)
	gt.Value(t, totals.ExpectedMax).Equal(120.0)
	gt.Value(t, totals.Nodes).Equal(4)
	gt.Value(t, totals.Leaves).Equal(2)
}
