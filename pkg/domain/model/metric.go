package model

import (
	"math"

	"github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

// ExpectedLossMin is the probability-weighted lower loss estimate.
func ExpectedLossMin(n *RiskNode) float64 {
	return orDefault(n.Prob, DefaultProb) * orDefault(n.LossMin, DefaultLossMin)
}

// ExpectedLossMax is the probability-weighted upper loss estimate.
func ExpectedLossMax(n *RiskNode) float64 {
	return orDefault(n.Prob, DefaultProb) * orDefault(n.LossMax, DefaultLossMax)
}

// RiskScore is the probability-weighted severity.
func RiskScore(n *RiskNode) float64 {
	return orDefault(n.Prob, DefaultProb) * orDefault(n.Severity, DefaultSeverity)
}

// Metrics are the values derived from a node on every read.
type Metrics struct {
	ExpectedMin float64
	ExpectedMax float64
	RiskScore   float64
}

// MetricsOf derives the metrics of n.
func MetricsOf(n *RiskNode) Metrics {
	return Metrics{
		ExpectedMin: ExpectedLossMin(n),
		ExpectedMax: ExpectedLossMax(n),
		RiskScore:   RiskScore(n),
	}
}

// Band classifies a risk score. The score is rounded to two decimals first,
// matching what is displayed.
func Band(score float64, bands config.RiskBands) types.RiskBand {
	s := math.Round(score*100) / 100
	switch {
	case s >= bands.Low && s < bands.Medium:
		return types.RiskBandLow
	case s >= bands.Medium && s < bands.High:
		return types.RiskBandMedium
	case s >= bands.High && s <= bands.Max:
		return types.RiskBandHigh
	default:
		return types.RiskBandNone
	}
}

// Totals summarize the whole tree.
type Totals struct {
	ExpectedMin float64
	ExpectedMax float64
	Nodes       int
	Leaves      int
}

// Totals sums expected losses over the leaves reachable from the root.
// Non-leaf nodes are skipped since their values are means of leaves.
func (t *Tree) Totals() Totals {
	var totals Totals
	for _, n := range t.PreOrder() {
		totals.Nodes++
		if !n.IsLeaf() {
			continue
		}
		totals.Leaves++
		totals.ExpectedMin += ExpectedLossMin(n)
		totals.ExpectedMax += ExpectedLossMax(n)
	}
	return totals
}
