package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

func buildReportTree(t *testing.T) *model.Tree {
	t.Helper()
	tree := newSeededTree(t)
	msk := attach(t, tree, types.RootNodeID, "г.Москва", model.RiskInput{Severity: 1})
	kzn := attach(t, tree, types.RootNodeID, "г.Казань", model.RiskInput{Severity: 1})
	attach(t, tree, types.RootNodeID, "г.Пустой", model.RiskInput{Severity: 1})
	attach(t, tree, types.RootNodeID, "Склад", model.RiskInput{Prob: 1, Severity: 5})

	attach(t, tree, msk, "Магазин 1", model.RiskInput{Prob: 0.2, LossMin: 10, LossMax: 20, Severity: 2})
	attach(t, tree, msk, "магазин 2", model.RiskInput{Prob: 0.8, LossMin: 30, LossMax: 40, Severity: 5})
	attach(t, tree, kzn, "Магазин 3", model.RiskInput{Prob: 0.5, LossMin: 100, LossMax: 200, Severity: 2})
	gt.NoError(t, tree.RecomputeAll()).Required()
	return tree
}

func TestBuildReport_GroupsCities(t *testing.T) {
	tree := buildReportTree(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	r := model.BuildReport(tree.All(), tree.Totals(), model.ReportOptions{
		Title:      "Report",
		SortKey:    types.SortKeyRiskScore,
		Order:      types.SortOrderDesc,
		CityMarker: "г.",
		Bands:      config.DefaultRiskBands(),
		Now:        now,
	})

	gt.V(t, r.ID).NotEqual(model.ReportID(""))
	gt.Value(t, r.GeneratedAt).Equal(now)
	gt.A(t, r.Cities).Length(3)
	// the empty city is listed but has no table
	gt.A(t, r.Tables).Length(2)

	// Москва risk = 0.5*3.5 = 1.75, Казань = 0.5*2 = 1.0, Пустой = 0
	gt.Value(t, r.Cities[0].Name).Equal("г.Москва")
	gt.Value(t, r.Cities[1].Name).Equal("г.Казань")
	gt.Value(t, r.Cities[2].Name).Equal("г.Пустой")
	gt.Value(t, r.Cities[0].Band).Equal(types.RiskBandLow)
	gt.Value(t, r.Cities[2].Band).Equal(types.RiskBandNone)

	gt.Value(t, r.Tables[0].City.Name).Equal("г.Москва")
	rows := r.Tables[0].Rows
	gt.A(t, rows).Length(2)
	gt.Value(t, rows[0].Name).Equal("магазин 2")
	gt.Value(t, rows[0].RiskScore).Equal(4.0)
	gt.Value(t, rows[0].Band).Equal(types.RiskBandHigh)
	gt.Value(t, rows[0].ExpectedMax).Equal(32.0)
}

func TestBuildReport_SortByNameAscending(t *testing.T) {
	tree := buildReportTree(t)

	r := model.BuildReport(tree.All(), tree.Totals(), model.ReportOptions{
		SortKey:    types.SortKeyName,
		Order:      types.SortOrderAsc,
		CityMarker: "г.",
		Bands:      config.DefaultRiskBands(),
	})

	gt.Value(t, r.Cities[0].Name).Equal("г.Казань")
	gt.Value(t, r.Cities[1].Name).Equal("г.Москва")
	gt.Value(t, r.Tables[0].City.Name).Equal("г.Казань")

	rows := r.Tables[1].Rows
	// case-insensitive comparison
	gt.Value(t, rows[0].Name).Equal("Магазин 1")
	gt.Value(t, rows[1].Name).Equal("магазин 2")
}

func TestBuildReport_Defaults(t *testing.T) {
	tree := buildReportTree(t)
	r := model.BuildReport(tree.All(), tree.Totals(), model.ReportOptions{CityMarker: "г."})
	gt.Value(t, r.SortKey).Equal(types.SortKeyRiskScore)
	gt.Value(t, r.Order).Equal(types.SortOrderDesc)
}

func TestBuildReport_TiesBrokenByID(t *testing.T) {
	tree := newSeededTree(t)
	c1 := attach(t, tree, types.RootNodeID, "г.B", model.RiskInput{Severity: 1})
	c2 := attach(t, tree, types.RootNodeID, "г.A", model.RiskInput{Severity: 1})

	for _, order := range []types.SortOrder{types.SortOrderAsc, types.SortOrderDesc} {
		r := model.BuildReport(tree.All(), tree.Totals(), model.ReportOptions{
			SortKey:    types.SortKeyProbability,
			Order:      order,
			CityMarker: "г.",
		})
		gt.Value(t, r.Cities[0].ID).Equal(c1)
		gt.Value(t, r.Cities[1].ID).Equal(c2)
	}
}
