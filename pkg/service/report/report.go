package report

import (
	"fmt"

	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

// Columns are the headers of every report table
var Columns = []string{"Объект", "P", "Lmin", "Lmax", "ExpectedMin", "ExpectedMax", "Severity", "Risk"}

// riskColumn is the index of the banded column
const riskColumn = 7

// Cells formats a row: probability with 3 decimals, severity with 1 and
// money and score values with 2.
func Cells(row model.ReportRow) []string {
	return []string{
		row.Name,
		fmt.Sprintf("%.3f", row.Prob),
		fmt.Sprintf("%.2f", row.LossMin),
		fmt.Sprintf("%.2f", row.LossMax),
		fmt.Sprintf("%.2f", row.ExpectedMin),
		fmt.Sprintf("%.2f", row.ExpectedMax),
		fmt.Sprintf("%.1f", row.Severity),
		fmt.Sprintf("%.2f", row.RiskScore),
	}
}

var sortKeyLabels = map[types.SortKey]string{
	types.SortKeyName:        "Объект",
	types.SortKeyProbability: "Вероятность",
	types.SortKeyLossMin:     "Мин. потери",
	types.SortKeyLossMax:     "Макс. потери",
	types.SortKeyExpectedMin: "Ожидаемый мин. потери",
	types.SortKeyExpectedMax: "Ожидаемый макс. потери",
	types.SortKeySeverity:    "Вес",
	types.SortKeyRiskScore:   "Риск",
}

// orderCaption describes how the tables are sorted, e.g. "Риск, убыв."
func orderCaption(r *model.Report) string {
	label, ok := sortKeyLabels[r.SortKey]
	if !ok {
		label = string(r.SortKey)
	}
	if r.Order == types.SortOrderAsc {
		return label + ", возр."
	}
	return label + ", убыв."
}

func citiesCaption(r *model.Report) string {
	return fmt.Sprintf("Таблица № 1 — Средние значения по городам (%s)", orderCaption(r))
}

func cityCaption(r *model.Report, index int, city string) string {
	return fmt.Sprintf("Таблица № %d — Средние значения в %s (%s)", index, city, orderCaption(r))
}

func totalsCaption(r *model.Report) string {
	return fmt.Sprintf("ΣExpectedMin: %.2f руб.  ΣExpectedMax: %.2f руб.  (листьев: %d из %d)",
		r.Totals.ExpectedMin, r.Totals.ExpectedMax, r.Totals.Leaves, r.Totals.Nodes)
}

const legend = "P — вероятность, Lmin/Lmax — мин/макс потери, ExpectedMin/ExpectedMax — ожидаемые мин/макс потери, Severity — тяжесть, Risk = P × Severity"
