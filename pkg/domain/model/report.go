package model

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/risktree/pkg/domain/model/config"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

// ReportID identifies a generated report
type ReportID string

// NewReportID generates a new unique ReportID
func NewReportID() ReportID {
	return ReportID(uuid.Must(uuid.NewV7()).String())
}

// ReportRow is one node as shown in a report table.
type ReportRow struct {
	ID          types.NodeID
	Name        string
	Prob        float64
	LossMin     float64
	LossMax     float64
	ExpectedMin float64
	ExpectedMax float64
	Severity    float64
	RiskScore   float64
	Band        types.RiskBand
}

// CityTable lists the direct children of one city.
type CityTable struct {
	City ReportRow
	Rows []ReportRow
}

// Report is the sorted snapshot handed to a renderer.
type Report struct {
	ID          ReportID
	Title       string
	GeneratedAt time.Time
	SortKey     types.SortKey
	Order       types.SortOrder
	Cities      []ReportRow
	Tables      []CityTable
	Totals      Totals
}

// ReportOptions control how BuildReport groups and orders nodes.
type ReportOptions struct {
	Title      string
	SortKey    types.SortKey
	Order      types.SortOrder
	CityMarker string
	Bands      config.RiskBands
	Now        time.Time
}

// BuildReport groups nodes whose name starts with the city marker as the
// top level rows and lists each city's direct children in its own table.
// Cities without children get no table. Rows are ordered by the sort key
// with ties broken by ID.
func BuildReport(nodes []*RiskNode, totals Totals, opts ReportOptions) *Report {
	key := opts.SortKey.Normalize()
	order := opts.Order.Normalize()

	byID := make(map[types.NodeID]*RiskNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	report := &Report{
		ID:          NewReportID(),
		Title:       opts.Title,
		GeneratedAt: opts.Now,
		SortKey:     key,
		Order:       order,
		Totals:      totals,
	}

	var cities []*RiskNode
	for _, n := range nodes {
		if opts.CityMarker != "" && strings.HasPrefix(n.Name, opts.CityMarker) {
			cities = append(cities, n)
		}
	}

	for _, city := range cities {
		report.Cities = append(report.Cities, newReportRow(city, opts.Bands))

		var rows []ReportRow
		for _, cid := range city.Children {
			if c, ok := byID[cid]; ok {
				rows = append(rows, newReportRow(c, opts.Bands))
			}
		}
		if len(rows) == 0 {
			continue
		}
		sortRows(rows, key, order)
		report.Tables = append(report.Tables, CityTable{
			City: report.Cities[len(report.Cities)-1],
			Rows: rows,
		})
	}

	sortRows(report.Cities, key, order)
	sortTables(report.Tables, key, order)
	return report
}

func newReportRow(n *RiskNode, bands config.RiskBands) ReportRow {
	m := MetricsOf(n)
	return ReportRow{
		ID:          n.ID,
		Name:        n.Name,
		Prob:        n.Prob,
		LossMin:     n.LossMin,
		LossMax:     n.LossMax,
		ExpectedMin: m.ExpectedMin,
		ExpectedMax: m.ExpectedMax,
		Severity:    n.Severity,
		RiskScore:   m.RiskScore,
		Band:        Band(m.RiskScore, bands),
	}
}

func compareRows(a, b ReportRow, key types.SortKey) int {
	switch key {
	case types.SortKeyName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case types.SortKeyProbability:
		return cmp.Compare(a.Prob, b.Prob)
	case types.SortKeyLossMin:
		return cmp.Compare(a.LossMin, b.LossMin)
	case types.SortKeyLossMax:
		return cmp.Compare(a.LossMax, b.LossMax)
	case types.SortKeyExpectedMin:
		return cmp.Compare(a.ExpectedMin, b.ExpectedMin)
	case types.SortKeyExpectedMax:
		return cmp.Compare(a.ExpectedMax, b.ExpectedMax)
	case types.SortKeySeverity:
		return cmp.Compare(a.Severity, b.Severity)
	default:
		return cmp.Compare(a.RiskScore, b.RiskScore)
	}
}

func sortRows(rows []ReportRow, key types.SortKey, order types.SortOrder) {
	slices.SortStableFunc(rows, func(a, b ReportRow) int {
		c := compareRows(a, b, key)
		if order == types.SortOrderDesc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func sortTables(tables []CityTable, key types.SortKey, order types.SortOrder) {
	slices.SortStableFunc(tables, func(a, b CityTable) int {
		c := compareRows(a.City, b.City, key)
		if order == types.SortOrderDesc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.City.ID, b.City.ID)
	})
}
