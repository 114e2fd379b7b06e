package config

// OrganizationConfig describes the organization modelled by the risk tree
type OrganizationConfig struct {
	// RootName is the name given to the root node when an empty store is seeded
	RootName string
	// CityMarker is the name prefix that marks a node as a city in reports
	CityMarker string
}

// RiskBands holds the lower bounds of the risk score colour bands.
// A score in [Low, Medium) is low, [Medium, High) is medium and [High, Max] is high.
type RiskBands struct {
	Low    float64
	Medium float64
	High   float64
	Max    float64
}

// ReportConfig holds report rendering configuration
type ReportConfig struct {
	Title    string
	Output   string
	Font     string
	FontBold string
	Bands    RiskBands
}

const (
	DefaultRootName     = `ПАО "МАГНИТ"`
	DefaultCityMarker   = "г."
	DefaultReportTitle  = `Отчёт ПАО "МАГНИТ"`
	DefaultReportOutput = "data/risk_report.pdf"
)

// DefaultRiskBands returns the standard band thresholds
func DefaultRiskBands() RiskBands {
	return RiskBands{Low: 1.0, Medium: 2.5, High: 4.0, Max: 5.0}
}

// DefaultOrganization returns the organization defaults
func DefaultOrganization() OrganizationConfig {
	return OrganizationConfig{
		RootName:   DefaultRootName,
		CityMarker: DefaultCityMarker,
	}
}

// DefaultReport returns the report defaults
func DefaultReport() ReportConfig {
	return ReportConfig{
		Title:  DefaultReportTitle,
		Output: DefaultReportOutput,
		Bands:  DefaultRiskBands(),
	}
}
