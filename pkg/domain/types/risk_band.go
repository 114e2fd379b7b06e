package types

// RiskBand classifies a risk score for colour coding
type RiskBand string

const (
	RiskBandNone   RiskBand = ""
	RiskBandLow    RiskBand = "low"
	RiskBandMedium RiskBand = "medium"
	RiskBandHigh   RiskBand = "high"
)

func (b RiskBand) String() string {
	if b == RiskBandNone {
		return "none"
	}
	return string(b)
}
