package model

import (
	"math"
	"strconv"
	"strings"
)

// RiskInput is the set of values entered for a leaf node.
type RiskInput struct {
	Prob     float64
	LossMin  float64
	LossMax  float64
	Severity float64
}

// Field names reported by ParseRiskInput.
const (
	FieldProb     = "prob"
	FieldLossMin  = "loss_min"
	FieldLossMax  = "loss_max"
	FieldSeverity = "severity"
)

// ParseRiskInput converts entered text into risk values. A field that is not
// a finite number falls back to its default (0 for prob and losses, 1 for
// severity) and its name is returned in defaulted. Both '.' and ',' are
// accepted as the decimal separator.
func ParseRiskInput(prob, lossMin, lossMax, severity string) (in RiskInput, defaulted []string) {
	parse := func(field, text string, fallback float64) float64 {
		v, ok := parseNumber(text)
		if !ok {
			defaulted = append(defaulted, field)
			return fallback
		}
		return v
	}

	in = RiskInput{
		Prob:     parse(FieldProb, prob, DefaultProb),
		LossMin:  parse(FieldLossMin, lossMin, DefaultLossMin),
		LossMax:  parse(FieldLossMax, lossMax, DefaultLossMax),
		Severity: parse(FieldSeverity, severity, DefaultSeverity),
	}
	return in, defaulted
}

func parseNumber(text string) (float64, bool) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Normalize clamps prob to [0,1] and severity to [1,5], swaps inverted loss
// bounds and clamps losses to be non-negative. NaN values become defaults.
func (in RiskInput) Normalize() RiskInput {
	prob := orDefault(in.Prob, DefaultProb)
	lossMin := orDefault(in.LossMin, DefaultLossMin)
	lossMax := orDefault(in.LossMax, DefaultLossMax)
	severity := orDefault(in.Severity, DefaultSeverity)

	if lossMax < lossMin {
		lossMin, lossMax = lossMax, lossMin
	}

	return RiskInput{
		Prob:     clamp(prob, MinProb, MaxProb),
		LossMin:  math.Max(0, lossMin),
		LossMax:  math.Max(0, lossMax),
		Severity: clamp(severity, MinSeverity, MaxSeverity),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func orDefault(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
