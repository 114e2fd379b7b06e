package types

import "fmt"

// SortKey is the column a report is ordered by
type SortKey string

const (
	SortKeyName        SortKey = "name"
	SortKeyProbability SortKey = "probability"
	SortKeyLossMin     SortKey = "loss_min"
	SortKeyLossMax     SortKey = "loss_max"
	SortKeyExpectedMin SortKey = "expected_min"
	SortKeyExpectedMax SortKey = "expected_max"
	SortKeySeverity    SortKey = "severity"
	SortKeyRiskScore   SortKey = "risk_score"
)

// AllSortKeys returns all valid sort keys
func AllSortKeys() []SortKey {
	return []SortKey{
		SortKeyName,
		SortKeyProbability,
		SortKeyLossMin,
		SortKeyLossMax,
		SortKeyExpectedMin,
		SortKeyExpectedMax,
		SortKeySeverity,
		SortKeyRiskScore,
	}
}

// IsValid checks if the sort key is valid
func (k SortKey) IsValid() bool {
	for _, v := range AllSortKeys() {
		if v == k {
			return true
		}
	}
	return false
}

// Normalize returns the key, treating empty as SortKeyRiskScore.
func (k SortKey) Normalize() SortKey {
	if k == "" {
		return SortKeyRiskScore
	}
	return k
}

func (k SortKey) String() string {
	return string(k)
}

// ParseSortKey parses a string into a SortKey
func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(s).Normalize()
	if !key.IsValid() {
		return "", fmt.Errorf("invalid sort key: %s", s)
	}
	return key, nil
}

// SortOrder is the report ordering direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// IsValid checks if the sort order is valid
func (o SortOrder) IsValid() bool {
	return o == SortOrderAsc || o == SortOrderDesc
}

// Normalize returns the order, treating empty as SortOrderDesc.
func (o SortOrder) Normalize() SortOrder {
	if o == "" {
		return SortOrderDesc
	}
	return o
}

func (o SortOrder) String() string {
	return string(o)
}

// ParseSortOrder parses a string into a SortOrder
func ParseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(s).Normalize()
	if !order.IsValid() {
		return "", fmt.Errorf("invalid sort order: %s", s)
	}
	return order, nil
}
