// Package scoring owns every score and tier computation. Nothing else in the
// service may compare a score against a threshold.
package scoring

import "math"

// Tier is the outcome band derived from a percentage score.
type Tier string

const (
	TierGreen  Tier = "green"
	TierYellow Tier = "yellow"
	TierRed    Tier = "red"
)

const (
	greenThreshold  = 85.0
	yellowThreshold = 66.0
)

// Classify maps a score in [0,100] to its tier. Scores outside the range clamp to the nearest band.
func Classify(score float64) Tier {
	switch {
	case score >= greenThreshold:
		return TierGreen
	case score >= yellowThreshold:
		return TierYellow
	default:
		return TierRed
	}
}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierGreen, TierYellow, TierRed:
		return true
	}
	return false
}

// Number is the 1-based tier rank, 0 for unknown values.
func (t Tier) Number() int {
	switch t {
	case TierGreen:
		return 1
	case TierYellow:
		return 2
	case TierRed:
		return 3
	}
	return 0
}

// Label renders the tier as shown to families, e.g. "Tier 1".
func (t Tier) Label() string {
	switch t {
	case TierGreen:
		return "Tier 1"
	case TierYellow:
		return "Tier 2"
	case TierRed:
		return "Tier 3"
	}
	return ""
}

// Band is the placement wording used in reports.
func (t Tier) Band() string {
	switch t {
	case TierGreen:
		return "Mastery"
	case TierYellow:
		return "Developing"
	case TierRed:
		return "Intervention"
	}
	return ""
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
