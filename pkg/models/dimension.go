package models

// Dimension is one of the five quality axes a column can be scored on.
type Dimension string

const (
	DimensionCompleteness Dimension = "completeness"
	DimensionUniqueness   Dimension = "uniqueness"
	DimensionConsistency  Dimension = "consistency"
	DimensionValidity     Dimension = "validity"
	DimensionTimeliness   Dimension = "timeliness"
)

// AllDimensions lists every dimension in canonical order.
var AllDimensions = []Dimension{
	DimensionCompleteness,
	DimensionUniqueness,
	DimensionConsistency,
	DimensionValidity,
	DimensionTimeliness,
}

// DimensionWeights are the fixed contribution weights. They sum to 100.
// Per-column scores renormalize over the subset of dimensions actually
// checked, so a column checked on {completeness, validity} still weights
// to 100 between those two.
var DimensionWeights = map[Dimension]int{
	DimensionCompleteness: 25,
	DimensionUniqueness:   10,
	DimensionConsistency:  20,
	DimensionValidity:     20,
	DimensionTimeliness:   25,
}

// IsValid reports whether d is one of the five known dimensions.
func (d Dimension) IsValid() bool {
	_, ok := DimensionWeights[d]
	return ok
}

// Health grades partition [0,100] into four non-overlapping buckets.
const (
	GradeExcellent = "Excellent"
	GradeGood      = "Good"
	GradePoor      = "Poor"
	GradeBad       = "Bad"
	GradeNone      = "N/A"
)

// GradeFor maps a numeric score to its qualitative grade.
func GradeFor(score float64) string {
	switch {
	case score >= 85:
		return GradeExcellent
	case score >= 70:
		return GradeGood
	case score >= 50:
		return GradePoor
	default:
		return GradeBad
	}
}

// ClampScore bounds a percentage-based score to [0, 100].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
