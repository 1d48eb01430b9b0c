// Package scoring turns per-dimension results into column and schema
// scores. Weights renormalize over the dimensions actually computed, so
// skipped and not-applicable dimensions never drag a score down.
package scoring

import (
	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

// ColumnScore computes the weighted mean of the column's computed
// dimension scores, with weights renormalized to the computed subset.
// Returns false when no dimension produced a result.
func ColumnScore(report *models.ColumnReport) (float64, bool) {
	weightSum := 0
	weighted := 0.0

	for _, d := range models.AllDimensions {
		score, ok := report.DimensionScore(d)
		if !ok {
			continue
		}
		w := models.DimensionWeights[d]
		weightSum += w
		weighted += float64(w) * score
	}

	if weightSum == 0 {
		return 0, false
	}
	return models.ClampScore(weighted / float64(weightSum)), true
}

// Aggregate rolls column reports up into the schema-level overall health.
// Columns that failed assessment (Error set) are excluded entirely. The
// overall score is the uniform mean of column scores; per-dimension
// aggregates average over the columns where that dimension was computed.
func Aggregate(columns map[string]*models.ColumnReport) models.OverallHealth {
	dimSums := make(map[models.Dimension]float64)
	dimCounts := make(map[models.Dimension]int)

	columnSum := 0.0
	columnCount := 0

	for _, col := range columns {
		if col.Error != "" {
			continue
		}

		scored := false
		for _, d := range models.AllDimensions {
			score, ok := col.DimensionScore(d)
			if !ok {
				continue
			}
			dimSums[d] += score
			dimCounts[d]++
			scored = true
		}
		if scored {
			columnSum += col.Score
			columnCount++
		}
	}

	overall := models.OverallHealth{
		Dimensions: make(map[models.Dimension]models.DimensionAggregate),
	}

	for d, count := range dimCounts {
		overall.Dimensions[d] = models.DimensionAggregate{
			Score:           models.ClampScore(dimSums[d] / float64(count)),
			Weight:          models.DimensionWeights[d],
			ColumnsAssessed: count,
		}
	}

	if columnCount == 0 {
		overall.Grade = models.GradeNone
		return overall
	}

	overall.Score = models.ClampScore(columnSum / float64(columnCount))
	overall.Grade = models.GradeFor(overall.Score)
	return overall
}
