package selector

import (
	"context"

	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

// ruleBasedSelector applies deterministic class-based rules. It is the
// always-available selection path and the fallback for the semantic one.
type ruleBasedSelector struct{}

// NewRuleBased creates the rule-based selector.
func NewRuleBased() Selector {
	return &ruleBasedSelector{}
}

// Select implements Selector.
func (s *ruleBasedSelector) Select(_ context.Context, schema *models.SchemaDescriptor) map[string]*models.DimensionSelection {
	selections := make(map[string]*models.DimensionSelection, len(schema.Columns))
	for _, col := range schema.Columns {
		selections[col.Name] = SelectByRules(col, schema.IsCritical(col.Name))
	}
	return selections
}

// SelectByRules computes the rule-based selection for a single column:
//
//   - identifier-like name  -> completeness, uniqueness, validity
//   - date/datetime typed   -> completeness, consistency, validity, timeliness
//   - bounded categorical   -> completeness, consistency, validity
//   - everything else       -> completeness, validity
//
// Critical columns always include completeness and validity.
func SelectByRules(col models.ColumnDescriptor, critical bool) *models.DimensionSelection {
	var check []models.Dimension
	reasoning := make(map[models.Dimension]string)

	switch {
	case col.IsIdentifierLike():
		check = []models.Dimension{models.DimensionCompleteness, models.DimensionUniqueness, models.DimensionValidity}
		reasoning[models.DimensionUniqueness] = "identifier-like column name suggests values should be unique"
	case col.IsDateLike():
		check = []models.Dimension{models.DimensionCompleteness, models.DimensionConsistency, models.DimensionValidity, models.DimensionTimeliness}
		reasoning[models.DimensionTimeliness] = "date column is eligible for freshness checking"
	case col.HasBoundedValues():
		check = []models.Dimension{models.DimensionCompleteness, models.DimensionConsistency, models.DimensionValidity}
		reasoning[models.DimensionValidity] = "values are checked against the declared allowed set"
	default:
		check = []models.Dimension{models.DimensionCompleteness, models.DimensionValidity}
	}

	sel := &models.DimensionSelection{
		Column:    col.Name,
		Check:     check,
		Reasoning: reasoning,
		Priority:  rulePriority(col, critical),
		Source:    models.SelectionRuleBased,
	}
	sel.Skip = skippedDimensions(check)
	return sel
}

// rulePriority tags the column by how urgently its quality matters.
func rulePriority(col models.ColumnDescriptor, critical bool) models.Priority {
	switch {
	case critical:
		return models.PriorityCritical
	case col.IsIdentifierLike():
		return models.PriorityHigh
	case col.IsDateLike(), col.HasBoundedValues():
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// skippedDimensions returns the dimensions not present in check, in
// canonical order.
func skippedDimensions(check []models.Dimension) []models.Dimension {
	checked := make(map[models.Dimension]bool, len(check))
	for _, d := range check {
		checked[d] = true
	}

	var skip []models.Dimension
	for _, d := range models.AllDimensions {
		if !checked[d] {
			skip = append(skip, d)
		}
	}
	return skip
}
