// Package issues turns dimension results into prioritized findings and
// tiered remediation advice.
package issues

import (
	"fmt"
	"sort"

	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

// Detection thresholds. A dimension scoring at or above its threshold
// produces no issue.
const (
	completenessThreshold = 95
	uniquenessThreshold   = 100
	consistencyThreshold  = 90
	validityThreshold     = 90
	stalenessDays         = 30

	// criticalEscalationFloor escalates any checked dimension on a
	// critical column to high severity below this score.
	criticalEscalationFloor = 80

	// Recommendation tier boundaries over the issue's dimension score.
	immediateFloor = 60
	shortTermCeil  = 80

	// systemicColumnCount is how many columns must share an issue kind
	// before it is called systemic.
	systemicColumnCount = 3
)

// Engine detects issues and assembles the report summary block.
type Engine struct {
	topN int
}

// NewEngine creates an issue engine keeping the topN most severe issues.
func NewEngine(topN int) *Engine {
	if topN <= 0 {
		topN = 5
	}
	return &Engine{topN: topN}
}

// AnnotateColumn fills the column's human-readable issue and
// recommendation lists and returns the structured issues for schema-level
// ranking. Failed columns produce no issues; their exclusion is reported
// through the error status instead.
func (e *Engine) AnnotateColumn(col *models.ColumnReport) []models.Issue {
	col.Issues = []string{}
	col.Recommendations = []string{}

	if col.Error != "" {
		return nil
	}

	var found []models.Issue

	if m := col.Completeness; m != nil && m.Score < completenessThreshold {
		found = append(found, e.newIssue(col, models.DimensionCompleteness, m.Score,
			fmt.Sprintf("%.1f%% missing values", m.NullPercentage)))
		if m.NullPercentage > 20 {
			col.Recommendations = append(col.Recommendations,
				fmt.Sprintf("Address %d missing %s values", m.NullCount, col.Name))
		}
	}

	if m := col.Uniqueness; m != nil && m.Score < uniquenessThreshold {
		found = append(found, e.newIssue(col, models.DimensionUniqueness, m.Score,
			fmt.Sprintf("%d duplicate values", m.DuplicateCount)))
		col.Recommendations = append(col.Recommendations,
			fmt.Sprintf("Investigate %d duplicate %s entries", m.DuplicateCount, col.Name))
	}

	if m := col.Consistency; m != nil && m.Score < consistencyThreshold {
		found = append(found, e.newIssue(col, models.DimensionConsistency, m.Score,
			fmt.Sprintf("%d format violations", m.PatternViolations)))
		col.Recommendations = append(col.Recommendations,
			fmt.Sprintf("Standardize %s format", col.Name))
	}

	if m := col.Validity; m != nil && m.Score < validityThreshold {
		found = append(found, e.newIssue(col, models.DimensionValidity, m.Score,
			fmt.Sprintf("%d invalid values", m.InvalidCount)))
		col.Recommendations = append(col.Recommendations,
			fmt.Sprintf("Fix %d invalid %s values", m.InvalidCount, col.Name))
	}

	if m := col.Timeliness; m != nil && m.DaysSinceLatest > stalenessDays {
		found = append(found, e.newIssue(col, models.DimensionTimeliness, m.Score,
			fmt.Sprintf("Data is %d days old", m.DaysSinceLatest)))
		col.Recommendations = append(col.Recommendations,
			fmt.Sprintf("Update %s data (last update: %d days ago)", col.Name, m.DaysSinceLatest))
	}

	for _, issue := range found {
		col.Issues = append(col.Issues, issue.Issue)
	}
	return found
}

func (e *Engine) newIssue(col *models.ColumnReport, d models.Dimension, score float64, text string) models.Issue {
	return models.Issue{
		Severity:  severity(col.IsCritical, score),
		Column:    col.Name,
		Dimension: d,
		Critical:  col.IsCritical,
		Score:     score,
		Issue:     text,
		Impact:    impact(col.Name, d, col.IsCritical),
	}
}

// severity escalates critical columns below the escalation floor to high
// regardless of the bracket the raw score would otherwise fall into.
func severity(critical bool, score float64) string {
	switch {
	case critical && score < criticalEscalationFloor:
		return "high"
	case score < 70:
		return "medium"
	default:
		return "low"
	}
}

// impact describes what the issue means for downstream use of the data.
func impact(column string, d models.Dimension, critical bool) string {
	if critical {
		switch d {
		case models.DimensionCompleteness:
			return fmt.Sprintf("Critical field %s missing values affects data reliability", column)
		case models.DimensionUniqueness:
			return fmt.Sprintf("Duplicate %s values may indicate data integration issues", column)
		case models.DimensionValidity:
			return fmt.Sprintf("Invalid %s values compromise data quality", column)
		default:
			return fmt.Sprintf("Issues with critical field %s affect overall data integrity", column)
		}
	}
	return fmt.Sprintf("Data quality issues in %s may impact analysis accuracy", column)
}

// Summarize ranks all issues, rolls up critical-field health, and builds
// the tiered recommendations.
func (e *Engine) Summarize(columns map[string]*models.ColumnReport, allIssues []models.Issue) (models.CriticalFieldsSummary, []models.Issue, models.Recommendations) {
	critical := criticalFieldsSummary(columns)
	top := e.rank(allIssues)
	recs := e.recommendations(allIssues)
	return critical, top, recs
}

// rank orders issues by (severity, critical flag, score ascending) and
// keeps the top N.
func (e *Engine) rank(issues []models.Issue) []models.Issue {
	ranked := make([]models.Issue, len(issues))
	copy(ranked, issues)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if severityRank(a.Severity) != severityRank(b.Severity) {
			return severityRank(a.Severity) < severityRank(b.Severity)
		}
		if a.Critical != b.Critical {
			return a.Critical
		}
		return a.Score < b.Score
	})

	if len(ranked) > e.topN {
		ranked = ranked[:e.topN]
	}
	return ranked
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	default:
		return 2
	}
}

// recommendations builds the tiered advice: critical issues below the
// immediate floor first, mid-band issues second, systemic patterns last.
func (e *Engine) recommendations(issues []models.Issue) models.Recommendations {
	recs := models.Recommendations{
		Immediate: []string{},
		ShortTerm: []string{},
		LongTerm:  []string{},
	}

	for _, issue := range issues {
		switch {
		case issue.Critical && issue.Score < immediateFloor:
			if len(recs.Immediate) < 3 {
				recs.Immediate = append(recs.Immediate,
					fmt.Sprintf("Fix %s in %s", issue.Issue, issue.Column))
			}
		case issue.Score >= immediateFloor && issue.Score <= shortTermCeil:
			if len(recs.ShortTerm) < 3 {
				recs.ShortTerm = append(recs.ShortTerm,
					fmt.Sprintf("Address %s in %s", issue.Issue, issue.Column))
			}
		}
	}

	// Systemic patterns: the same issue kind across several columns.
	kindColumns := make(map[models.Dimension]map[string]bool)
	for _, issue := range issues {
		if kindColumns[issue.Dimension] == nil {
			kindColumns[issue.Dimension] = make(map[string]bool)
		}
		kindColumns[issue.Dimension][issue.Column] = true
	}
	for _, d := range models.AllDimensions {
		if len(kindColumns[d]) < systemicColumnCount {
			continue
		}
		switch d {
		case models.DimensionCompleteness:
			recs.LongTerm = append(recs.LongTerm, "Establish data completeness monitoring")
		case models.DimensionUniqueness:
			recs.LongTerm = append(recs.LongTerm, "Set up automated duplicate detection")
		case models.DimensionConsistency, models.DimensionValidity:
			recs.LongTerm = append(recs.LongTerm, "Implement data validation rules at ingestion")
		case models.DimensionTimeliness:
			recs.LongTerm = append(recs.LongTerm, "Schedule regular source data refreshes")
		}
	}
	recs.LongTerm = dedupe(recs.LongTerm)
	recs.LongTerm = append(recs.LongTerm, "Set up automated data quality monitoring")

	if len(recs.Immediate) == 0 {
		recs.Immediate = []string{"No immediate actions required"}
	}
	if len(recs.ShortTerm) == 0 {
		recs.ShortTerm = []string{"Monitor data quality trends"}
	}
	return recs
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

// criticalFieldsSummary rolls up the health of the critical columns.
func criticalFieldsSummary(columns map[string]*models.ColumnReport) models.CriticalFieldsSummary {
	var summary models.CriticalFieldsSummary
	scoreSum := 0.0

	for _, col := range columns {
		if !col.IsCritical || col.Error != "" {
			continue
		}
		summary.Total++
		scoreSum += col.Score

		switch {
		case col.Score >= 80:
			summary.Healthy++
		case col.Score >= 60:
			summary.Warning++
		default:
			summary.Critical++
		}
	}

	if summary.Total > 0 {
		summary.AvgScore = scoreSum / float64(summary.Total)
	}
	return summary
}
