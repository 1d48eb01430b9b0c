package models

import (
	"time"

	"github.com/google/uuid"
)

// CompletenessMetrics holds the raw counts behind a completeness score.
type CompletenessMetrics struct {
	Score          float64 `json:"score"`
	NullCount      int64   `json:"null_count"`
	NonNullCount   int64   `json:"non_null_count"`
	NullPercentage float64 `json:"null_percentage"`
}

// UniquenessMetrics holds the raw counts behind a uniqueness score.
type UniquenessMetrics struct {
	Score          float64 `json:"score"`
	UniqueCount    int64   `json:"unique_count"`
	DuplicateCount int64   `json:"duplicate_count"`
	TotalNonNull   int64   `json:"total_non_null"`
}

// ConsistencyMetrics holds pattern-check results for a column sample.
type ConsistencyMetrics struct {
	Score               float64 `json:"score"`
	PatternViolations   int     `json:"pattern_violations"`
	TotalChecked        int     `json:"total_checked"`
	ViolationPercentage float64 `json:"violation_percentage"`
}

// ValidityMetrics holds business-rule check results for a column sample.
type ValidityMetrics struct {
	Score             float64 `json:"score"`
	InvalidCount      int     `json:"invalid_count"`
	TotalChecked      int     `json:"total_checked"`
	InvalidPercentage float64 `json:"invalid_percentage"`
}

// TimelinessMetrics holds freshness data for a date column.
type TimelinessMetrics struct {
	Score           float64    `json:"score"`
	DaysSinceLatest int        `json:"days_since_latest"`
	LatestDate      *time.Time `json:"latest_date,omitempty"`
}

// ColumnReport is the full assessment outcome for one column. Dimension
// metric pointers are nil when the dimension was skipped or not applicable;
// a nil metric never contributes to the weighted column score.
type ColumnReport struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	IsCritical bool   `json:"is_critical"`

	DimensionsChecked []Dimension          `json:"dimensions_checked"`
	DimensionsSkipped []Dimension          `json:"dimensions_skipped,omitempty"`
	Reasoning         map[Dimension]string `json:"reasoning,omitempty"`
	Priority          Priority             `json:"priority"`

	Completeness *CompletenessMetrics `json:"completeness,omitempty"`
	Uniqueness   *UniquenessMetrics   `json:"uniqueness,omitempty"`
	Consistency  *ConsistencyMetrics  `json:"consistency,omitempty"`
	Validity     *ValidityMetrics     `json:"validity,omitempty"`
	Timeliness   *TimelinessMetrics   `json:"timeliness,omitempty"`

	Score           float64  `json:"overall_column_score"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`

	// FallbackApplied marks degraded results (timed-out checks, failed
	// assessment). Columns with Error set are excluded from aggregation.
	FallbackApplied bool   `json:"fallback_applied,omitempty"`
	Error           string `json:"error,omitempty"`
}

// DimensionScore returns the computed score for the given dimension and
// whether a result exists for it on this column.
func (c *ColumnReport) DimensionScore(d Dimension) (float64, bool) {
	switch d {
	case DimensionCompleteness:
		if c.Completeness != nil {
			return c.Completeness.Score, true
		}
	case DimensionUniqueness:
		if c.Uniqueness != nil {
			return c.Uniqueness.Score, true
		}
	case DimensionConsistency:
		if c.Consistency != nil {
			return c.Consistency.Score, true
		}
	case DimensionValidity:
		if c.Validity != nil {
			return c.Validity.Score, true
		}
	case DimensionTimeliness:
		if c.Timeliness != nil {
			return c.Timeliness.Score, true
		}
	}
	return 0, false
}

// DimensionAggregate is a schema-level dimension score across the columns
// for which the dimension was computed.
type DimensionAggregate struct {
	Score           float64 `json:"score"`
	Weight          int     `json:"weight"`
	ColumnsAssessed int     `json:"columns_assessed"`
}

// OverallHealth is the schema-level rollup.
type OverallHealth struct {
	Score      float64                          `json:"score"`
	Grade      string                           `json:"grade"`
	Dimensions map[Dimension]DimensionAggregate `json:"dimensions"`
}

// Issue is a single prioritized data quality finding.
type Issue struct {
	Severity  string    `json:"severity"` // high, medium, low
	Column    string    `json:"column"`
	Dimension Dimension `json:"dimension"`
	Critical  bool      `json:"critical"`
	Score     float64   `json:"score"`
	Issue     string    `json:"issue"`
	Impact    string    `json:"impact"`
}

// CriticalFieldsSummary rolls up the health of the schema's critical columns.
type CriticalFieldsSummary struct {
	Total    int     `json:"total"`
	Healthy  int     `json:"healthy"`  // score >= 80
	Warning  int     `json:"warning"`  // score 60-79
	Critical int     `json:"critical"` // score < 60
	AvgScore float64 `json:"avg_score"`
}

// Recommendations groups remediation advice by urgency tier.
type Recommendations struct {
	Immediate []string `json:"immediate"`
	ShortTerm []string `json:"short_term"`
	LongTerm  []string `json:"long_term"`
}

// OptimizationMetrics quantifies how much work adaptive dimension selection
// saved relative to checking every dimension on every column.
type OptimizationMetrics struct {
	ChecksPossible int     `json:"total_possible_checks"`
	ChecksRun      int     `json:"total_actual_checks"`
	ChecksSkipped  int     `json:"checks_skipped"`
	PercentSaved   float64 `json:"optimization_percentage"`
}

// PerformanceMetrics records wall-clock timings and the concurrency budgets
// the run was executed under.
type PerformanceMetrics struct {
	SelectionSeconds  float64 `json:"selection_time_seconds"`
	AssessmentSeconds float64 `json:"assessment_time_seconds"`
	TotalSeconds      float64 `json:"total_time_seconds"`
	MaxLLMConcurrency int     `json:"max_concurrent_llm_requests"`
	MaxDataSourceOps  int     `json:"max_concurrent_db_operations"`
	SemanticEnabled   bool    `json:"semantic_selection_enabled"`
}

// Summary is the human-facing rollup block of a health report.
type Summary struct {
	CriticalFields  CriticalFieldsSummary `json:"critical_fields"`
	TopIssues       []Issue               `json:"top_issues"`
	Recommendations Recommendations       `json:"recommendations"`
	Optimization    OptimizationMetrics   `json:"optimization"`
	SkipCounts      map[Dimension]int     `json:"skip_counts,omitempty"`
	PriorityCounts  map[Priority]int      `json:"priority_counts,omitempty"`
}

// HealthReport is the sole externally observable artifact of an assessment
// run. It is assembled once and never mutated afterwards.
type HealthReport struct {
	AssessmentID uuid.UUID                `json:"assessment_id"`
	SchemaID     string                   `json:"schema_id"`
	TotalRecords int64                    `json:"total_records"`
	Timestamp    time.Time                `json:"assessment_timestamp"`
	Empty        bool                     `json:"no_data,omitempty"`
	Overall      OverallHealth            `json:"overall_health"`
	Columns      map[string]*ColumnReport `json:"column_analysis"`
	Summary      Summary                  `json:"summary"`
	Metrics      PerformanceMetrics       `json:"performance_metrics"`
}
