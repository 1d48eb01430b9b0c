package models

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentRecord is a persisted row of the data_health_history table:
// the headline numbers of a completed run plus the full report as JSON.
type AssessmentRecord struct {
	ID           uuid.UUID `json:"id"`
	SchemaID     string    `json:"schema_id"`
	OverallScore float64   `json:"overall_score"`
	Grade        string    `json:"grade"`
	TotalRecords int64     `json:"total_records"`

	CompletenessScore *float64 `json:"completeness_score,omitempty"`
	UniquenessScore   *float64 `json:"uniqueness_score,omitempty"`
	ConsistencyScore  *float64 `json:"consistency_score,omitempty"`
	ValidityScore     *float64 `json:"validity_score,omitempty"`
	TimelinessScore   *float64 `json:"timeliness_score,omitempty"`

	AssessedAt time.Time `json:"assessed_at"`
}

// QualityAlert records a threshold breach detected after an assessment run.
type QualityAlert struct {
	ID        uuid.UUID `json:"id"`
	SchemaID  string    `json:"schema_id"`
	Column    string    `json:"column,omitempty"` // empty for schema-level alerts
	AlertType string    `json:"alert_type"`       // "overall_score" or a dimension name
	Threshold float64   `json:"threshold_value"`
	Actual    float64   `json:"actual_value"`
	Severity  string    `json:"severity"` // high, medium, low
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
