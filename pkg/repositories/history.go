// Package repositories provides data access for the engine's own
// database: assessment history and quality alerts.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fieldsafe/datahealth-engine/pkg/database"
	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

// HistoryRepository persists assessment outcomes and reads them back for
// trend queries.
type HistoryRepository interface {
	SaveAssessment(ctx context.Context, report *models.HealthReport) (*models.AssessmentRecord, error)
	SaveAlerts(ctx context.Context, alerts []models.QualityAlert) error
	ListRecent(ctx context.Context, schemaID string, limit int) ([]*models.AssessmentRecord, error)
	GetReport(ctx context.Context, schemaID string, assessmentID string) (*models.HealthReport, error)
	ListAlerts(ctx context.Context, schemaID string, limit int) ([]models.QualityAlert, error)
}

type historyRepository struct {
	db *database.DB
}

// NewHistoryRepository creates a repository backed by the engine database.
func NewHistoryRepository(db *database.DB) HistoryRepository {
	return &historyRepository{db: db}
}

var _ HistoryRepository = (*historyRepository)(nil)

// SaveAssessment stores the headline numbers plus the full report as
// JSONB and returns the persisted record.
func (r *historyRepository) SaveAssessment(ctx context.Context, report *models.HealthReport) (*models.AssessmentRecord, error) {
	record := NewRecord(report)

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO data_health_history (
			id, schema_id, overall_score, grade, total_records,
			completeness_score, uniqueness_score, consistency_score,
			validity_score, timeliness_score, report, assessed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING assessed_at`,
		record.ID, record.SchemaID, record.OverallScore, record.Grade, record.TotalRecords,
		record.CompletenessScore, record.UniquenessScore, record.ConsistencyScore,
		record.ValidityScore, record.TimelinessScore, payload, record.AssessedAt,
	).Scan(&record.AssessedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save assessment: %w", err)
	}

	return record, nil
}

// SaveAlerts stores the breached-threshold alerts for a run.
func (r *historyRepository) SaveAlerts(ctx context.Context, alerts []models.QualityAlert) error {
	for _, a := range alerts {
		_, err := r.db.Exec(ctx, `
			INSERT INTO data_quality_alerts (
				id, schema_id, column_name, alert_type,
				threshold_value, actual_value, severity, message, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.ID, a.SchemaID, a.Column, a.AlertType,
			a.Threshold, a.Actual, a.Severity, a.Message, a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save alert: %w", err)
		}
	}
	return nil
}

// ListRecent returns the most recent assessment records for a schema,
// newest first.
func (r *historyRepository) ListRecent(ctx context.Context, schemaID string, limit int) ([]*models.AssessmentRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, schema_id, overall_score, grade, total_records,
		       completeness_score, uniqueness_score, consistency_score,
		       validity_score, timeliness_score, assessed_at
		FROM data_health_history
		WHERE schema_id = $1
		ORDER BY assessed_at DESC
		LIMIT $2`, schemaID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var records []*models.AssessmentRecord
	for rows.Next() {
		record := &models.AssessmentRecord{}
		err := rows.Scan(
			&record.ID, &record.SchemaID, &record.OverallScore, &record.Grade, &record.TotalRecords,
			&record.CompletenessScore, &record.UniquenessScore, &record.ConsistencyScore,
			&record.ValidityScore, &record.TimelinessScore, &record.AssessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assessments: %w", err)
	}

	return records, nil
}

// GetReport loads one stored full report. Returns nil when the
// assessment is not found.
func (r *historyRepository) GetReport(ctx context.Context, schemaID string, assessmentID string) (*models.HealthReport, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, `
		SELECT report
		FROM data_health_history
		WHERE schema_id = $1 AND id = $2`, schemaID, assessmentID,
	).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	report := &models.HealthReport{}
	if err := json.Unmarshal(payload, report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return report, nil
}

// ListAlerts returns the most recent alerts for a schema, newest first.
func (r *historyRepository) ListAlerts(ctx context.Context, schemaID string, limit int) ([]models.QualityAlert, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, schema_id, column_name, alert_type,
		       threshold_value, actual_value, severity, message, created_at
		FROM data_quality_alerts
		WHERE schema_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, schemaID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.QualityAlert
	for rows.Next() {
		var a models.QualityAlert
		err := rows.Scan(
			&a.ID, &a.SchemaID, &a.Column, &a.AlertType,
			&a.Threshold, &a.Actual, &a.Severity, &a.Message, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

// NewRecord builds the headline history record from a finished report.
// Dimension scores are nil when the dimension was assessed on no column.
func NewRecord(report *models.HealthReport) *models.AssessmentRecord {
	record := &models.AssessmentRecord{
		ID:           report.AssessmentID,
		SchemaID:     report.SchemaID,
		OverallScore: report.Overall.Score,
		Grade:        report.Overall.Grade,
		TotalRecords: report.TotalRecords,
		AssessedAt:   report.Timestamp,
	}

	record.CompletenessScore = dimensionScore(report, models.DimensionCompleteness)
	record.UniquenessScore = dimensionScore(report, models.DimensionUniqueness)
	record.ConsistencyScore = dimensionScore(report, models.DimensionConsistency)
	record.ValidityScore = dimensionScore(report, models.DimensionValidity)
	record.TimelinessScore = dimensionScore(report, models.DimensionTimeliness)

	return record
}

func dimensionScore(report *models.HealthReport, d models.Dimension) *float64 {
	agg, ok := report.Overall.Dimensions[d]
	if !ok || agg.ColumnsAssessed == 0 {
		return nil
	}
	score := agg.Score
	return &score
}
