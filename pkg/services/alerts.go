package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsafe/datahealth-engine/pkg/config"
	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

// criticalColumnAlertFloor is the fixed per-column floor below which a
// critical column raises its own alert.
const criticalColumnAlertFloor = 60.0

// EvaluateAlerts inspects a finished report and returns one alert per
// breached threshold: the overall score floor, each schema-level
// dimension floor, and the per-column floor for critical columns. Empty
// reports never alert.
func EvaluateAlerts(report *models.HealthReport, cfg config.AssessmentConfig) []models.QualityAlert {
	if report == nil || report.Empty {
		return nil
	}
	now := report.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var alerts []models.QualityAlert

	if report.Overall.Score < cfg.OverallAlertFloor && report.Overall.Grade != models.GradeNone {
		alerts = append(alerts, models.QualityAlert{
			ID:        uuid.New(),
			SchemaID:  report.SchemaID,
			AlertType: "overall_score",
			Threshold: cfg.OverallAlertFloor,
			Actual:    report.Overall.Score,
			Severity:  scoreSeverity(report.Overall.Score),
			Message: fmt.Sprintf("Overall health score %.1f is below the %.0f threshold",
				report.Overall.Score, cfg.OverallAlertFloor),
			CreatedAt: now,
		})
	}

	for _, d := range models.AllDimensions {
		agg, ok := report.Overall.Dimensions[d]
		if !ok || agg.ColumnsAssessed == 0 {
			continue
		}
		if agg.Score < cfg.DimensionAlertFloor {
			alerts = append(alerts, models.QualityAlert{
				ID:        uuid.New(),
				SchemaID:  report.SchemaID,
				AlertType: string(d),
				Threshold: cfg.DimensionAlertFloor,
				Actual:    agg.Score,
				Severity:  scoreSeverity(agg.Score),
				Message: fmt.Sprintf("%s score %.1f is below the %.0f threshold",
					d, agg.Score, cfg.DimensionAlertFloor),
				CreatedAt: now,
			})
		}
	}

	for name, col := range report.Columns {
		if !col.IsCritical || col.Error != "" {
			continue
		}
		if col.Score < criticalColumnAlertFloor {
			alerts = append(alerts, models.QualityAlert{
				ID:        uuid.New(),
				SchemaID:  report.SchemaID,
				Column:    name,
				AlertType: "critical_column",
				Threshold: criticalColumnAlertFloor,
				Actual:    col.Score,
				Severity:  "high",
				Message: fmt.Sprintf("Critical field %s scored %.1f, below the %.0f threshold",
					name, col.Score, criticalColumnAlertFloor),
				CreatedAt: now,
			})
		}
	}

	return alerts
}

func scoreSeverity(score float64) string {
	switch {
	case score < 50:
		return "high"
	case score < 70:
		return "medium"
	default:
		return "low"
	}
}
