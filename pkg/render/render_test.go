package render

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

func init() {
	color.NoColor = true
}

func sampleReport() *models.HealthReport {
	return &models.HealthReport{
		AssessmentID: uuid.New(),
		SchemaID:     "ei_tech",
		TotalRecords: 1000,
		Timestamp:    time.Now().UTC(),
		Overall: models.OverallHealth{
			Score: 88.2,
			Grade: models.GradeExcellent,
			Dimensions: map[models.Dimension]models.DimensionAggregate{
				models.DimensionCompleteness: {Score: 95.0, Weight: 25, ColumnsAssessed: 2},
				models.DimensionUniqueness:   {Score: 98.0, Weight: 10, ColumnsAssessed: 1},
			},
		},
		Columns: map[string]*models.ColumnReport{
			"event_id": {
				Name:              "event_id",
				DataType:          "varchar",
				IsCritical:        true,
				DimensionsChecked: []models.Dimension{models.DimensionCompleteness, models.DimensionUniqueness},
				Priority:          models.PriorityCritical,
				Score:             97.5,
			},
			"status": {
				Name:              "status",
				DataType:          "varchar",
				DimensionsChecked: []models.Dimension{models.DimensionCompleteness},
				Priority:          models.PriorityMedium,
				Score:             62.0,
				FallbackApplied:   true,
			},
		},
		Summary: models.Summary{
			TopIssues: []models.Issue{
				{Severity: "medium", Column: "status", Dimension: models.DimensionCompleteness,
					Score: 62.0, Issue: "38.0% missing values"},
			},
			Recommendations: models.Recommendations{
				ShortTerm: []string{"Address completeness in status"},
				LongTerm:  []string{"Set up automated data quality monitoring"},
			},
			Optimization: models.OptimizationMetrics{
				ChecksPossible: 10, ChecksRun: 3, ChecksSkipped: 7, PercentSaved: 70,
			},
		},
		Metrics: models.PerformanceMetrics{
			SelectionSeconds:  0.01,
			AssessmentSeconds: 0.42,
			TotalSeconds:      0.43,
		},
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "Data health for ei_tech: 88.2")
	assert.Contains(t, out, "event_id")
	assert.Contains(t, out, "completeness,uniqueness")
	assert.Contains(t, out, "critical")
	assert.Contains(t, out, "fallback")
	assert.Contains(t, out, "38.0% missing values")
	assert.Contains(t, out, "Address completeness in status")
	assert.Contains(t, out, "Ran 3 of 10 possible checks (70.0% skipped)")
}

func TestWriteReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	report := &models.HealthReport{SchemaID: "srs", Empty: true}
	require.NoError(t, WriteReport(&buf, report))

	assert.Contains(t, buf.String(), "no data to assess")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	report := sampleReport()
	require.NoError(t, WriteJSON(&buf, report))

	decoded := &models.HealthReport{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), decoded))
	assert.Equal(t, report.SchemaID, decoded.SchemaID)
	assert.Equal(t, report.Overall.Score, decoded.Overall.Score)
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	records := []*models.AssessmentRecord{
		{SchemaID: "ei_tech", OverallScore: 88.2, Grade: models.GradeExcellent,
			TotalRecords: 1000, AssessedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)},
		{SchemaID: "ei_tech", OverallScore: 74.0, Grade: models.GradeGood,
			TotalRecords: 900, AssessedAt: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, WriteHistory(&buf, records))

	out := buf.String()
	assert.Contains(t, out, "2026-08-01 10:00")
	assert.Contains(t, out, "88.2")
	assert.Contains(t, out, "74.0")
}

func TestWriteHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, nil))
	assert.Contains(t, buf.String(), "No assessment history")
}
