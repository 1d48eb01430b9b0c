package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fieldsafe/datahealth-engine/pkg/adapters/datasource"
	"github.com/fieldsafe/datahealth-engine/pkg/apperrors"
	"github.com/fieldsafe/datahealth-engine/pkg/config"
	"github.com/fieldsafe/datahealth-engine/pkg/models"
	"github.com/fieldsafe/datahealth-engine/pkg/schema"
	"github.com/fieldsafe/datahealth-engine/pkg/selector"
)

func testAssessmentConfig() config.AssessmentConfig {
	return config.AssessmentConfig{
		MaxLLMConcurrency:   10,
		MaxDataSourceOps:    5,
		CheckTimeout:        30 * time.Second,
		SampleSize:          500,
		TopIssues:           5,
		OverallAlertFloor:   70,
		DimensionAlertFloor: 60,
	}
}

func newTestService(source *datasource.MockDataSource) *AssessmentService {
	return NewAssessmentService(
		schema.NewRegistry(),
		source,
		selector.NewRuleBased(),
		false,
		testAssessmentConfig(),
		zap.NewNop(),
	)
}

// healthyMock configures a mock data source backing the ei_tech schema
// with 1000 rows, a small completeness gap on reporter_name, a few
// duplicate event IDs, and fresh dates.
func healthyMock() *datasource.MockDataSource {
	mock := datasource.NewMockDataSource()
	mock.CountRowsFunc = func(ctx context.Context, table string) (int64, error) {
		return 1000, nil
	}
	mock.NonNullCountsFunc = func(ctx context.Context, table string, columns []string) (map[string]int64, error) {
		counts := make(map[string]int64, len(columns))
		for _, c := range columns {
			if c == "reporter_name" {
				counts[c] = 950
			} else {
				counts[c] = 1000
			}
		}
		return counts, nil
	}
	mock.DistinctCountsFunc = func(ctx context.Context, table string, columns []string) (map[string]datasource.DistinctCount, error) {
		counts := make(map[string]datasource.DistinctCount, len(columns))
		for _, c := range columns {
			counts[c] = datasource.DistinctCount{Distinct: 980, NonNull: 1000}
		}
		return counts, nil
	}
	mock.LatestDateFunc = func(ctx context.Context, table, column string) (*time.Time, error) {
		latest := time.Now().AddDate(0, 0, -10)
		return &latest, nil
	}
	mock.SampleRowsFunc = func(ctx context.Context, table string, columns []string, orderBy string, limit int) ([]datasource.Row, error) {
		reported := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
		closed := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
		rows := make([]datasource.Row, 0, 5)
		for i := 0; i < 5; i++ {
			rows = append(rows, datasource.Row{
				"event_id":          fmt.Sprintf("EV-%03d", i+1),
				"reporter_name":     "Asha Rao",
				"reported_date":     reported,
				"branch":            "North",
				"region":            "West",
				"unsafe_event_type": "Slip",
				"severity":          "High",
				"status":            "Open",
				"site_name":         "Plant 7",
				"event_description": "Wet floor near loading bay",
				"corrective_action": "Installed warning signage",
				"closed_date":       closed,
			})
		}
		return rows, nil
	}
	return mock
}

func TestAssess_FullRun(t *testing.T) {
	mock := healthyMock()
	svc := newTestService(mock)

	report, err := svc.Assess(context.Background(), "ei_tech")
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, "ei_tech", report.SchemaID)
	assert.Equal(t, int64(1000), report.TotalRecords)
	assert.False(t, report.Empty)
	assert.Len(t, report.Columns, 12)

	eventID := report.Columns["event_id"]
	require.NotNil(t, eventID)
	require.NotNil(t, eventID.Completeness)
	require.NotNil(t, eventID.Uniqueness)
	assert.InDelta(t, 100.0, eventID.Completeness.Score, 0.001)
	assert.InDelta(t, 98.0, eventID.Uniqueness.Score, 0.001)
	assert.Empty(t, eventID.Error)

	reporter := report.Columns["reporter_name"]
	require.NotNil(t, reporter)
	require.NotNil(t, reporter.Completeness)
	assert.InDelta(t, 95.0, reporter.Completeness.Score, 0.001)
	assert.Equal(t, int64(50), reporter.Completeness.NullCount)

	reported := report.Columns["reported_date"]
	require.NotNil(t, reported)
	require.NotNil(t, reported.Timeliness)
	assert.InDelta(t, 100.0, reported.Timeliness.Score, 0.001)
	require.NotNil(t, reported.Consistency)
	assert.InDelta(t, 100.0, reported.Consistency.Score, 0.001)

	assert.Greater(t, report.Overall.Score, 90.0)
	assert.Equal(t, models.GradeExcellent, report.Overall.Grade)

	// Adaptive selection skips checks relative to the full grid.
	opt := report.Summary.Optimization
	assert.Equal(t, 12*5, opt.ChecksPossible)
	assert.Less(t, opt.ChecksRun, opt.ChecksPossible)
	assert.Equal(t, opt.ChecksPossible-opt.ChecksRun, opt.ChecksSkipped)

	assert.Equal(t, 10, report.Metrics.MaxLLMConcurrency)
	assert.Equal(t, 5, report.Metrics.MaxDataSourceOps)
	assert.False(t, report.Metrics.SemanticEnabled)
	assert.NotEqual(t, "", report.AssessmentID.String())
}

func TestAssess_UnknownSchema(t *testing.T) {
	svc := newTestService(healthyMock())

	report, err := svc.Assess(context.Background(), "mystery")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedSchema))
	assert.Nil(t, report)
}

func TestAssess_EmptyDataset(t *testing.T) {
	mock := healthyMock()
	mock.CountRowsFunc = func(ctx context.Context, table string) (int64, error) {
		return 0, nil
	}
	svc := newTestService(mock)

	report, err := svc.Assess(context.Background(), "ei_tech")
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.True(t, report.Empty)
	assert.Equal(t, int64(0), report.TotalRecords)
	assert.Equal(t, 0.0, report.Overall.Score)
	assert.Equal(t, models.GradeNone, report.Overall.Grade)
	assert.Empty(t, report.Columns)
	assert.Empty(t, report.Summary.TopIssues)

	// No statistics or sample queries after the zero count.
	assert.Equal(t, 0, mock.NonNullCountsCalls)
	assert.Equal(t, 0, mock.DistinctCountsCalls)
	assert.Equal(t, 0, mock.SampleRowsCalls)
}

func TestAssess_EmptyDatasetLogsReason(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mock := healthyMock()
	mock.CountRowsFunc = func(ctx context.Context, table string) (int64, error) {
		return 0, nil
	}
	svc := NewAssessmentService(
		schema.NewRegistry(), mock, selector.NewRuleBased(), false,
		testAssessmentConfig(), zap.New(core))

	_, err := svc.Assess(context.Background(), "ei_tech")
	require.NoError(t, err)

	entries := logs.FilterMessage("Assessment complete on empty dataset").All()
	require.Len(t, entries, 1)
	assert.Equal(t, apperrors.ErrEmptyDataset.Error(), entries[0].ContextMap()["reason"])
}

func TestAssess_CountFailureIsFatal(t *testing.T) {
	mock := healthyMock()
	mock.CountRowsFunc = func(ctx context.Context, table string) (int64, error) {
		return 0, errors.New("connection refused")
	}
	svc := newTestService(mock)

	report, err := svc.Assess(context.Background(), "ei_tech")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDataSourceUnavailable))
	assert.Nil(t, report)
}

func TestAssess_BatchFailureDegradesColumns(t *testing.T) {
	mock := healthyMock()
	mock.DistinctCountsFunc = func(ctx context.Context, table string, columns []string) (map[string]datasource.DistinctCount, error) {
		return nil, errors.New("query timeout")
	}
	svc := newTestService(mock)

	report, err := svc.Assess(context.Background(), "ei_tech")
	require.NoError(t, err)

	eventID := report.Columns["event_id"]
	require.NotNil(t, eventID)
	assert.Nil(t, eventID.Uniqueness)
	assert.True(t, eventID.FallbackApplied)
	assert.Empty(t, eventID.Error)

	// Completeness survived, so the column still scores.
	require.NotNil(t, eventID.Completeness)
	assert.Greater(t, eventID.Score, 0.0)
	assert.Greater(t, report.Overall.Score, 0.0)
}

func TestAssess_SampleFailureDegradesSampleChecks(t *testing.T) {
	mock := healthyMock()
	mock.SampleRowsFunc = func(ctx context.Context, table string, columns []string, orderBy string, limit int) ([]datasource.Row, error) {
		return nil, errors.New("query timeout")
	}
	svc := newTestService(mock)

	report, err := svc.Assess(context.Background(), "ei_tech")
	require.NoError(t, err)

	reported := report.Columns["reported_date"]
	require.NotNil(t, reported)
	assert.Nil(t, reported.Consistency)
	assert.Nil(t, reported.Validity)
	assert.True(t, reported.FallbackApplied)
	assert.Empty(t, reported.Error)

	// Batch statistics keep the run alive.
	require.NotNil(t, reported.Completeness)
	require.NotNil(t, reported.Timeliness)
	assert.Greater(t, report.Overall.Score, 0.0)
}

func TestAssess_ColumnExcludedWhenEverythingFails(t *testing.T) {
	mock := healthyMock()
	mock.NonNullCountsFunc = func(ctx context.Context, table string, columns []string) (map[string]int64, error) {
		return nil, errors.New("query timeout")
	}
	mock.SampleRowsFunc = func(ctx context.Context, table string, columns []string, orderBy string, limit int) ([]datasource.Row, error) {
		return nil, errors.New("query timeout")
	}
	svc := newTestService(mock)

	report, err := svc.Assess(context.Background(), "ei_tech")
	require.NoError(t, err)

	// reporter_name selected only completeness and validity, both of
	// which failed, so the column is excluded from aggregation.
	reporter := report.Columns["reporter_name"]
	require.NotNil(t, reporter)
	assert.NotEmpty(t, reporter.Error)
	assert.Equal(t, 0.0, reporter.Score)

	// event_id still has uniqueness and the dates still have
	// timeliness, so the overall score survives.
	eventID := report.Columns["event_id"]
	require.NotNil(t, eventID.Uniqueness)
	assert.Empty(t, eventID.Error)
	assert.Greater(t, report.Overall.Score, 0.0)
	assert.NotEqual(t, models.GradeNone, report.Overall.Grade)
}

func TestAssess_RepeatRunsAreIdentical(t *testing.T) {
	mock := healthyMock()
	svc := newTestService(mock)

	first, err := svc.Assess(context.Background(), "ei_tech")
	require.NoError(t, err)
	second, err := svc.Assess(context.Background(), "ei_tech")
	require.NoError(t, err)

	assert.NotEqual(t, first.AssessmentID, second.AssessmentID)
	assert.Equal(t, first.Overall.Score, second.Overall.Score)
	assert.Equal(t, first.Overall.Grade, second.Overall.Grade)
	for name, col := range first.Columns {
		assert.Equal(t, col.Score, second.Columns[name].Score, "column %s", name)
	}
}

func TestEvaluateAlerts_Thresholds(t *testing.T) {
	now := time.Now().UTC()
	report := &models.HealthReport{
		SchemaID:  "ei_tech",
		Timestamp: now,
		Overall: models.OverallHealth{
			Score: 65,
			Grade: models.GradePoor,
			Dimensions: map[models.Dimension]models.DimensionAggregate{
				models.DimensionCompleteness: {Score: 55, ColumnsAssessed: 5},
				models.DimensionValidity:     {Score: 90, ColumnsAssessed: 5},
			},
		},
		Columns: map[string]*models.ColumnReport{
			"event_id": {Name: "event_id", IsCritical: true, Score: 40},
			"status":   {Name: "status", Score: 40},
		},
	}

	alerts := EvaluateAlerts(report, testAssessmentConfig())
	require.Len(t, alerts, 3)

	byType := make(map[string]models.QualityAlert, len(alerts))
	for _, a := range alerts {
		byType[a.AlertType] = a
	}

	overall, ok := byType["overall_score"]
	require.True(t, ok)
	assert.Equal(t, 70.0, overall.Threshold)
	assert.Equal(t, 65.0, overall.Actual)
	assert.Equal(t, "medium", overall.Severity)

	completeness, ok := byType["completeness"]
	require.True(t, ok)
	assert.Equal(t, 60.0, completeness.Threshold)
	assert.Equal(t, 55.0, completeness.Actual)

	critical, ok := byType["critical_column"]
	require.True(t, ok)
	assert.Equal(t, "event_id", critical.Column)
	assert.Equal(t, "high", critical.Severity)
}

func TestEvaluateAlerts_HealthyReportIsQuiet(t *testing.T) {
	report := &models.HealthReport{
		SchemaID: "ei_tech",
		Overall: models.OverallHealth{
			Score: 92,
			Grade: models.GradeExcellent,
			Dimensions: map[models.Dimension]models.DimensionAggregate{
				models.DimensionCompleteness: {Score: 95, ColumnsAssessed: 5},
			},
		},
		Columns: map[string]*models.ColumnReport{
			"event_id": {Name: "event_id", IsCritical: true, Score: 96},
		},
	}

	assert.Empty(t, EvaluateAlerts(report, testAssessmentConfig()))
}

func TestEvaluateAlerts_EmptyReportNeverAlerts(t *testing.T) {
	report := &models.HealthReport{
		SchemaID: "ei_tech",
		Empty:    true,
		Overall:  models.OverallHealth{Score: 0, Grade: models.GradeNone},
	}

	assert.Empty(t, EvaluateAlerts(report, testAssessmentConfig()))
}
