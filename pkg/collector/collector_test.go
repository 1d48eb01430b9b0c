package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldsafe/datahealth-engine/pkg/adapters/datasource"
	"github.com/fieldsafe/datahealth-engine/pkg/apperrors"
	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

func collectorSchema() *models.SchemaDescriptor {
	return &models.SchemaDescriptor{
		ID:    "ei_tech",
		Table: "unsafe_events_ei_tech",
		Columns: []models.ColumnDescriptor{
			{Name: "event_id", DataType: "varchar", Class: models.ClassIdentifier},
			{Name: "date_of_event", DataType: "date", Class: models.ClassDate},
			{Name: "description", DataType: "text", Class: models.ClassFreeText},
		},
		Critical: []string{"event_id"},
	}
}

func fullSelections(schema *models.SchemaDescriptor) map[string]*models.DimensionSelection {
	selections := make(map[string]*models.DimensionSelection)
	for _, col := range schema.Columns {
		selections[col.Name] = &models.DimensionSelection{
			Column: col.Name,
			Check:  models.AllDimensions,
		}
	}
	return selections
}

func newCollectorForTest(source datasource.DataSource, now time.Time) *Collector {
	c := New(source, datasource.NewSemaphore(5), time.Second, zap.NewNop())
	c.now = func() time.Time { return now }
	return c
}

func TestCollect_CompletenessScores(t *testing.T) {
	latest := time.Now().AddDate(0, 0, -10)
	source := &datasource.MockDataSource{
		CountRowsFunc: func(ctx context.Context, table string) (int64, error) {
			return 1000, nil
		},
		NonNullCountsFunc: func(ctx context.Context, table string, columns []string) (map[string]int64, error) {
			return map[string]int64{"event_id": 950, "date_of_event": 1000, "description": 800}, nil
		},
		DistinctCountsFunc: func(ctx context.Context, table string, columns []string) (map[string]datasource.DistinctCount, error) {
			return map[string]datasource.DistinctCount{
				"event_id": {Distinct: 930, NonNull: 950},
			}, nil
		},
		LatestDateFunc: func(ctx context.Context, table, column string) (*time.Time, error) {
			return &latest, nil
		},
	}

	stats, err := newCollectorForTest(source, time.Now()).Collect(context.Background(), collectorSchema(), fullSelections(collectorSchema()))
	require.NoError(t, err)
	require.Empty(t, stats.BatchErrors)

	assert.Equal(t, int64(1000), stats.TotalRecords)

	// 950 of 1000 non-null.
	completeness := stats.Completeness["event_id"]
	require.NotNil(t, completeness)
	assert.InDelta(t, 95.0, completeness.Score, 0.001)
	assert.Equal(t, int64(50), completeness.NullCount)

	// 930 distinct of 950 non-null.
	uniqueness := stats.Uniqueness["event_id"]
	require.NotNil(t, uniqueness)
	assert.InDelta(t, 97.894736, uniqueness.Score, 0.001)
	assert.Equal(t, int64(20), uniqueness.DuplicateCount)
}

func TestCollect_EmptyDatasetShortCircuits(t *testing.T) {
	source := &datasource.MockDataSource{
		CountRowsFunc: func(ctx context.Context, table string) (int64, error) {
			return 0, nil
		},
	}

	schema := collectorSchema()
	stats, err := newCollectorForTest(source, time.Now()).Collect(context.Background(), schema, fullSelections(schema))
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.TotalRecords)
	assert.Empty(t, stats.Completeness)
	assert.Equal(t, 0, source.NonNullCountsCalls, "no statistics queries should run on an empty table")
	assert.Equal(t, 0, source.DistinctCountsCalls)
	assert.Equal(t, 0, source.LatestDateCalls)
}

func TestCollect_CountFailureIsFatal(t *testing.T) {
	source := &datasource.MockDataSource{
		CountRowsFunc: func(ctx context.Context, table string) (int64, error) {
			return 0, errors.New("connection refused")
		},
	}

	schema := collectorSchema()
	_, err := newCollectorForTest(source, time.Now()).Collect(context.Background(), schema, fullSelections(schema))
	assert.Error(t, err)
}

func TestCollect_BatchFailureDegrades(t *testing.T) {
	latest := time.Now().AddDate(0, 0, -5)
	source := &datasource.MockDataSource{
		CountRowsFunc: func(ctx context.Context, table string) (int64, error) {
			return 100, nil
		},
		NonNullCountsFunc: func(ctx context.Context, table string, columns []string) (map[string]int64, error) {
			return map[string]int64{"event_id": 100, "date_of_event": 100, "description": 100}, nil
		},
		DistinctCountsFunc: func(ctx context.Context, table string, columns []string) (map[string]datasource.DistinctCount, error) {
			return nil, errors.New("query timeout")
		},
		LatestDateFunc: func(ctx context.Context, table, column string) (*time.Time, error) {
			return &latest, nil
		},
	}

	schema := collectorSchema()
	stats, err := newCollectorForTest(source, time.Now()).Collect(context.Background(), schema, fullSelections(schema))
	require.NoError(t, err)

	// Uniqueness batch failed; completeness and timeliness survive.
	assert.Contains(t, stats.BatchErrors, models.DimensionUniqueness)
	assert.NotContains(t, stats.BatchErrors, models.DimensionCompleteness)
	assert.NotEmpty(t, stats.Completeness)
	assert.NotEmpty(t, stats.Timeliness)
	assert.Empty(t, stats.Uniqueness)
}

func TestCollect_BudgetOverrunTaggedAsTimeout(t *testing.T) {
	latest := time.Now().AddDate(0, 0, -5)
	source := &datasource.MockDataSource{
		CountRowsFunc: func(ctx context.Context, table string) (int64, error) {
			return 100, nil
		},
		NonNullCountsFunc: func(ctx context.Context, table string, columns []string) (map[string]int64, error) {
			return nil, fmt.Errorf("query canceled: %w", context.DeadlineExceeded)
		},
		DistinctCountsFunc: func(ctx context.Context, table string, columns []string) (map[string]datasource.DistinctCount, error) {
			return nil, errors.New("syntax error")
		},
		LatestDateFunc: func(ctx context.Context, table, column string) (*time.Time, error) {
			return &latest, nil
		},
	}

	schema := collectorSchema()
	stats, err := newCollectorForTest(source, time.Now()).Collect(context.Background(), schema, fullSelections(schema))
	require.NoError(t, err)

	assert.ErrorIs(t, stats.BatchErrors[models.DimensionCompleteness], apperrors.ErrDimensionTimeout)
	assert.NotErrorIs(t, stats.BatchErrors[models.DimensionUniqueness], apperrors.ErrDimensionTimeout)
}

func TestCollect_UniquenessNotApplicableOnAllNull(t *testing.T) {
	source := &datasource.MockDataSource{
		CountRowsFunc: func(ctx context.Context, table string) (int64, error) {
			return 100, nil
		},
		NonNullCountsFunc: func(ctx context.Context, table string, columns []string) (map[string]int64, error) {
			return map[string]int64{"event_id": 0, "date_of_event": 100, "description": 100}, nil
		},
		DistinctCountsFunc: func(ctx context.Context, table string, columns []string) (map[string]datasource.DistinctCount, error) {
			return map[string]datasource.DistinctCount{
				"event_id": {Distinct: 0, NonNull: 0},
			}, nil
		},
	}

	schema := collectorSchema()
	stats, err := newCollectorForTest(source, time.Now()).Collect(context.Background(), schema, fullSelections(schema))
	require.NoError(t, err)

	_, ok := stats.Uniqueness["event_id"]
	assert.False(t, ok, "all-null column should have no uniqueness entry")
}

func TestCollect_TimelinessNotApplicableWithoutDates(t *testing.T) {
	source := &datasource.MockDataSource{
		CountRowsFunc: func(ctx context.Context, table string) (int64, error) {
			return 100, nil
		},
		NonNullCountsFunc: func(ctx context.Context, table string, columns []string) (map[string]int64, error) {
			return map[string]int64{"event_id": 100, "date_of_event": 0, "description": 100}, nil
		},
		LatestDateFunc: func(ctx context.Context, table, column string) (*time.Time, error) {
			return nil, nil
		},
	}

	schema := collectorSchema()
	stats, err := newCollectorForTest(source, time.Now()).Collect(context.Background(), schema, fullSelections(schema))
	require.NoError(t, err)

	assert.Empty(t, stats.Timeliness)
}

func TestCollect_TimelinessStepFunction(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	latest := now.AddDate(0, 0, -45)

	source := &datasource.MockDataSource{
		CountRowsFunc: func(ctx context.Context, table string) (int64, error) {
			return 100, nil
		},
		NonNullCountsFunc: func(ctx context.Context, table string, columns []string) (map[string]int64, error) {
			return map[string]int64{"event_id": 100, "date_of_event": 100, "description": 100}, nil
		},
		LatestDateFunc: func(ctx context.Context, table, column string) (*time.Time, error) {
			return &latest, nil
		},
	}

	schema := collectorSchema()
	stats, err := newCollectorForTest(source, now).Collect(context.Background(), schema, fullSelections(schema))
	require.NoError(t, err)

	tm := stats.Timeliness["date_of_event"]
	require.NotNil(t, tm)
	assert.Equal(t, 45, tm.DaysSinceLatest)
	assert.Equal(t, 85.0, tm.Score)
}

func TestTimelinessScore_Steps(t *testing.T) {
	tests := []struct {
		days int
		want float64
	}{
		{0, 100},
		{30, 100},
		{31, 85},
		{60, 85},
		{61, 70},
		{90, 70},
		{91, 50},
		{180, 50},
		{181, 25},
		{1000, 25},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TimelinessScore(tt.days), "days=%d", tt.days)
	}
}
