package repositories

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

func TestNewRecord(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()
	report := &models.HealthReport{
		AssessmentID: id,
		SchemaID:     "ei_tech",
		TotalRecords: 1000,
		Timestamp:    now,
		Overall: models.OverallHealth{
			Score: 88.5,
			Grade: models.GradeExcellent,
			Dimensions: map[models.Dimension]models.DimensionAggregate{
				models.DimensionCompleteness: {Score: 95, ColumnsAssessed: 12},
				models.DimensionUniqueness:   {Score: 98, ColumnsAssessed: 1},
				models.DimensionTimeliness:   {Score: 0, ColumnsAssessed: 0},
			},
		},
	}

	record := NewRecord(report)

	assert.Equal(t, id, record.ID)
	assert.Equal(t, "ei_tech", record.SchemaID)
	assert.Equal(t, 88.5, record.OverallScore)
	assert.Equal(t, models.GradeExcellent, record.Grade)
	assert.Equal(t, int64(1000), record.TotalRecords)
	assert.Equal(t, now, record.AssessedAt)

	require.NotNil(t, record.CompletenessScore)
	assert.Equal(t, 95.0, *record.CompletenessScore)
	require.NotNil(t, record.UniquenessScore)
	assert.Equal(t, 98.0, *record.UniquenessScore)

	// Dimensions assessed on no column stay nil.
	assert.Nil(t, record.TimelinessScore)
	assert.Nil(t, record.ConsistencyScore)
	assert.Nil(t, record.ValidityScore)
}
