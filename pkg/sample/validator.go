// Package sample draws a bounded, deterministic row sample and evaluates
// the per-row consistency and validity checks that cannot be expressed as
// set-based aggregates.
package sample

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fieldsafe/datahealth-engine/pkg/adapters/datasource"
	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

// maxTextLength is the ceiling for free-text values in both pattern and
// business-rule checks.
const maxTextLength = 1000

// minYear is the oldest plausible incident year.
const minYear = 1900

// dateLayouts are the accepted date formats, in match order.
var dateLayouts = []string{"2006-01-02", "01/02/2006", "01-02-2006"}

// identifierPattern constrains identifier values to alphanumerics plus
// underscore and hyphen.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Results holds per-column consistency and validity metrics. A selected
// column missing from a map had no non-null sampled values (not applicable).
type Results struct {
	Consistency map[string]*models.ConsistencyMetrics
	Validity    map[string]*models.ValidityMetrics
	SampleSize  int
}

// Validator draws the shared sample and evaluates pattern and
// business-rule checks against it.
type Validator struct {
	source     datasource.DataSource
	sem        datasource.Semaphore
	timeout    time.Duration
	sampleSize int
	logger     *zap.Logger

	// now is injectable so future-date tests are deterministic.
	now func() time.Time
}

// New creates a sample validator sharing the run's data-source semaphore.
func New(source datasource.DataSource, sem datasource.Semaphore, sampleSize int, timeout time.Duration, logger *zap.Logger) *Validator {
	if sampleSize <= 0 {
		sampleSize = datasource.DefaultSampleLimit
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Validator{
		source:     source,
		sem:        sem,
		timeout:    timeout,
		sampleSize: sampleSize,
		logger:     logger.Named("sample"),
		now:        time.Now,
	}
}

// Draw fetches one primary-key-ordered sample shared by all column checks
// in the run. Repeated draws against unchanged data return identical rows.
func (v *Validator) Draw(ctx context.Context, schema *models.SchemaDescriptor) ([]datasource.Row, error) {
	if err := v.sem.Acquire(ctx); err != nil {
		return nil, err
	}
	defer v.sem.Release()

	opCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	rows, err := v.source.SampleRows(opCtx, schema.Table, schema.ColumnNames(), OrderColumn(schema), v.sampleSize)
	if err != nil {
		return nil, fmt.Errorf("draw sample: %w", err)
	}
	return rows, nil
}

// OrderColumn picks the deterministic sample ordering: the first
// identifier-like column, else the first column.
func OrderColumn(schema *models.SchemaDescriptor) string {
	for _, col := range schema.Columns {
		if col.IsIdentifierLike() {
			return col.Name
		}
	}
	return schema.Columns[0].Name
}

// Validate runs the consistency and validity checks for every column
// selected for them. Pure computation over the already-drawn sample; the
// sample is read-only and shared across columns.
func (v *Validator) Validate(sample []datasource.Row, schema *models.SchemaDescriptor, selections map[string]*models.DimensionSelection) *Results {
	results := &Results{
		Consistency: make(map[string]*models.ConsistencyMetrics),
		Validity:    make(map[string]*models.ValidityMetrics),
		SampleSize:  len(sample),
	}

	for _, col := range schema.Columns {
		sel, ok := selections[col.Name]
		if !ok {
			continue
		}

		checkConsistency := sel.ShouldCheck(models.DimensionConsistency)
		checkValidity := sel.ShouldCheck(models.DimensionValidity)
		if !checkConsistency && !checkValidity {
			continue
		}

		values := nonNullValues(sample, col.Name)
		if len(values) == 0 {
			// Zero non-null sampled values: both dimensions not applicable.
			continue
		}

		if checkConsistency {
			results.Consistency[col.Name] = v.checkConsistency(col, values)
		}
		if checkValidity {
			results.Validity[col.Name] = v.checkValidity(col, values)
		}
	}

	return results
}

// checkConsistency applies the pattern rule keyed to the structural class.
func (v *Validator) checkConsistency(col models.ColumnDescriptor, values []sampledValue) *models.ConsistencyMetrics {
	violations := 0
	for _, val := range values {
		if !v.consistent(col, val) {
			violations++
		}
	}

	checked := len(values)
	return &models.ConsistencyMetrics{
		Score:               models.ClampScore(100 * float64(checked-violations) / float64(checked)),
		PatternViolations:   violations,
		TotalChecked:        checked,
		ViolationPercentage: 100 * float64(violations) / float64(checked),
	}
}

func (v *Validator) consistent(col models.ColumnDescriptor, val sampledValue) bool {
	switch col.Class {
	case models.ClassDate:
		if val.isTime {
			return true
		}
		_, ok := parseDate(val.text)
		return ok
	case models.ClassIdentifier:
		return identifierPattern.MatchString(val.text)
	default:
		// Categorical and free text share the pattern rule: non-empty and
		// under the length ceiling.
		trimmed := strings.TrimSpace(val.text)
		return trimmed != "" && len(val.text) <= maxTextLength
	}
}

// checkValidity applies the business rules keyed to the structural class.
func (v *Validator) checkValidity(col models.ColumnDescriptor, values []sampledValue) *models.ValidityMetrics {
	invalid := 0
	for _, val := range values {
		if !v.valid(col, val) {
			invalid++
		}
	}

	checked := len(values)
	return &models.ValidityMetrics{
		Score:             models.ClampScore(100 * float64(checked-invalid) / float64(checked)),
		InvalidCount:      invalid,
		TotalChecked:      checked,
		InvalidPercentage: 100 * float64(invalid) / float64(checked),
	}
}

func (v *Validator) valid(col models.ColumnDescriptor, val sampledValue) bool {
	switch col.Class {
	case models.ClassDate:
		ts := val.time
		if !val.isTime {
			parsed, ok := parseDate(val.text)
			if !ok {
				return false
			}
			ts = parsed
		}
		return !ts.After(v.now()) && ts.Year() >= minYear
	case models.ClassIdentifier:
		return strings.TrimSpace(val.text) != ""
	case models.ClassCategorical:
		if len(col.AllowedValues) == 0 {
			return true
		}
		for _, allowed := range col.AllowedValues {
			if val.text == allowed {
				return true
			}
		}
		return false
	default:
		return len(val.text) <= maxTextLength
	}
}

// sampledValue carries a value in both string and, when available, native
// time form so date checks don't round-trip through formatting.
type sampledValue struct {
	text   string
	time   time.Time
	isTime bool
}

// nonNullValues extracts the column's non-null sampled values.
func nonNullValues(sample []datasource.Row, column string) []sampledValue {
	var values []sampledValue
	for _, row := range sample {
		raw, ok := row[column]
		if !ok || raw == nil {
			continue
		}
		values = append(values, toSampledValue(raw))
	}
	return values
}

func toSampledValue(raw any) sampledValue {
	switch v := raw.(type) {
	case time.Time:
		return sampledValue{text: v.Format("2006-01-02"), time: v, isTime: true}
	case string:
		return sampledValue{text: v}
	case []byte:
		return sampledValue{text: string(v)}
	default:
		return sampledValue{text: fmt.Sprint(v)}
	}
}

// parseDate tries the accepted date layouts in order.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
