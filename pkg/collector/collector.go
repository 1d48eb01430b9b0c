// Package collector computes completeness, uniqueness, and timeliness
// inputs with the minimum number of round trips to the data source.
package collector

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fieldsafe/datahealth-engine/pkg/adapters/datasource"
	"github.com/fieldsafe/datahealth-engine/pkg/apperrors"
	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

// Stats is the batched statistics output for one run. Maps only contain
// entries for columns where the dimension was selected and computable;
// a selected column missing from a map is "not applicable".
type Stats struct {
	TotalRecords int64
	Completeness map[string]*models.CompletenessMetrics
	Uniqueness   map[string]*models.UniquenessMetrics
	Timeliness   map[string]*models.TimelinessMetrics

	// BatchErrors records batch-level failures by dimension. Affected
	// columns are degraded, not the whole run.
	BatchErrors map[models.Dimension]error
}

// Collector runs the aggregate statistics queries under a shared
// data-source concurrency budget.
type Collector struct {
	source  datasource.DataSource
	sem     datasource.Semaphore
	timeout time.Duration
	logger  *zap.Logger

	// now is injectable so freshness tests are deterministic.
	now func() time.Time
}

// New creates a collector. The semaphore is shared with the rest of the
// run; timeout caps each individual aggregate query.
func New(source datasource.DataSource, sem datasource.Semaphore, timeout time.Duration, logger *zap.Logger) *Collector {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Collector{
		source:  source,
		sem:     sem,
		timeout: timeout,
		logger:  logger.Named("collector"),
		now:     time.Now,
	}
}

// Collect runs the row count and the three statistics batches. The
// completeness, uniqueness, and timeliness batches run concurrently with
// each other under the shared semaphore. A zero row count returns
// immediately; the caller short-circuits to an empty report.
//
// Only the row count failure is returned as an error: without it nothing
// can be scored. Batch failures degrade into BatchErrors.
func (c *Collector) Collect(ctx context.Context, schema *models.SchemaDescriptor, selections map[string]*models.DimensionSelection) (*Stats, error) {
	total, err := c.countRows(ctx, schema.Table)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalRecords: total,
		Completeness: make(map[string]*models.CompletenessMetrics),
		Uniqueness:   make(map[string]*models.UniquenessMetrics),
		Timeliness:   make(map[string]*models.TimelinessMetrics),
		BatchErrors:  make(map[models.Dimension]error),
	}
	if total == 0 {
		return stats, nil
	}

	completenessCols := columnsSelectedFor(schema, selections, models.DimensionCompleteness)
	uniquenessCols := columnsSelectedFor(schema, selections, models.DimensionUniqueness)
	timelinessCols := dateColumnsSelectedFor(schema, selections)

	var wg sync.WaitGroup
	var mu sync.Mutex

	wg.Add(3)
	go func() {
		defer wg.Done()
		completeness, err := c.collectCompleteness(ctx, schema.Table, completenessCols, total)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			stats.BatchErrors[models.DimensionCompleteness] = apperrors.MarkTimeout(err)
			return
		}
		stats.Completeness = completeness
	}()
	go func() {
		defer wg.Done()
		uniqueness, err := c.collectUniqueness(ctx, schema.Table, uniquenessCols)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			stats.BatchErrors[models.DimensionUniqueness] = apperrors.MarkTimeout(err)
			return
		}
		stats.Uniqueness = uniqueness
	}()
	go func() {
		defer wg.Done()
		timeliness, err := c.collectTimeliness(ctx, schema.Table, timelinessCols)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			stats.BatchErrors[models.DimensionTimeliness] = apperrors.MarkTimeout(err)
			return
		}
		stats.Timeliness = timeliness
	}()
	wg.Wait()

	for dim, err := range stats.BatchErrors {
		c.logger.Warn("statistics batch failed",
			zap.String("dimension", string(dim)),
			zap.Error(err))
	}

	return stats, nil
}

func (c *Collector) countRows(ctx context.Context, table string) (int64, error) {
	if err := c.sem.Acquire(ctx); err != nil {
		return 0, err
	}
	defer c.sem.Release()

	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.source.CountRows(opCtx, table)
}

// collectCompleteness issues one aggregate query covering every selected
// column.
func (c *Collector) collectCompleteness(ctx context.Context, table string, columns []string, total int64) (map[string]*models.CompletenessMetrics, error) {
	if len(columns) == 0 {
		return map[string]*models.CompletenessMetrics{}, nil
	}

	if err := c.sem.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.sem.Release()

	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	counts, err := c.source.NonNullCounts(opCtx, table, columns)
	if err != nil {
		return nil, err
	}

	metrics := make(map[string]*models.CompletenessMetrics, len(counts))
	for col, nonNull := range counts {
		nullCount := total - nonNull
		metrics[col] = &models.CompletenessMetrics{
			Score:          models.ClampScore(100 * float64(nonNull) / float64(total)),
			NullCount:      nullCount,
			NonNullCount:   nonNull,
			NullPercentage: 100 * float64(nullCount) / float64(total),
		}
	}
	return metrics, nil
}

// collectUniqueness issues one aggregate query for the uniqueness-selected
// columns. Columns with zero non-null values get no entry: uniqueness of
// nothing is not applicable, not zero.
func (c *Collector) collectUniqueness(ctx context.Context, table string, columns []string) (map[string]*models.UniquenessMetrics, error) {
	if len(columns) == 0 {
		return map[string]*models.UniquenessMetrics{}, nil
	}

	if err := c.sem.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.sem.Release()

	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	counts, err := c.source.DistinctCounts(opCtx, table, columns)
	if err != nil {
		return nil, err
	}

	metrics := make(map[string]*models.UniquenessMetrics, len(counts))
	for col, pair := range counts {
		if pair.NonNull == 0 {
			continue
		}
		metrics[col] = &models.UniquenessMetrics{
			Score:          models.ClampScore(100 * float64(pair.Distinct) / float64(pair.NonNull)),
			UniqueCount:    pair.Distinct,
			DuplicateCount: pair.NonNull - pair.Distinct,
			TotalNonNull:   pair.NonNull,
		}
	}
	return metrics, nil
}

// collectTimeliness issues one max(date) query per eligible column. The
// per-column queries run concurrently under the shared semaphore. A
// column with no non-null dates gets no entry (not applicable).
func (c *Collector) collectTimeliness(ctx context.Context, table string, columns []string) (map[string]*models.TimelinessMetrics, error) {
	if len(columns) == 0 {
		return map[string]*models.TimelinessMetrics{}, nil
	}

	metrics := make(map[string]*models.TimelinessMetrics, len(columns))
	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for _, col := range columns {
		wg.Add(1)
		go func(col string) {
			defer wg.Done()

			if err := c.sem.Acquire(ctx); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			defer c.sem.Release()

			opCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			latest, err := c.source.LatestDate(opCtx, table, col)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			if latest == nil {
				return
			}

			days := daysSince(c.now(), *latest)
			metrics[col] = &models.TimelinessMetrics{
				Score:           TimelinessScore(days),
				DaysSinceLatest: days,
				LatestDate:      latest,
			}
		}(col)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return metrics, nil
}

// TimelinessScore maps days-since-latest onto the freshness step function.
func TimelinessScore(days int) float64 {
	switch {
	case days <= 30:
		return 100
	case days <= 60:
		return 85
	case days <= 90:
		return 70
	case days <= 180:
		return 50
	default:
		return 25
	}
}

// daysSince counts whole days between the latest date and now, never
// negative.
func daysSince(now, latest time.Time) int {
	days := int(math.Floor(now.Sub(latest).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// columnsSelectedFor returns the schema's columns selected for the given
// dimension, in declaration order.
func columnsSelectedFor(schema *models.SchemaDescriptor, selections map[string]*models.DimensionSelection, d models.Dimension) []string {
	var cols []string
	for _, col := range schema.Columns {
		if sel, ok := selections[col.Name]; ok && sel.ShouldCheck(d) {
			cols = append(cols, col.Name)
		}
	}
	return cols
}

// dateColumnsSelectedFor returns the date-typed columns selected for
// timeliness.
func dateColumnsSelectedFor(schema *models.SchemaDescriptor, selections map[string]*models.DimensionSelection) []string {
	var cols []string
	for _, col := range schema.Columns {
		if !col.IsDateLike() {
			continue
		}
		if sel, ok := selections[col.Name]; ok && sel.ShouldCheck(models.DimensionTimeliness) {
			cols = append(cols, col.Name)
		}
	}
	return cols
}
