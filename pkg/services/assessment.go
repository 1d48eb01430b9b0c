// Package services wires the assessment pipeline together: schema
// resolution, dimension selection, batch statistics, sample validation,
// scoring, and report assembly.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldsafe/datahealth-engine/pkg/adapters/datasource"
	"github.com/fieldsafe/datahealth-engine/pkg/apperrors"
	"github.com/fieldsafe/datahealth-engine/pkg/collector"
	"github.com/fieldsafe/datahealth-engine/pkg/config"
	"github.com/fieldsafe/datahealth-engine/pkg/issues"
	"github.com/fieldsafe/datahealth-engine/pkg/models"
	"github.com/fieldsafe/datahealth-engine/pkg/sample"
	"github.com/fieldsafe/datahealth-engine/pkg/schema"
	"github.com/fieldsafe/datahealth-engine/pkg/scoring"
	"github.com/fieldsafe/datahealth-engine/pkg/selector"
)

// AssessmentState names a stage of a run. Transitions are strictly
// forward; any stage may transition to StateError.
type AssessmentState string

const (
	StateInitialized         AssessmentState = "initialized"
	StateSchemaValidated     AssessmentState = "schema_validated"
	StateDimensionSelecting  AssessmentState = "dimension_selecting"
	StateStatisticsGathering AssessmentState = "statistics_gathering"
	StateSampleValidating    AssessmentState = "sample_validating"
	StateAggregating         AssessmentState = "aggregating"
	StateReporting           AssessmentState = "reporting"
	StateDone                AssessmentState = "done"
	StateError               AssessmentState = "error"
)

// AssessmentService runs complete data health assessments. One service
// instance is safe for concurrent runs: each run gets its own semaphore,
// collector, and validator, so budgets never leak across runs.
type AssessmentService struct {
	registry        *schema.Registry
	source          datasource.DataSource
	selector        selector.Selector
	semanticEnabled bool
	cfg             config.AssessmentConfig
	issues          *issues.Engine
	logger          *zap.Logger

	// now is injectable so report timestamps are deterministic in tests.
	now func() time.Time
}

// NewAssessmentService creates an assessment orchestrator. The selector
// is either rule-based or semantic; semanticEnabled only affects the
// performance metadata recorded on reports.
func NewAssessmentService(
	registry *schema.Registry,
	source datasource.DataSource,
	sel selector.Selector,
	semanticEnabled bool,
	cfg config.AssessmentConfig,
	logger *zap.Logger,
) *AssessmentService {
	return &AssessmentService{
		registry:        registry,
		source:          source,
		selector:        sel,
		semanticEnabled: semanticEnabled,
		cfg:             cfg,
		issues:          issues.NewEngine(cfg.TopIssues),
		logger:          logger.Named("assessment"),
		now:             time.Now,
	}
}

// Assess runs the full pipeline for one schema and returns the completed
// report. The report is assembled once at the end and never mutated
// afterwards; two runs against unchanged data produce identical scores.
//
// Unknown schemas and an unreachable data source are fatal. Everything
// else degrades: failed statistics batches, per-column selection
// failures, and a failed sample draw all mark the affected columns
// instead of aborting the run. An empty table returns an explicit empty
// report with a nil error.
func (s *AssessmentService) Assess(ctx context.Context, schemaID string) (*models.HealthReport, error) {
	start := s.now()
	state := s.transition(schemaID, StateInitialized)

	desc, err := s.registry.Resolve(schemaID)
	if err != nil {
		s.fail(schemaID, state, err)
		return nil, err
	}
	state = s.transition(schemaID, StateSchemaValidated)

	// Run-scoped budgets. The data source semaphore is shared by the
	// collector and the sample validator.
	sem := datasource.NewSemaphore(s.cfg.MaxDataSourceOps)

	state = s.transition(schemaID, StateDimensionSelecting)
	selStart := s.now()
	selections := s.selector.Select(ctx, desc)
	selSeconds := s.now().Sub(selStart).Seconds()

	state = s.transition(schemaID, StateStatisticsGathering)
	assessStart := s.now()
	coll := collector.New(s.source, sem, s.cfg.CheckTimeout, s.logger)
	stats, err := coll.Collect(ctx, desc, selections)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", apperrors.ErrDataSourceUnavailable, err)
		s.fail(schemaID, state, wrapped)
		return nil, wrapped
	}
	if stats.TotalRecords == 0 {
		s.transition(schemaID, StateReporting)
		report := s.emptyReport(schemaID, start, selSeconds)
		s.transition(schemaID, StateDone)
		s.logger.Info("Assessment complete on empty dataset",
			zap.String("schema_id", schemaID),
			zap.String("reason", apperrors.ErrEmptyDataset.Error()))
		return report, nil
	}

	state = s.transition(schemaID, StateSampleValidating)
	validator := sample.New(s.source, sem, s.cfg.SampleSize, s.cfg.CheckTimeout, s.logger)
	var sampleErr error
	var rows []datasource.Row
	if needsSample(selections) {
		rows, sampleErr = validator.Draw(ctx, desc)
		if sampleErr != nil {
			// Consistency and validity degrade for every column that
			// selected them; the run continues on batch statistics.
			sampleErr = apperrors.MarkTimeout(sampleErr)
			s.logger.Warn("Sample draw failed, degrading sample-based checks",
				zap.String("schema_id", schemaID),
				zap.Error(sampleErr))
		}
	}
	samples := validator.Validate(rows, desc, selections)

	s.transition(schemaID, StateAggregating)
	columns, allIssues := s.buildColumns(desc, selections, stats, samples, sampleErr)
	overall := scoring.Aggregate(columns)
	assessSeconds := s.now().Sub(assessStart).Seconds()

	s.transition(schemaID, StateReporting)
	critical, top, recs := s.issues.Summarize(columns, allIssues)

	report := &models.HealthReport{
		AssessmentID: uuid.New(),
		SchemaID:     schemaID,
		TotalRecords: stats.TotalRecords,
		Timestamp:    s.now().UTC(),
		Overall:      overall,
		Columns:      columns,
		Summary: models.Summary{
			CriticalFields:  critical,
			TopIssues:       top,
			Recommendations: recs,
			Optimization:    optimizationMetrics(desc, selections),
			SkipCounts:      skipCounts(selections),
			PriorityCounts:  priorityCounts(selections),
		},
		Metrics: models.PerformanceMetrics{
			SelectionSeconds:  selSeconds,
			AssessmentSeconds: assessSeconds,
			TotalSeconds:      s.now().Sub(start).Seconds(),
			MaxLLMConcurrency: s.cfg.MaxLLMConcurrency,
			MaxDataSourceOps:  s.cfg.MaxDataSourceOps,
			SemanticEnabled:   s.semanticEnabled,
		},
	}

	s.transition(schemaID, StateDone)
	s.logger.Info("Assessment complete",
		zap.String("schema_id", schemaID),
		zap.Float64("overall_score", report.Overall.Score),
		zap.String("grade", report.Overall.Grade),
		zap.Int64("total_records", report.TotalRecords),
		zap.Float64("total_seconds", report.Metrics.TotalSeconds))
	return report, nil
}

// buildColumns assembles one ColumnReport per schema column: selection
// metadata, whatever metrics were computed, the weighted column score,
// and the column's issues. Returns the reports plus all issues found.
func (s *AssessmentService) buildColumns(
	desc *models.SchemaDescriptor,
	selections map[string]*models.DimensionSelection,
	stats *collector.Stats,
	samples *sample.Results,
	sampleErr error,
) (map[string]*models.ColumnReport, []models.Issue) {
	columns := make(map[string]*models.ColumnReport, len(desc.Columns))
	var allIssues []models.Issue

	for _, cd := range desc.Columns {
		sel := selections[cd.Name]
		if sel == nil {
			sel = selector.SelectByRules(cd, desc.IsCritical(cd.Name))
			sel.FallbackApplied = true
		}

		col := &models.ColumnReport{
			Name:              cd.Name,
			DataType:          cd.DataType,
			IsCritical:        desc.IsCritical(cd.Name),
			DimensionsChecked: sel.Check,
			DimensionsSkipped: sel.Skip,
			Reasoning:         sel.Reasoning,
			Priority:          sel.Priority,
			FallbackApplied:   sel.FallbackApplied,
		}

		computed, failed := s.attachMetrics(col, sel, stats, samples, sampleErr)
		if computed == 0 && failed > 0 {
			// Every selected dimension failed. The column is excluded
			// from aggregation rather than dragging the score to zero.
			col.Error = fmt.Sprintf("%s: no dimension could be computed", apperrors.ErrColumnAssessment)
			col.FallbackApplied = true
			s.logger.Warn("Column excluded from aggregation",
				zap.String("column", cd.Name),
				zap.Int("failed_dimensions", failed))
		} else if score, ok := scoring.ColumnScore(col); ok {
			col.Score = score
		}

		allIssues = append(allIssues, s.issues.AnnotateColumn(col)...)
		columns[cd.Name] = col
	}
	return columns, allIssues
}

// attachMetrics copies the computed metrics for each selected dimension
// onto the column report. It returns how many selected dimensions were
// computed and how many failed outright (batch error or sample error);
// a dimension that is merely not applicable counts as neither.
func (s *AssessmentService) attachMetrics(
	col *models.ColumnReport,
	sel *models.DimensionSelection,
	stats *collector.Stats,
	samples *sample.Results,
	sampleErr error,
) (computed, failed int) {
	for _, d := range sel.Check {
		switch d {
		case models.DimensionCompleteness:
			if m := stats.Completeness[col.Name]; m != nil {
				col.Completeness = m
				computed++
			} else if stats.BatchErrors[d] != nil {
				failed++
			}
		case models.DimensionUniqueness:
			if m := stats.Uniqueness[col.Name]; m != nil {
				col.Uniqueness = m
				computed++
			} else if stats.BatchErrors[d] != nil {
				failed++
			}
		case models.DimensionTimeliness:
			if m := stats.Timeliness[col.Name]; m != nil {
				col.Timeliness = m
				computed++
			} else if stats.BatchErrors[d] != nil {
				failed++
			}
		case models.DimensionConsistency:
			if m := samples.Consistency[col.Name]; m != nil {
				col.Consistency = m
				computed++
			} else if sampleErr != nil {
				failed++
			}
		case models.DimensionValidity:
			if m := samples.Validity[col.Name]; m != nil {
				col.Validity = m
				computed++
			} else if sampleErr != nil {
				failed++
			}
		}
	}
	if failed > 0 {
		col.FallbackApplied = true
	}
	return computed, failed
}

// emptyReport is the explicit zero-record outcome: marked empty, zero
// score, no grade, no issues.
func (s *AssessmentService) emptyReport(schemaID string, start time.Time, selSeconds float64) *models.HealthReport {
	return &models.HealthReport{
		AssessmentID: uuid.New(),
		SchemaID:     schemaID,
		TotalRecords: 0,
		Timestamp:    s.now().UTC(),
		Empty:        true,
		Overall: models.OverallHealth{
			Score:      0,
			Grade:      models.GradeNone,
			Dimensions: map[models.Dimension]models.DimensionAggregate{},
		},
		Columns: map[string]*models.ColumnReport{},
		Summary: models.Summary{
			TopIssues: []models.Issue{},
			Recommendations: models.Recommendations{
				Immediate: []string{},
				ShortTerm: []string{},
				LongTerm:  []string{},
			},
		},
		Metrics: models.PerformanceMetrics{
			SelectionSeconds:  selSeconds,
			TotalSeconds:      s.now().Sub(start).Seconds(),
			MaxLLMConcurrency: s.cfg.MaxLLMConcurrency,
			MaxDataSourceOps:  s.cfg.MaxDataSourceOps,
			SemanticEnabled:   s.semanticEnabled,
		},
	}
}

func (s *AssessmentService) transition(schemaID string, to AssessmentState) AssessmentState {
	s.logger.Debug("State transition",
		zap.String("schema_id", schemaID),
		zap.String("state", string(to)))
	return to
}

func (s *AssessmentService) fail(schemaID string, from AssessmentState, err error) {
	s.logger.Error("Assessment failed",
		zap.String("schema_id", schemaID),
		zap.String("state", string(from)),
		zap.Error(err))
}

// needsSample reports whether any column selected a sample-based
// dimension; when none did the sample query is skipped entirely.
func needsSample(selections map[string]*models.DimensionSelection) bool {
	for _, sel := range selections {
		if sel.ShouldCheck(models.DimensionConsistency) || sel.ShouldCheck(models.DimensionValidity) {
			return true
		}
	}
	return false
}

func optimizationMetrics(desc *models.SchemaDescriptor, selections map[string]*models.DimensionSelection) models.OptimizationMetrics {
	possible := len(desc.Columns) * len(models.AllDimensions)
	run := 0
	for _, sel := range selections {
		run += len(sel.Check)
	}
	skipped := possible - run
	pct := 0.0
	if possible > 0 {
		pct = float64(skipped) / float64(possible) * 100
	}
	return models.OptimizationMetrics{
		ChecksPossible: possible,
		ChecksRun:      run,
		ChecksSkipped:  skipped,
		PercentSaved:   pct,
	}
}

func skipCounts(selections map[string]*models.DimensionSelection) map[models.Dimension]int {
	counts := make(map[models.Dimension]int)
	for _, sel := range selections {
		for _, d := range sel.Skip {
			counts[d]++
		}
	}
	return counts
}

func priorityCounts(selections map[string]*models.DimensionSelection) map[models.Priority]int {
	counts := make(map[models.Priority]int)
	for _, sel := range selections {
		counts[sel.Priority]++
	}
	return counts
}
