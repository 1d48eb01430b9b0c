package selector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldsafe/datahealth-engine/pkg/apperrors"
	"github.com/fieldsafe/datahealth-engine/pkg/llm"
	"github.com/fieldsafe/datahealth-engine/pkg/models"
	"github.com/fieldsafe/datahealth-engine/pkg/prompts"
	"github.com/fieldsafe/datahealth-engine/pkg/semantics"
)

// selectionTemperature keeps reasoning-service output near-deterministic.
const selectionTemperature = 0.1

// selectionResponse is the JSON shape the reasoning service must return.
type selectionResponse struct {
	DimensionsToCheck []string          `json:"dimensions_to_check"`
	DimensionsToSkip  []string          `json:"dimensions_to_skip"`
	Reasoning         map[string]string `json:"reasoning"`
	Priority          string            `json:"priority"`
}

// semanticSelector asks a reasoning service which dimensions to check per
// column, with bounded concurrency and a per-call timeout. Any per-column
// failure (timeout, malformed response, service error) falls back to the
// rule-based selection for that column only.
type semanticSelector struct {
	client      llm.LLMClient
	pool        *llm.WorkerPool
	store       *semantics.Store
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewSemantic creates a reasoning-backed selector. maxConcurrent bounds
// simultaneous service calls; callTimeout caps each individual call.
func NewSemantic(
	client llm.LLMClient,
	store *semantics.Store,
	maxConcurrent int,
	callTimeout time.Duration,
	logger *zap.Logger,
) Selector {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &semanticSelector{
		client:      client,
		pool:        llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: maxConcurrent}, logger),
		store:       store,
		callTimeout: callTimeout,
		logger:      logger.Named("selector"),
	}
}

// Select implements Selector.
func (s *semanticSelector) Select(ctx context.Context, schema *models.SchemaDescriptor) map[string]*models.DimensionSelection {
	// Semantic allowed-value sets feed both the prompts and any rule-based
	// fallback, so bounded categoricals keep their consistency check even
	// when the service is down.
	schema = s.store.Enrich(schema)

	items := make([]llm.WorkItem[*models.DimensionSelection], 0, len(schema.Columns))
	for _, col := range schema.Columns {
		items = append(items, llm.WorkItem[*models.DimensionSelection]{
			ID: col.Name,
			Execute: func(ctx context.Context) (*models.DimensionSelection, error) {
				return s.selectColumn(ctx, schema, col)
			},
		})
	}

	results := llm.Process(ctx, s.pool, items, nil)

	selections := make(map[string]*models.DimensionSelection, len(schema.Columns))
	fallbacks := 0
	for _, r := range results {
		if r.Err != nil || r.Result == nil {
			if r.Err != nil {
				s.logger.Warn("falling back to rule-based selection",
					zap.String("column", r.ID),
					zap.Error(r.Err))
			}
			col, _ := schema.Column(r.ID)
			sel := SelectByRules(col, schema.IsCritical(r.ID))
			sel.FallbackApplied = true
			selections[r.ID] = sel
			fallbacks++
			continue
		}
		selections[r.ID] = r.Result
	}

	s.logger.Info("dimension selection completed",
		zap.String("schema", schema.ID),
		zap.Int("columns", len(selections)),
		zap.Int("fallbacks", fallbacks))

	return selections
}

// selectColumn runs one reasoning-service call. Service failures and
// malformed responses come back as ErrReasoningService; the caller
// degrades them to rule-based selection per column.
func (s *semanticSelector) selectColumn(ctx context.Context, schema *models.SchemaDescriptor, col models.ColumnDescriptor) (*models.DimensionSelection, error) {
	critical := schema.IsCritical(col.Name)

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	prompt := prompts.BuildDimensionSelectionPrompt(s.columnContext(schema.ID, col, critical))
	system := prompts.BuildDimensionSelectionSystemMessage()

	response, err := s.client.GenerateResponse(callCtx, prompt, system, selectionTemperature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrReasoningService, err)
	}

	sel, err := s.parseSelection(col.Name, response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrReasoningService, err)
	}

	sel.Priority = resolvePriority(sel.Priority, critical)
	if critical {
		enforceCriticalOverride(sel)
	}
	return sel, nil
}

// columnContext assembles prompt context from the descriptor plus any
// semantic metadata on file.
func (s *semanticSelector) columnContext(schemaID string, col models.ColumnDescriptor, critical bool) prompts.ColumnContext {
	cc := prompts.ColumnContext{
		Name:          col.Name,
		DataType:      col.DataType,
		Description:   col.Description,
		Critical:      critical,
		AllowedValues: col.AllowedValues,
	}

	if entry, ok := s.store.Column(schemaID, col.Name); ok {
		if entry.Description != "" {
			cc.Description = entry.Description
		}
		cc.SampleValues = entry.SampleValues
		cc.MinValue = entry.Min
		cc.MaxValue = entry.Max
		cc.Note = entry.Note
		if len(entry.AllowedValues) > 0 && len(cc.AllowedValues) == 0 {
			cc.AllowedValues = entry.AllowedValues
		}
	}

	return cc
}

// parseSelection validates the JSON response and converts it to the model.
func (s *semanticSelector) parseSelection(column, response string) (*models.DimensionSelection, error) {
	parsed, err := llm.ParseJSONResponse[selectionResponse](response)
	if err != nil {
		return nil, err
	}

	if len(parsed.DimensionsToCheck) == 0 {
		return nil, fmt.Errorf("response selected no dimensions")
	}
	if parsed.Reasoning == nil {
		return nil, fmt.Errorf("response missing reasoning")
	}

	check, err := toDimensions(parsed.DimensionsToCheck)
	if err != nil {
		return nil, err
	}
	skip, err := toDimensions(parsed.DimensionsToSkip)
	if err != nil {
		return nil, err
	}

	reasoning := make(map[models.Dimension]string, len(parsed.Reasoning))
	for name, why := range parsed.Reasoning {
		d := models.Dimension(name)
		if d.IsValid() {
			reasoning[d] = why
		}
	}

	return &models.DimensionSelection{
		Column:    column,
		Check:     check,
		Skip:      skip,
		Reasoning: reasoning,
		Priority:  models.Priority(parsed.Priority),
		Source:    models.SelectionSemantic,
	}, nil
}

// toDimensions converts and validates dimension names. Unknown names make
// the whole response malformed rather than being silently dropped.
func toDimensions(names []string) ([]models.Dimension, error) {
	dims := make([]models.Dimension, 0, len(names))
	for _, name := range names {
		d := models.Dimension(name)
		if !d.IsValid() {
			return nil, fmt.Errorf("unknown dimension %q", name)
		}
		dims = append(dims, d)
	}
	return dims, nil
}

// resolvePriority sanitizes the service-provided priority. Critical columns
// always carry critical priority regardless of what the service said.
func resolvePriority(p models.Priority, critical bool) models.Priority {
	if critical {
		return models.PriorityCritical
	}
	if !p.IsValid() {
		return models.PriorityMedium
	}
	return p
}

// enforceCriticalOverride guarantees completeness and validity are checked
// for critical columns even when the service recommends skipping them.
func enforceCriticalOverride(sel *models.DimensionSelection) {
	for _, required := range []models.Dimension{models.DimensionCompleteness, models.DimensionValidity} {
		if !sel.ShouldCheck(required) {
			sel.Check = append(sel.Check, required)
		}
	}

	filtered := sel.Skip[:0]
	for _, d := range sel.Skip {
		if d != models.DimensionCompleteness && d != models.DimensionValidity {
			filtered = append(filtered, d)
		}
	}
	sel.Skip = filtered
}
