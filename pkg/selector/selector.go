// Package selector decides which quality dimensions apply to each column
// of a schema. A rule-based selector is always available; a semantic
// selector delegates to a reasoning service and falls back to the rules
// per column on any failure.
package selector

import (
	"context"

	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

// Selector produces a DimensionSelection for every column of a schema.
// Selection never fails a run: implementations absorb per-column errors
// and degrade to rule-based defaults.
type Selector interface {
	Select(ctx context.Context, schema *models.SchemaDescriptor) map[string]*models.DimensionSelection
}
