// Package schema holds the static registry of assessable incident-report
// schemas. The registry is built once at process start and never mutated.
package schema

import (
	"fmt"
	"sort"

	"github.com/fieldsafe/datahealth-engine/pkg/apperrors"
	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

// Registry resolves schema identifiers to their descriptors.
type Registry struct {
	schemas map[string]*models.SchemaDescriptor
}

// statusValues is the closed state set shared by all incident schemas.
var statusValues = []string{"Open", "In Progress", "Closed"}

// severityValues is the closed severity set for EI Tech and SRS events.
var severityValues = []string{"Low", "Medium", "High", "Critical"}

// NewRegistry builds the registry with the four built-in incident-report
// schemas: EI Tech, SRS, NI TCT, and the augmented NI TCT variant.
func NewRegistry() *Registry {
	schemas := map[string]*models.SchemaDescriptor{
		"ei_tech": {
			ID:    "ei_tech",
			Table: "unsafe_events_ei_tech",
			Columns: []models.ColumnDescriptor{
				{Name: "event_id", DataType: "varchar", Class: models.ClassIdentifier},
				{Name: "reporter_name", DataType: "varchar", Class: models.ClassFreeText},
				{Name: "reported_date", DataType: "date", Class: models.ClassDate},
				{Name: "branch", DataType: "varchar", Class: models.ClassCategorical},
				{Name: "region", DataType: "varchar", Class: models.ClassCategorical},
				{Name: "unsafe_event_type", DataType: "varchar", Class: models.ClassCategorical},
				{Name: "severity", DataType: "varchar", Class: models.ClassCategorical, AllowedValues: severityValues},
				{Name: "status", DataType: "varchar", Class: models.ClassCategorical, AllowedValues: statusValues},
				{Name: "site_name", DataType: "varchar", Class: models.ClassFreeText},
				{Name: "event_description", DataType: "text", Class: models.ClassFreeText},
				{Name: "corrective_action", DataType: "text", Class: models.ClassFreeText},
				{Name: "closed_date", DataType: "date", Class: models.ClassDate},
			},
			Critical: []string{"event_id", "reporter_name", "reported_date", "branch", "region", "unsafe_event_type"},
		},
		"srs": {
			ID:    "srs",
			Table: "unsafe_events_srs",
			Columns: []models.ColumnDescriptor{
				{Name: "event_id", DataType: "varchar", Class: models.ClassIdentifier},
				{Name: "reporter_name", DataType: "varchar", Class: models.ClassFreeText},
				{Name: "reported_date", DataType: "date", Class: models.ClassDate},
				{Name: "branch", DataType: "varchar", Class: models.ClassCategorical},
				{Name: "region", DataType: "varchar", Class: models.ClassCategorical},
				{Name: "unsafe_event_type", DataType: "varchar", Class: models.ClassCategorical},
				{Name: "severity", DataType: "varchar", Class: models.ClassCategorical, AllowedValues: severityValues},
				{Name: "status", DataType: "varchar", Class: models.ClassCategorical, AllowedValues: statusValues},
				{Name: "unsafe_act", DataType: "text", Class: models.ClassFreeText},
				{Name: "unsafe_condition", DataType: "text", Class: models.ClassFreeText},
				{Name: "work_stopped", DataType: "varchar", Class: models.ClassCategorical, AllowedValues: []string{"Yes", "No"}},
			},
			Critical: []string{"event_id", "reporter_name", "reported_date", "branch", "region", "unsafe_event_type"},
		},
		"ni_tct": {
			ID:    "ni_tct",
			Table: "unsafe_events_ni_tct",
			Columns: []models.ColumnDescriptor{
				{Name: "reporting_id", DataType: "varchar", Class: models.ClassIdentifier},
				{Name: "reporter_name", DataType: "varchar", Class: models.ClassFreeText},
				{Name: "created_on", DataType: "timestamp", Class: models.ClassDate},
				{Name: "branch_name", DataType: "varchar", Class: models.ClassCategorical},
				{Name: "region", DataType: "varchar", Class: models.ClassCategorical},
				{Name: "type_of_unsafe_event", DataType: "varchar", Class: models.ClassCategorical},
				{Name: "status", DataType: "varchar", Class: models.ClassCategorical, AllowedValues: statusValues},
				{Name: "location", DataType: "varchar", Class: models.ClassFreeText},
				{Name: "observation", DataType: "text", Class: models.ClassFreeText},
				{Name: "action_taken", DataType: "text", Class: models.ClassFreeText},
			},
			Critical: []string{"reporting_id", "reporter_name", "created_on", "branch_name", "region", "type_of_unsafe_event"},
		},
		"ni_tct_augmented": {
			ID:    "ni_tct_augmented",
			Table: "unsafe_events_ni_tct_augmented",
			Columns: []models.ColumnDescriptor{
				{Name: "reporting_id", DataType: "varchar", Class: models.ClassIdentifier},
				{Name: "reporter_name", DataType: "varchar", Class: models.ClassFreeText},
				{Name: "created_on", DataType: "timestamp", Class: models.ClassDate},
				{Name: "branch_name", DataType: "varchar", Class: models.ClassCategorical},
				{Name: "region", DataType: "varchar", Class: models.ClassCategorical},
				{Name: "type_of_unsafe_event", DataType: "varchar", Class: models.ClassCategorical},
				{Name: "status", DataType: "varchar", Class: models.ClassCategorical, AllowedValues: statusValues},
				{Name: "location", DataType: "varchar", Class: models.ClassFreeText},
				{Name: "observation", DataType: "text", Class: models.ClassFreeText},
				{Name: "action_taken", DataType: "text", Class: models.ClassFreeText},
				{Name: "risk_score", DataType: "numeric", Class: models.ClassFreeText},
				{Name: "augmentation_batch_no", DataType: "varchar", Class: models.ClassIdentifier},
			},
			Critical: []string{"reporting_id", "reporter_name", "created_on", "branch_name", "region", "type_of_unsafe_event"},
		},
	}

	return &Registry{schemas: schemas}
}

// Resolve returns the descriptor for the given schema identifier.
// Unknown identifiers return ErrUnsupportedSchema.
func (r *Registry) Resolve(schemaID string) (*models.SchemaDescriptor, error) {
	desc, ok := r.schemas[schemaID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedSchema, schemaID)
	}
	return desc, nil
}

// IDs returns the registered schema identifiers, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.schemas))
	for id := range r.schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
