package semantics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

const sampleYAML = `
schemas:
  ei_tech:
    event_id:
      description: "Unique identifier assigned to each unsafe event"
    region:
      description: "Geographic region of the reporting branch"
      allowed_values: ["North", "South", "East", "West"]
`

func writeSemantics(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "semantics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAndLookup(t *testing.T) {
	store, err := Load(writeSemantics(t, sampleYAML))
	require.NoError(t, err)

	entry, ok := store.Column("ei_tech", "event_id")
	require.True(t, ok)
	assert.Contains(t, entry.Description, "Unique identifier")

	_, ok = store.Column("ei_tech", "nonexistent")
	assert.False(t, ok)

	_, ok = store.Column("unknown_schema", "event_id")
	assert.False(t, ok)
}

func TestLoadOrEmptyMissingFile(t *testing.T) {
	store, err := LoadOrEmpty(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	_, ok := store.Column("ei_tech", "event_id")
	assert.False(t, ok)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeSemantics(t, "schemas: [not, a, map"))
	require.Error(t, err)
}

func TestEnrich(t *testing.T) {
	store, err := Load(writeSemantics(t, sampleYAML))
	require.NoError(t, err)

	desc := &models.SchemaDescriptor{
		ID:    "ei_tech",
		Table: "unsafe_events_ei_tech",
		Columns: []models.ColumnDescriptor{
			{Name: "event_id", DataType: "varchar", Class: models.ClassIdentifier},
			{Name: "region", DataType: "varchar", Class: models.ClassCategorical},
			{Name: "status", DataType: "varchar", Class: models.ClassCategorical, AllowedValues: []string{"Open"}},
		},
	}

	enriched := store.Enrich(desc)

	// Original descriptor untouched.
	assert.Empty(t, desc.Columns[0].Description)

	assert.Contains(t, enriched.Columns[0].Description, "Unique identifier")
	assert.Equal(t, []string{"North", "South", "East", "West"}, enriched.Columns[1].AllowedValues)
	// Registry-declared values win.
	assert.Equal(t, []string{"Open"}, enriched.Columns[2].AllowedValues)
}
