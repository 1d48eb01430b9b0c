// Package semantics loads the column metadata file that enriches schema
// descriptors with natural-language descriptions and allowed-value sets.
// The store is a read-only lookup: a missing entry is never an error, it
// just means selection degrades to the rule-based path for that column.
package semantics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

// Entry is the semantic metadata for one column.
type Entry struct {
	Description   string   `yaml:"description"`
	AllowedValues []string `yaml:"allowed_values,omitempty"`
	SampleValues  []string `yaml:"sample_values,omitempty"`
	Min           string   `yaml:"min,omitempty"`
	Max           string   `yaml:"max,omitempty"`
	Note          string   `yaml:"note,omitempty"`
}

// Store is the loaded semantics map: schema id -> column name -> entry.
type Store struct {
	schemas map[string]map[string]Entry
}

type fileFormat struct {
	Schemas map[string]map[string]Entry `yaml:"schemas"`
}

// NewEmpty returns a store with no entries. All lookups miss.
func NewEmpty() *Store {
	return &Store{schemas: map[string]map[string]Entry{}}
}

// Load reads a semantics YAML file.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read semantics file: %w", err)
	}

	var parsed fileFormat
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse semantics file: %w", err)
	}

	if parsed.Schemas == nil {
		parsed.Schemas = map[string]map[string]Entry{}
	}
	return &Store{schemas: parsed.Schemas}, nil
}

// LoadOrEmpty reads the semantics file if it exists and returns an empty
// store when it does not.
func LoadOrEmpty(path string) (*Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewEmpty(), nil
	}
	return Load(path)
}

// Column returns the entry for (schemaID, column) if one exists.
func (s *Store) Column(schemaID, column string) (Entry, bool) {
	cols, ok := s.schemas[schemaID]
	if !ok {
		return Entry{}, false
	}
	entry, ok := cols[column]
	return entry, ok
}

// Enrich returns a copy of the descriptor with descriptions and allowed
// values filled in from the store. Registry-declared allowed values win
// over semantic ones.
func (s *Store) Enrich(desc *models.SchemaDescriptor) *models.SchemaDescriptor {
	enriched := &models.SchemaDescriptor{
		ID:       desc.ID,
		Table:    desc.Table,
		Columns:  make([]models.ColumnDescriptor, len(desc.Columns)),
		Critical: desc.Critical,
	}
	copy(enriched.Columns, desc.Columns)

	for i := range enriched.Columns {
		entry, ok := s.Column(desc.ID, enriched.Columns[i].Name)
		if !ok {
			continue
		}
		if enriched.Columns[i].Description == "" {
			enriched.Columns[i].Description = entry.Description
		}
		if len(enriched.Columns[i].AllowedValues) == 0 && len(entry.AllowedValues) > 0 {
			enriched.Columns[i].AllowedValues = entry.AllowedValues
		}
	}
	return enriched
}
