package models

import "strings"

// StructuralClass is the closed set of column shapes the validators know
// how to check. The class is fixed at descriptor construction time so the
// rule dispatch never inspects runtime types.
type StructuralClass string

const (
	ClassIdentifier  StructuralClass = "identifier"
	ClassDate        StructuralClass = "date"
	ClassCategorical StructuralClass = "categorical"
	ClassFreeText    StructuralClass = "free_text"
)

// identifierIndicators are the name fragments that mark a column as
// identifier-like for uniqueness checking.
var identifierIndicators = []string{"id", "key", "number", "no", "reference"}

// ColumnDescriptor describes a single column of an incident-report schema.
// Immutable once the registry is built.
type ColumnDescriptor struct {
	Name          string          `json:"name"`
	DataType      string          `json:"data_type"`
	Class         StructuralClass `json:"class"`
	Description   string          `json:"description,omitempty"`
	AllowedValues []string        `json:"allowed_values,omitempty"`
}

// IsIdentifierLike reports whether the column name suggests an identifier
// (id, key, number, no, reference fragments).
func (c ColumnDescriptor) IsIdentifierLike() bool {
	lower := strings.ToLower(c.Name)
	for _, indicator := range identifierIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// IsDateLike reports whether the column holds date or datetime values,
// judged by structural class or declared type.
func (c ColumnDescriptor) IsDateLike() bool {
	if c.Class == ClassDate {
		return true
	}
	lower := strings.ToLower(c.DataType)
	return strings.Contains(lower, "date") || strings.Contains(lower, "time")
}

// HasBoundedValues reports whether a closed allowed-value set exists.
func (c ColumnDescriptor) HasBoundedValues() bool {
	return len(c.AllowedValues) > 0
}

// SchemaDescriptor is the static description of one incident-report schema:
// its backing table, ordered columns, and the designated critical columns.
type SchemaDescriptor struct {
	ID       string             `json:"id"`
	Table    string             `json:"table"`
	Columns  []ColumnDescriptor `json:"columns"`
	Critical []string           `json:"critical"`
}

// IsCritical reports whether the named column is in the critical set.
func (s *SchemaDescriptor) IsCritical(column string) bool {
	for _, c := range s.Critical {
		if c == column {
			return true
		}
	}
	return false
}

// Column returns the descriptor for the named column, if present.
func (s *SchemaDescriptor) Column(name string) (ColumnDescriptor, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// ColumnNames returns the column names in declaration order.
func (s *SchemaDescriptor) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
