// Package datasource defines the adapter contract over incident-report
// data stores. Adapters translate the engine's batched statistics and
// sampling operations into dialect-specific SQL.
package datasource

import (
	"context"
	"time"
)

// DefaultSampleLimit caps the sample drawn for per-row validation.
const DefaultSampleLimit = 500

// DistinctCount pairs the distinct and non-null counts for one column.
type DistinctCount struct {
	Distinct int64 `json:"distinct"`
	NonNull  int64 `json:"non_null"`
}

// Row is a single sampled row keyed by column name. NULL values are nil.
type Row map[string]any

// DataSource executes the batched statistics queries and the bounded
// deterministic sample draw against one incident table. Each
// implementation owns its connection and must be closed when done.
type DataSource interface {
	// TestConnection verifies the database is reachable with valid
	// credentials. Returns nil if the connection is healthy.
	TestConnection(ctx context.Context) error

	// CountRows returns the total row count of the table.
	CountRows(ctx context.Context, table string) (int64, error)

	// NonNullCounts returns non-null counts for every listed column in a
	// single aggregate query.
	NonNullCounts(ctx context.Context, table string, columns []string) (map[string]int64, error)

	// DistinctCounts returns distinct/non-null count pairs for the listed
	// columns in a single aggregate query.
	DistinctCounts(ctx context.Context, table string, columns []string) (map[string]DistinctCount, error)

	// LatestDate returns max(column) for a date/datetime column, or nil
	// when the column has no non-null values.
	LatestDate(ctx context.Context, table, column string) (*time.Time, error)

	// SampleRows draws up to limit rows of the listed columns, ordered by
	// orderBy so repeated draws against unchanged data are identical.
	SampleRows(ctx context.Context, table string, columns []string, orderBy string, limit int) ([]Row, error)

	// QuoteIdentifier safely quotes a SQL identifier (table or column
	// name) using dialect-specific quoting.
	QuoteIdentifier(name string) string

	// Close releases the underlying connection.
	Close() error
}
