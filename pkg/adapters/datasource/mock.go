package datasource

import (
	"context"
	"time"
)

// MockDataSource is a configurable mock for testing the collector and
// orchestrator. Set the function fields to control behavior in tests.
type MockDataSource struct {
	TestConnectionFunc func(ctx context.Context) error
	CountRowsFunc      func(ctx context.Context, table string) (int64, error)
	NonNullCountsFunc  func(ctx context.Context, table string, columns []string) (map[string]int64, error)
	DistinctCountsFunc func(ctx context.Context, table string, columns []string) (map[string]DistinctCount, error)
	LatestDateFunc     func(ctx context.Context, table, column string) (*time.Time, error)
	SampleRowsFunc     func(ctx context.Context, table string, columns []string, orderBy string, limit int) ([]Row, error)

	// Call tracking for verification
	CountRowsCalls      int
	NonNullCountsCalls  int
	DistinctCountsCalls int
	LatestDateCalls     int
	SampleRowsCalls     int
}

// NewMockDataSource creates a new mock with no-op defaults.
func NewMockDataSource() *MockDataSource {
	return &MockDataSource{}
}

// TestConnection implements DataSource.
func (m *MockDataSource) TestConnection(ctx context.Context) error {
	if m.TestConnectionFunc != nil {
		return m.TestConnectionFunc(ctx)
	}
	return nil
}

// CountRows implements DataSource.
func (m *MockDataSource) CountRows(ctx context.Context, table string) (int64, error) {
	m.CountRowsCalls++
	if m.CountRowsFunc != nil {
		return m.CountRowsFunc(ctx, table)
	}
	return 0, nil
}

// NonNullCounts implements DataSource.
func (m *MockDataSource) NonNullCounts(ctx context.Context, table string, columns []string) (map[string]int64, error) {
	m.NonNullCountsCalls++
	if m.NonNullCountsFunc != nil {
		return m.NonNullCountsFunc(ctx, table, columns)
	}
	return map[string]int64{}, nil
}

// DistinctCounts implements DataSource.
func (m *MockDataSource) DistinctCounts(ctx context.Context, table string, columns []string) (map[string]DistinctCount, error) {
	m.DistinctCountsCalls++
	if m.DistinctCountsFunc != nil {
		return m.DistinctCountsFunc(ctx, table, columns)
	}
	return map[string]DistinctCount{}, nil
}

// LatestDate implements DataSource.
func (m *MockDataSource) LatestDate(ctx context.Context, table, column string) (*time.Time, error) {
	m.LatestDateCalls++
	if m.LatestDateFunc != nil {
		return m.LatestDateFunc(ctx, table, column)
	}
	return nil, nil
}

// SampleRows implements DataSource.
func (m *MockDataSource) SampleRows(ctx context.Context, table string, columns []string, orderBy string, limit int) ([]Row, error) {
	m.SampleRowsCalls++
	if m.SampleRowsFunc != nil {
		return m.SampleRowsFunc(ctx, table, columns, orderBy, limit)
	}
	return nil, nil
}

// QuoteIdentifier implements DataSource.
func (m *MockDataSource) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

// Close implements DataSource.
func (m *MockDataSource) Close() error {
	return nil
}

// Ensure MockDataSource implements DataSource at compile time.
var _ DataSource = (*MockDataSource)(nil)
