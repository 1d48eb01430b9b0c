// Package mssql implements the datasource adapter over SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/fieldsafe/datahealth-engine/pkg/adapters/datasource"
	"github.com/fieldsafe/datahealth-engine/pkg/config"
	"github.com/fieldsafe/datahealth-engine/pkg/logging"
)

func init() {
	datasource.Register("mssql", func(ctx context.Context, cfg *config.SourceConfig) (datasource.DataSource, error) {
		return NewAdapter(ctx, cfg)
	})
}

// Adapter provides SQL Server connectivity for statistics and sampling.
type Adapter struct {
	config *config.SourceConfig
	db     *sql.DB
}

// buildConnectionString builds a sqlserver:// URL with escaped credentials.
func buildConnectionString(cfg *config.SourceConfig) string {
	query := url.Values{}
	query.Add("database", cfg.Database)

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		query.Encode(),
	)
}

// NewAdapter creates a SQL Server adapter.
func NewAdapter(_ context.Context, cfg *config.SourceConfig) (*Adapter, error) {
	// Driver errors can echo the DSN with credentials; sanitize before
	// the error leaves the adapter.
	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %s", logging.SanitizeError(err))
	}

	return &Adapter{
		config: cfg,
		db:     db,
	}, nil
}

// TestConnection verifies the database is reachable with valid credentials.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := a.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	return nil
}

// CountRows implements datasource.DataSource.
func (a *Adapter) CountRows(ctx context.Context, table string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT_BIG(*) FROM %s", a.QuoteIdentifier(table))

	var count int64
	if err := a.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return count, nil
}

// NonNullCounts implements datasource.DataSource.
func (a *Adapter) NonNullCounts(ctx context.Context, table string, columns []string) (map[string]int64, error) {
	if len(columns) == 0 {
		return map[string]int64{}, nil
	}

	exprs := make([]string, len(columns))
	for i, col := range columns {
		exprs[i] = fmt.Sprintf("COUNT_BIG(%s)", a.QuoteIdentifier(col))
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), a.QuoteIdentifier(table))

	counts := make([]int64, len(columns))
	dest := make([]any, len(columns))
	for i := range counts {
		dest[i] = &counts[i]
	}

	if err := a.db.QueryRowContext(ctx, query).Scan(dest...); err != nil {
		return nil, fmt.Errorf("non-null counts for %s: %w", table, err)
	}

	result := make(map[string]int64, len(columns))
	for i, col := range columns {
		result[col] = counts[i]
	}
	return result, nil
}

// DistinctCounts implements datasource.DataSource.
func (a *Adapter) DistinctCounts(ctx context.Context, table string, columns []string) (map[string]datasource.DistinctCount, error) {
	if len(columns) == 0 {
		return map[string]datasource.DistinctCount{}, nil
	}

	exprs := make([]string, 0, len(columns)*2)
	for _, col := range columns {
		quoted := a.QuoteIdentifier(col)
		exprs = append(exprs,
			fmt.Sprintf("COUNT_BIG(DISTINCT %s)", quoted),
			fmt.Sprintf("COUNT_BIG(%s)", quoted))
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), a.QuoteIdentifier(table))

	counts := make([]int64, len(columns)*2)
	dest := make([]any, len(counts))
	for i := range counts {
		dest[i] = &counts[i]
	}

	if err := a.db.QueryRowContext(ctx, query).Scan(dest...); err != nil {
		return nil, fmt.Errorf("distinct counts for %s: %w", table, err)
	}

	result := make(map[string]datasource.DistinctCount, len(columns))
	for i, col := range columns {
		result[col] = datasource.DistinctCount{
			Distinct: counts[i*2],
			NonNull:  counts[i*2+1],
		}
	}
	return result, nil
}

// LatestDate implements datasource.DataSource.
func (a *Adapter) LatestDate(ctx context.Context, table, column string) (*time.Time, error) {
	query := fmt.Sprintf("SELECT MAX(%s) FROM %s",
		a.QuoteIdentifier(column), a.QuoteIdentifier(table))

	var latest sql.NullTime
	if err := a.db.QueryRowContext(ctx, query).Scan(&latest); err != nil {
		return nil, fmt.Errorf("latest date for %s.%s: %w", table, column, err)
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// SampleRows implements datasource.DataSource. Uses TOP instead of LIMIT.
func (a *Adapter) SampleRows(ctx context.Context, table string, columns []string, orderBy string, limit int) ([]datasource.Row, error) {
	if len(columns) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = datasource.DefaultSampleLimit
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = a.QuoteIdentifier(col)
	}
	query := fmt.Sprintf("SELECT TOP (%d) %s FROM %s ORDER BY %s",
		limit, strings.Join(quoted, ", "), a.QuoteIdentifier(table), a.QuoteIdentifier(orderBy))

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sample rows from %s: %w", table, err)
	}
	defer rows.Close()

	sample := make([]datasource.Row, 0, limit)
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}

		row := make(datasource.Row, len(columns))
		for i, col := range columns {
			val := values[i]
			// Text columns come back as []byte from the driver.
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		sample = append(sample, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sample rows: %w", err)
	}

	return sample, nil
}

// QuoteIdentifier quotes a SQL Server identifier with brackets.
func (a *Adapter) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Close releases the connection.
func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Ensure Adapter implements DataSource at compile time.
var _ datasource.DataSource = (*Adapter)(nil)
