// Package postgres implements the datasource adapter over pgx.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldsafe/datahealth-engine/pkg/adapters/datasource"
	"github.com/fieldsafe/datahealth-engine/pkg/config"
	"github.com/fieldsafe/datahealth-engine/pkg/logging"
)

func init() {
	datasource.Register("postgres", func(ctx context.Context, cfg *config.SourceConfig) (datasource.DataSource, error) {
		return NewAdapter(ctx, cfg)
	})
}

// Adapter provides PostgreSQL connectivity for statistics and sampling.
type Adapter struct {
	config *config.SourceConfig
	pool   *pgxpool.Pool
}

// buildConnectionString builds a PostgreSQL URL with proper escaping.
// All user-provided fields must be URL-escaped to handle special characters
// in passwords (e.g., @, /, #, ?) that would otherwise break URL parsing.
func buildConnectionString(cfg *config.SourceConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		url.QueryEscape(cfg.Database),
		sslMode,
	)
}

// NewAdapter creates a PostgreSQL adapter with its own pool.
func NewAdapter(ctx context.Context, cfg *config.SourceConfig) (*Adapter, error) {
	// pgx errors can echo the DSN with credentials; sanitize before the
	// error leaves the adapter.
	pool, err := pgxpool.New(ctx, buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %s", logging.SanitizeError(err))
	}

	return &Adapter{
		config: cfg,
		pool:   pool,
	}, nil
}

// TestConnection verifies the database is reachable with valid credentials.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := a.pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	return nil
}

// CountRows implements datasource.DataSource.
func (a *Adapter) CountRows(ctx context.Context, table string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", a.QuoteIdentifier(table))

	var count int64
	if err := a.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return count, nil
}

// NonNullCounts implements datasource.DataSource. One aggregate query
// covers every column: COUNT(col) skips NULLs.
func (a *Adapter) NonNullCounts(ctx context.Context, table string, columns []string) (map[string]int64, error) {
	if len(columns) == 0 {
		return map[string]int64{}, nil
	}

	exprs := make([]string, len(columns))
	for i, col := range columns {
		exprs[i] = fmt.Sprintf("COUNT(%s)", a.QuoteIdentifier(col))
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), a.QuoteIdentifier(table))

	counts := make([]int64, len(columns))
	dest := make([]any, len(columns))
	for i := range counts {
		dest[i] = &counts[i]
	}

	if err := a.pool.QueryRow(ctx, query).Scan(dest...); err != nil {
		return nil, fmt.Errorf("non-null counts for %s: %w", table, err)
	}

	result := make(map[string]int64, len(columns))
	for i, col := range columns {
		result[col] = counts[i]
	}
	return result, nil
}

// DistinctCounts implements datasource.DataSource. One aggregate query
// returns distinct and non-null counts for all listed columns.
func (a *Adapter) DistinctCounts(ctx context.Context, table string, columns []string) (map[string]datasource.DistinctCount, error) {
	if len(columns) == 0 {
		return map[string]datasource.DistinctCount{}, nil
	}

	exprs := make([]string, 0, len(columns)*2)
	for _, col := range columns {
		quoted := a.QuoteIdentifier(col)
		exprs = append(exprs,
			fmt.Sprintf("COUNT(DISTINCT %s)", quoted),
			fmt.Sprintf("COUNT(%s)", quoted))
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), a.QuoteIdentifier(table))

	counts := make([]int64, len(columns)*2)
	dest := make([]any, len(counts))
	for i := range counts {
		dest[i] = &counts[i]
	}

	if err := a.pool.QueryRow(ctx, query).Scan(dest...); err != nil {
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

	var latest *time.Time
	if err := a.pool.QueryRow(ctx, query).Scan(&latest); err != nil {
		return nil, fmt.Errorf("latest date for %s.%s: %w", table, column, err)
	}
	return latest, nil
}

// SampleRows implements datasource.DataSource. Rows come back in orderBy
// order so repeated draws against unchanged data are identical.
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
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %d",
		strings.Join(quoted, ", "), a.QuoteIdentifier(table), a.QuoteIdentifier(orderBy), limit)

	rows, err := a.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sample rows from %s: %w", table, err)
	}
	defer rows.Close()

	sample := make([]datasource.Row, 0, limit)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}

		row := make(datasource.Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		sample = append(sample, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sample rows: %w", err)
	}

	return sample, nil
}

// QuoteIdentifier quotes a PostgreSQL identifier.
func (a *Adapter) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Close releases the pool.
func (a *Adapter) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

// Ensure Adapter implements DataSource at compile time.
var _ datasource.DataSource = (*Adapter)(nil)
