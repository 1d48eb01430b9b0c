package apperrors

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedSchema is returned when a schema identifier is not in the
	// registry. Caller error, never retried.
	ErrUnsupportedSchema = errors.New("unsupported schema")

	// ErrEmptyDataset signals that the assessed table has zero records.
	// Yields an explicit empty report rather than a failure.
	ErrEmptyDataset = errors.New("dataset is empty")

	// ErrDataSourceUnavailable is returned when the data source cannot be
	// reached at all. Fatal to the run, retryable by the caller.
	ErrDataSourceUnavailable = errors.New("data source unavailable")

	// ErrDimensionTimeout marks a single dimension check that exceeded its
	// budget. Recovered locally with a fallback result.
	ErrDimensionTimeout = errors.New("dimension check timed out")

	// ErrReasoningService marks a failed or malformed reasoning-service call.
	// Recovered locally via rule-based selection.
	ErrReasoningService = errors.New("reasoning service error")

	// ErrColumnAssessment marks a column whose assessment failed entirely.
	// The column is excluded from aggregation.
	ErrColumnAssessment = errors.New("column assessment failed")
)

// MarkTimeout tags budget overruns with ErrDimensionTimeout so degraded
// results can be told apart from hard query failures. Other errors pass
// through unchanged.
func MarkTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrDimensionTimeout, err)
	}
	return err
}
