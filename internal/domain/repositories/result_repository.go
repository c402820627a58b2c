// Package repositories defines interfaces for domain persistence.
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// ErrResultNotFound is returned when no result has the requested ID.
var ErrResultNotFound = errors.New("execution result not found")

// ResultRepository defines the interface for persisting validation runs.
type ResultRepository interface {
	// Save persists an execution result.
	Save(ctx context.Context, result *execution.ExecutionResult) error

	// FindByID retrieves an execution result by its run ID.
	FindByID(ctx context.Context, id values.RunID) (*execution.ExecutionResult, error)

	// FindByManifest retrieves recent execution results for a manifest, newest first.
	FindByManifest(ctx context.Context, manifestName string, limit int) ([]*execution.ExecutionResult, error)

	// FindBetween retrieves execution results for a manifest within a time range.
	FindBetween(ctx context.Context, manifestName string, start, end time.Time) ([]*execution.ExecutionResult, error)
}
