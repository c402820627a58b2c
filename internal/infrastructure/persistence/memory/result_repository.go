// Package memory provides in-memory implementations of domain repositories.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/repositories"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// Ensure interface compliance
var _ repositories.ResultRepository = (*ResultRepository)(nil)

// ResultRepository keeps validation runs in memory, keyed by run ID.
// Useful for testing and ephemeral storage.
type ResultRepository struct {
	results map[uuid.UUID]*execution.ExecutionResult
	mu      sync.RWMutex
}

// NewResultRepository creates a new in-memory repository.
func NewResultRepository() *ResultRepository {
	return &ResultRepository{
		results: make(map[uuid.UUID]*execution.ExecutionResult),
	}
}

// Save persists an execution result.
// The pointer is stored as is; callers must not modify a saved result.
func (r *ResultRepository) Save(_ context.Context, result *execution.ExecutionResult) error {
	if result == nil {
		return fmt.Errorf("cannot save nil execution result")
	}
	if result.GetID().IsZero() {
		return fmt.Errorf("cannot save execution result without run ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[result.GetID().UUID()] = result
	return nil
}

// FindByID retrieves an execution result by its run ID.
func (r *ResultRepository) FindByID(_ context.Context, id values.RunID) (*execution.ExecutionResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.results[id.UUID()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrResultNotFound, id)
	}
	return result, nil
}

// FindByManifest retrieves recent execution results for a manifest.
func (r *ResultRepository) FindByManifest(_ context.Context, manifestName string, limit int) ([]*execution.ExecutionResult, error) {
	matches := r.filter(func(res *execution.ExecutionResult) bool {
		return res.ManifestName == manifestName
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// FindBetween retrieves execution results for a manifest whose start time
// lies within [start, end].
func (r *ResultRepository) FindBetween(_ context.Context, manifestName string, start, end time.Time) ([]*execution.ExecutionResult, error) {
	return r.filter(func(res *execution.ExecutionResult) bool {
		return res.ManifestName == manifestName &&
			!res.StartTime.Before(start) &&
			!res.StartTime.After(end)
	}), nil
}

// filter returns matching results, newest first.
func (r *ResultRepository) filter(keep func(*execution.ExecutionResult) bool) []*execution.ExecutionResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*execution.ExecutionResult
	for _, res := range r.results {
		if keep(res) {
			matches = append(matches, res)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].StartTime.After(matches[j].StartTime)
	})
	return matches
}
