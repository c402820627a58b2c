package engine

import (
	"context"
	"fmt"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"golang.org/x/sync/errgroup"
)

// executeBatchParallel runs one ready batch concurrently. A batch never
// contains a rule together with one of its dependencies, so its members
// can run in any order. The tracker is notified as each rule completes and
// the batch is joined before the next ready query.
func (e *Executor) executeBatchParallel(ctx context.Context, tracker *Tracker, ready []*execution.ExecutableRule) ([]execution.ValidationRuleResult, error) {
	g, gCtx := errgroup.WithContext(ctx)
	if e.maxConcurrent > 0 {
		g.SetLimit(e.maxConcurrent)
	}

	// Indexed by position so output order matches the ready order.
	out := make([]execution.ValidationRuleResult, len(ready))
	for i, rule := range ready {
		g.Go(func() error {
			res, err := e.executeRule(gCtx, tracker, rule)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parallel batch failed: %w", err)
	}
	return out, nil
}
