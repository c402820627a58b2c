package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
)

// RuleExecutor runs the rules of a tracker and returns their results.
type RuleExecutor interface {
	Execute(ctx context.Context, tracker *Tracker) ([]execution.ValidationRuleResult, error)
}

// Executor repeatedly asks the tracker for ready rules and runs them until
// none remain.
type Executor struct {
	invoker       *Invoker
	logger        *slog.Logger
	maxConcurrent int
	parallel      bool
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithParallelism dispatches each ready batch concurrently, at most limit
// rules at a time. A limit of 0 or less means no limit.
func WithParallelism(limit int) ExecutorOption {
	return func(e *Executor) {
		e.parallel = true
		e.maxConcurrent = limit
	}
}

// WithExecutorLogger sets the executor's logger.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates a serial executor unless WithParallelism is given.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.invoker = NewInvoker(e.logger)
	return e
}

// Execute runs rules until the tracker offers nothing further. A failed
// invocation aborts the run and no results are returned.
func (e *Executor) Execute(ctx context.Context, tracker *Tracker) ([]execution.ValidationRuleResult, error) {
	var results []execution.ValidationRuleResult
	for batch := 0; ; batch++ {
		ready := tracker.ExecutableRules()
		if len(ready) == 0 {
			e.logger.Debug("executor drained", "batches", batch, "results", len(results))
			return results, nil
		}

		var (
			out []execution.ValidationRuleResult
			err error
		)
		if e.parallel && len(ready) > 1 {
			out, err = e.executeBatchParallel(ctx, tracker, ready)
		} else {
			out, err = e.executeBatchSerial(ctx, tracker, ready)
		}
		if err != nil {
			return nil, err
		}
		results = append(results, out...)
	}
}

func (e *Executor) executeBatchSerial(ctx context.Context, tracker *Tracker, ready []*execution.ExecutableRule) ([]execution.ValidationRuleResult, error) {
	out := make([]execution.ValidationRuleResult, 0, len(ready))
	for _, rule := range ready {
		res, err := e.executeRule(ctx, tracker, rule)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// executeRule invokes rule, stores the result on it and notifies tracker.
func (e *Executor) executeRule(ctx context.Context, tracker *Tracker, rule *execution.ExecutableRule) (execution.ValidationRuleResult, error) {
	res, err := e.invoker.Invoke(ctx, rule)
	if err != nil {
		return execution.ValidationRuleResult{}, err
	}
	if err := complete(tracker, rule, res); err != nil {
		return execution.ValidationRuleResult{}, err
	}
	return res, nil
}

// complete sets the terminal result on rule and records it.
func complete(tracker *Tracker, rule *execution.ExecutableRule, res execution.ValidationRuleResult) error {
	if err := rule.SetResult(res.RuleResult()); err != nil {
		return err
	}
	if err := tracker.RecordResult(rule); err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}
