package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/rules"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// Invoker runs the logic of a single rule.
type Invoker struct {
	logger *slog.Logger
}

// NewInvoker creates an invoker that logs to logger.
func NewInvoker(logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{logger: logger}
}

// Invoke runs rule's logic against its value and parent value. It fails
// only when ctx is already done; errors and panics raised by the logic
// become errored results. The result is not stored on the rule.
func (i *Invoker) Invoke(ctx context.Context, rule *execution.ExecutableRule) (execution.ValidationRuleResult, error) {
	if err := ctx.Err(); err != nil {
		return execution.ValidationRuleResult{}, fmt.Errorf("rule %s not started: %w", rule, err)
	}

	startTime := time.Now()
	rc := rule.Context()
	res := i.call(ctx, rule, rc)
	duration := time.Since(startTime)

	i.logger.Debug("rule invoked",
		"rule", rule.Declaration.Key(),
		"path", rc.Path,
		"outcome", res.Outcome,
		"duration", duration)

	return execution.NewValidationRuleResult(rule, res, rc, duration), nil
}

func (i *Invoker) call(ctx context.Context, rule *execution.ExecutableRule, rc rules.RuleContext) (res rules.RuleResult) {
	defer func() {
		if r := recover(); r != nil {
			res = rules.Error(fmt.Errorf("rule panicked: %v", r))
		}
	}()

	res, err := rule.Invocation()(ctx, rule.Node().Value(), rule.ParentValue(), rc)
	if err != nil {
		return rules.Error(err)
	}
	if verr := res.Outcome.Validate(); verr != nil {
		return rules.Error(fmt.Errorf("rule returned %w", verr))
	}
	if res.Outcome == values.OutcomeDependencyFailed {
		return rules.Error(fmt.Errorf("rule returned reserved outcome %q", res.Outcome))
	}
	return res
}
