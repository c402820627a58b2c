package engine

import (
	"context"
	"fmt"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/rules"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// ErroringValueDecorator emits results for rules whose value could not be
// read. Each distinct read error yields exactly one errored result; the
// affected rules are marked errored so their dependents cascade.
type ErroringValueDecorator struct {
	Inner RuleExecutor
}

// Execute runs the inner executor, then synthesizes the errored results.
func (d *ErroringValueDecorator) Execute(ctx context.Context, tracker *Tracker) ([]execution.ValidationRuleResult, error) {
	results, err := d.Inner.Execute(ctx, tracker)
	if err != nil {
		return nil, err
	}

	var order []*values.ValueResponse
	affected := make(map[*values.ValueResponse][]*execution.ExecutableRule)
	for _, entry := range tracker.All() {
		rule := entry.Rule
		resp := rule.Response()
		if resp.Kind() != values.ResponseErrored || rule.HasResult() {
			continue
		}
		if _, seen := affected[resp]; !seen {
			order = append(order, resp)
		}
		affected[resp] = append(affected[resp], rule)
	}

	for _, resp := range order {
		group := affected[resp]
		keys := make([]string, len(group))
		for i, rule := range group {
			keys[i] = rule.Declaration.Key()
			if err := complete(tracker, rule, execution.ValidationRuleResult{
				Outcome: values.OutcomeErrored,
				Err:     resp.Err(),
			}); err != nil {
				return nil, err
			}
		}

		first := group[0]
		res := rules.Error(resp.Err())
		res.Data = map[string]any{"affected_rules": keys}
		out := execution.NewValidationRuleResult(first, res, first.Context(), 0)
		out.Reason = erroredValueReason(first.Node().Path, len(group))
		results = append(results, out)
	}
	return results, nil
}

// DependencyFailureDecorator gives every rule that could not run because a
// dependency did not pass a dependency_failed result.
type DependencyFailureDecorator struct {
	Inner RuleExecutor
}

// Execute runs the inner executor, then synthesizes the cascaded results.
func (d *DependencyFailureDecorator) Execute(ctx context.Context, tracker *Tracker) ([]execution.ValidationRuleResult, error) {
	results, err := d.Inner.Execute(ctx, tracker)
	if err != nil {
		return nil, err
	}

	failed := tracker.DependencyFailedRules()
	cascaded := make(map[*execution.ExecutableRule]bool, len(failed))
	for _, rule := range failed {
		cascaded[rule] = true
	}

	// Reasons are computed before any result is set so they reflect the
	// state the executor left behind.
	reasons := make([][]string, len(failed))
	for i, rule := range failed {
		reasons[i] = failingDependencies(tracker, rule, cascaded)
	}

	for i, rule := range failed {
		res := rules.DependencyFailed(map[string]any{"failed_dependencies": reasons[i]})
		out := execution.NewValidationRuleResult(rule, res, rule.Context(), 0)
		out.Reason = dependencyFailedReason(reasons[i])
		if err := complete(tracker, rule, out); err != nil {
			return nil, err
		}
		results = append(results, out)
	}
	return results, nil
}

func failingDependencies(tracker *Tracker, rule *execution.ExecutableRule, cascaded map[*execution.ExecutableRule]bool) []string {
	var failing []string
	for _, dep := range tracker.Dependencies(rule) {
		switch outcome, done := tracker.Outcome(dep); {
		case cascaded[dep]:
			failing = append(failing, fmt.Sprintf("%s (%s)", dep, values.OutcomeDependencyFailed))
		case done && !outcome.IsPassed():
			failing = append(failing, fmt.Sprintf("%s (%s)", dep, outcome))
		}
	}
	return failing
}
