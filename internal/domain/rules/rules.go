// Package rules defines the contract between the execution engine and rule
// logic: what a rule receives, what it returns, and the capabilities a
// logic implementation may offer.
package rules

import (
	"context"
	"fmt"

	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// RuleResult is what rule logic returns: an outcome plus an opaque data bag.
type RuleResult struct {
	Data    map[string]any
	Err     error
	Outcome values.Outcome
}

// Pass returns a passed result carrying data.
func Pass(data map[string]any) RuleResult {
	return RuleResult{Outcome: values.OutcomePassed, Data: data}
}

// Fail returns a failed result carrying data.
func Fail(data map[string]any) RuleResult {
	return RuleResult{Outcome: values.OutcomeFailed, Data: data}
}

// Error returns an errored result for err.
func Error(err error) RuleResult {
	return RuleResult{Outcome: values.OutcomeErrored, Err: err}
}

// DependencyFailed returns the synthetic result given to rules that never ran.
func DependencyFailed(data map[string]any) RuleResult {
	return RuleResult{Outcome: values.OutcomeDependencyFailed, Data: data}
}

// RuleContext is the immutable context handed to rule logic.
type RuleContext struct {
	// RuleID is the rule-type identity declared in the manifest.
	RuleID string
	// RuleName optionally distinguishes several rules of the same type.
	RuleName string
	// ValidatedType is the declared type of the validated value.
	ValidatedType string
	// Path locates the validated value within the object graph.
	Path string
	// Ancestors holds the read responses of every ancestor, nearest first.
	Ancestors []*values.ValueResponse
}

// Logic is any rule implementation. A Logic must also implement ValueLogic
// or ParentLogic; Bind checks which.
type Logic any

// ValueLogic validates a value on its own.
type ValueLogic interface {
	Check(ctx context.Context, value any, rc RuleContext) (RuleResult, error)
}

// ParentLogic validates a value together with its parent's value.
type ParentLogic interface {
	CheckWithParent(ctx context.Context, value, parent any, rc RuleContext) (RuleResult, error)
}

// Invocation is a rule's logic bound to a single calling shape.
type Invocation func(ctx context.Context, value, parent any, rc RuleContext) (RuleResult, error)

// Bind resolves the capability a Logic supports. ParentLogic wins when a
// type implements both.
func Bind(logic Logic) (Invocation, error) {
	switch l := logic.(type) {
	case ParentLogic:
		return l.CheckWithParent, nil
	case ValueLogic:
		return func(ctx context.Context, value, _ any, rc RuleContext) (RuleResult, error) {
			return l.Check(ctx, value, rc)
		}, nil
	case nil:
		return nil, fmt.Errorf("rule logic is nil")
	default:
		return nil, fmt.Errorf("rule logic %T implements neither ValueLogic nor ParentLogic", logic)
	}
}

// Func adapts a function to ValueLogic.
type Func func(ctx context.Context, value any, rc RuleContext) (RuleResult, error)

// Check implements ValueLogic.
func (f Func) Check(ctx context.Context, value any, rc RuleContext) (RuleResult, error) {
	return f(ctx, value, rc)
}

// ParentFunc adapts a function to ParentLogic.
type ParentFunc func(ctx context.Context, value, parent any, rc RuleContext) (RuleResult, error)

// CheckWithParent implements ParentLogic.
func (f ParentFunc) CheckWithParent(ctx context.Context, value, parent any, rc RuleContext) (RuleResult, error) {
	return f(ctx, value, parent, rc)
}

// Predicate adapts a boolean check to ValueLogic: true passes, false fails.
func Predicate(check func(value any) bool) Func {
	return func(_ context.Context, value any, _ RuleContext) (RuleResult, error) {
		if check(value) {
			return Pass(nil), nil
		}
		return Fail(nil), nil
	}
}
