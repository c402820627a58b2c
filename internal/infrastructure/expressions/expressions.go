package expressions

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/domain/rules"
)

// ruleEnv is what a rule expression sees.
type ruleEnv struct {
	Value  any    `expr:"value"`
	Parent any    `expr:"parent"`
	Rule   string `expr:"rule"`
	Type   string `expr:"type"`
	Path   string `expr:"path"`
}

// valueEnv is what accessor, predicate and identity expressions see.
type valueEnv struct {
	Value any `expr:"value"`
}

// ExprRule is rule logic backed by a boolean expression: true passes, false
// fails, an evaluation error becomes an errored result.
type ExprRule struct {
	program *vm.Program
	Source  string
}

var _ rules.ParentLogic = (*ExprRule)(nil)

// NewExprRule compiles source as rule logic.
func NewExprRule(cache *Cache, source string) (*ExprRule, error) {
	program, err := cache.compile(kindRule, source)
	if err != nil {
		return nil, err
	}
	return &ExprRule{program: program, Source: source}, nil
}

// CheckWithParent implements rules.ParentLogic.
func (r *ExprRule) CheckWithParent(_ context.Context, value, parent any, rc rules.RuleContext) (rules.RuleResult, error) {
	out, err := expr.Run(r.program, ruleEnv{
		Value:  value,
		Parent: parent,
		Rule:   rc.RuleID,
		Type:   rc.ValidatedType,
		Path:   rc.Path,
	})
	if err != nil {
		return rules.RuleResult{}, fmt.Errorf("evaluation failed: %w", err)
	}

	data := map[string]any{"expression": r.Source}
	if passed, _ := out.(bool); passed {
		return rules.Pass(data), nil
	}
	return rules.Fail(data), nil
}

// NewAccessor compiles source into an accessor evaluated with the parent
// value bound to "value".
func NewAccessor(cache *Cache, source string) (manifest.Accessor, error) {
	program, err := cache.compile(kindAccessor, source)
	if err != nil {
		return nil, err
	}
	return func(parent any) (any, error) {
		out, err := expr.Run(program, valueEnv{Value: parent})
		if err != nil {
			return nil, fmt.Errorf("accessor %q: %w", source, err)
		}
		return out, nil
	}, nil
}

// NewPredicate compiles a boolean expression over "value". Evaluation
// errors count as no match.
func NewPredicate(cache *Cache, source string) (func(value any) bool, error) {
	program, err := cache.compile(kindBool, source)
	if err != nil {
		return nil, err
	}
	return func(value any) bool {
		out, err := expr.Run(program, valueEnv{Value: value})
		if err != nil {
			return false
		}
		matched, _ := out.(bool)
		return matched
	}, nil
}

// NewIdentity compiles an expression computing a value's identity.
// Evaluation errors yield no identity.
func NewIdentity(cache *Cache, source string) (func(value any) any, error) {
	program, err := cache.compile(kindAccessor, source)
	if err != nil {
		return nil, err
	}
	return func(value any) any {
		out, err := expr.Run(program, valueEnv{Value: value})
		if err != nil {
			return nil
		}
		return out
	}, nil
}
