// Package execution provides the runtime model of a validation run: rules
// bound to values, their dependencies, and their results.
package execution

import (
	"errors"
	"fmt"
	"sync"

	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/domain/rules"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
	"github.com/reglet-dev/rulegraph/internal/domain/valuetree"
)

// ErrResultAlreadySet is returned when a rule's result is set twice.
var ErrResultAlreadySet = errors.New("rule result already set")

// ExecutableRule is one declared rule bound to one value node. It is the
// unit of scheduling and execution.
type ExecutableRule struct {
	result      *rules.RuleResult
	Declaration *manifest.Rule
	Tree        *valuetree.Tree
	invoke      rules.Invocation
	NodeID      valuetree.NodeID
	// Index is the rule's position in flatten order.
	Index int
	mu    sync.Mutex
}

// NewExecutableRule binds decl to the node id of tree.
func NewExecutableRule(tree *valuetree.Tree, id valuetree.NodeID, decl *manifest.Rule, index int) (*ExecutableRule, error) {
	invoke, err := rules.Bind(decl.Logic)
	if err != nil {
		return nil, fmt.Errorf("rule %s at %s: %w", decl.Key(), tree.Node(id).Path, err)
	}
	return &ExecutableRule{
		Declaration: decl,
		Tree:        tree,
		NodeID:      id,
		Index:       index,
		invoke:      invoke,
	}, nil
}

// Node returns the value node the rule validates.
func (r *ExecutableRule) Node() *valuetree.Node {
	return r.Tree.Node(r.NodeID)
}

// Response returns the read response of the validated value.
func (r *ExecutableRule) Response() *values.ValueResponse {
	return r.Node().Response
}

// ParentValue returns the parent node's value, or nil for the root.
func (r *ExecutableRule) ParentValue() any {
	if p, ok := r.Tree.Parent(r.Node()); ok {
		return p.Value()
	}
	return nil
}

// Invocation returns the rule's bound logic.
func (r *ExecutableRule) Invocation() rules.Invocation {
	return r.invoke
}

// Result returns the terminal result, if one has been set.
func (r *ExecutableRule) Result() (rules.RuleResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return rules.RuleResult{}, false
	}
	return *r.result, true
}

// HasResult reports whether a terminal result has been set.
func (r *ExecutableRule) HasResult() bool {
	_, ok := r.Result()
	return ok
}

// SetResult records the terminal result. It may be called once.
func (r *ExecutableRule) SetResult(res rules.RuleResult) error {
	if err := res.Outcome.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", r, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result != nil {
		return fmt.Errorf("rule %s: %w", r, ErrResultAlreadySet)
	}
	r.result = &res
	return nil
}

// Context builds a fresh RuleContext for the rule.
func (r *ExecutableRule) Context() rules.RuleContext {
	node := r.Node()
	ancestors := r.Tree.Ancestors(node)
	responses := make([]*values.ValueResponse, len(ancestors))
	for i, a := range ancestors {
		responses[i] = a.Response
	}
	return rules.RuleContext{
		RuleID:        r.Declaration.ID,
		RuleName:      r.Declaration.Name,
		ValidatedType: node.Type,
		Path:          node.Path,
		Ancestors:     responses,
	}
}

// String identifies the rule for logs and errors.
func (r *ExecutableRule) String() string {
	return r.Declaration.Key() + "@" + r.Node().Path
}

// RuleAndDependencies is an executable rule with its resolved forward
// dependencies and reverse dependents.
type RuleAndDependencies struct {
	Rule         *ExecutableRule
	Dependencies []*ExecutableRule
	Dependents   []*ExecutableRule
}

// Flatten collects every rule bound to every node of tree, depth-first,
// in a stable order. No filtering happens here.
func Flatten(tree *valuetree.Tree) ([]*ExecutableRule, error) {
	var (
		out  []*ExecutableRule
		errs []error
	)
	tree.Walk(func(n *valuetree.Node) {
		for _, decl := range n.Rules {
			rule, err := NewExecutableRule(tree, n.ID, decl, len(out))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, rule)
		}
	})
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
