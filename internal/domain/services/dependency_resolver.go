package services

import (
	"errors"
	"fmt"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/domain/valuetree"
)

// Resolver turns flattened rules into a dependency graph.
type Resolver interface {
	Resolve(tree *valuetree.Tree, rules []*execution.ExecutableRule) ([]*execution.RuleAndDependencies, error)
}

// UnresolvedDependencyError reports a dependency whose target position
// exists nowhere near the dependent rule.
type UnresolvedDependencyError struct {
	Rule *execution.ExecutableRule
	Ref  manifest.DependencyRef
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("rule %s depends on %s: no ancestor or sibling of any ancestor matches", e.Rule, e.Ref)
}

// MissingRuleError reports a matched node that lacks the referenced rule.
type MissingRuleError struct {
	Rule *execution.ExecutableRule
	Ref  manifest.DependencyRef
	Path string
}

func (e *MissingRuleError) Error() string {
	return fmt.Sprintf("rule %s depends on %s: node %s has no such rule", e.Rule, e.Ref, e.Path)
}

// AmbiguousDependencyError reports a matched node holding several rules
// that satisfy the reference.
type AmbiguousDependencyError struct {
	Rule       *execution.ExecutableRule
	Ref        manifest.DependencyRef
	Candidates []*execution.ExecutableRule
}

func (e *AmbiguousDependencyError) Error() string {
	return fmt.Sprintf("rule %s depends on %s: %d rules match, add a rule name", e.Rule, e.Ref, len(e.Candidates))
}

// DependencyResolver binds dependency references to concrete rules by
// searching the rule's own node, then its siblings and parent, outward to
// the root.
type DependencyResolver struct{}

// NewDependencyResolver creates a new dependency resolver service
func NewDependencyResolver() *DependencyResolver {
	return &DependencyResolver{}
}

// Resolve builds the forward and reverse edges for every rule.
// The returned slice is parallel to rules.
func (r *DependencyResolver) Resolve(tree *valuetree.Tree, rules []*execution.ExecutableRule) ([]*execution.RuleAndDependencies, error) {
	byNode := make(map[valuetree.NodeID][]*execution.ExecutableRule)
	graph := make([]*execution.RuleAndDependencies, len(rules))
	index := make(map[*execution.ExecutableRule]*execution.RuleAndDependencies, len(rules))
	for i, rule := range rules {
		byNode[rule.NodeID] = append(byNode[rule.NodeID], rule)
		graph[i] = &execution.RuleAndDependencies{Rule: rule}
		index[rule] = graph[i]
	}

	var errs []error
	for _, entry := range graph {
		for _, ref := range entry.Rule.Declaration.DependsOn {
			dep, err := r.resolveOne(tree, byNode, entry.Rule, ref)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			entry.Dependencies = append(entry.Dependencies, dep)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// Reverse edges
	for _, entry := range graph {
		for _, dep := range entry.Dependencies {
			target := index[dep]
			target.Dependents = append(target.Dependents, entry.Rule)
		}
	}
	return graph, nil
}

func (r *DependencyResolver) resolveOne(
	tree *valuetree.Tree,
	byNode map[valuetree.NodeID][]*execution.ExecutableRule,
	rule *execution.ExecutableRule,
	ref manifest.DependencyRef,
) (*execution.ExecutableRule, error) {
	node, ok := findPosition(tree, rule.Node(), ref.Target)
	if !ok {
		return nil, &UnresolvedDependencyError{Rule: rule, Ref: ref}
	}

	var candidates []*execution.ExecutableRule
	for _, c := range byNode[node.ID] {
		if c.Declaration.Matches(ref) {
			candidates = append(candidates, c)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, &MissingRuleError{Rule: rule, Ref: ref, Path: node.Path}
	case 1:
		return candidates[0], nil
	default:
		return nil, &AmbiguousDependencyError{Rule: rule, Ref: ref, Candidates: candidates}
	}
}

// findPosition returns the first node at target, starting from own and
// widening one level at a time.
func findPosition(tree *valuetree.Tree, own *valuetree.Node, target *manifest.Node) (*valuetree.Node, bool) {
	if own.At(target) {
		return own, true
	}
	cur := own
	for {
		parent, ok := tree.Parent(cur)
		if !ok {
			return nil, false
		}
		for _, sibling := range tree.Children(parent) {
			if sibling.ID != cur.ID && sibling.At(target) {
				return sibling, true
			}
		}
		if parent.At(target) {
			return parent, true
		}
		cur = parent
	}
}
