// Package manifest describes what to validate: a static tree of validated
// positions, the rules declared at each, and the dependencies between rules.
// A manifest is built once and is read-only during validation runs.
package manifest

import (
	"errors"
	"fmt"

	"github.com/reglet-dev/rulegraph/internal/domain/rules"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// ErrIncompatible is returned when a manifest's requires constraint
// excludes the running engine version.
var ErrIncompatible = errors.New("manifest is incompatible with this engine version")

// Manifest is the root of a rule manifest.
//
// Invariants Enforced by Validate:
// - Root is present
// - Every non-root node has an accessor
// - Rule keys are unique per node
// - Dependency targets and recursion targets belong to this manifest
type Manifest struct {
	Root *Node
	// Name and Version identify the manifest in results.
	Name    string
	Version string
	// Requires is an optional semver constraint on the engine version.
	Requires string
}

// Accessor reads a child value from its parent value.
type Accessor func(parent any) (any, error)

// Node is one validated position in the object graph.
type Node struct {
	// ID uniquely identifies the node within its manifest.
	ID string
	// Name is the path segment used in diagnostics; defaults to ID.
	Name string
	// Type is the declared validated type, reported to rules and in errors.
	Type string
	// Accessor reads this node's value from the parent's value. Unused on the root.
	Accessor Accessor
	// Identity optionally derives an identity for a read value.
	Identity func(value any) any
	// AccessorErrorPolicy overrides the run-level policy for this node.
	AccessorErrorPolicy values.AccessorErrorPolicy
	// EachItem treats the accessed value as a sequence, one runtime node per item.
	EachItem bool
	// Recurse reuses another node's children, rules and branches.
	Recurse  *Node
	Children []*Node
	Rules    []*Rule
	Branches []*Branch
}

// Rule declares one rule at a node.
type Rule struct {
	Logic rules.Logic
	// ID is the rule-type identity dependencies refer to.
	ID string
	// Name optionally distinguishes rules sharing an ID.
	Name      string
	DependsOn []DependencyRef
}

// DependencyRef identifies the rule another rule depends on: the manifest
// position it is declared at plus its identity.
type DependencyRef struct {
	Target   *Node
	RuleID   string
	RuleName string
}

// Branch adds children and rules for values of a specific runtime type.
type Branch struct {
	Matches  func(value any) bool
	Type     string
	Children []*Node
	Rules    []*Rule
}

// Effective returns the node whose children, rules and branches apply.
func (n *Node) Effective() *Node {
	seen := 0
	for n.Recurse != nil && seen < maxRecurseHops {
		n = n.Recurse
		seen++
	}
	return n
}

const maxRecurseHops = 64

// Label returns the node's path segment.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// Key returns the identity used to match dependency references.
func (r *Rule) Key() string {
	if r.Name == "" {
		return r.ID
	}
	return r.ID + "/" + r.Name
}

// Matches reports whether ref identifies this rule. A ref without a
// RuleName matches any rule with the same ID.
func (r *Rule) Matches(ref DependencyRef) bool {
	if r.ID != ref.RuleID {
		return false
	}
	return ref.RuleName == "" || ref.RuleName == r.Name
}

// String renders the reference for error messages.
func (d DependencyRef) String() string {
	target := "<nil>"
	if d.Target != nil {
		target = d.Target.ID
	}
	if d.RuleName == "" {
		return fmt.Sprintf("%s:%s", target, d.RuleID)
	}
	return fmt.Sprintf("%s:%s/%s", target, d.RuleID, d.RuleName)
}

// OfType returns a branch predicate matching values of dynamic type T.
func OfType[T any]() func(value any) bool {
	return func(value any) bool {
		_, ok := value.(T)
		return ok
	}
}

// Walk visits every distinct node reachable from the root once, including
// nodes declared inside branches.
func (m *Manifest) Walk(fn func(n *Node) error) error {
	if m.Root == nil {
		return nil
	}
	seen := make(map[*Node]bool)
	var visit func(n *Node) error
	visit = func(n *Node) error {
		if n == nil || seen[n] {
			return nil
		}
		seen[n] = true
		if err := fn(n); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		for _, b := range n.Branches {
			for _, c := range b.Children {
				if err := visit(c); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return visit(m.Root)
}

// Validate checks the manifest's structural invariants. All problems are
// reported together.
func (m *Manifest) Validate() error {
	if m.Root == nil {
		return fmt.Errorf("manifest %q has no root node", m.Name)
	}

	nodes := make(map[*Node]bool)
	ids := make(map[string]bool)
	var problems []error
	_ = m.Walk(func(n *Node) error {
		nodes[n] = true
		if n.ID != "" {
			if ids[n.ID] {
				problems = append(problems, fmt.Errorf("duplicate node ID: %s", n.ID))
			}
			ids[n.ID] = true
		}
		return nil
	})

	_ = m.Walk(func(n *Node) error {
		problems = append(problems, m.validateNode(n, nodes)...)
		return nil
	})

	return errors.Join(problems...)
}

func (m *Manifest) validateNode(n *Node, nodes map[*Node]bool) []error {
	var problems []error
	label := n.Label()

	if n != m.Root && n.Accessor == nil {
		problems = append(problems, fmt.Errorf("node %s: accessor is required", label))
	}
	if err := n.AccessorErrorPolicy.Validate(); err != nil {
		problems = append(problems, fmt.Errorf("node %s: %w", label, err))
	}
	if n.Recurse != nil {
		if !nodes[n.Recurse] {
			problems = append(problems, fmt.Errorf("node %s: recursion target is not part of the manifest", label))
		}
		if len(n.Children) > 0 || len(n.Rules) > 0 || len(n.Branches) > 0 {
			problems = append(problems, fmt.Errorf("node %s: a recursive node may not declare its own children, rules or branches", label))
		}
	}

	baseKeys := make(map[string]bool)
	problems = append(problems, validateRules(label, n.Rules, nodes, baseKeys)...)
	for i, b := range n.Branches {
		if b.Matches == nil {
			problems = append(problems, fmt.Errorf("node %s: branch %d has no type predicate", label, i))
		}
		keys := make(map[string]bool, len(baseKeys))
		for k := range baseKeys {
			keys[k] = true
		}
		problems = append(problems, validateRules(label, b.Rules, nodes, keys)...)
	}
	return problems
}

// validateRules checks declared rules, recording their keys in keys.
func validateRules(label string, declared []*Rule, nodes map[*Node]bool, keys map[string]bool) []error {
	var problems []error
	for _, r := range declared {
		if r.ID == "" {
			problems = append(problems, fmt.Errorf("node %s: rule ID is required", label))
			continue
		}
		if keys[r.Key()] {
			problems = append(problems, fmt.Errorf("node %s: duplicate rule %s", label, r.Key()))
		}
		keys[r.Key()] = true
		if _, err := rules.Bind(r.Logic); err != nil {
			problems = append(problems, fmt.Errorf("node %s: rule %s: %w", label, r.Key(), err))
		}
		for _, dep := range r.DependsOn {
			if dep.Target == nil || !nodes[dep.Target] {
				problems = append(problems, fmt.Errorf("node %s: rule %s depends on %s which is not part of the manifest", label, r.Key(), dep))
			}
			if dep.RuleID == "" {
				problems = append(problems, fmt.Errorf("node %s: rule %s has a dependency without a rule ID", label, r.Key()))
			}
		}
	}
	return problems
}
