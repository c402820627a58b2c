package config

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/expressions"
)

// Compiler turns a manifest document into a manifest.Manifest whose
// accessors, predicates, identities and rules are compiled expressions.
type Compiler struct {
	cache *expressions.Cache
}

// NewCompiler creates a compiler sharing cache across manifests.
func NewCompiler(cache *expressions.Cache) *Compiler {
	if cache == nil {
		cache = expressions.NewCache()
	}
	return &Compiler{cache: cache}
}

// compilation holds per-document state.
type compilation struct {
	nodes    map[string]*manifest.Node
	compiler *Compiler
	problems []string
}

func (c *compilation) fail(format string, args ...any) {
	c.problems = append(c.problems, fmt.Sprintf(format, args...))
}

// Compile validates doc's structure and builds the manifest.
func (c *Compiler) Compile(doc *Document) (*manifest.Manifest, error) {
	if err := ValidateStructure(doc); err != nil {
		return nil, err
	}

	comp := &compilation{compiler: c, nodes: make(map[string]*manifest.Node)}
	doc.Root.walk(func(n *NodeDocument) {
		comp.nodes[n.ID] = &manifest.Node{ID: n.ID, Name: n.Name, Type: n.Type}
	})
	comp.node(doc.Root, true)

	if len(comp.problems) > 0 {
		return nil, fmt.Errorf("manifest compilation failed:\n  - %s", strings.Join(comp.problems, "\n  - "))
	}

	m := &manifest.Manifest{
		Name:     doc.Manifest.Name,
		Version:  doc.Manifest.Version,
		Requires: doc.Manifest.Requires,
		Root:     comp.nodes[doc.Root.ID],
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest is inconsistent: %w", err)
	}
	return m, nil
}

func (c *compilation) node(doc *NodeDocument, isRoot bool) *manifest.Node {
	n := c.nodes[doc.ID]
	n.EachItem = doc.Each
	policy, err := values.ParseAccessorErrorPolicy(doc.OnAccessorError)
	if err != nil {
		c.fail("node %s: %v", doc.ID, err)
	}
	n.AccessorErrorPolicy = policy

	if !isRoot {
		accessor, err := expressions.NewAccessor(c.compiler.cache, doc.Accessor)
		if err != nil {
			c.fail("node %s: accessor: %v", doc.ID, err)
		}
		n.Accessor = accessor
	}
	if doc.Identity != "" {
		identity, err := expressions.NewIdentity(c.compiler.cache, doc.Identity)
		if err != nil {
			c.fail("node %s: identity: %v", doc.ID, err)
		}
		n.Identity = identity
	}
	if doc.Recurse != "" {
		n.Recurse = c.nodes[doc.Recurse]
	}

	n.Rules = c.rules(doc.ID, doc.Rules)
	for _, child := range doc.Children {
		n.Children = append(n.Children, c.node(child, false))
	}
	for i, b := range doc.Branches {
		n.Branches = append(n.Branches, c.branch(doc.ID, i, b))
	}
	return n
}

func (c *compilation) branch(nodeID string, index int, doc BranchDocument) *manifest.Branch {
	b := &manifest.Branch{Type: doc.Type}
	matches, err := expressions.NewPredicate(c.compiler.cache, doc.When)
	if err != nil {
		c.fail("node %s, branch %d: when: %v", nodeID, index, err)
	}
	b.Matches = matches
	b.Rules = c.rules(nodeID, doc.Rules)
	for _, child := range doc.Children {
		b.Children = append(b.Children, c.node(child, false))
	}
	return b
}

func (c *compilation) rules(nodeID string, docs []RuleDocument) []*manifest.Rule {
	out := make([]*manifest.Rule, 0, len(docs))
	for _, doc := range docs {
		logic, err := expressions.NewExprRule(c.compiler.cache, doc.Expr)
		if err != nil {
			c.fail("node %s, rule %s: %v", nodeID, doc.ID, err)
			continue
		}
		rule := &manifest.Rule{ID: doc.ID, Name: doc.Name, Logic: logic}
		for _, dep := range doc.DependsOn {
			rule.DependsOn = append(rule.DependsOn, manifest.DependencyRef{
				Target:   c.nodes[dep.Node],
				RuleID:   dep.Rule,
				RuleName: dep.Name,
			})
		}
		out = append(out, rule)
	}
	return out
}

// ValidateStructure checks what the schema cannot express: unique node
// IDs, known references, accessors on every non-root node and semver
// metadata.
func ValidateStructure(doc *Document) error {
	var problems []string

	if doc.Root == nil {
		return fmt.Errorf("manifest validation failed:\n  - root node is required")
	}
	if _, err := semver.NewVersion(doc.Manifest.Version); err != nil {
		problems = append(problems, fmt.Sprintf("manifest version %q is not a semantic version", doc.Manifest.Version))
	}
	if doc.Manifest.Requires != "" {
		if _, err := semver.NewConstraint(doc.Manifest.Requires); err != nil {
			problems = append(problems, fmt.Sprintf("manifest requires %q is not a version constraint: %v", doc.Manifest.Requires, err))
		}
	}

	ids := make(map[string]bool)
	doc.Root.walk(func(n *NodeDocument) {
		if ids[n.ID] {
			problems = append(problems, fmt.Sprintf("duplicate node ID: %s", n.ID))
		}
		ids[n.ID] = true
	})

	if doc.Root.Accessor != "" {
		problems = append(problems, "root node cannot declare an accessor")
	}
	if doc.Root.Each {
		problems = append(problems, "root node cannot enumerate items")
	}

	doc.Root.walk(func(n *NodeDocument) {
		if n != doc.Root && n.Accessor == "" {
			problems = append(problems, fmt.Sprintf("node %s: accessor is required", n.ID))
		}
		if n.Recurse != "" {
			if !ids[n.Recurse] {
				problems = append(problems, fmt.Sprintf("node %s: recurse target %s does not exist", n.ID, n.Recurse))
			}
			if len(n.Rules) > 0 || len(n.Children) > 0 || len(n.Branches) > 0 {
				problems = append(problems, fmt.Sprintf("node %s: recursive nodes cannot declare rules, children or branches", n.ID))
			}
		}
		checkDeps := func(rules []RuleDocument) {
			for _, r := range rules {
				for _, dep := range r.DependsOn {
					if !ids[dep.Node] {
						problems = append(problems, fmt.Sprintf("node %s, rule %s: depends on unknown node %s", n.ID, r.ID, dep.Node))
					}
				}
			}
		}
		checkDeps(n.Rules)
		for _, b := range n.Branches {
			checkDeps(b.Rules)
		}
	})

	if len(problems) > 0 {
		return fmt.Errorf("manifest validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
