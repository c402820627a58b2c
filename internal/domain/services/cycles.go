package services

import (
	"fmt"
	"strings"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/valuetree"
)

// MaxReportedCycles bounds the cycles listed in a CircularDependencyError.
const MaxReportedCycles = 10

// FindCycles returns every elementary cycle of the graph. Each cycle is
// reported once, rooted at its member that comes first in nodes, and starts
// and ends with that element. Cycles are ordered by root, then by the
// edge order of the search. Edges to elements outside nodes are ignored.
func FindCycles[T comparable](nodes []T, edges func(T) []T) [][]T {
	index := make(map[T]int, len(nodes))
	for i, n := range nodes {
		if _, dup := index[n]; !dup {
			index[n] = i
		}
	}

	var cycles [][]T
	for s, start := range nodes {
		if index[start] != s {
			continue
		}
		// Successors within the subgraph of nodes at or after start.
		next := func(n T) []T {
			var out []T
			seen := make(map[T]bool)
			for _, m := range edges(n) {
				i, ok := index[m]
				if !ok || i < s || seen[m] {
					continue
				}
				seen[m] = true
				out = append(out, m)
			}
			return out
		}

		blocked := make(map[T]bool)
		waiting := make(map[T]map[T]bool)
		var path []T

		var unblock func(n T)
		unblock = func(n T) {
			blocked[n] = false
			for w := range waiting[n] {
				delete(waiting[n], w)
				if blocked[w] {
					unblock(w)
				}
			}
		}

		var circuit func(n T) bool
		circuit = func(n T) bool {
			found := false
			path = append(path, n)
			blocked[n] = true
			succ := next(n)
			for _, m := range succ {
				switch {
				case m == start:
					cycle := make([]T, 0, len(path)+1)
					cycle = append(cycle, path...)
					cycles = append(cycles, append(cycle, start))
					found = true
				case !blocked[m]:
					if circuit(m) {
						found = true
					}
				}
			}
			if found {
				unblock(n)
			} else {
				for _, m := range succ {
					if waiting[m] == nil {
						waiting[m] = make(map[T]bool)
					}
					waiting[m][n] = true
				}
			}
			path = path[:len(path)-1]
			return found
		}
		circuit(start)
	}
	return cycles
}

// CircularDependency is one detected cycle of rules.
type CircularDependency struct {
	Chain []*execution.ExecutableRule
}

// CycleDetector finds cycles in a resolved rule graph.
type CycleDetector struct{}

// Detect returns every cycle in graph.
func (CycleDetector) Detect(graph []*execution.RuleAndDependencies) []CircularDependency {
	nodes := make([]*execution.ExecutableRule, len(graph))
	deps := make(map[*execution.ExecutableRule][]*execution.ExecutableRule, len(graph))
	for i, entry := range graph {
		nodes[i] = entry.Rule
		deps[entry.Rule] = entry.Dependencies
	}
	found := FindCycles(nodes, func(r *execution.ExecutableRule) []*execution.ExecutableRule {
		return deps[r]
	})
	out := make([]CircularDependency, len(found))
	for i, chain := range found {
		out[i] = CircularDependency{Chain: chain}
	}
	return out
}

// CircularDependencyError aborts a run whose rule graph has cycles.
type CircularDependencyError struct {
	Cycles []CircularDependency
}

func (e *CircularDependencyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d circular rule dependencies found", len(e.Cycles))
	for i, cycle := range e.Cycles {
		if i == MaxReportedCycles {
			fmt.Fprintf(&b, "\n... and %d more", len(e.Cycles)-MaxReportedCycles)
			break
		}
		b.WriteString("\n")
		writeCycle(&b, cycle)
	}
	return b.String()
}

func writeCycle(b *strings.Builder, cycle CircularDependency) {
	if len(cycle.Chain) == 0 {
		return
	}
	first := cycle.Chain[0]
	b.WriteString(fullIdentity(first))
	for depth, rule := range cycle.Chain[1:] {
		b.WriteString("\n")
		b.WriteString(strings.Repeat("  ", depth+1))
		b.WriteString("-> ")
		if depth == len(cycle.Chain)-2 {
			b.WriteString(fullIdentity(rule))
			continue
		}
		fmt.Fprintf(b, "[RuleType: %s, ValidatedType: %s]", rule.Declaration.ID, rule.Node().Type)
	}
}

func fullIdentity(rule *execution.ExecutableRule) string {
	node := rule.Node()
	var b strings.Builder
	fmt.Fprintf(&b, "[RuleType: %s", rule.Declaration.ID)
	if rule.Declaration.Name != "" {
		fmt.Fprintf(&b, ", Name: %s", rule.Declaration.Name)
	}
	fmt.Fprintf(&b, ", ValidatedType: %s, ValidatedIdentity: %v]", node.Type, node.Identity)
	return b.String()
}

// CycleGuard rejects resolved graphs that contain cycles.
type CycleGuard struct {
	Inner    Resolver
	Detector CycleDetector
}

// NewCycleGuard wraps inner.
func NewCycleGuard(inner Resolver) *CycleGuard {
	return &CycleGuard{Inner: inner}
}

// Resolve delegates to the wrapped resolver, then checks for cycles.
func (g *CycleGuard) Resolve(tree *valuetree.Tree, rules []*execution.ExecutableRule) ([]*execution.RuleAndDependencies, error) {
	graph, err := g.Inner.Resolve(tree, rules)
	if err != nil {
		return nil, err
	}
	if cycles := g.Detector.Detect(graph); len(cycles) > 0 {
		return nil, &CircularDependencyError{Cycles: cycles}
	}
	return graph, nil
}
