package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

var (
	// ErrUnknownRule is returned when recording a rule the tracker was not built with.
	ErrUnknownRule = errors.New("rule is not part of this run")
	// ErrNoResult is returned when recording a rule whose result is unset.
	ErrNoResult = errors.New("rule has no result")
)

// Tracker follows rule completion for one run and answers which rules may
// run next and which can no longer run.
// Safe for concurrent use.
type Tracker struct {
	entries  map[*execution.ExecutableRule]*execution.RuleAndDependencies
	outcomes map[*execution.ExecutableRule]values.Outcome
	graph    []*execution.RuleAndDependencies
	mu       sync.RWMutex
}

// NewTracker creates a tracker over a resolved, acyclic graph.
func NewTracker(graph []*execution.RuleAndDependencies) *Tracker {
	entries := make(map[*execution.ExecutableRule]*execution.RuleAndDependencies, len(graph))
	for _, entry := range graph {
		entries[entry.Rule] = entry
	}
	return &Tracker{
		graph:    graph,
		entries:  entries,
		outcomes: make(map[*execution.ExecutableRule]values.Outcome, len(graph)),
	}
}

// All returns the full graph in flatten order.
func (t *Tracker) All() []*execution.RuleAndDependencies {
	return t.graph
}

// ExecutableRules returns the rules that have no result, whose value was
// read successfully, and whose dependencies all passed.
func (t *Tracker) ExecutableRules() []*execution.ExecutableRule {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var ready []*execution.ExecutableRule
	for _, entry := range t.graph {
		if _, done := t.outcomes[entry.Rule]; done {
			continue
		}
		if !entry.Rule.Response().IsSuccessful() {
			continue
		}
		if t.dependenciesPassed(entry) {
			ready = append(ready, entry.Rule)
		}
	}
	return ready
}

func (t *Tracker) dependenciesPassed(entry *execution.RuleAndDependencies) bool {
	for _, dep := range entry.Dependencies {
		outcome, done := t.outcomes[dep]
		if !done || !outcome.IsPassed() {
			return false
		}
	}
	return true
}

// DependencyFailedRules returns every rule without a result that is
// reachable through dependents from a rule that did not pass. Rules bound
// to ignored values are traversed but never returned.
// A rule depending on a rule bound to an ignored value is neither ready nor
// returned here, so it ends the run without a result.
func (t *Tracker) DependencyFailedRules() []*execution.ExecutableRule {
	t.mu.RLock()
	defer t.mu.RUnlock()

	reached := make(map[*execution.ExecutableRule]bool)
	var queue []*execution.ExecutableRule
	for rule, outcome := range t.outcomes {
		if !outcome.IsPassed() {
			queue = append(queue, rule)
		}
	}
	for len(queue) > 0 {
		rule := queue[0]
		queue = queue[1:]
		for _, dependent := range t.entries[rule].Dependents {
			if reached[dependent] {
				continue
			}
			if _, done := t.outcomes[dependent]; done {
				continue
			}
			reached[dependent] = true
			queue = append(queue, dependent)
		}
	}

	var failed []*execution.ExecutableRule
	for _, entry := range t.graph {
		if reached[entry.Rule] && entry.Rule.Response().Kind() != values.ResponseIgnored {
			failed = append(failed, entry.Rule)
		}
	}
	return failed
}

// RecordResult indexes the result already set on rule. Recording a rule
// twice is a no-op; the first outcome stands.
func (t *Tracker) RecordResult(rule *execution.ExecutableRule) error {
	if _, ok := t.entries[rule]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRule, rule)
	}
	res, ok := rule.Result()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoResult, rule)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, done := t.outcomes[rule]; !done {
		t.outcomes[rule] = res.Outcome
	}
	return nil
}

// Outcome returns the recorded outcome for rule.
func (t *Tracker) Outcome(rule *execution.ExecutableRule) (values.Outcome, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	outcome, ok := t.outcomes[rule]
	return outcome, ok
}

// Dependencies returns the resolved dependencies of rule.
func (t *Tracker) Dependencies(rule *execution.ExecutableRule) []*execution.ExecutableRule {
	if entry, ok := t.entries[rule]; ok {
		return entry.Dependencies
	}
	return nil
}
