package execution

import (
	"sort"
	"sync"
	"time"

	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/domain/rules"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// ExecutionResult represents the complete result of one validation run.
//
//nolint:revive // ST1003: Name is intentional - "Result" alone lacks context in imports
type ExecutionResult struct {
	StartTime       time.Time              `json:"start_time" yaml:"start_time"`
	EndTime         time.Time              `json:"end_time" yaml:"end_time"`
	EngineVersion   string                 `json:"engine_version,omitempty" yaml:"engine_version,omitempty"`
	ManifestName    string                 `json:"manifest_name" yaml:"manifest_name"`
	ManifestVersion string                 `json:"manifest_version" yaml:"manifest_version"`
	Results         []ValidationRuleResult `json:"results" yaml:"results"`
	Summary         ResultSummary          `json:"summary" yaml:"summary"`
	Duration        time.Duration          `json:"duration_ms" yaml:"duration_ms"`
	mu              sync.Mutex
	RunID           values.RunID `json:"run_id" yaml:"run_id"`
}

// ValidationRuleResult is the terminal outcome of one rule, whether its
// logic ran or the result was synthesized.
type ValidationRuleResult struct {
	Err           error             `json:"-" yaml:"-"`
	Identity      any               `json:"identity,omitempty" yaml:"identity,omitempty"`
	Data          map[string]any    `json:"data,omitempty" yaml:"data,omitempty"`
	DataMeta      *DataMeta         `json:"data_meta,omitempty" yaml:"data_meta,omitempty"`
	Rule          *manifest.Rule    `json:"-" yaml:"-"`
	RuleID        string            `json:"rule_id" yaml:"rule_id"`
	RuleName      string            `json:"rule_name,omitempty" yaml:"rule_name,omitempty"`
	Path          string            `json:"path" yaml:"path"`
	ValidatedType string            `json:"validated_type,omitempty" yaml:"validated_type,omitempty"`
	Outcome       values.Outcome    `json:"outcome" yaml:"outcome"`
	Error         string            `json:"error,omitempty" yaml:"error,omitempty"`
	Reason        string            `json:"reason,omitempty" yaml:"reason,omitempty"`
	Context       rules.RuleContext `json:"-" yaml:"-"`
	Index         int               `json:"index" yaml:"index"`
	Duration      time.Duration     `json:"duration_ms" yaml:"duration_ms"`
}

// ResultSummary provides aggregate statistics about the run.
type ResultSummary struct {
	TotalRules            int `json:"total_rules" yaml:"total_rules"`
	PassedRules           int `json:"passed_rules" yaml:"passed_rules"`
	FailedRules           int `json:"failed_rules" yaml:"failed_rules"`
	ErroredRules          int `json:"errored_rules" yaml:"errored_rules"`
	DependencyFailedRules int `json:"dependency_failed_rules" yaml:"dependency_failed_rules"`
}

// NewValidationRuleResult builds the result record for rule.
func NewValidationRuleResult(rule *ExecutableRule, res rules.RuleResult, rc rules.RuleContext, duration time.Duration) ValidationRuleResult {
	node := rule.Node()
	out := ValidationRuleResult{
		Rule:          rule.Declaration,
		RuleID:        rule.Declaration.ID,
		RuleName:      rule.Declaration.Name,
		Path:          node.Path,
		ValidatedType: node.Type,
		Identity:      node.Identity,
		Outcome:       res.Outcome,
		Data:          res.Data,
		Err:           res.Err,
		Context:       rc,
		Index:         rule.Index,
		Duration:      duration,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// NewExecutionResult creates a new execution result.
func NewExecutionResult(m *manifest.Manifest) *ExecutionResult {
	return NewExecutionResultWithID(values.NewRunID(), m)
}

// NewExecutionResultWithID creates a new execution result with a specific ID.
func NewExecutionResultWithID(id values.RunID, m *manifest.Manifest) *ExecutionResult {
	return &ExecutionResult{
		RunID:           id,
		ManifestName:    m.Name,
		ManifestVersion: m.Version,
		StartTime:       time.Now(),
		Results:         make([]ValidationRuleResult, 0),
	}
}

// GetID returns the run ID.
func (r *ExecutionResult) GetID() values.RunID {
	return r.RunID
}

// AddRuleResults appends rule results.
// Thread-safe for concurrent calls during parallel execution.
func (r *ExecutionResult) AddRuleResults(results ...ValidationRuleResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, results...)
}

// Passed reports whether every result passed.
func (r *ExecutionResult) Passed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.Results {
		if !res.Outcome.IsPassed() {
			return false
		}
	}
	return true
}

// ResultsFor returns the results recorded for a rule ID, in order.
func (r *ExecutionResult) ResultsFor(ruleID string) []ValidationRuleResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ValidationRuleResult
	for _, res := range r.Results {
		if res.RuleID == ruleID {
			out = append(out, res)
		}
	}
	return out
}

// Finalize completes the execution result and calculates the summary.
// Results are sorted by flatten order for deterministic output.
func (r *ExecutionResult) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)

	sort.SliceStable(r.Results, func(i, j int) bool {
		return r.Results[i].Index < r.Results[j].Index
	})

	r.Summary = ResultSummary{TotalRules: len(r.Results)}
	for _, res := range r.Results {
		switch res.Outcome {
		case values.OutcomePassed:
			r.Summary.PassedRules++
		case values.OutcomeFailed:
			r.Summary.FailedRules++
		case values.OutcomeErrored:
			r.Summary.ErroredRules++
		case values.OutcomeDependencyFailed:
			r.Summary.DependencyFailedRules++
		}
	}
}

// RuleResult returns the rule-level view of the result.
func (r ValidationRuleResult) RuleResult() rules.RuleResult {
	return rules.RuleResult{Outcome: r.Outcome, Data: r.Data, Err: r.Err}
}
