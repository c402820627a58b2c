package values

import (
	"fmt"
)

// Outcome is the terminal state of a single rule.
type Outcome string

const (
	// OutcomePassed indicates the rule logic ran and passed
	OutcomePassed Outcome = "passed"
	// OutcomeFailed indicates the rule logic ran and the value did not satisfy it
	OutcomeFailed Outcome = "failed"
	// OutcomeErrored indicates the rule could not produce a verdict
	OutcomeErrored Outcome = "errored"
	// OutcomeDependencyFailed indicates the rule never ran because a dependency did not pass
	OutcomeDependencyFailed Outcome = "dependency_failed"
)

// Precedence returns the numeric precedence of this outcome.
// Higher values win when outcomes are aggregated.
//
// Precedence: Failed (3) > Errored (2) > DependencyFailed (1) > Passed (0)
func (o Outcome) Precedence() int {
	switch o {
	case OutcomeFailed:
		return 3
	case OutcomeErrored:
		return 2
	case OutcomeDependencyFailed:
		return 1
	case OutcomePassed:
		return 0
	default:
		return -1
	}
}

// IsPassed returns true if the outcome allows dependents to run.
func (o Outcome) IsPassed() bool {
	return o == OutcomePassed
}

// IsFailure returns true for every terminal outcome other than passed.
func (o Outcome) IsFailure() bool {
	return o == OutcomeFailed || o == OutcomeErrored || o == OutcomeDependencyFailed
}

// Validate returns an error if the outcome value is invalid
func (o Outcome) Validate() error {
	switch o {
	case OutcomePassed, OutcomeFailed, OutcomeErrored, OutcomeDependencyFailed:
		return nil
	default:
		return fmt.Errorf("invalid outcome: %q", string(o))
	}
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	return string(o)
}
