package engine

import (
	"fmt"
	"strings"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// erroredValueReason explains an errored result synthesized for a value
// that could not be read.
func erroredValueReason(path string, affected int) string {
	if affected == 1 {
		return fmt.Sprintf("value at %s could not be read; 1 rule not run", path)
	}
	return fmt.Sprintf("value at %s could not be read; %d rules not run", path, affected)
}

// dependencyFailedReason names the dependencies that kept a rule from running.
func dependencyFailedReason(failing []string) string {
	switch len(failing) {
	case 0:
		return "Skipped: an upstream rule was not run"
	case 1:
		return "Skipped: dependency " + failing[0] + " did not pass"
	default:
		return "Skipped: dependencies " + strings.Join(failing, ", ") + " did not pass"
	}
}

// summaryMessage generates a human-readable line for a finished run.
func summaryMessage(s execution.ResultSummary) string {
	switch {
	case s.TotalRules == 0:
		return "No rules evaluated"
	case s.PassedRules == s.TotalRules:
		if s.TotalRules == 1 {
			return "Rule passed"
		}
		return fmt.Sprintf("All %d rules passed", s.TotalRules)
	default:
		return fmt.Sprintf("%d of %d rules did not pass (%s: %d, %s: %d, %s: %d)",
			s.TotalRules-s.PassedRules, s.TotalRules,
			values.OutcomeFailed, s.FailedRules,
			values.OutcomeErrored, s.ErroredRules,
			values.OutcomeDependencyFailed, s.DependencyFailedRules)
	}
}
