package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// TableFormatter formats execution results as a human-readable table.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
	// FailuresOnly hides passed results.
	FailuresOnly bool
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		writer:      w,
		EnableColor: true,
	}
}

func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

// Format writes the execution result as a table.
//
//nolint:errcheck // Table formatting errors are non-critical (best-effort terminal output)
func (f *TableFormatter) Format(result *execution.ExecutionResult) error {
	rule := f.colorize(strings.Repeat("─", 80), colorGray)

	fmt.Fprintln(f.writer, rule)
	fmt.Fprintf(f.writer, "Manifest: %s (v%s)\n", f.colorize(result.ManifestName, colorBold), result.ManifestVersion)
	fmt.Fprintf(f.writer, "Run: %s\n", result.RunID)
	fmt.Fprintf(f.writer, "Executed: %s\n", result.StartTime.Format(time.RFC3339))
	fmt.Fprintf(f.writer, "Duration: %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintln(f.writer)

	if len(result.Results) == 0 {
		fmt.Fprintln(f.writer, "No rules executed.")
		return nil
	}

	fmt.Fprintln(f.writer, f.colorize("Results:", colorBold))
	fmt.Fprintln(f.writer, rule)
	for _, res := range result.Results {
		if f.FailuresOnly && res.Outcome.IsPassed() {
			continue
		}
		f.formatResult(res)
	}
	fmt.Fprintln(f.writer, rule)
	fmt.Fprintln(f.writer)

	f.formatSummary(result.Summary)
	return nil
}

// formatResult formats a single rule result.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatResult(res execution.ValidationRuleResult) {
	symbol, color := f.getStatusInfo(res.Outcome)

	header := fmt.Sprintf("%s %s", f.colorize(symbol, color), f.colorize(ruleLabel(res), color))
	header += " at " + f.colorize(res.Path, colorCyan)
	if res.ValidatedType != "" {
		header += fmt.Sprintf(" [%s]", res.ValidatedType)
	}
	fmt.Fprintln(f.writer, header)

	if res.Identity != nil {
		fmt.Fprintf(f.writer, "  Identity: %v\n", res.Identity)
	}
	fmt.Fprintf(f.writer, "  Status: %s\n", f.colorize(strings.ToUpper(string(res.Outcome)), color))
	if res.Reason != "" {
		fmt.Fprintf(f.writer, "  Reason: %s\n", res.Reason)
	}
	if res.Error != "" {
		fmt.Fprintf(f.writer, "  %s: %s\n", f.colorize("Error", colorRed), res.Error)
	}
	if res.Duration > 0 {
		fmt.Fprintf(f.writer, "  Duration: %s\n", res.Duration.Round(time.Microsecond))
	}
	f.formatData(res)
	fmt.Fprintln(f.writer)
}

// formatData formats a result's data bag, keys sorted.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatData(res execution.ValidationRuleResult) {
	keys := collectDataKeys(res.Data)
	if len(keys) == 0 {
		return
	}

	fmt.Fprintln(f.writer, "  Data:")
	for _, key := range keys {
		valStr := formatValue(res.Data[key])
		if strings.Contains(valStr, "\n") {
			fmt.Fprintf(f.writer, "    - %s:\n", f.colorize(key, colorBlue))
			for _, line := range strings.Split(valStr, "\n") {
				fmt.Fprintf(f.writer, "        %s\n", line)
			}
			continue
		}
		fmt.Fprintf(f.writer, "    - %s: %s\n", f.colorize(key, colorBlue), valStr)
	}
	if res.DataMeta != nil && res.DataMeta.Truncated {
		fmt.Fprintf(f.writer, "    %s\n", f.colorize(fmt.Sprintf("(truncated: %d bytes, limit %d)", res.DataMeta.OriginalSize, res.DataMeta.TruncatedAt), colorYellow))
	}
}

func collectDataKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k, v := range data {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatValue renders a data value. Lists of maps render one item per line.
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case map[string]any:
		return formatMap(v)
	case []any:
		if len(v) == 0 {
			return "[]"
		}
		if _, ok := v[0].(map[string]any); !ok {
			return fmt.Sprintf("%v", v)
		}
		lines := make([]string, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				lines = append(lines, formatMap(m))
			} else {
				lines = append(lines, fmt.Sprintf("%v", item))
			}
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprintf("%v", value)
	}
}

func formatMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatSummary formats the summary statistics.
//
//nolint:errcheck // Best-effort terminal output
func (f *TableFormatter) formatSummary(summary execution.ResultSummary) {
	fmt.Fprintln(f.writer, f.colorize("Summary:", colorBold))
	fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", 80), colorGray))
	fmt.Fprintf(f.writer, "Rules:        %d total\n", summary.TotalRules)
	fmt.Fprintf(f.writer, "  %s Passed:   %d\n", f.colorize("✓", colorGreen), summary.PassedRules)
	fmt.Fprintf(f.writer, "  %s Failed:   %d\n", f.colorize("✗", colorRed), summary.FailedRules)
	fmt.Fprintf(f.writer, "  %s Errored:  %d\n", f.colorize("⚠", colorYellow), summary.ErroredRules)
	fmt.Fprintf(f.writer, "  %s Skipped:  %d\n", f.colorize("⊘", colorGray), summary.DependencyFailedRules)
	fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", 80), colorGray))
}

// getStatusInfo returns a symbol and color for the given outcome.
func (f *TableFormatter) getStatusInfo(outcome values.Outcome) (string, string) {
	switch outcome {
	case values.OutcomePassed:
		return "✓", colorGreen
	case values.OutcomeFailed:
		return "✗", colorRed
	case values.OutcomeErrored:
		return "⚠", colorYellow
	case values.OutcomeDependencyFailed:
		return "⊘", colorGray
	default:
		return "?", colorReset
	}
}

// ruleLabel renders a rule as id or id/name.
func ruleLabel(res execution.ValidationRuleResult) string {
	if res.RuleName == "" {
		return res.RuleID
	}
	return res.RuleID + "/" + res.RuleName
}
