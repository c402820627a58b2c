package output

import (
	"encoding/json"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/rulegraph/internal/domain/execution"
)

// JSONFormatter writes the run as a single JSON document followed by a
// newline.
type JSONFormatter struct {
	writer io.Writer
	indent bool
	// FailuresOnly leaves passed results out. The summary still counts them.
	FailuresOnly bool
}

// NewJSONFormatter creates a JSON formatter. With indent set the document
// is pretty-printed.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{writer: w, indent: indent}
}

// Format implements ports.OutputFormatter.
func (f *JSONFormatter) Format(result *execution.ExecutionResult) error {
	enc := json.NewEncoder(f.writer)
	if f.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(selectResults(result, f.FailuresOnly))
}

// YAMLFormatter writes the run as a YAML document. Multi-line strings such
// as error messages use literal block style.
type YAMLFormatter struct {
	writer io.Writer
	// FailuresOnly leaves passed results out. The summary still counts them.
	FailuresOnly bool
}

// NewYAMLFormatter creates a YAML formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// Format implements ports.OutputFormatter.
func (f *YAMLFormatter) Format(result *execution.ExecutionResult) error {
	enc := yaml.NewEncoder(f.writer, yaml.Indent(2), yaml.UseLiteralStyleIfMultiline(true))
	if err := enc.Encode(selectResults(result, f.FailuresOnly)); err != nil {
		return err
	}
	return enc.Close()
}

// selectResults returns result itself, or a copy holding only the results
// that did not pass.
func selectResults(result *execution.ExecutionResult, failuresOnly bool) *execution.ExecutionResult {
	if !failuresOnly {
		return result
	}
	out := &execution.ExecutionResult{
		StartTime:       result.StartTime,
		EndTime:         result.EndTime,
		EngineVersion:   result.EngineVersion,
		ManifestName:    result.ManifestName,
		ManifestVersion: result.ManifestVersion,
		Summary:         result.Summary,
		Duration:        result.Duration,
		RunID:           result.RunID,
		Results:         make([]execution.ValidationRuleResult, 0, len(result.Results)),
	}
	for _, res := range result.Results {
		if !res.Outcome.IsPassed() {
			out.Results = append(out.Results, res)
		}
	}
	return out
}
