// Package output renders execution results as table, JSON, YAML, JUnit XML
// or SARIF.
package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"
	"github.com/reglet-dev/rulegraph/internal/domain/execution"
)

const (
	toolName = "rulegraph"
	toolURI  = "https://github.com/reglet-dev/rulegraph"
)

// SARIFFormatter writes a SARIF 2.1.0 log with one run. Every declared
// rule becomes a reporting descriptor and every rule result a SARIF result
// located in the manifest file, so code-scanning UIs annotate the manifest.
type SARIFFormatter struct {
	writer       io.Writer
	manifestPath string
}

// NewSARIFFormatter creates a SARIF formatter. An empty manifestPath
// produces results without locations.
func NewSARIFFormatter(writer io.Writer, manifestPath string) *SARIFFormatter {
	return &SARIFFormatter{writer: writer, manifestPath: manifestPath}
}

// Format implements ports.OutputFormatter.
func (f *SARIFFormatter) Format(result *execution.ExecutionResult) error {
	run := newToolRun(result.EngineVersion)
	newSARIFMapper(result, f.manifestPath).mapToRun(run)

	report := sarif.NewReport()
	report.AddRun(run)
	if err := report.Write(f.writer); err != nil {
		return fmt.Errorf("failed to write SARIF output: %w", err)
	}
	_, err := io.WriteString(f.writer, "\n")
	return err
}

// newToolRun creates a run whose driver identifies this engine build.
func newToolRun(engineVersion string) *sarif.Run {
	if engineVersion == "" {
		engineVersion = "dev"
	}
	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	run.Tool.Driver.Version = &engineVersion
	return run
}
