package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"
	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// maxArtifactContent bounds the manifest text embedded in the report.
const maxArtifactContent = 512 * 1024

type sarifMapper struct {
	result       *execution.ExecutionResult
	manifestPath string
	cwd          string
}

func newSARIFMapper(result *execution.ExecutionResult, manifestPath string) *sarifMapper {
	cwd, _ := os.Getwd() // best effort
	return &sarifMapper{
		result:       result,
		manifestPath: manifestPath,
		cwd:          cwd,
	}
}

// mapToRun populates the run with rules, results, the manifest artifact,
// the invocation and summary properties.
func (m *sarifMapper) mapToRun(run *sarif.Run) {
	m.addRules(run)
	m.addResults(run)
	m.addArtifact(run)
	m.addInvocation(run)

	props := sarif.NewPropertyBag()
	props.Add("summary", m.result.Summary)
	run.WithProperties(props)
}

// addRules registers each distinct declared rule once, in result order.
func (m *sarifMapper) addRules(run *sarif.Run) {
	seen := make(map[string]bool)
	for _, res := range m.result.Results {
		id := ruleLabel(res)
		if seen[id] {
			continue
		}
		seen[id] = true

		rule := sarif.NewReportingDescriptor().WithID(id)
		rule.WithName(res.RuleID)

		short := fmt.Sprintf("Rule %s", id)
		rule.WithShortDescription(&sarif.MultiformatMessageString{Text: &short})
		if expression, ok := res.Data["expression"].(string); ok && expression != "" {
			rule.WithFullDescription(&sarif.MultiformatMessageString{Text: &expression})
		}
		rule.WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: "error"})

		props := sarif.NewPropertyBag()
		if res.ValidatedType != "" {
			props.Add("validatedType", res.ValidatedType)
		}
		rule.WithProperties(props)

		run.Tool.Driver.AddRule(rule)
	}
}

func (m *sarifMapper) addResults(run *sarif.Run) {
	for _, res := range m.result.Results {
		run.AddResult(m.mapRuleResult(res))
	}
}

// mapRuleResult converts one rule result to a SARIF result.
func (m *sarifMapper) mapRuleResult(res execution.ValidationRuleResult) *sarif.Result {
	result := sarif.NewRuleResult(ruleLabel(res))
	result.Level = mapOutcomeToLevel(res.Outcome)
	result.Kind = mapOutcomeToKind(res.Outcome)
	result.Message = sarif.NewTextMessage(m.message(res))

	if m.manifestPath != "" {
		loc := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithURI(m.normalizeURI(m.manifestPath))),
		)
		result.Locations = []*sarif.Location{loc}
	}

	props := sarif.NewPropertyBag()
	props.Add("path", res.Path)
	props.Add("duration_ms", res.Duration.Milliseconds())
	if res.ValidatedType != "" {
		props.Add("validatedType", res.ValidatedType)
	}
	if res.Identity != nil {
		props.Add("identity", fmt.Sprintf("%v", res.Identity))
	}
	if len(res.Data) > 0 {
		props.Add("data", res.Data)
	}
	if res.Reason != "" {
		props.Add("reason", res.Reason)
	}
	result.WithProperties(props)

	return result
}

func (m *sarifMapper) message(res execution.ValidationRuleResult) string {
	label := ruleLabel(res)
	switch res.Outcome {
	case values.OutcomePassed:
		return fmt.Sprintf("Rule %s passed at %s", label, res.Path)
	case values.OutcomeFailed:
		return fmt.Sprintf("Rule %s failed at %s", label, res.Path)
	case values.OutcomeErrored:
		msg := fmt.Sprintf("Rule %s could not be evaluated at %s", label, res.Path)
		if res.Reason != "" {
			return msg + ": " + res.Reason
		}
		if res.Error != "" {
			return msg + ": " + res.Error
		}
		return msg
	case values.OutcomeDependencyFailed:
		if res.Reason != "" {
			return fmt.Sprintf("Rule %s at %s: %s", label, res.Path, res.Reason)
		}
		return fmt.Sprintf("Rule %s was skipped at %s", label, res.Path)
	default:
		return fmt.Sprintf("Rule %s completed with outcome %s at %s", label, res.Outcome, res.Path)
	}
}

func mapOutcomeToLevel(outcome values.Outcome) string {
	switch outcome {
	case values.OutcomePassed:
		return "note"
	case values.OutcomeFailed:
		return "error"
	case values.OutcomeErrored:
		return "warning"
	case values.OutcomeDependencyFailed:
		return "none"
	default:
		return "warning"
	}
}

func mapOutcomeToKind(outcome values.Outcome) string {
	switch outcome {
	case values.OutcomePassed:
		return "pass"
	case values.OutcomeDependencyFailed:
		return "notApplicable"
	default:
		return "fail"
	}
}

// normalizeURI converts a file path to a SARIF-compliant URI, relative to
// the working directory when possible.
func (m *sarifMapper) normalizeURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	if m.cwd != "" {
		if rel, err := filepath.Rel(m.cwd, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return "file://" + filepath.ToSlash(abs)
}

// addArtifact registers the manifest file, embedding its text when small.
func (m *sarifMapper) addArtifact(run *sarif.Run) {
	if m.manifestPath == "" {
		return
	}

	artifact := sarif.NewArtifact().
		WithLocation(sarif.NewArtifactLocation().WithURI(m.normalizeURI(m.manifestPath)))

	if info, err := os.Stat(m.manifestPath); err == nil && !info.IsDir() {
		artifact.WithLength(int(info.Size()))
		if info.Size() < maxArtifactContent {
			//nolint:gosec // G304: the manifest path was already loaded by the caller
			if content, err := os.ReadFile(m.manifestPath); err == nil {
				artifact.WithContents(sarif.NewArtifactContent().WithText(string(content)))
			}
		}
	}

	run.AddArtifact(artifact)
}

// addInvocation adds execution metadata to the run.
func (m *sarifMapper) addInvocation(run *sarif.Run) {
	invocation := sarif.NewInvocation()
	invocation.ExecutionSuccessful = ptrBool(m.result.Summary.ErroredRules == 0)

	startTime := m.result.StartTime.UTC().Format("2006-01-02T15:04:05.000Z")
	endTime := m.result.EndTime.UTC().Format("2006-01-02T15:04:05.000Z")
	invocation.StartTimeUtc = &startTime
	invocation.EndTimeUtc = &endTime

	if hostname, err := os.Hostname(); err == nil {
		invocation.Machine = &hostname
	}
	if m.cwd != "" {
		invocation.WorkingDirectory = sarif.NewArtifactLocation().WithURI("file://" + filepath.ToSlash(m.cwd))
	}

	props := sarif.NewPropertyBag()
	props.Add("manifestName", m.result.ManifestName)
	props.Add("manifestVersion", m.result.ManifestVersion)
	props.Add("runId", m.result.RunID.String())
	invocation.WithProperties(props)

	run.AddInvocation(invocation)
}

func ptrBool(b bool) *bool {
	return &b
}
