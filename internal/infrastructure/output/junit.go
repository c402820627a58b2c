package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// JUnitFormatter formats execution results as JUnit XML. Each validated
// type becomes a test suite and each rule result a test case.
type JUnitFormatter struct {
	writer io.Writer
}

// NewJUnitFormatter creates a new JUnit formatter.
func NewJUnitFormatter(w io.Writer) *JUnitFormatter {
	return &JUnitFormatter{writer: w}
}

// JUnitTestSuites is the document root.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
}

// JUnitTestSuite groups the results for one validated type.
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
}

// JUnitTestCase is one rule result.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
}

// JUnitFailure marks a failed rule.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

// JUnitError marks an errored rule.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

// JUnitSkipped marks a rule that never ran.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// Format writes the execution result as JUnit XML.
func (f *JUnitFormatter) Format(result *execution.ExecutionResult) error {
	suites := JUnitTestSuites{
		Name:     result.ManifestName,
		Tests:    result.Summary.TotalRules,
		Failures: result.Summary.FailedRules,
		Errors:   result.Summary.ErroredRules,
		Skipped:  result.Summary.DependencyFailedRules,
		Time:     result.Duration.Seconds(),
	}

	byType := make(map[string]*JUnitTestSuite)
	var order []string
	for _, res := range result.Results {
		suiteName := res.ValidatedType
		if suiteName == "" {
			suiteName = result.ManifestName
		}
		suite, ok := byType[suiteName]
		if !ok {
			suite = &JUnitTestSuite{Name: suiteName}
			byType[suiteName] = suite
			order = append(order, suiteName)
		}
		suite.TestCases = append(suite.TestCases, testCase(res, suiteName))
		suite.Tests++
		suite.Time += res.Duration.Seconds()
		switch res.Outcome {
		case values.OutcomeFailed:
			suite.Failures++
		case values.OutcomeErrored:
			suite.Errors++
		case values.OutcomeDependencyFailed:
			suite.Skipped++
		}
	}
	sort.Strings(order)
	for _, name := range order {
		suites.TestSuites = append(suites.TestSuites, *byType[name])
	}

	if _, err := f.writer.Write([]byte(xml.Header)); err != nil {
		return err
	}

	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(suites); err != nil {
		return err
	}

	_, err := f.writer.Write([]byte("\n"))
	return err
}

func testCase(res execution.ValidationRuleResult, suite string) JUnitTestCase {
	c := JUnitTestCase{
		Name:      fmt.Sprintf("%s at %s", ruleLabel(res), res.Path),
		ClassName: suite,
		Time:      res.Duration.Seconds(),
	}

	switch res.Outcome {
	case values.OutcomeFailed:
		c.Failure = &JUnitFailure{Message: messageFor(res), Content: details(res)}
	case values.OutcomeErrored:
		c.Error = &JUnitError{Message: messageFor(res), Content: details(res)}
	case values.OutcomeDependencyFailed:
		c.Skipped = &JUnitSkipped{Message: res.Reason}
	}
	return c
}

// messageFor returns the most specific message available for res.
func messageFor(res execution.ValidationRuleResult) string {
	switch {
	case res.Reason != "":
		return res.Reason
	case res.Error != "":
		return res.Error
	default:
		return fmt.Sprintf("rule %s %s at %s", ruleLabel(res), res.Outcome, res.Path)
	}
}

func details(res execution.ValidationRuleResult) string {
	var b strings.Builder
	if res.Identity != nil {
		fmt.Fprintf(&b, "Identity: %v\n", res.Identity)
	}
	if res.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", res.Error)
	}
	for _, key := range collectDataKeys(res.Data) {
		fmt.Fprintf(&b, "%s: %s\n", key, formatValue(res.Data[key]))
	}
	return b.String()
}
