package output

import (
	"fmt"
	"io"

	"github.com/reglet-dev/rulegraph/internal/application/ports"
)

var _ ports.OutputFormatterFactory = (*FormatterFactory)(nil)

type formatterBuilder func(w io.Writer, opts ports.FormatterOptions) ports.OutputFormatter

// formats lists the builders in the order SupportedFormats reports them.
// The first entry is also the default for an empty format name.
var formats = []struct {
	name  string
	build formatterBuilder
}{
	{"table", func(w io.Writer, opts ports.FormatterOptions) ports.OutputFormatter {
		f := NewTableFormatter(w)
		f.EnableColor = !opts.NoColor
		f.FailuresOnly = opts.FailuresOnly
		return f
	}},
	{"json", func(w io.Writer, opts ports.FormatterOptions) ports.OutputFormatter {
		f := NewJSONFormatter(w, opts.Indent)
		f.FailuresOnly = opts.FailuresOnly
		return f
	}},
	{"yaml", func(w io.Writer, opts ports.FormatterOptions) ports.OutputFormatter {
		f := NewYAMLFormatter(w)
		f.FailuresOnly = opts.FailuresOnly
		return f
	}},
	// JUnit and SARIF consumers expect every executed rule.
	{"junit", func(w io.Writer, _ ports.FormatterOptions) ports.OutputFormatter {
		return NewJUnitFormatter(w)
	}},
	{"sarif", func(w io.Writer, opts ports.FormatterOptions) ports.OutputFormatter {
		return NewSARIFFormatter(w, opts.ManifestPath)
	}},
}

// FormatterFactory implements ports.OutputFormatterFactory.
type FormatterFactory struct{}

// NewFormatterFactory creates a new formatter factory.
func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

// Create returns a formatter for the given format name.
func (f *FormatterFactory) Create(format string, w io.Writer, opts ports.FormatterOptions) (ports.OutputFormatter, error) {
	if format == "" {
		format = formats[0].name
	}
	for _, entry := range formats {
		if entry.name == format {
			return entry.build(w, opts), nil
		}
	}
	return nil, fmt.Errorf("unknown format: %s (supported: %v)", format, f.SupportedFormats())
}

// SupportedFormats returns list of available format names.
func (f *FormatterFactory) SupportedFormats() []string {
	names := make([]string, len(formats))
	for i, entry := range formats {
		names[i] = entry.name
	}
	return names
}
