// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"
	"io"

	"github.com/reglet-dev/rulegraph/internal/application/dto"
	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/system"
)

// ManifestLoader loads and compiles manifests from storage.
type ManifestLoader interface {
	Load(path string) (*manifest.Manifest, error)
}

// DataLoader loads the object to validate.
type DataLoader interface {
	LoadData(path string) (any, error)
}

// SystemConfigProvider loads system configuration.
type SystemConfigProvider interface {
	LoadConfig(ctx context.Context, path string) (*system.Config, error)
}

// ValidationEngine validates an object against a compiled manifest.
type ValidationEngine interface {
	Validate(ctx context.Context, m *manifest.Manifest, object any) (*execution.ExecutionResult, error)
}

// EngineFactory creates validation engines from system configuration
// and per-request overrides.
type EngineFactory interface {
	CreateEngine(ctx context.Context, sys *system.Config, opts dto.ExecutionOptions) (ValidationEngine, error)
}

// OutputFormatter formats execution results.
type OutputFormatter interface {
	Format(result *execution.ExecutionResult) error
}

// FormatterOptions tunes formatter construction.
type FormatterOptions struct {
	// ManifestPath is referenced by formats that carry locations (SARIF).
	ManifestPath string
	Indent       bool
	NoColor      bool
	FailuresOnly bool
}

// OutputFormatterFactory creates formatters by name.
type OutputFormatterFactory interface {
	Create(format string, w io.Writer, opts FormatterOptions) (OutputFormatter, error)
	SupportedFormats() []string
}
