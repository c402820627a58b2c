// Package adapters provides infrastructure adapters that implement application ports.
// These adapters wrap existing infrastructure components to satisfy port interfaces.
package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/reglet-dev/rulegraph/internal/application/dto"
	"github.com/reglet-dev/rulegraph/internal/application/ports"
	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/domain/repositories"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
	infraconfig "github.com/reglet-dev/rulegraph/internal/infrastructure/config"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/engine"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/expressions"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/redaction"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/system"
)

// Ensure adapters implement ports at compile time
var (
	_ ports.ManifestLoader       = (*ManifestLoaderAdapter)(nil)
	_ ports.DataLoader           = (*DataLoaderAdapter)(nil)
	_ ports.SystemConfigProvider = (*SystemConfigAdapter)(nil)
	_ ports.EngineFactory        = (*EngineFactoryAdapter)(nil)
	_ ports.ValidationEngine     = (*engine.Engine)(nil)
)

// StdinPath makes DataLoaderAdapter read the document from standard input.
const StdinPath = "-"

// ManifestLoaderAdapter adapts the YAML manifest loader to the port interface.
type ManifestLoaderAdapter struct {
	loader *infraconfig.ManifestLoader
}

// NewManifestLoaderAdapter creates a manifest loader sharing cache across
// loads. secrets may be nil, in which case secret references fail to load.
func NewManifestLoaderAdapter(cache *expressions.Cache, secrets infraconfig.SecretResolver) *ManifestLoaderAdapter {
	loader := infraconfig.NewManifestLoaderWithCache(cache)
	if secrets != nil {
		loader.SetSecretResolver(secrets)
	}
	return &ManifestLoaderAdapter{loader: loader}
}

// Load loads, substitutes and compiles a manifest.
func (a *ManifestLoaderAdapter) Load(path string) (*manifest.Manifest, error) {
	return a.loader.Load(path)
}

// DataLoaderAdapter loads the object under validation.
type DataLoaderAdapter struct {
	stdin *os.File
}

// NewDataLoaderAdapter creates a data loader reading "-" from os.Stdin.
func NewDataLoaderAdapter() *DataLoaderAdapter {
	return &DataLoaderAdapter{stdin: os.Stdin}
}

// LoadData decodes the document at path. JSON documents are valid YAML, so
// standard input is decoded as YAML.
func (a *DataLoaderAdapter) LoadData(path string) (any, error) {
	if path == StdinPath {
		data, err := infraconfig.LoadDataFromReader(a.stdin, "yaml")
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return data, nil
	}
	return infraconfig.LoadData(path)
}

// SystemConfigAdapter adapts system config loader to port interface.
type SystemConfigAdapter struct {
	loader *system.ConfigLoader
}

// NewSystemConfigAdapter creates a new system config adapter.
func NewSystemConfigAdapter() *SystemConfigAdapter {
	return &SystemConfigAdapter{
		loader: system.NewConfigLoader(),
	}
}

// LoadConfig loads system configuration from path.
func (a *SystemConfigAdapter) LoadConfig(_ context.Context, path string) (*system.Config, error) {
	if path == "" {
		var err error
		if path, err = system.DefaultPath(); err != nil {
			return nil, err
		}
	}

	return a.loader.Load(path)
}

// EngineFactoryAdapter creates validation engines. Every engine it creates
// saves runs to the same repository.
type EngineFactoryAdapter struct {
	repository repositories.ResultRepository
	logger     *slog.Logger
}

// NewEngineFactoryAdapter creates a new engine factory adapter.
func NewEngineFactoryAdapter(repo repositories.ResultRepository, logger *slog.Logger) *EngineFactoryAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EngineFactoryAdapter{
		repository: repo,
		logger:     logger,
	}
}

// CreateEngine builds an engine from system config with per-request overrides.
func (a *EngineFactoryAdapter) CreateEngine(
	_ context.Context,
	sys *system.Config,
	opts dto.ExecutionOptions,
) (ports.ValidationEngine, error) {
	rc, err := infraconfig.FromSystemConfig(sys)
	if err != nil {
		return nil, err
	}
	if err := applyExecutionOptions(&rc.Execution, opts); err != nil {
		return nil, err
	}

	rc.Redaction.Logger = a.logger
	redactor, err := redaction.New(rc.Redaction)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redactor: %w", err)
	}

	engineOpts := []engine.Option{
		engine.WithRedactor(redactor),
		engine.WithLogger(a.logger),
	}
	if a.repository != nil {
		engineOpts = append(engineOpts, engine.WithRepository(a.repository))
	}
	eng, err := engine.NewEngineWithConfig(rc.Execution, engineOpts...)
	if err != nil {
		return nil, err
	}
	return eng, nil
}

// applyExecutionOptions overlays non-zero request options on cfg.
func applyExecutionOptions(cfg *engine.ExecutionConfig, opts dto.ExecutionOptions) error {
	if opts.AccessorErrorPolicy != "" {
		policy, err := values.ParseAccessorErrorPolicy(opts.AccessorErrorPolicy)
		if err != nil {
			return err
		}
		cfg.AccessorErrorPolicy = policy
	}
	if opts.MaxConcurrentRules > 0 {
		cfg.MaxConcurrentRules = opts.MaxConcurrentRules
	}
	if opts.MaxDepth > 0 {
		cfg.MaxDepth = opts.MaxDepth
	}
	if opts.Parallel {
		cfg.Parallel = true
	}
	return nil
}
