// Package container provides dependency injection for the application.
package container

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/rulegraph/internal/application/ports"
	"github.com/reglet-dev/rulegraph/internal/application/services"
	"github.com/reglet-dev/rulegraph/internal/domain/repositories"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/adapters"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/expressions"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/output"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/persistence/memory"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/redaction"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/secrets"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/system"
)

// Container holds all application dependencies.
type Container struct {
	manifestLoader       ports.ManifestLoader
	systemConfig         ports.SystemConfigProvider
	engineFactory        ports.EngineFactory
	formatters           ports.OutputFormatterFactory
	results              repositories.ResultRepository
	checkManifestUseCase *services.CheckManifestUseCase
	redactor             *redaction.Redactor
	systemCfg            *system.Config
	logger               *slog.Logger
}

// Options configure the container.
type Options struct {
	Logger           *slog.Logger
	SystemConfigPath string
}

// New creates a new dependency injection container.
func New(opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	systemConfigAdapter := adapters.NewSystemConfigAdapter()
	systemCfg, err := systemConfigAdapter.LoadConfig(context.TODO(), opts.SystemConfigPath)
	if err != nil {
		opts.Logger.Debug("failed to load system config, using defaults", "error", err)
		systemCfg = system.DefaultConfig()
	}

	// Redactor for rendered output; engines build their own for result data
	redactor, err := redaction.New(redaction.Config{
		Logger:          opts.Logger,
		Patterns:        systemCfg.Redaction.Patterns,
		Paths:           systemCfg.Redaction.Paths,
		HashMode:        systemCfg.Redaction.HashMode.Enabled,
		Salt:            systemCfg.Redaction.HashMode.Salt,
		DisableGitleaks: systemCfg.Redaction.DisableGitleaks,
	})
	if err != nil {
		return nil, err
	}

	// Resolved secrets are tracked by the output redactor
	secretResolver := secrets.NewResolver(&systemCfg.Secrets, redactor)
	manifestLoader := adapters.NewManifestLoaderAdapter(expressions.NewCache(), secretResolver)
	dataLoader := adapters.NewDataLoaderAdapter()

	results := memory.NewResultRepository()
	engineFactory := adapters.NewEngineFactoryAdapter(results, opts.Logger)

	// Wire up use case
	checkManifestUseCase := services.NewCheckManifestUseCase(
		systemConfigAdapter,
		manifestLoader,
		dataLoader,
		engineFactory,
		opts.Logger,
	)

	return &Container{
		manifestLoader:       manifestLoader,
		systemConfig:         systemConfigAdapter,
		engineFactory:        engineFactory,
		formatters:           output.NewFormatterFactory(),
		results:              results,
		checkManifestUseCase: checkManifestUseCase,
		redactor:             redactor,
		systemCfg:            systemCfg,
		logger:               opts.Logger,
	}, nil
}

// CheckManifestUseCase returns the check manifest use case.
func (c *Container) CheckManifestUseCase() *services.CheckManifestUseCase {
	return c.checkManifestUseCase
}

// ManifestLoader returns the manifest loader port.
func (c *Container) ManifestLoader() ports.ManifestLoader {
	return c.manifestLoader
}

// Formatters returns the output formatter factory.
func (c *Container) Formatters() ports.OutputFormatterFactory {
	return c.formatters
}

// Results returns the repository every run in this process is saved to.
func (c *Container) Results() repositories.ResultRepository {
	return c.results
}

// Redactor returns the redactor for rendered output.
func (c *Container) Redactor() *redaction.Redactor {
	return c.redactor
}

// SystemConfig returns the system configuration.
func (c *Container) SystemConfig() *system.Config {
	return c.systemCfg
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}
