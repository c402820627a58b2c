// Package services contains application use cases.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/reglet-dev/rulegraph/internal/application/dto"
	apperrors "github.com/reglet-dev/rulegraph/internal/application/errors"
	"github.com/reglet-dev/rulegraph/internal/application/ports"
	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
)

// CheckManifestUseCase orchestrates validating one object against a
// manifest. It depends only on ports.
type CheckManifestUseCase struct {
	systemConfig   ports.SystemConfigProvider
	manifestLoader ports.ManifestLoader
	dataLoader     ports.DataLoader
	engineFactory  ports.EngineFactory
	logger         *slog.Logger
}

// NewCheckManifestUseCase creates a new check manifest use case.
func NewCheckManifestUseCase(
	systemConfig ports.SystemConfigProvider,
	manifestLoader ports.ManifestLoader,
	dataLoader ports.DataLoader,
	engineFactory ports.EngineFactory,
	logger *slog.Logger,
) *CheckManifestUseCase {
	if logger == nil {
		logger = slog.Default()
	}

	return &CheckManifestUseCase{
		systemConfig:   systemConfig,
		manifestLoader: manifestLoader,
		dataLoader:     dataLoader,
		engineFactory:  engineFactory,
		logger:         logger,
	}
}

// Execute loads the system config, manifest and data, then runs the engine.
// A run whose rules fail is not an error; see CheckFailed.
func (uc *CheckManifestUseCase) Execute(ctx context.Context, req dto.CheckManifestRequest) (*dto.CheckManifestResponse, error) {
	startTime := time.Now()

	if req.ManifestPath == "" {
		return nil, apperrors.NewValidationError("manifest", "manifest path is required", nil)
	}
	if req.DataPath == "" {
		return nil, apperrors.NewValidationError("data", "data path is required", nil)
	}

	sysCfg, err := uc.systemConfig.LoadConfig(ctx, req.Options.SystemConfigPath)
	if err != nil {
		return nil, apperrors.NewConfigurationError("system_config", "failed to load system config", err)
	}

	uc.logger.Info("loading manifest", "path", req.ManifestPath)
	m, err := uc.manifestLoader.Load(req.ManifestPath)
	if err != nil {
		return nil, apperrors.NewValidationError("manifest", "failed to load manifest", err)
	}
	uc.logger.Info("manifest loaded", "name", m.Name, "version", m.Version)

	object, err := uc.dataLoader.LoadData(req.DataPath)
	if err != nil {
		return nil, apperrors.NewValidationError("data", "failed to load data", err)
	}

	eng, err := uc.engineFactory.CreateEngine(ctx, sysCfg, req.Execution)
	if err != nil {
		return nil, apperrors.NewConfigurationError("engine", "failed to create engine", err)
	}

	result, err := uc.validate(ctx, eng, m, object)
	if err != nil {
		return nil, err
	}

	return uc.buildResponse(req, startTime, object, result), nil
}

func (uc *CheckManifestUseCase) validate(
	ctx context.Context,
	eng ports.ValidationEngine,
	m *manifest.Manifest,
	object any,
) (*execution.ExecutionResult, error) {
	uc.logger.Info("validating data")
	result, err := eng.Validate(ctx, m, object)
	switch {
	case errors.Is(err, manifest.ErrIncompatible):
		return nil, apperrors.NewConfigurationError("requires", "manifest cannot run on this version", err)
	case err != nil:
		return nil, apperrors.NewExecutionError(m.Name, "validation run failed", err)
	}

	uc.logger.Info("validation complete",
		"duration", result.Duration,
		"total_rules", result.Summary.TotalRules,
		"passed", result.Summary.PassedRules,
		"failed", result.Summary.FailedRules,
		"errored", result.Summary.ErroredRules,
		"dependency_failed", result.Summary.DependencyFailedRules)
	return result, nil
}

func (uc *CheckManifestUseCase) buildResponse(
	req dto.CheckManifestRequest,
	startTime time.Time,
	object any,
	result *execution.ExecutionResult,
) *dto.CheckManifestResponse {
	var warnings []string
	if object == nil {
		warnings = append(warnings, "data document is empty")
	}
	if len(result.Results) == 0 {
		warnings = append(warnings, "no rules were evaluated")
	}

	return &dto.CheckManifestResponse{
		ExecutionResult: result,
		Metadata: dto.ResponseMetadata{
			RequestID:    req.Metadata.RequestID,
			ManifestPath: req.ManifestPath,
			DataPath:     req.DataPath,
			ProcessedAt:  time.Now(),
			Duration:     time.Since(startTime),
		},
		Diagnostics: dto.Diagnostics{
			Warnings: warnings,
		},
	}
}

// CheckFailed returns true if any rule result did not pass.
func (uc *CheckManifestUseCase) CheckFailed(result *execution.ExecutionResult) bool {
	return !result.Passed()
}
