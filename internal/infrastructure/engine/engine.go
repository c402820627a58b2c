package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/domain/repositories"
	"github.com/reglet-dev/rulegraph/internal/domain/services"
	"github.com/reglet-dev/rulegraph/internal/domain/valuetree"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/redaction"
	"github.com/reglet-dev/rulegraph/internal/version"
)

// ErrIncompatibleManifest is returned when a manifest's requires
// constraint excludes the running engine version.
var ErrIncompatibleManifest = manifest.ErrIncompatible

// Engine validates objects against manifests.
type Engine struct {
	repository repositories.ResultRepository
	truncator  execution.TruncationStrategy
	redactor   *redaction.Redactor
	logger     *slog.Logger
	resolver   services.Resolver
	version    version.Info
	config     ExecutionConfig
}

// Option configures an Engine.
type Option func(*Engine)

// WithRepository persists every finished run.
func WithRepository(repo repositories.ResultRepository) Option {
	return func(e *Engine) {
		e.repository = repo
	}
}

// WithRedactor scrubs secrets from result data and error messages.
func WithRedactor(r *redaction.Redactor) Option {
	return func(e *Engine) {
		e.redactor = r
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithVersion sets the version checked against manifest requirements.
func WithVersion(v version.Info) Option {
	return func(e *Engine) {
		e.version = v
	}
}

// WithTruncator replaces the strategy used for oversized data bags.
func WithTruncator(t execution.TruncationStrategy) Option {
	return func(e *Engine) {
		e.truncator = t
	}
}

// NewEngine creates a new engine with default configuration.
func NewEngine(opts ...Option) (*Engine, error) {
	return NewEngineWithConfig(DefaultExecutionConfig(), opts...)
}

// NewEngineWithConfig creates a new engine with custom configuration.
func NewEngineWithConfig(cfg ExecutionConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid execution config: %w", err)
	}
	e := &Engine{
		config:    cfg,
		logger:    slog.Default(),
		truncator: &execution.GreedyTruncator{},
		version:   version.Get(),
		resolver:  services.NewCycleGuard(services.NewDependencyResolver()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Validate runs every rule of m against object and returns one result per
// rule. Configuration errors abort before any rule runs; cancellation
// aborts the run and discards partial results.
func (e *Engine) Validate(ctx context.Context, m *manifest.Manifest, object any) (*execution.ExecutionResult, error) {
	if err := contextError(ctx); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("manifest is nil")
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if err := e.CheckRequirements(m); err != nil {
		return nil, err
	}

	result := execution.NewExecutionResult(m)
	result.EngineVersion = e.version.String()
	logger := e.logger.With("run_id", result.GetID().String(), "manifest", m.Name)

	builder := valuetree.NewBuilder(
		valuetree.WithAccessorErrorPolicy(e.config.AccessorErrorPolicy),
		valuetree.WithMaxDepth(e.config.MaxDepth),
	)
	tree, err := builder.Build(m.Root, object)
	if err != nil {
		return nil, fmt.Errorf("failed to build value tree: %w", err)
	}

	flat, err := execution.Flatten(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to bind rules: %w", err)
	}

	graph, err := e.resolver.Resolve(tree, flat)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dependencies: %w", err)
	}
	logger.Debug("rule graph resolved", "nodes", tree.Len(), "rules", len(flat))

	results, err := e.pipeline(logger).Execute(ctx, NewTracker(graph))
	if err != nil {
		if ctxErr := contextError(ctx); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	for i := range results {
		e.shape(&results[i], logger)
	}
	result.AddRuleResults(results...)
	result.Finalize()
	logger.Info(summaryMessage(result.Summary), "duration", result.Duration)

	if e.repository != nil {
		if err := e.repository.Save(ctx, result); err != nil {
			logger.Warn("failed to persist execution result", "error", err)
		}
	}

	return result, nil
}

// CheckRequirements verifies m's requires constraint against the engine
// version. Development builds without a semantic version skip the check.
func (e *Engine) CheckRequirements(m *manifest.Manifest) error {
	if m.Requires == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(m.Requires)
	if err != nil {
		return fmt.Errorf("invalid requires constraint %q: %w", m.Requires, err)
	}
	current, err := e.version.Semver()
	if err != nil {
		e.logger.Debug("skipping requires check", "version", e.version.Version, "requires", m.Requires)
		return nil
	}
	if ok, errs := constraint.Validate(current); !ok {
		return fmt.Errorf("%w: %s requires %s, running %s: %w",
			ErrIncompatibleManifest, m.Name, m.Requires, current, errors.Join(errs...))
	}
	return nil
}

// pipeline composes the executor with the result-shaping decorators.
func (e *Engine) pipeline(logger *slog.Logger) RuleExecutor {
	opts := []ExecutorOption{WithExecutorLogger(logger)}
	if e.config.Parallel {
		opts = append(opts, WithParallelism(e.config.MaxConcurrentRules))
	}
	return &DependencyFailureDecorator{
		Inner: &ErroringValueDecorator{
			Inner: NewExecutor(opts...),
		},
	}
}

// shape redacts and truncates a result before it is surfaced.
func (e *Engine) shape(res *execution.ValidationRuleResult, logger *slog.Logger) {
	if e.redactor != nil {
		res.Data = e.redactor.RedactData(res.Data)
		res.Error = e.redactor.ScrubString(res.Error)
	}
	if e.truncator == nil || e.config.MaxDataSizeBytes <= 0 {
		return
	}
	data, meta, err := e.truncator.Truncate(res.Data, e.config.MaxDataSizeBytes)
	if err != nil {
		logger.Warn("failed to truncate rule data", "rule", res.RuleID, "path", res.Path, "error", err)
		return
	}
	res.Data = data
	res.DataMeta = meta
}

func contextError(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("execution timed out: %w", err)
	default:
		return fmt.Errorf("execution cancelled: %w", err)
	}
}
