package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/reglet-dev/rulegraph/internal/application/dto"
	apperrors "github.com/reglet-dev/rulegraph/internal/application/errors"
	"github.com/reglet-dev/rulegraph/internal/application/ports"
	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSystemConfig struct {
	err      error
	lastPath string
}

func (f *fakeSystemConfig) LoadConfig(_ context.Context, path string) (*system.Config, error) {
	f.lastPath = path
	if f.err != nil {
		return nil, f.err
	}
	return system.DefaultConfig(), nil
}

type fakeManifestLoader struct {
	m   *manifest.Manifest
	err error
}

func (f *fakeManifestLoader) Load(string) (*manifest.Manifest, error) {
	return f.m, f.err
}

type fakeDataLoader struct {
	data any
	err  error
}

func (f *fakeDataLoader) LoadData(string) (any, error) {
	return f.data, f.err
}

type fakeEngine struct {
	outcomes []values.Outcome
	err      error
	object   any
}

func (f *fakeEngine) Validate(_ context.Context, m *manifest.Manifest, object any) (*execution.ExecutionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.object = object
	result := execution.NewExecutionResult(m)
	for i, o := range f.outcomes {
		result.AddRuleResults(execution.ValidationRuleResult{RuleID: fmt.Sprintf("r%d", i), Path: "$", Outcome: o, Index: i})
	}
	result.Finalize()
	return result, nil
}

type fakeEngineFactory struct {
	engine   *fakeEngine
	err      error
	lastOpts dto.ExecutionOptions
}

func (f *fakeEngineFactory) CreateEngine(_ context.Context, _ *system.Config, opts dto.ExecutionOptions) (ports.ValidationEngine, error) {
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.engine, nil
}

type fixture struct {
	sys      *fakeSystemConfig
	loader   *fakeManifestLoader
	data     *fakeDataLoader
	factory  *fakeEngineFactory
	useCase  *CheckManifestUseCase
	baseReq  dto.CheckManifestRequest
	engine   *fakeEngine
	manifest *manifest.Manifest
}

func newFixture(outcomes ...values.Outcome) *fixture {
	m := &manifest.Manifest{Name: "orders", Version: "1.0.0", Root: &manifest.Node{ID: "order"}}
	f := &fixture{
		sys:      &fakeSystemConfig{},
		loader:   &fakeManifestLoader{m: m},
		data:     &fakeDataLoader{data: map[string]any{"id": 1}},
		engine:   &fakeEngine{outcomes: outcomes},
		manifest: m,
		baseReq: dto.CheckManifestRequest{
			ManifestPath: "orders.yaml",
			DataPath:     "order.json",
			Options:      dto.CheckOptions{SystemConfigPath: "/etc/rulegraph.yaml"},
			Metadata:     dto.RequestMetadata{RequestID: "req-1"},
			Execution:    dto.ExecutionOptions{Parallel: true, MaxDepth: 8},
		},
	}
	f.factory = &fakeEngineFactory{engine: f.engine}
	f.useCase = NewCheckManifestUseCase(f.sys, f.loader, f.data, f.factory, slog.New(slog.DiscardHandler))
	return f
}

func TestCheckManifestUseCase_Execute(t *testing.T) {
	t.Parallel()
	f := newFixture(values.OutcomePassed, values.OutcomePassed)

	resp, err := f.useCase.Execute(context.Background(), f.baseReq)
	require.NoError(t, err)

	assert.Equal(t, "req-1", resp.Metadata.RequestID)
	assert.False(t, resp.Metadata.ProcessedAt.IsZero())
	assert.Equal(t, f.baseReq.ManifestPath, resp.Metadata.ManifestPath)
	assert.Equal(t, f.baseReq.DataPath, resp.Metadata.DataPath)
	assert.Empty(t, resp.Diagnostics.Warnings)
	assert.Equal(t, 2, resp.ExecutionResult.Summary.TotalRules)
	assert.False(t, f.useCase.CheckFailed(resp.ExecutionResult))

	assert.Equal(t, "/etc/rulegraph.yaml", f.sys.lastPath)
	assert.Equal(t, dto.ExecutionOptions{Parallel: true, MaxDepth: 8}, f.factory.lastOpts)
	assert.Equal(t, map[string]any{"id": 1}, f.engine.object)
}

func TestCheckManifestUseCase_CheckFailed(t *testing.T) {
	t.Parallel()
	for _, outcome := range []values.Outcome{values.OutcomeFailed, values.OutcomeErrored, values.OutcomeDependencyFailed} {
		f := newFixture(values.OutcomePassed, outcome)
		resp, err := f.useCase.Execute(context.Background(), f.baseReq)
		require.NoError(t, err)
		assert.True(t, f.useCase.CheckFailed(resp.ExecutionResult), "outcome %s", outcome)
	}
}

func TestCheckManifestUseCase_Warnings(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.data.data = nil

	resp, err := f.useCase.Execute(context.Background(), f.baseReq)
	require.NoError(t, err)
	assert.Equal(t, []string{"data document is empty", "no rules were evaluated"}, resp.Diagnostics.Warnings)
}

func TestCheckManifestUseCase_Errors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	tests := []struct {
		name     string
		mutate   func(*fixture, *dto.CheckManifestRequest)
		wantType any
		aspect   string
	}{
		{
			name:     "missing manifest path",
			mutate:   func(_ *fixture, r *dto.CheckManifestRequest) { r.ManifestPath = "" },
			wantType: &apperrors.ValidationError{},
		},
		{
			name:     "missing data path",
			mutate:   func(_ *fixture, r *dto.CheckManifestRequest) { r.DataPath = "" },
			wantType: &apperrors.ValidationError{},
		},
		{
			name:     "system config",
			mutate:   func(f *fixture, _ *dto.CheckManifestRequest) { f.sys.err = boom },
			wantType: &apperrors.ConfigurationError{},
			aspect:   "system_config",
		},
		{
			name:     "manifest load",
			mutate:   func(f *fixture, _ *dto.CheckManifestRequest) { f.loader.err = boom },
			wantType: &apperrors.ValidationError{},
		},
		{
			name:     "data load",
			mutate:   func(f *fixture, _ *dto.CheckManifestRequest) { f.data.err = boom },
			wantType: &apperrors.ValidationError{},
		},
		{
			name:     "engine creation",
			mutate:   func(f *fixture, _ *dto.CheckManifestRequest) { f.factory.err = boom },
			wantType: &apperrors.ConfigurationError{},
			aspect:   "engine",
		},
		{
			name: "incompatible manifest",
			mutate: func(f *fixture, _ *dto.CheckManifestRequest) {
				f.engine.err = fmt.Errorf("%w: needs >= 2.0.0", manifest.ErrIncompatible)
			},
			wantType: &apperrors.ConfigurationError{},
			aspect:   "requires",
		},
		{
			name:     "engine failure",
			mutate:   func(f *fixture, _ *dto.CheckManifestRequest) { f.engine.err = boom },
			wantType: &apperrors.ExecutionError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(values.OutcomePassed)
			req := f.baseReq
			tt.mutate(f, &req)

			resp, err := f.useCase.Execute(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, resp)

			switch want := tt.wantType.(type) {
			case *apperrors.ValidationError:
				require.ErrorAs(t, err, &want)
				if want.Cause != nil {
					assert.ErrorIs(t, err, boom)
				}
			case *apperrors.ConfigurationError:
				require.ErrorAs(t, err, &want)
				assert.Equal(t, tt.aspect, want.Aspect)
			case *apperrors.ExecutionError:
				require.ErrorAs(t, err, &want)
				assert.Equal(t, "orders", want.Manifest)
				assert.ErrorIs(t, err, boom)
			}
		})
	}
}
