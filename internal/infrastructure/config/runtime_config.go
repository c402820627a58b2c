package config

import (
	"fmt"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/domain/values"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/engine"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/redaction"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/system"
)

// RuntimeConfig aggregates the run-level configuration derived from the
// system config file and command-line overrides.
type RuntimeConfig struct {
	Redaction redaction.Config
	Execution engine.ExecutionConfig
}

// FromSystemConfig creates a RuntimeConfig from system config. Zero values
// fall back to the engine defaults.
func FromSystemConfig(sys *system.Config) (*RuntimeConfig, error) {
	if sys == nil {
		sys = system.DefaultConfig()
	}

	policy, err := values.ParseAccessorErrorPolicy(sys.Execution.AccessorErrorPolicy)
	if err != nil {
		return nil, fmt.Errorf("system config: %w", err)
	}

	rc := &RuntimeConfig{
		Execution: engine.ExecutionConfig{
			AccessorErrorPolicy: policy,
			MaxConcurrentRules:  sys.Execution.MaxConcurrentRules,
			MaxDepth:            sys.Execution.MaxDepth,
			MaxDataSizeBytes:    sys.MaxDataSizeBytes,
			Parallel:            sys.Execution.Parallel,
		},
		Redaction: redaction.Config{
			Patterns:        sys.Redaction.Patterns,
			Paths:           sys.Redaction.Paths,
			HashMode:        sys.Redaction.HashMode.Enabled,
			Salt:            sys.Redaction.HashMode.Salt,
			DisableGitleaks: sys.Redaction.DisableGitleaks,
		},
	}
	rc.ApplyDefaults()

	if err := rc.Execution.Validate(); err != nil {
		return nil, fmt.Errorf("system config: %w", err)
	}
	return rc, nil
}

// ApplyDefaults applies defaults for zero values.
func (r *RuntimeConfig) ApplyDefaults() {
	defaults := engine.DefaultExecutionConfig()
	if r.Execution.AccessorErrorPolicy == values.PolicyInherit {
		r.Execution.AccessorErrorPolicy = defaults.AccessorErrorPolicy
	}
	if r.Execution.MaxConcurrentRules == 0 {
		r.Execution.MaxConcurrentRules = defaults.MaxConcurrentRules
	}
	if r.Execution.MaxDataSizeBytes == 0 {
		r.Execution.MaxDataSizeBytes = execution.DefaultMaxDataSize
	}
}
