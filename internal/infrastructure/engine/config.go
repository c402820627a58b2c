// Package engine runs validation: it builds the value tree, resolves rule
// dependencies and executes rules in dependency order.
package engine

import (
	"fmt"
	"runtime"

	"github.com/reglet-dev/rulegraph/internal/domain/values"
)

// MinConcurrentRules is the minimum number of concurrent rule invocations
// in parallel mode, ensuring reasonable parallelism even on single-core
// systems.
const MinConcurrentRules = 4

// ExecutionConfig controls execution behavior.
type ExecutionConfig struct {
	// AccessorErrorPolicy applies to nodes that do not declare their own.
	AccessorErrorPolicy values.AccessorErrorPolicy
	MaxConcurrentRules  int
	// MaxDepth bounds value-tree depth; 0 means unlimited.
	MaxDepth int
	// MaxDataSizeBytes bounds each result's data bag; 0 means unlimited.
	MaxDataSizeBytes int
	Parallel         bool
}

// DefaultExecutionConfig returns serial execution with the default
// accessor error policy.
func DefaultExecutionConfig() ExecutionConfig {
	maxRules := runtime.NumCPU()
	if maxRules < MinConcurrentRules {
		maxRules = MinConcurrentRules
	}

	return ExecutionConfig{
		AccessorErrorPolicy: values.DefaultAccessorErrorPolicy,
		MaxConcurrentRules:  maxRules,
		Parallel:            false,
	}
}

// Validate checks the configuration for invalid values.
func (c ExecutionConfig) Validate() error {
	if err := c.AccessorErrorPolicy.Validate(); err != nil {
		return err
	}
	if c.MaxConcurrentRules < 0 {
		return fmt.Errorf("max concurrent rules cannot be negative: %d", c.MaxConcurrentRules)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth cannot be negative: %d", c.MaxDepth)
	}
	if c.MaxDataSizeBytes < 0 {
		return fmt.Errorf("max data size cannot be negative: %d", c.MaxDataSizeBytes)
	}
	return nil
}
