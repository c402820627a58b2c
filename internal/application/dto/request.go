// Package dto contains data transfer objects for application layer use cases.
package dto

// CheckManifestRequest encapsulates all inputs needed to validate an
// object against a manifest.
type CheckManifestRequest struct {
	Options      CheckOptions
	ManifestPath string
	DataPath     string
	Metadata     RequestMetadata
	Execution    ExecutionOptions
}

// ExecutionOptions overrides system configuration for a single run.
// Zero values keep the configured setting.
type ExecutionOptions struct {
	// AccessorErrorPolicy is ignore, error or propagate.
	AccessorErrorPolicy string

	// MaxConcurrentRules limits parallel rule invocations (0 = configured)
	MaxConcurrentRules int

	// MaxDepth bounds value-tree depth (0 = configured)
	MaxDepth int

	// Parallel enables parallel execution of dependency levels
	Parallel bool
}

// CheckOptions contains options for locating configuration.
type CheckOptions struct {
	SystemConfigPath string
}

// RequestMetadata contains metadata for request tracking.
type RequestMetadata struct {
	// RequestID uniquely identifies this request
	RequestID string
}
