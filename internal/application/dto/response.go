package dto

import (
	"time"

	"github.com/reglet-dev/rulegraph/internal/domain/execution"
)

// CheckManifestResponse is returned for every run that completed, whether
// or not its rules passed.
type CheckManifestResponse struct {
	ExecutionResult *execution.ExecutionResult
	Metadata        ResponseMetadata
	Diagnostics     Diagnostics
}

// ResponseMetadata identifies the request and what it checked.
type ResponseMetadata struct {
	ProcessedAt  time.Time
	RequestID    string
	ManifestPath string
	DataPath     string
	// Duration covers loading as well as the run itself.
	Duration time.Duration
}

// Diagnostics holds non-fatal observations about the run.
type Diagnostics struct {
	Warnings []string
}
