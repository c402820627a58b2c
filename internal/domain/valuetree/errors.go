package valuetree

import (
	"errors"
	"fmt"
)

// ErrMaxDepthExceeded is returned when the tree grows deeper than the
// builder's configured limit.
var ErrMaxDepthExceeded = errors.New("value tree exceeds maximum depth")

// AccessError aborts tree building when an accessor fails under the
// propagate policy. The accessor's own error is available via Unwrap.
type AccessError struct {
	Err    error
	NodeID string
	Path   string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("failed to read value at %s (node %s): %v", e.Path, e.NodeID, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// NotEnumerableError indicates a node marked for item enumeration produced
// a value that is not a sequence.
type NotEnumerableError struct {
	NodeID string
	Path   string
	Type   string
}

func (e *NotEnumerableError) Error() string {
	return fmt.Sprintf("node %s at %s is marked to enumerate items but its value of type %s is not a slice or array", e.NodeID, e.Path, e.Type)
}
