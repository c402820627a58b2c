package values

import "fmt"

// ResponseKind tags the variant held by a ValueResponse.
type ResponseKind int

const (
	// ResponseSuccessful means the value was read.
	ResponseSuccessful ResponseKind = iota
	// ResponseErrored means reading the value failed and the failure is reported.
	ResponseErrored
	// ResponseIgnored means reading the value failed and the failure is suppressed.
	ResponseIgnored
)

// String implements fmt.Stringer.
func (k ResponseKind) String() string {
	switch k {
	case ResponseSuccessful:
		return "successful"
	case ResponseErrored:
		return "errored"
	case ResponseIgnored:
		return "ignored"
	default:
		return fmt.Sprintf("ResponseKind(%d)", int(k))
	}
}

// ValueResponse is the outcome of one attempt to read a value.
// Responses are compared by pointer: two reads that fail with equal errors
// are still two distinct responses.
type ValueResponse struct {
	value any
	err   error
	kind  ResponseKind
}

// Successful wraps a value that was read.
func Successful(value any) *ValueResponse {
	return &ValueResponse{kind: ResponseSuccessful, value: value}
}

// Errored wraps the error raised while reading a value.
func Errored(err error) *ValueResponse {
	return &ValueResponse{kind: ResponseErrored, err: err}
}

// Ignored marks a value whose read failure is suppressed.
func Ignored() *ValueResponse {
	return &ValueResponse{kind: ResponseIgnored}
}

// Kind returns the response variant.
func (r *ValueResponse) Kind() ResponseKind {
	return r.kind
}

// IsSuccessful reports whether the value was read.
func (r *ValueResponse) IsSuccessful() bool {
	return r.kind == ResponseSuccessful
}

// Value returns the value read, or nil for Errored and Ignored responses.
func (r *ValueResponse) Value() any {
	return r.value
}

// Err returns the read error for Errored responses.
func (r *ValueResponse) Err() error {
	return r.err
}

// String implements fmt.Stringer.
func (r *ValueResponse) String() string {
	switch r.kind {
	case ResponseSuccessful:
		return fmt.Sprintf("successful(%v)", r.value)
	case ResponseErrored:
		return fmt.Sprintf("errored(%v)", r.err)
	default:
		return r.kind.String()
	}
}
