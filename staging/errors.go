package staging

import "fmt"

// UpstreamError wraps a failure from the backing full-text store.
type UpstreamError struct {
	Op    string
	Cause error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("staging: %s failed: %v", e.Op, e.Cause)
}

func (e *UpstreamError) Unwrap() error { return e.Cause }
