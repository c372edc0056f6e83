package framebridge

import (
	"errors"
	"fmt"
)

// Protocol and resource errors. Every failure surfaced by the pipeline
// wraps one of these so callers can branch with errors.Is.
var (
	// ErrChannelNotReady is returned when a frame is requested before the
	// dedicated channel handshake has completed. Callers should await the
	// handshake and retry.
	ErrChannelNotReady = errors.New("framebridge: channel not ready")

	// ErrChannelClosed is returned when the dedicated channel closed before
	// or during a request. It is never retried internally.
	ErrChannelClosed = errors.New("framebridge: channel closed")

	// ErrComposition is matched by every *CompositionError.
	ErrComposition = errors.New("framebridge: composition failed")

	// ErrLifecycleViolation is returned for double releases,
	// consume-after-release and stacked texture imports.
	ErrLifecycleViolation = errors.New("framebridge: resource lifecycle violation")
)

// CompositionError reports that the engine rejected the layers of a frame.
// The input is presumed invalid, so it is not retried.
type CompositionError struct {
	Frame  uint64
	Reason string
	// Err is the engine's error, if it reported one.
	Err error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("framebridge: composition failed for frame %d: %s", e.Frame, e.Reason)
}

// Is reports whether target is ErrComposition.
func (e *CompositionError) Is(target error) bool {
	return target == ErrComposition
}

// Unwrap returns the engine's error.
func (e *CompositionError) Unwrap() error {
	return e.Err
}

// LifecycleError describes a resource lifecycle violation.
type LifecycleError struct {
	// Resource names the kind of resource, e.g. "buffer" or "texture".
	Resource string
	// Op is the operation that was attempted.
	Op string
	// State is the state the resource was in when Op was attempted.
	State string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("framebridge: resource lifecycle violation: %s %s while %s", e.Resource, e.Op, e.State)
}

// Unwrap returns ErrLifecycleViolation.
func (e *LifecycleError) Unwrap() error {
	return ErrLifecycleViolation
}
