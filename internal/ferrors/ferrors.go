// Package ferrors defines the error kinds surfaced to the orchestrator in
// spec §7. Each kind is a plain struct implementing error, constructed
// and checked with errors.As/errors.Is, and wrapped across package
// boundaries with github.com/pkg/errors so call sites keep a stack trace
// without needing to hand-roll one (mutagen-io-mutagen uses the same
// package at its own API boundaries).
package ferrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// IOError wraps a transient or structural filesystem failure for a path.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error at %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError constructs an IOError, wrapping cause with errors.Wrap so a
// stack trace is captured at the point of failure.
func NewIOError(path string, cause error) *IOError {
	return &IOError{Path: path, Err: errors.Wrap(cause, "io error")}
}

// RefuseOverwriteError reports that a write target already exists and
// --force was not given.
type RefuseOverwriteError struct {
	Path string
}

func (e *RefuseOverwriteError) Error() string {
	return fmt.Sprintf("refusing to overwrite existing file %s (use --force)", e.Path)
}

// MalformedError reports a structurally invalid container: bad gzip, a
// header that isn't JSON, a missing separator, a body length mismatch, or
// a JSON Schema violation.
type MalformedError struct {
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed database: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed database: %s", e.Reason)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// NewMalformedError constructs a MalformedError, wrapping cause (which
// may be nil) for a stack trace when present.
func NewMalformedError(reason string, cause error) *MalformedError {
	if cause != nil {
		cause = errors.Wrap(cause, reason)
	}
	return &MalformedError{Reason: reason, Err: cause}
}

// ChecksumMismatchError reports that a computed digest disagreed with the
// value recorded in the container header for the named algorithm.
type ChecksumMismatchError struct {
	Algo string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for algorithm %s", e.Algo)
}

// UnknownAlgorithmError reports that a database header named no
// algorithm this binary can compute. It is returned only when none of the
// header's algorithms is known; one shared algorithm is enough to proceed.
type UnknownAlgorithmError struct {
	ID string
}

func (e *UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("unknown algorithm: %s", e.ID)
}

// ErrCancelled is reserved for a future context-aware walker; the current
// design never returns it (spec §7).
var ErrCancelled = errors.New("cancelled")
