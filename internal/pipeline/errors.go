package pipeline

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrorKind categorizes pipeline failures.
type ErrorKind string

const (
	// KindConfiguration: the extraction backend was requested but is not
	// configured (missing credential or model).
	KindConfiguration ErrorKind = "configuration"
	// KindValidation: caller input violates basic constraints.
	KindValidation ErrorKind = "validation"
	// KindChunkExtraction: a single chunk's backend call failed.
	KindChunkExtraction ErrorKind = "chunk_extraction"
	// KindMalformedResponse: the backend returned text that matches neither
	// expected response format.
	KindMalformedResponse ErrorKind = "malformed_response"
	// KindNoTransactionsFound: the job completed but produced zero rows.
	KindNoTransactionsFound ErrorKind = "no_transactions_found"
	// KindJobTimeout: the global deadline elapsed before completion.
	KindJobTimeout ErrorKind = "job_timeout"
)

// Error is the pipeline's error type. Chunk is the zero-based index of the
// failing chunk, or -1 when the error is not chunk-scoped.
type Error struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	Chunk      int       `json:"chunk,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Chunk >= 0 {
		msg = fmt.Sprintf("chunk %d: %s", e.Chunk, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Terminal reports whether this error must always surface to the caller.
// Chunk-scoped failures may be recovered under the best-effort policy;
// these three kinds never are.
func (e *Error) Terminal() bool {
	switch e.Kind {
	case KindConfiguration, KindJobTimeout, KindNoTransactionsFound:
		return true
	}
	return false
}

// WithSuggestion attaches a short hint for fixing the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithChunk marks the error as scoped to the given chunk index.
func (e *Error) WithChunk(idx int) *Error {
	e.Chunk = idx
	return e
}

// NewError creates a pipeline error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message, Chunk: -1}
}

// WrapError wraps err with pipeline error context. The cause keeps a stack
// trace for diagnostics. Returns nil when err is nil.
func WrapError(err error, kind ErrorKind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Chunk: -1, Cause: pkgerrors.WithStack(err)}
}

// KindOf extracts the ErrorKind from err, or "" when err is not a pipeline
// error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if pkgerrors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
