// Package errs implements the typed error taxonomy shared across the
// sweep/backtest/risk pipeline. Stage boundaries convert plain errors into
// *Error so the orchestrator can route per-item failures to diagnostics and
// per-stage failures to a hard stop without string matching.
package errs

import (
	"errors"
	"fmt"
)

// Kind enumerates the error taxonomy.
type Kind string

const (
	InsufficientData    Kind = "insufficient_data"
	NoTrades            Kind = "no_trades"
	SchemaError         Kind = "schema_error"
	InsufficientOverlap Kind = "insufficient_overlap"
	CovarianceDegenerate Kind = "covariance_degenerate"
	AllocationDivergent Kind = "allocation_divergent"
	ValidationFailed    Kind = "validation_failed"
	Cancelled           Kind = "cancelled"
	InternalInvariant   Kind = "internal_invariant"
)

// Error carries a Kind plus a structured context record for diagnostics.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no wrapped cause.
func New(kind Kind, message string, context map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Context: context}
}

// Wrap attaches a Kind and context to an existing error.
func Wrap(kind Kind, cause error, message string, context map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Context: context, Cause: cause}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
