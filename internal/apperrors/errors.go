// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

// Package apperrors defines the core's error taxonomy. Every error the core
// returns across a component boundary is one of these kinds, wrapped around
// the underlying cause so callers can both errors.Is against the kind and
// errors.Unwrap to the original error.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for retry and HTTP-mapping decisions made by the
// collaborator layer. The core itself never inspects Kind to decide control
// flow beyond what each component's contract documents.
type Kind int

const (
	// KindTransport marks a persistence/cache/broker unreachable error.
	// Retriable at the handler boundary.
	KindTransport Kind = iota
	// KindNotFound marks a missing entity for an identity-scoped read.
	// Never retried.
	KindNotFound
	// KindValidation marks a bad input (unknown method, negative value,
	// start > end). Never retried.
	KindValidation
	// KindConflict marks an upsert racing a concurrent writer. The
	// resolved row wins; the operation returns the post-state.
	KindConflict
	// KindTimeout marks a job-level deadline exceeded. Maps to a failed
	// execution with retry credit.
	KindTimeout
	// KindCancelled marks cooperative cancellation. Terminal, never
	// retried.
	KindCancelled
	// KindDegraded is a soft signal, not a failure: ETL-health
	// classification and the incremental-ROI baseline fallback use it.
	KindDegraded
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	case KindDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by core components. Component
// and Op identify where the error originated for log correlation; Cause is
// the wrapped underlying error, if any.
type Error struct {
	Kind      Kind
	Component string
	Op        string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Component, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s.%s: %s", e.Component, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is(err, apperrors.TransportError) style checks against
// a bare Kind sentinel (see the kind sentinels below).
func (e *Error) Is(target error) bool {
	ke, ok := target.(*kindSentinel)
	return ok && e.Kind == ke.kind
}

// kindSentinel lets callers write errors.Is(err, apperrors.NotFound) without
// constructing a full Error.
type kindSentinel struct {
	kind Kind
}

func (k *kindSentinel) Error() string { return k.kind.String() }

// Sentinels usable with errors.Is to test an error's Kind without caring
// about Component/Op/Message.
var (
	TransportError = &kindSentinel{KindTransport}
	NotFound       = &kindSentinel{KindNotFound}
	Validation     = &kindSentinel{KindValidation}
	Conflict       = &kindSentinel{KindConflict}
	Timeout        = &kindSentinel{KindTimeout}
	Cancelled      = &kindSentinel{KindCancelled}
	Degraded       = &kindSentinel{KindDegraded}
)

// New constructs an *Error with no wrapped cause.
func New(kind Kind, component, op, message string) *Error {
	return &Error{Kind: kind, Component: component, Op: op, Message: message}
}

// Wrap constructs an *Error wrapping cause. If cause is already an *Error,
// its Kind is preserved unless overridden by kind.
func Wrap(kind Kind, component, op, message string, cause error) *Error {
	return &Error{Kind: kind, Component: component, Op: op, Message: message, Cause: cause}
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error, and reports whether one was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsRetriable reports whether the handler boundary should retry err:
// transport and timeout errors are retriable, everything else is not.
func IsRetriable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind == KindTransport || kind == KindTimeout
}
