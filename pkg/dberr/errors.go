// Package dberr contains the error taxonomy shared by all sqlitekit packages.
package dberr

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors callers can match with errors.Is.
var (
	// ErrInvalidArgument indicates a malformed argument caught at the API
	// boundary (bad open mode, nil row callback, non-numeric page value).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyOpen indicates that the handle already owns a connection.
	ErrAlreadyOpen = errors.New("database already open")

	// ErrNotOpen indicates that the handle owns no connection.
	ErrNotOpen = errors.New("database not open")

	// ErrDriver marks an error passed through from the underlying engine:
	// constraint violations, I/O errors, SQL syntax errors. The original
	// driver error stays reachable through errors.Is / errors.As.
	ErrDriver = errors.New("driver error")
)

// Kind represents a category of error for classification and handling.
type Kind int

const (
	// KindUnknown represents an unclassified error
	KindUnknown Kind = iota
	// KindInvalidArgument represents boundary validation errors
	KindInvalidArgument
	// KindAlreadyOpen represents double-open lifecycle errors
	KindAlreadyOpen
	// KindNotOpen represents use-before-open lifecycle errors
	KindNotOpen
	// KindDriver represents errors originating in the underlying engine
	KindDriver
	// KindCanceled represents context cancellation
	KindCanceled
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindAlreadyOpen:
		return "AlreadyOpen"
	case KindNotOpen:
		return "NotOpen"
	case KindDriver:
		return "Driver"
	case KindCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// kindToSentinel maps error kinds to their corresponding sentinel errors.
var kindToSentinel = map[Kind]error{
	KindInvalidArgument: ErrInvalidArgument,
	KindAlreadyOpen:     ErrAlreadyOpen,
	KindNotOpen:         ErrNotOpen,
	KindDriver:          ErrDriver,
}

// kindPriorities defines the deterministic order for error classification.
// Lifecycle and validation kinds win over the catch-all driver kind, so a
// wrapped chain containing both classifies as the more specific one.
var kindPriorities = []struct {
	kind Kind
	err  error
}{
	{KindCanceled, nil}, // context.Canceled (special case)
	{KindInvalidArgument, ErrInvalidArgument},
	{KindAlreadyOpen, ErrAlreadyOpen},
	{KindNotOpen, ErrNotOpen},
	{KindDriver, ErrDriver},
}

// KindOf returns the Kind of the given error by checking against known
// sentinel errors. It traverses the error chain using a deterministic
// priority order and returns KindUnknown for unrecognized errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	for _, priority := range kindPriorities {
		if priority.kind == KindCanceled {
			if IsCanceled(err) {
				return KindCanceled
			}
			continue
		}
		if errors.Is(err, priority.err) {
			return priority.kind
		}
	}

	return KindUnknown
}

// HasKind reports whether the given error has the specified kind.
// It is equivalent to KindOf(err) == kind but provides a more explicit API.
func HasKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// SentinelOf returns the sentinel error for the given Kind.
// For KindUnknown and KindCanceled, it returns nil.
func SentinelOf(kind Kind) error {
	if sentinel, exists := kindToSentinel[kind]; exists {
		return sentinel
	}
	return nil
}

// MarkKind wraps an error with the sentinel for the given kind, preserving
// the original error through wrapping. Both KindOf(MarkKind(err, kind)) == kind
// and errors.Is(MarkKind(err, kind), err) hold afterwards.
//
// The function is idempotent: marking an error with a kind it already has
// returns the error unchanged. A nil error yields the bare sentinel.
func MarkKind(err error, kind Kind) error {
	if err == nil {
		return SentinelOf(kind)
	}

	sentinel := SentinelOf(kind)
	if sentinel == nil {
		return err // KindUnknown / KindCanceled carry no sentinel
	}

	if KindOf(err) == kind {
		return err
	}

	return fmt.Errorf("%w: %w", sentinel, err)
}

// Driver marks err as a pass-through engine error. It is shorthand for
// MarkKind(err, KindDriver) and returns nil for a nil err, so call sites
// can wrap results unconditionally.
func Driver(err error) error {
	if err == nil {
		return nil
	}
	return MarkKind(err, KindDriver)
}

// Wrap wraps an error with additional context.
// It returns a new error that formats as "context: err".
// If err is nil, Wrap returns nil.
// If context is empty, returns the original error.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	context := fmt.Sprintf(format, args...)
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}

// IsCanceled reports whether the error indicates a canceled context.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled)
}

// IsInvalidArgument reports whether the error indicates boundary validation failure.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsAlreadyOpen reports whether the error indicates a double open.
func IsAlreadyOpen(err error) bool {
	return errors.Is(err, ErrAlreadyOpen)
}

// IsNotOpen reports whether the error indicates use of a closed handle.
func IsNotOpen(err error) bool {
	return errors.Is(err, ErrNotOpen)
}

// IsDriver reports whether the error originated in the underlying engine.
func IsDriver(err error) bool {
	return errors.Is(err, ErrDriver)
}
