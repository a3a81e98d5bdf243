package kerrors

import (
	"errors"
	"fmt"
)

// Sentinel kinds, matched via errors.Is against a *Error's Kind.
var (
	ErrOutOfResource   = errors.New("kerrors: out of resource")
	ErrInvalidArgument = errors.New("kerrors: invalid argument")
	ErrProtection      = errors.New("kerrors: protection violation")
	ErrNotFound        = errors.New("kerrors: not found")
	ErrDeadThread      = errors.New("kerrors: operation on dead thread")
)

// Error is a kernel error carrying a kind sentinel, a message, and an
// optional cause. It implements error, Unwrap, and Is so callers can write
// errors.Is(err, kerrors.ErrNotFound) regardless of the specific message.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the same kind, so errors.Is(err,
// kerrors.ErrNotFound) works without inspecting Message or Cause.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// OutOfResource builds an Error for exhausted pages, tids, or frames.
func OutOfResource(message string, cause error) error {
	return &Error{Kind: ErrOutOfResource, Message: message, Cause: cause}
}

// InvalidArgument builds an Error for a bad user pointer, a non-child tid, or
// an unaligned mmap request.
func InvalidArgument(message string, cause error) error {
	return &Error{Kind: ErrInvalidArgument, Message: message, Cause: cause}
}

// Protection builds an Error for a write to a read-only page or a kernel VA
// referenced from user mode.
func Protection(message string, cause error) error {
	return &Error{Kind: ErrProtection, Message: message, Cause: cause}
}

// NotFound builds an Error for an absent fd or missing file.
func NotFound(message string, cause error) error {
	return &Error{Kind: ErrNotFound, Message: message, Cause: cause}
}

// DeadThread builds an Error for an operation targeting a terminated thread.
func DeadThread(message string, cause error) error {
	return &Error{Kind: ErrDeadThread, Message: message, Cause: cause}
}

// Fatal panics with a formatted message, for kernel invariants whose
// violation (a corrupted magic word, two Running threads) is not a
// recoverable error but an assertion failure that halts the kernel.
func Fatal(msg string, args ...any) {
	panic(fmt.Sprintf("kernel panic: "+msg, args...))
}
