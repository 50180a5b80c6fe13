package analysis

import (
	"errors"
	"fmt"
)

// Kind classifies every error the toolkit reports.
type Kind int

const (
	KindUnknown Kind = iota
	KindColumnNotFound
	KindNonNumericColumn
	KindLengthMismatch
	KindInsufficientData
	KindInvalidBinCount
	KindUndefinedCorrelation
	KindInvalidThreshold
	KindUnknownCommand
	KindMissingArgument
	KindInvalidArgument
	KindFileNotFound
	KindParseError
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindColumnNotFound:       "column not found",
	KindNonNumericColumn:     "non-numeric column",
	KindLengthMismatch:       "length mismatch",
	KindInsufficientData:     "insufficient data",
	KindInvalidBinCount:      "invalid bin count",
	KindUndefinedCorrelation: "undefined correlation",
	KindInvalidThreshold:     "invalid threshold",
	KindUnknownCommand:       "unknown command",
	KindMissingArgument:      "missing argument",
	KindInvalidArgument:      "invalid argument",
	KindFileNotFound:         "file not found",
	KindParseError:           "parse error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single error type produced by the analyses, the loader and the dispatcher.
type Error struct {
	Kind   Kind
	Column string
	Detail string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.message()
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) message() string {
	switch {
	case e.Kind == KindColumnNotFound:
		return fmt.Sprintf("column %q not found", e.Column)
	case e.Column != "" && e.Detail != "":
		return fmt.Sprintf("%s: column %q: %s", e.Kind, e.Column, e.Detail)
	case e.Column != "":
		return fmt.Sprintf("%s: column %q", e.Kind, e.Column)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return e.Kind.String()
}

// Is reports whether target is an *Error of the same kind, so the sentinels
// below match any error of their kind regardless of column or detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrColumnNotFound       = &Error{Kind: KindColumnNotFound}
	ErrNonNumericColumn     = &Error{Kind: KindNonNumericColumn}
	ErrLengthMismatch       = &Error{Kind: KindLengthMismatch}
	ErrInsufficientData     = &Error{Kind: KindInsufficientData}
	ErrInvalidBinCount      = &Error{Kind: KindInvalidBinCount}
	ErrUndefinedCorrelation = &Error{Kind: KindUndefinedCorrelation}
	ErrInvalidThreshold     = &Error{Kind: KindInvalidThreshold}
	ErrUnknownCommand       = &Error{Kind: KindUnknownCommand}
	ErrMissingArgument      = &Error{Kind: KindMissingArgument}
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
	ErrFileNotFound         = &Error{Kind: KindFileNotFound}
	ErrParseError           = &Error{Kind: KindParseError}
)

// Errorf builds an *Error with a formatted detail message.
func Errorf(kind Kind, column string, format string, args ...any) *Error {
	return &Error{Kind: kind, Column: column, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
