package cfgerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind represents the category of a configuration error
type Kind int

const (
	// Unknown is the zero Kind, never produced by this module
	Unknown Kind = iota
	// InvalidParameter indicates an empty key, a bad section id or a type mismatch
	InvalidParameter
	// NotFound indicates an unknown or unlinked (section, key)
	NotFound
	// NotInitialized indicates the runtime has not been bootstrapped
	NotInitialized
	// AlreadyInitialized indicates a second bootstrap without a shutdown
	AlreadyInitialized
	// OutOfRange indicates a numeric value outside [min, max]
	OutOfRange
	// TooLong indicates a string longer than max_length-1 bytes
	TooLong
	// ResourceLimit indicates the persistence queue (or generation counter) is exhausted
	ResourceLimit
	// Io indicates a file open, read, write or rename failure
	Io
	// InvalidFormat indicates a structurally malformed or oversized file
	InvalidFormat
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case InvalidParameter:
		return "invalid parameter"
	case NotFound:
		return "not found"
	case NotInitialized:
		return "not initialized"
	case AlreadyInitialized:
		return "already initialized"
	case OutOfRange:
		return "out of range"
	case TooLong:
		return "too long"
	case ResourceLimit:
		return "resource limit"
	case Io:
		return "i/o error"
	case InvalidFormat:
		return "invalid format"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrInvalidParameter   = &Error{Kind: InvalidParameter}
	ErrNotFound           = &Error{Kind: NotFound}
	ErrNotInitialized     = &Error{Kind: NotInitialized}
	ErrAlreadyInitialized = &Error{Kind: AlreadyInitialized}
	ErrOutOfRange         = &Error{Kind: OutOfRange}
	ErrTooLong            = &Error{Kind: TooLong}
	ErrResourceLimit      = &Error{Kind: ResourceLimit}
	ErrIo                 = &Error{Kind: Io}
	ErrInvalidFormat      = &Error{Kind: InvalidFormat}
)

// Error describes a failed configuration operation
type Error struct {
	Kind    Kind   // Category of error
	Op      string // Operation that failed (e.g. "set_int", "atomic_write")
	Section string // Section name, if the error concerns a parameter
	Key     string // Parameter key, if the error concerns a parameter
	Value   string // Offending value, formatted
	Message string // Extra human-readable context

	// Bounds are only meaningful for OutOfRange / TooLong
	Min       float64
	Max       float64
	MaxLength int

	Path string // File path for Io / InvalidFormat
	Err  error  // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())

	if e.Key != "" {
		if e.Section != "" {
			fmt.Fprintf(&b, " for %s.%s", e.Section, e.Key)
		} else {
			fmt.Fprintf(&b, " for %s", e.Key)
		}
	}

	switch e.Kind {
	case OutOfRange:
		fmt.Fprintf(&b, ": value %s outside [%g, %g]", e.Value, e.Min, e.Max)
	case TooLong:
		fmt.Fprintf(&b, ": length %d exceeds %d", len(e.Value), e.MaxLength-1)
	}

	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind for an operation
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around an underlying cause
func Wrap(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return Unknown
}

// IsKind reports whether err's chain contains an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ShortMessage returns a concise message suitable for a protocol fault reason
func ShortMessage(err error) string {
	var cerr *Error
	if !errors.As(err, &cerr) {
		return err.Error()
	}

	switch cerr.Kind {
	case OutOfRange:
		return fmt.Sprintf("%s must be between %g and %g", cerr.Key, cerr.Min, cerr.Max)
	case TooLong:
		return fmt.Sprintf("%s must be at most %d characters", cerr.Key, cerr.MaxLength-1)
	case NotFound:
		return fmt.Sprintf("unknown setting %s.%s", cerr.Section, cerr.Key)
	case NotInitialized:
		return "configuration store not ready"
	case ResourceLimit:
		return "configuration store busy"
	case Io:
		return "configuration storage unavailable"
	case InvalidFormat:
		return "configuration file is malformed"
	default:
		if cerr.Message != "" {
			return cerr.Message
		}
		return cerr.Kind.String()
	}
}
