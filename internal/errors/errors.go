package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType categorizes failures across the parsing and graph pipeline.
type ErrorType int

const (
	// ErrorTypeValidation - bad or missing input, rejected before any work
	ErrorTypeValidation ErrorType = iota
	// ErrorTypeUnsupportedLanguage - no extractor registered for a language
	ErrorTypeUnsupportedLanguage
	// ErrorTypeParse - per-file extraction failure, never fatal upstream
	ErrorTypeParse
	// ErrorTypeConnection - graph store unreachable, fatal for the call
	ErrorTypeConnection
	// ErrorTypeQuery - malformed or failed graph query
	ErrorTypeQuery
	// ErrorTypeInternal - unexpected internal state
	ErrorTypeInternal
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeUnsupportedLanguage:
		return "unsupported_language"
	case ErrorTypeParse:
		return "parse"
	case ErrorTypeConnection:
		return "connection"
	case ErrorTypeQuery:
		return "query"
	default:
		return "internal"
	}
}

// Severity says how the caller should react to an error.
type Severity int

const (
	// SeverityLow - recorded, execution continues
	SeverityLow Severity = iota
	// SeverityMedium - degraded result, execution continues
	SeverityMedium
	// SeverityHigh - the current unit of work is lost
	SeverityHigh
	// SeverityCritical - the current call must stop
	SeverityCritical
)

// Error is a structured error carrying category, severity, and context.
type Error struct {
	Type     ErrorType
	Severity Severity
	Message  string
	Cause    error
	Context  map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on error category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithContext attaches a key/value pair to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsFatal reports whether this error should stop the current call.
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityCritical
}

// New creates an error with the given category, severity, and message.
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:     errType,
		Severity: severity,
		Message:  message,
		Context:  make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with category and severity.
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Type:     errType,
		Severity: severity,
		Message:  message,
		Cause:    err,
		Context:  make(map[string]interface{}),
	}
}

// ValidationError rejects bad input before any work starts.
func ValidationError(message string) *Error {
	return New(ErrorTypeValidation, SeverityCritical, message)
}

// ValidationErrorf is ValidationError with formatting.
func ValidationErrorf(format string, args ...interface{}) *Error {
	return ValidationError(fmt.Sprintf(format, args...))
}

// UnsupportedLanguageError records a language with no registered extractor.
// Project-level, does not abort other languages.
func UnsupportedLanguageError(language string) *Error {
	return New(ErrorTypeUnsupportedLanguage, SeverityMedium,
		fmt.Sprintf("no extractor registered for language %q", language)).
		WithContext("language", language)
}

// ParseError records a per-file extraction failure.
func ParseError(err error, filePath string) *Error {
	return Wrap(err, ErrorTypeParse, SeverityLow,
		fmt.Sprintf("failed to parse %s", filePath)).
		WithContext("file_path", filePath)
}

// ConnectionError wraps a graph store connectivity failure.
func ConnectionError(err error, message string) *Error {
	return Wrap(err, ErrorTypeConnection, SeverityCritical, message)
}

// QueryError wraps a failed graph query; callers degrade to an empty or
// partial result with a warning.
func QueryError(err error, message string) *Error {
	return Wrap(err, ErrorTypeQuery, SeverityMedium, message)
}

// InternalError flags unexpected internal state.
func InternalError(message string) *Error {
	return New(ErrorTypeInternal, SeverityCritical, message)
}

// GetType returns the category of an error, unwrapping as needed.
// Foreign error values report ErrorTypeInternal.
func GetType(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeInternal
}

// IsFatal checks whether an error should stop the current call, unwrapping
// as needed.
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.IsFatal()
	}
	return false
}
