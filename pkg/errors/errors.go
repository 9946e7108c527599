// Package errors provides coded errors for procmine.
// Errors carry a code for programmatic handling, optional context and a
// short stack trace captured at construction.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Code identifies an error class.
type Code string

const (
	// Input errors (1xx)
	CodeFileNotFound     Code = "E101"
	CodeInvalidFormat    Code = "E103"
	CodeMissingColumn    Code = "E104"
	CodeInvalidTimestamp Code = "E105"

	// Ingestion errors (2xx)
	CodeParseFailed Code = "E201"
	CodeLoadFailed  Code = "E202"

	// Storage errors (3xx)
	CodeWriteFailed Code = "E301"
	CodeNotFound    Code = "E302"

	// System errors (4xx)
	CodeContextCanceled Code = "E401"
	CodePanic           Code = "E403"

	// Configuration errors (5xx)
	CodeInvalidConfig Code = "E501"

	// Discovery errors (6xx)
	CodeUnknownOperator  Code = "E601"
	CodeSplitFailed      Code = "E602"
	CodeInvalidThreshold Code = "E603"
	CodeUnknownStrategy  Code = "E604"
	CodeEmptyChain       Code = "E605"
	CodeInvalidTree      Code = "E606"

	// Unknown
	CodeUnknown Code = "E999"
)

// MiningError is the base error type for all procmine errors.
type MiningError struct {
	Code       Code
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace []Frame
}

// Frame represents a stack frame.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
// Context keys are printed in sorted order so messages are stable.
func (e *MiningError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *MiningError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a MiningError with the same code.
func (e *MiningError) Is(target error) bool {
	if t, ok := target.(*MiningError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error.
func (e *MiningError) WithContext(key string, value interface{}) *MiningError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new MiningError.
func New(code Code, message string) *MiningError {
	return &MiningError{
		Code:       code,
		Message:    message,
		StackTrace: captureStack(2),
	}
}

// Newf creates a new MiningError with a formatted message.
func Newf(code Code, format string, args ...interface{}) *MiningError {
	return &MiningError{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		StackTrace: captureStack(2),
	}
}

// Wrap wraps an existing error with a code and message.
// It returns nil when err is nil.
func Wrap(err error, code Code, message string) *MiningError {
	if err == nil {
		return nil
	}

	return &MiningError{
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: captureStack(2),
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *MiningError {
	if err == nil {
		return nil
	}
	return &MiningError{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		Cause:      err,
		StackTrace: captureStack(2),
	}
}

func captureStack(skip int) []Frame {
	var frames []Frame
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	pcs = pcs[:n]

	cf := runtime.CallersFrames(pcs)
	for {
		frame, more := cf.Next()
		frames = append(frames, Frame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more || len(frames) >= 10 {
			break
		}
	}
	return frames
}

// FormatStack returns a formatted stack trace.
func (e *MiningError) FormatStack() string {
	var sb strings.Builder
	for _, f := range e.StackTrace {
		sb.WriteString(fmt.Sprintf("  at %s\n    %s:%d\n", f.Function, f.File, f.Line))
	}
	return sb.String()
}

// --- Convenience constructors ---

// FileNotFound creates a file not found error.
func FileNotFound(path string) *MiningError {
	return New(CodeFileNotFound, "file not found").WithContext("path", path)
}

// MissingColumn creates a missing column error.
func MissingColumn(column string, available []string) *MiningError {
	return New(CodeMissingColumn, "required column not found").
		WithContext("column", column).
		WithContext("available", available)
}

// ParseError creates a parsing error with location.
func ParseError(format string, row int, err error) *MiningError {
	return Wrap(err, CodeParseFailed, "parse error").
		WithContext("format", format).
		WithContext("row", row)
}

// ContextCanceled creates a cancellation error.
func ContextCanceled(operation string) *MiningError {
	return New(CodeContextCanceled, "operation canceled").
		WithContext("operation", operation)
}

// UnknownOperator reports a cut operator that no node constructor handles.
func UnknownOperator(op fmt.Stringer) *MiningError {
	return New(CodeUnknownOperator, "unknown cut operator").
		WithContext("operator", op.String())
}

// UnknownStrategy reports a strategy name missing from the registry.
func UnknownStrategy(family, name string) *MiningError {
	return New(CodeUnknownStrategy, "unknown strategy").
		WithContext("family", family).
		WithContext("name", name)
}

// --- Error checking utilities ---

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	var mErr *MiningError
	if errors.As(err, &mErr) {
		return mErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var mErr *MiningError
	if errors.As(err, &mErr) {
		return mErr.Code
	}
	return CodeUnknown
}

// IsFatal returns true if the error must abort a whole discovery run.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case CodeUnknownOperator, CodeSplitFailed, CodeInvalidTree, CodePanic:
		return true
	default:
		return false
	}
}

// MultiError collects multiple errors.
type MultiError struct {
	Errors []error
}

// Error implements the error interface.
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(m.Errors)))
	for i, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if any errors were collected.
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// Combined returns nil if no errors, the single error if one, or the MultiError.
func (m *MultiError) Combined() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	default:
		return m
	}
}
