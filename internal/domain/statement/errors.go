package statement

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is matched by every FormatError.
	ErrFormat = errors.New("malformed statement")
	// ErrUnsupportedFormat is returned for a bank format with no parser.
	ErrUnsupportedFormat = errors.New("unsupported bank format")
)

// FormatError locates the first malformed record of a statement. Line is the
// 1-based record or row number, 0 when the whole document is unreadable.
type FormatError struct {
	Line  int
	Field string
	Err   error
}

func (e *FormatError) Error() string {
	switch {
	case e.Line > 0 && e.Field != "":
		return fmt.Sprintf("malformed statement at line %d, field %s: %v", e.Line, e.Field, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("malformed statement at line %d: %v", e.Line, e.Err)
	case e.Field != "":
		return fmt.Sprintf("malformed statement, field %s: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("malformed statement: %v", e.Err)
	}
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// Errorf builds a FormatError with a formatted cause.
func Errorf(line int, field, format string, args ...any) *FormatError {
	return &FormatError{Line: line, Field: field, Err: fmt.Errorf(format, args...)}
}
