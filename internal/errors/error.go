package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/vango-dev/nestroute/pkg/pathpattern"
	"github.com/vango-dev/nestroute/pkg/routepath"
	"github.com/vango-dev/nestroute/pkg/router"
)

// Category represents the type of error.
type Category string

const (
	CategoryRouting  Category = "routing"
	CategoryConfig   Category = "config"
	CategoryManifest Category = "manifest"
	CategoryProtocol Category = "protocol"
	CategoryCLI      Category = "cli"
)

// Location points into a manifest or configuration file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// RouterdError is a structured error with an optional file location and a
// suggestion.
type RouterdError struct {
	// Code is a unique error identifier (e.g., "R001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file position that caused the error, if any.
	Location *Location

	// Context holds the file lines around Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows a correct configuration or manifest snippet.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error

	contextStart int
}

// Error implements the error interface.
func (e *RouterdError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *RouterdError) Unwrap() error {
	return e.Wrapped
}

// WithLocation records the file position and reads the surrounding lines.
func (e *RouterdError) WithLocation(file string, line, column int) *RouterdError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.contextStart, e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *RouterdError) WithSuggestion(s string) *RouterdError {
	e.Suggestion = s
	return e
}

// WithExample adds an example to the error.
func (e *RouterdError) WithExample(ex string) *RouterdError {
	e.Example = ex
	return e
}

// WithDetail replaces the registered explanation.
func (e *RouterdError) WithDetail(d string) *RouterdError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *RouterdError) Wrap(err error) *RouterdError {
	e.Wrapped = err
	return e
}

func readContextLines(filename string, targetLine, contextSize int) (int, []string) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := max(targetLine-contextSize/2, 1)
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum > endLine {
			break
		}
		if lineNum >= startLine {
			lines = append(lines, scanner.Text())
		}
	}

	return startLine, lines
}

// New creates a RouterdError from a registered error code.
func New(code string) *RouterdError {
	template, ok := registry[code]
	if !ok {
		return &RouterdError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &RouterdError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a RouterdError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *RouterdError {
	return &RouterdError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err with the given code, unless it already is a
// RouterdError.
func FromError(err error, code string) *RouterdError {
	if err == nil {
		return nil
	}
	var re *RouterdError
	if stderrors.As(err, &re) {
		return re
	}
	return New(code).Wrap(err)
}

// Classify maps the sentinel errors of the routing packages to codes.
// Unrecognised errors get fallback.
func Classify(err error, fallback string) *RouterdError {
	if err == nil {
		return nil
	}
	var re *RouterdError
	if stderrors.As(err, &re) {
		return re
	}

	code := fallback
	switch {
	case stderrors.Is(err, router.ErrNotStarted):
		code = "R001"
	case stderrors.Is(err, router.ErrDuplicateName):
		code = "R002"
	case stderrors.Is(err, router.ErrUnknownRoute):
		code = "R003"
	case stderrors.Is(err, pathpattern.ErrUnclosedGroup),
		stderrors.Is(err, pathpattern.ErrNestedGroup):
		code = "R004"
	case stderrors.Is(err, router.ErrNoLocation):
		code = "R005"
	case stderrors.Is(err, routepath.ErrInvalidPath),
		stderrors.Is(err, routepath.ErrAbsoluteURL),
		stderrors.Is(err, routepath.ErrBackslashInPath),
		stderrors.Is(err, routepath.ErrNullByteInPath),
		stderrors.Is(err, routepath.ErrInvalidPercentEscape),
		stderrors.Is(err, routepath.ErrPathEscapesRoot):
		code = "R006"
	case stderrors.Is(err, pathpattern.ErrMissingParam),
		stderrors.Is(err, pathpattern.ErrInvalidParam),
		stderrors.Is(err, pathpattern.ErrUnexpectedRepeat):
		code = "R007"
	}
	return New(code).Wrap(err)
}
