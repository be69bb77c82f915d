package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/mattn/go-isatty"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorWhite = "\033[37m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

var colorEnabled atomic.Bool

func init() {
	colorEnabled.Store(isTerminal(os.Stderr))
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// DisableColors disables ANSI color output.
func DisableColors() { colorEnabled.Store(false) }

// EnableColors enables ANSI color output.
func EnableColors() { colorEnabled.Store(true) }

func color(code, text string) string {
	if !colorEnabled.Load() {
		return text
	}
	return code + text + colorReset
}

func red(text string) string   { return color(colorRed, text) }
func cyan(text string) string  { return color(colorCyan, text) }
func white(text string) string { return color(colorWhite, text) }
func gray(text string) string  { return color(colorGray, text) }
func bold(text string) string  { return color(colorBold, text) }

// Format renders the error for terminal display.
func (e *RouterdError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(red(bold("ERROR ")))
		b.WriteString(white(bold(e.Code + ": ")))
	} else {
		b.WriteString(red(bold("ERROR: ")))
	}
	b.WriteString(white(e.Message))
	b.WriteString("\n\n")

	if e.Location != nil {
		b.WriteString("  " + cyan(e.Location.String()) + "\n\n")
		e.writeContext(&b)
	}

	if e.Wrapped != nil {
		b.WriteString("  " + gray("Cause: ") + e.Wrapped.Error() + "\n\n")
	}

	for _, line := range wrapText(e.Detail, 70) {
		b.WriteString("  " + line + "\n")
	}
	if e.Detail != "" {
		b.WriteString("\n")
	}

	if e.Suggestion != "" {
		b.WriteString("  " + cyan("Hint: ") + e.Suggestion + "\n\n")
	}

	if e.Example != "" {
		b.WriteString("  " + cyan("Example:") + "\n")
		for _, line := range strings.Split(e.Example, "\n") {
			b.WriteString("    " + line + "\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (e *RouterdError) writeContext(b *strings.Builder) {
	if len(e.Context) == 0 {
		return
	}
	first := e.contextStart
	if first == 0 {
		first = max(e.Location.Line-len(e.Context)/2, 1)
	}
	for i, line := range e.Context {
		n := first + i
		if n != e.Location.Line {
			fmt.Fprintf(b, "    %4d%s%s\n", n, gray(" │ "), line)
			continue
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", red("→ "), n, gray(" │ "), line)
		if e.Location.Column > 0 {
			b.WriteString("       " + gray("│ ") + strings.Repeat(" ", e.Location.Column-1) + red("^") + "\n")
		}
	}
	b.WriteString("\n")
}

// FormatCompact returns a single-line rendering.
func (e *RouterdError) FormatCompact() string {
	var b strings.Builder
	if e.Location != nil {
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Error())
	return b.String()
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category,omitempty"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Cause      string        `json:"cause,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// MarshalJSON encodes the error for protocol frames and --json output.
func (e *RouterdError) MarshalJSON() ([]byte, error) {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	if e.Location != nil {
		out.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	return json.Marshal(out)
}

// FormatJSON returns the error as a JSON object.
func (e *RouterdError) FormatJSON() string {
	data, err := e.MarshalJSON()
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+len(word)+1 > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// Fprint writes err to w, using Format for RouterdErrors.
func Fprint(w io.Writer, err error) {
	if err == nil {
		return
	}
	var re *RouterdError
	if stderrors.As(err, &re) {
		fmt.Fprint(w, re.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", red(bold("ERROR:")), err.Error())
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}
