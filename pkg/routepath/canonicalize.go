package routepath

import (
	"errors"
	"strings"
)

// Navigation path errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrAbsoluteURL          = errors.New("absolute URLs are not navigable")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Canonical is a navigation target after canonicalization.
type Canonical struct {
	// Path is the cleaned path, always rooted at "/".
	Path string

	// Query is the raw query string without the leading "?".
	Query string

	// Changed reports whether Path differs from the input path.
	Changed bool
}

// String rebuilds the segment with its query.
func (c Canonical) String() string {
	return WithQuery(c.Path, c.Query)
}

// Canonicalize cleans a navigation segment received from an untrusted
// source such as a remote client:
//   - a "#fragment" is dropped
//   - repeated slashes collapse (/a//b → /a/b)
//   - "." segments are removed and ".." segments resolved
//   - a trailing slash is removed except for "/"
//
// Backslashes, NUL bytes, malformed percent escapes, absolute URLs and ".."
// escaping the root are rejected. The query is kept verbatim.
func Canonicalize(input string) (Canonical, error) {
	if strings.HasPrefix(input, "http://") ||
		strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "//") {
		return Canonical{}, ErrAbsoluteURL
	}

	path, query := Split(input)
	if path == "" {
		return Canonical{Path: "/", Query: query, Changed: true}, nil
	}
	if strings.Contains(path, "\\") {
		return Canonical{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Canonical{}, ErrNullByteInPath
	}
	if err := validatePercentEscapes(path); err != nil {
		return Canonical{}, err
	}

	parts := make([]string, 0, strings.Count(path, "/")+1)
	for _, part := range strings.Split(path, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(parts) == 0 {
				return Canonical{}, ErrPathEscapesRoot
			}
			parts = parts[:len(parts)-1]
		default:
			parts = append(parts, part)
		}
	}

	clean := "/" + strings.Join(parts, "/")
	return Canonical{
		Path:    clean,
		Query:   query,
		Changed: clean != path,
	}, nil
}

// validatePercentEscapes checks that every "%" starts a %XX hex escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
