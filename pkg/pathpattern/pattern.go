// Package pathpattern compiles route path templates such as "/user/:id" or
// "/files/:path+" into matchers and reverse builders.
//
// # Template Syntax
//
//	/user/:id           named parameter, one segment
//	/user/:id?          optional parameter
//	/files/:path+       one or more segments, split on "/" when read
//	/files/:path*       zero or more segments
//	/post/:id(\d+)      parameter with a custom pattern
//	/blob/(.*)          unnamed group, keyed "0", "1", ...
//	/static/*           asterisk, matches anything, keyed by index
//	/a\:b               escaped character, matched literally
//
// A "/" or "." directly in front of a parameter is the parameter's prefix:
// it is only required when the parameter is present.
//
// Matching is case-insensitive, anchored at both ends and tolerates one
// trailing slash.
package pathpattern

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Compilation and reverse errors.
var (
	ErrUnclosedGroup    = errors.New("unclosed group in path template")
	ErrNestedGroup      = errors.New("nested group in path template")
	ErrMissingParam     = errors.New("missing required parameter")
	ErrInvalidParam     = errors.New("parameter does not match its pattern")
	ErrUnexpectedRepeat = errors.New("multiple values for a non-repeating parameter")
)

// Key describes one parameter captured by a template.
type Key struct {
	// Name is the parameter name, or its index for unnamed groups.
	Name string

	// Prefix is the "/" or "." that precedes the parameter, if any.
	Prefix string

	// Delimiter separates repeated values. It is the prefix, or "/".
	Delimiter string

	// Optional is set for the "?" and "*" modifiers.
	Optional bool

	// Repeat is set for the "+" and "*" modifiers.
	Repeat bool

	// Partial is set when the parameter is followed by a literal other
	// than its own prefix, e.g. "/:a-:b".
	Partial bool

	// Asterisk is set for a bare "*" parameter.
	Asterisk bool

	// Pattern is the regular expression a single value must match.
	Pattern string
}

type token struct {
	literal string
	key     *Key
	check   *regexp.Regexp
}

// Pattern is a compiled path template.
type Pattern struct {
	template string
	tokens   []token
	keys     []Key
	re       *regexp.Regexp
}

// Compile parses template and builds its matcher.
func Compile(template string) (*Pattern, error) {
	tokens, err := parse(template)
	if err != nil {
		return nil, fmt.Errorf("pathpattern: %q: %w", template, err)
	}

	p := &Pattern{template: template, tokens: tokens}
	var route strings.Builder
	for i := range p.tokens {
		tok := &p.tokens[i]
		if tok.key == nil {
			route.WriteString(regexp.QuoteMeta(tok.literal))
			continue
		}
		check, err := regexp.Compile("(?i)^(?:" + tok.key.Pattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("pathpattern: %q: parameter %q: %w", template, tok.key.Name, err)
		}
		tok.check = check
		p.keys = append(p.keys, *tok.key)
		route.WriteString(captureFor(tok.key))
	}

	expr := route.String()
	// Non-strict: a single trailing delimiter is optional.
	expr = strings.TrimSuffix(expr, "/") + "/?$"

	re, err := regexp.Compile("(?i)^" + expr)
	if err != nil {
		return nil, fmt.Errorf("pathpattern: %q: %w", template, err)
	}
	p.re = re
	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(template string) *Pattern {
	p, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return p
}

func captureFor(k *Key) string {
	prefix := regexp.QuoteMeta(k.Prefix)
	capture := "(?:" + k.Pattern + ")"
	if k.Repeat {
		capture += "(?:" + prefix + capture + ")*"
	}
	switch {
	case k.Optional && k.Partial:
		return prefix + "(" + capture + ")?"
	case k.Optional:
		return "(?:" + prefix + "(" + capture + "))?"
	default:
		return prefix + "(" + capture + ")"
	}
}

// Template returns the source template.
func (p *Pattern) Template() string { return p.template }

// Keys returns the parameter descriptors in capture order.
func (p *Pattern) Keys() []Key { return p.keys }

// Match reports whether path is accepted by the pattern.
func (p *Pattern) Match(path string) bool {
	return p.re.MatchString(path)
}

// Exec returns one raw capture per key, "" for groups that did not
// participate. It returns nil if path does not match.
func (p *Pattern) Exec(path string) []string {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil
	}
	return m[1:]
}

// Reverse builds a concrete path from params. Repeating keys take every
// value, other keys take exactly one.
func (p *Pattern) Reverse(params map[string][]string) (string, error) {
	var b strings.Builder
	for _, tok := range p.tokens {
		if tok.key == nil {
			b.WriteString(tok.literal)
			continue
		}
		k := tok.key
		values := params[k.Name]
		if len(values) == 0 {
			if k.Optional {
				if k.Partial {
					b.WriteString(k.Prefix)
				}
				continue
			}
			return "", fmt.Errorf("%w %q", ErrMissingParam, k.Name)
		}
		if len(values) > 1 && !k.Repeat {
			return "", fmt.Errorf("%w %q", ErrUnexpectedRepeat, k.Name)
		}
		for i, v := range values {
			seg := encodeValue(v, k.Asterisk)
			if !tok.check.MatchString(seg) {
				return "", fmt.Errorf("%w: %q = %q", ErrInvalidParam, k.Name, seg)
			}
			if i == 0 {
				b.WriteString(k.Prefix)
			} else {
				b.WriteString(k.Delimiter)
			}
			b.WriteString(seg)
		}
	}
	return b.String(), nil
}

// encodeValue escapes a parameter value for use in a path. Asterisk values
// keep their slashes.
func encodeValue(v string, keepSlashes bool) string {
	if !keepSlashes {
		return url.PathEscape(v)
	}
	parts := strings.Split(v, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// parse splits a template into literal and parameter tokens.
func parse(s string) ([]token, error) {
	var (
		tokens []token
		lit    strings.Builder
		index  int
	)

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			lit.WriteByte(s[i+1])
			i += 2
			continue
		}

		start, prefix := i, ""
		if (c == '/' || c == '.') && i+1 < len(s) && isParamStart(s, i+1) {
			prefix = string(c)
			start = i + 1
		}
		if !isParamStart(s, start) {
			lit.WriteByte(c)
			i++
			continue
		}

		key, end, err := parseParam(s, start, &index)
		if err != nil {
			return nil, err
		}
		key.Prefix = prefix
		key.Delimiter = prefix
		if key.Delimiter == "" {
			key.Delimiter = "/"
		}
		if key.Pattern == "" {
			key.Pattern = "[^" + regexp.QuoteMeta(key.Delimiter) + "]+?"
		}
		key.Partial = prefix != "" && end < len(s) && string(s[end]) != prefix

		flush()
		tokens = append(tokens, token{key: key})
		i = end
	}
	flush()
	return tokens, nil
}

// isParamStart reports whether a parameter begins at s[i].
func isParamStart(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	switch s[i] {
	case ':':
		return i+1 < len(s) && isWordChar(s[i+1])
	case '(', '*':
		return true
	}
	return false
}

// parseParam reads a parameter starting at s[i] and returns the position
// just after it, modifier included.
func parseParam(s string, i int, index *int) (*Key, int, error) {
	key := &Key{}

	switch s[i] {
	case '*':
		key.Name = strconv.Itoa(*index)
		*index++
		key.Asterisk = true
		key.Pattern = ".*"
		return key, i + 1, nil

	case ':':
		j := i + 1
		for j < len(s) && isWordChar(s[j]) {
			j++
		}
		key.Name = s[i+1 : j]
		i = j
		if i < len(s) && s[i] == '(' {
			group, end, err := readGroup(s, i)
			if err != nil {
				return nil, 0, err
			}
			key.Pattern = group
			i = end
		}

	case '(':
		group, end, err := readGroup(s, i)
		if err != nil {
			return nil, 0, err
		}
		key.Name = strconv.Itoa(*index)
		*index++
		key.Pattern = group
		i = end
	}

	if i < len(s) {
		switch s[i] {
		case '?':
			key.Optional = true
			i++
		case '*':
			key.Optional = true
			key.Repeat = true
			i++
		case '+':
			key.Repeat = true
			i++
		}
	}
	return key, i, nil
}

// readGroup reads "(...)" starting at s[i] and returns its body.
func readGroup(s string, i int) (string, int, error) {
	var b strings.Builder
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			if j+1 < len(s) {
				b.WriteByte(s[j])
				b.WriteByte(s[j+1])
				j++
				continue
			}
		case '(':
			return "", 0, ErrNestedGroup
		case ')':
			if b.Len() == 0 {
				return "", 0, ErrUnclosedGroup
			}
			return b.String(), j + 1, nil
		}
		b.WriteByte(s[j])
	}
	return "", 0, ErrUnclosedGroup
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
