// Package manifest reads declarative route trees and builds router nodes
// from them.
//
// A manifest is YAML (or JSON, which YAML accepts):
//
//	version: 1
//	root:
//	  name: shop
//	  path: /
//	  children:
//	    - name: cart
//	      path: /cart
//	    - name: item
//	      path: /items/:id
//	      aliases: [/products/:id]
//
// Hooks cannot be expressed in a manifest; Build attaches them through a
// HookFactory.
package manifest

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/nestroute/internal/errors"
)

// CurrentVersion is the manifest schema version this package writes.
const CurrentVersion = 1

// Manifest is a parsed route tree.
type Manifest struct {
	Version int    `yaml:"version" json:"version"`
	Root    *Route `yaml:"root" json:"root"`

	// Source is the file path or URL the manifest was read from.
	Source string `yaml:"-" json:"-"`
}

// Route is one node of the tree.
type Route struct {
	Name     string   `yaml:"name,omitempty" json:"name,omitempty"`
	Path     string   `yaml:"path,omitempty" json:"path,omitempty"`
	Aliases  []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Children []*Route `yaml:"children,omitempty" json:"children,omitempty"`

	parent *Route
	pos    Position
}

// Position is a 1-based line and column in the manifest source.
type Position struct {
	Line   int
	Column int
}

var routeFields = map[string]bool{"name": true, "path": true, "aliases": true, "children": true}

// UnmarshalYAML records where the route was declared and rejects unknown
// keys, which Node.Decode would otherwise ignore.
func (r *Route) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		var unknown []string
		for i := 0; i+1 < len(value.Content); i += 2 {
			key := value.Content[i]
			if !routeFields[key.Value] {
				unknown = append(unknown, fmt.Sprintf("line %d: field %s not found in route", key.Line, key.Value))
			}
		}
		if len(unknown) > 0 {
			return &yaml.TypeError{Errors: unknown}
		}
	}

	type plain Route
	if err := value.Decode((*plain)(r)); err != nil {
		return err
	}
	r.pos = Position{Line: value.Line, Column: value.Column}
	return nil
}

// Parent returns the enclosing route, or nil for the root.
func (r *Route) Parent() *Route { return r.parent }

// Position returns where the route was declared, or zero if it was built
// in code.
func (r *Route) Position() Position { return r.pos }

// Trail returns the names from the root down to r. Unnamed routes
// contribute an empty string.
func (r *Route) Trail() []string {
	var trail []string
	for n := r; n != nil; n = n.parent {
		trail = append(trail, n.Name)
	}
	for i, j := 0, len(trail)-1; i < j; i, j = i+1, j-1 {
		trail[i], trail[j] = trail[j], trail[i]
	}
	return trail
}

// FullName returns the dotted name the router will assign, or "" if r or
// an ancestor is unnamed.
func (r *Route) FullName() string {
	trail := r.Trail()
	for _, name := range trail {
		if name == "" {
			return ""
		}
	}
	return strings.Join(trail, ".")
}

// Walk visits r and its descendants in pre-order.
func (r *Route) Walk(fn func(*Route)) {
	fn(r)
	for _, c := range r.Children {
		if c != nil {
			c.Walk(fn)
		}
	}
}

func (r *Route) link() {
	for _, c := range r.Children {
		if c == nil {
			continue
		}
		c.parent = r
		c.link()
	}
}

// Parse decodes a manifest. source names it in errors.
func Parse(data []byte, source string) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, syntaxError(err, source)
	}
	if m.Root == nil {
		return nil, errors.New("R203").
			WithDetail(source + " has no root route").
			WithExample("version: 1\nroot:\n  name: app\n  path: /")
	}
	if m.Version == 0 {
		m.Version = CurrentVersion
	}
	if m.Version != CurrentVersion {
		return nil, errors.New("R203").
			WithDetail(fmt.Sprintf("%s declares version %d; supported version is %d", source, m.Version, CurrentVersion))
	}
	m.Source = source
	m.Root.link()
	return &m, nil
}

// Marshal encodes m as YAML.
func Marshal(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func syntaxError(err error, source string) error {
	rerr := errors.New("R202").Wrap(err)
	var te *yaml.TypeError
	if stderrors.As(err, &te) && len(te.Errors) > 0 {
		rerr.WithDetail(strings.Join(te.Errors, "; "))
	}
	if line := yamlLine(err); line > 0 {
		rerr.WithLocation(source, line, 0)
	}
	return rerr
}

// yamlLine extracts the "line N" yaml.v3 puts in its messages.
func yamlLine(err error) int {
	msg := err.Error()
	i := strings.Index(msg, "line ")
	if i < 0 {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(msg[i:], "line %d", &line); scanErr != nil {
		return 0
	}
	return line
}
