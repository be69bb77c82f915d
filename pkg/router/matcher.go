package router

import (
	"net/url"
	"slices"
	"strings"

	"github.com/vango-dev/nestroute/pkg/pathpattern"
	"github.com/vango-dev/nestroute/pkg/routepath"
)

// ParseResult is a resolved segment.
type ParseResult struct {
	// Router is the node that owns the segment.
	Router *Node

	// Segment is the path part that was matched, without query or
	// fragment.
	Segment string

	// Params are the decoded path parameters of Router's pattern.
	Params Params

	// Query is the parsed query string.
	Query url.Values

	// Traces is Router's ancestor chain, root first.
	Traces []*Node
}

// candidate is a node snapshot taken when the matcher was built.
type candidate struct {
	node    *Node
	depth   int
	pattern *pathpattern.Pattern
	traces  []*Node
}

// matcher resolves segments against one structural version of a tree.
type matcher struct {
	version    uint64
	candidates []candidate
	aliases    []*alias
	index      map[*Node]int
}

// newMatcher snapshots every active node under root in pre-order, plus the
// aliases whose owner is one of them.
func newMatcher(root *Node, aliases []*alias, version uint64) *matcher {
	m := &matcher{version: version, index: make(map[*Node]int)}
	root.Walk(func(node *Node) {
		st := node.state()
		if !st.active || st.pattern == nil {
			return
		}
		m.index[node] = len(m.candidates)
		m.candidates = append(m.candidates, candidate{
			node:    node,
			depth:   st.depth,
			pattern: st.pattern,
			traces:  st.traces,
		})
	})
	for _, a := range aliases {
		if _, ok := m.index[a.owner]; ok {
			m.aliases = append(m.aliases, a)
		}
	}
	return m
}

// parse resolves segment, or returns nil if nothing matches.
func (m *matcher) parse(segment string) *ParseResult {
	path, rawQuery := routepath.Split(segment)
	query, _ := url.ParseQuery(rawQuery)

	c := m.lookup(path)
	if c == nil {
		return nil
	}

	return &ParseResult{
		Router:  c.node,
		Segment: path,
		Params:  extractParams(c.pattern, path),
		Query:   query,
		Traces:  slices.Clone(c.traces),
	}
}

func (m *matcher) lookup(path string) *candidate {
	for _, a := range m.aliases {
		if !a.owner.Active() {
			continue
		}
		if a.pattern.Match(path) {
			return &m.candidates[m.index[a.owner]]
		}
	}

	// Deepest match wins; the first one in pre-order breaks ties.
	best := -1
	for i := range m.candidates {
		c := &m.candidates[i]
		if !c.pattern.Match(path) {
			continue
		}
		if best < 0 || c.depth > m.candidates[best].depth {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return &m.candidates[best]
}

// extractParams always runs the owner's own pattern: an alias template has
// no say in how captures map to names.
func extractParams(p *pathpattern.Pattern, path string) Params {
	params := make(Params)
	captures := p.Exec(path)
	if captures == nil {
		return params
	}
	for i, key := range p.Keys() {
		raw := captures[i]
		if raw == "" {
			continue
		}
		value, err := url.PathUnescape(raw)
		if err != nil {
			value = raw
		}
		if key.Repeat {
			params[key.Name] = strings.Split(value, key.Delimiter)
		} else {
			params[key.Name] = []string{value}
		}
	}
	return params
}

// sameRoute reports whether two resolved routes are indistinguishable:
// same segment, same params and same query.
func sameRoute(a, b *ParseResult) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Segment != b.Segment {
		return false
	}
	return equalValues(a.Params, b.Params) && equalValues(a.Query, b.Query)
}

func equalValues[M ~map[string][]string](a, b M) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !slices.Equal(va, vb) {
			return false
		}
	}
	return true
}
