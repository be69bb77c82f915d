package router

import (
	"slices"
	"sync"

	"github.com/vango-dev/nestroute/pkg/pathpattern"
)

// Options declares a node: its path template relative to the parent, an
// optional explicit name and its lifecycle hooks.
type Options struct {
	// Path is the template for this node, e.g. "/detail/:id".
	// An empty root path means "/".
	Path string

	// Name is used to build the dotted full name. Nodes without a name
	// are called "anonymous<N>".
	Name string

	// BeforeEnter may veto mounting this node.
	BeforeEnter Hook

	// BeforeLeave may veto unmounting this node.
	BeforeLeave Hook

	// Enter runs when the node is mounted, and again when it survives a
	// transition as an ancestor.
	Enter Hook

	// Leave runs when the node is unmounted.
	Leave Hook

	// Update runs when the node survives a transition as an ancestor.
	Update Hook
}

// Node is one entry in the route tree.
//
// The derived fields (depth, names, pattern, traces) are only valid while
// the node is active. They are computed when the owning Router starts or
// when the node joins a running tree.
type Node struct {
	options Options
	events  listeners

	mu       sync.RWMutex
	session  *Session
	parent   *Node
	children []*Node
	aliases  []*alias

	isRoot   bool
	active   bool
	depth    int
	name     string
	fullName string
	fullPath string
	pattern  *pathpattern.Pattern
	traces   []*Node
	delayed  []func()
}

// NewNode creates a node and appends children to it.
func NewNode(opts Options, children ...*Node) *Node {
	n := &Node{options: opts}
	for _, child := range children {
		n.Append(child)
	}
	return n
}

// nodeState is a consistent copy of a node's derived fields.
type nodeState struct {
	isRoot   bool
	active   bool
	depth    int
	name     string
	fullName string
	fullPath string
	pattern  *pathpattern.Pattern
	traces   []*Node
}

func (n *Node) state() nodeState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return nodeState{
		isRoot:   n.isRoot,
		active:   n.active,
		depth:    n.depth,
		name:     n.name,
		fullName: n.fullName,
		fullPath: n.fullPath,
		pattern:  n.pattern,
		traces:   n.traces,
	}
}

// Options returns the options the node was created with.
func (n *Node) Options() Options { return n.options }

// Name returns the explicit or generated name.
func (n *Node) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.name == "" {
		return n.options.Name
	}
	return n.name
}

// FullName returns the dotted name from the root, e.g. "root.app.detail".
func (n *Node) FullName() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.fullName
}

// FullPath returns the full path template from the root.
func (n *Node) FullPath() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.fullPath
}

// Depth returns the distance from the root. The root is at depth 0.
func (n *Node) Depth() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.depth
}

// IsRoot reports whether the node is the root of a Router.
func (n *Node) IsRoot() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.isRoot
}

// Active reports whether the node is part of a live tree.
func (n *Node) Active() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

// Traces returns the ancestor chain, root first, ending with n.
func (n *Node) Traces() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.traces)
}

// Pattern returns the compiled full path pattern, or nil if inactive.
func (n *Node) Pattern() *pathpattern.Pattern {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.pattern
}

// Aliases returns the alias templates registered on the node.
func (n *Node) Aliases() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.aliases))
	for i, a := range n.aliases {
		out[i] = a.path
	}
	return out
}

// Reverse builds a concrete path for this node from params.
func (n *Node) Reverse(params Params) (string, error) {
	p := n.Pattern()
	if p == nil {
		return "", ErrInactive
	}
	return p.Reverse(params)
}

// On subscribes fn to ev on this node and returns the unsubscribe func.
func (n *Node) On(ev Event, fn Listener) func() {
	return n.events.on(ev, fn)
}

// String returns the full name, or the path template if inactive.
func (n *Node) String() string {
	if name := n.FullName(); name != "" {
		return name
	}
	return n.options.Path
}

func (n *Node) addDelayed(callbacks []func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, cb := range callbacks {
		if cb != nil {
			n.delayed = append(n.delayed, cb)
		}
	}
}

func (n *Node) resetDelayed() {
	n.mu.Lock()
	n.delayed = nil
	n.mu.Unlock()
}

// takeDelayed returns and clears the pending delayed callbacks.
func (n *Node) takeDelayed() []func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.delayed
	n.delayed = nil
	return out
}
