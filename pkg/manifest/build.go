package manifest

import (
	"fmt"

	"github.com/vango-dev/nestroute/pkg/router"
)

// HookFactory returns the hooks for a route. Only the hook fields of the
// returned Options are used; Name and Path always come from the manifest.
type HookFactory func(r *Route) router.Options

// BuildOptions configures Build.
type BuildOptions struct {
	Hooks HookFactory
}

// Build validates m and creates the node tree it describes. The nodes are
// unbound; hand the root to Session.Router.
func (m *Manifest) Build(opts BuildOptions) (*router.Node, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return build(m.Root, opts)
}

func build(r *Route, opts BuildOptions) (*router.Node, error) {
	var nodeOpts router.Options
	if opts.Hooks != nil {
		nodeOpts = opts.Hooks(r)
	}
	nodeOpts.Name = r.Name
	nodeOpts.Path = r.Path

	n := router.NewNode(nodeOpts)
	for _, a := range r.Aliases {
		if err := n.Alias(a); err != nil {
			return nil, fmt.Errorf("manifest: alias %q: %w", a, err)
		}
	}
	for _, c := range r.Children {
		child, err := build(c, opts)
		if err != nil {
			return nil, err
		}
		n.Append(child)
	}
	return n, nil
}

// FromNode describes an existing tree. Positions are zero.
func FromNode(root *router.Node) *Manifest {
	return &Manifest{Version: CurrentVersion, Root: fromNode(root, nil)}
}

func fromNode(n *router.Node, parent *Route) *Route {
	r := &Route{
		Name:    n.Options().Name,
		Path:    n.Options().Path,
		Aliases: n.Aliases(),
		parent:  parent,
	}
	for _, c := range n.Children() {
		r.Children = append(r.Children, fromNode(c, r))
	}
	return r
}
