package router

import (
	"fmt"
	"slices"

	"github.com/vango-dev/nestroute/pkg/pathpattern"
	"github.com/vango-dev/nestroute/pkg/routepath"
)

// activate computes the derived fields of every node of the subtree rooted
// at n, top-down. With onlyInactive set, nodes that are already active keep
// their names and patterns. It returns the nodes it activated.
//
// A node whose parent is not active, or whose template fails to compile,
// stays inactive. Compile errors are collected and returned.
func (n *Node) activate(s *Session, onlyInactive bool) ([]*Node, error) {
	var (
		activated []*Node
		errs      []error
	)

	n.Walk(func(node *Node) {
		st := node.state()
		if onlyInactive && st.active {
			return
		}

		var parent nodeState
		if !st.isRoot {
			p := node.Parent()
			if p == nil {
				return
			}
			parent = p.state()
			if !parent.active {
				return
			}
		}

		name := node.options.Name
		if name == "" {
			name = s.anonymousName()
		}

		var (
			depth    int
			fullName string
			fullPath string
			traces   []*Node
		)
		if st.isRoot {
			fullName = name
			fullPath = routepath.JoinTemplate("", node.options.Path)
			traces = []*Node{node}
		} else {
			depth = parent.depth + 1
			fullName = parent.fullName + "." + name
			fullPath = routepath.JoinTemplate(parent.fullPath, node.options.Path)
			traces = append(slices.Clone(parent.traces), node)
		}

		pattern, err := pathpattern.Compile(fullPath)
		if err != nil {
			errs = append(errs, fmt.Errorf("router: node %q: %w", fullName, err))
			return
		}

		node.mu.Lock()
		node.active = true
		node.depth = depth
		node.name = name
		node.fullName = fullName
		node.fullPath = fullPath
		node.pattern = pattern
		node.traces = traces
		node.mu.Unlock()

		activated = append(activated, node)
	})

	for _, node := range activated {
		node.emit(EventActivate)
	}
	if len(errs) > 0 {
		return activated, errs[0]
	}
	return activated, nil
}

// deactivate clears the derived fields of the subtree rooted at n. Parent
// and children links are kept.
func (n *Node) deactivate() {
	var deactivated []*Node
	n.Walk(func(node *Node) {
		node.mu.Lock()
		wasActive := node.active
		node.active = false
		node.depth = 0
		node.name = ""
		node.fullName = ""
		node.fullPath = ""
		node.pattern = nil
		node.traces = nil
		node.delayed = nil
		node.mu.Unlock()
		if wasActive {
			deactivated = append(deactivated, node)
		}
	})

	for _, node := range deactivated {
		node.emit(EventDeactivate)
	}
}

// checkNames reports the first full name shared by two active nodes.
func (n *Node) checkNames() error {
	seen := make(map[string]bool)
	var dup error
	n.walk(func(node *Node) bool {
		st := node.state()
		if !st.active {
			return true
		}
		if seen[st.fullName] {
			dup = fmt.Errorf("%w: %q", ErrDuplicateName, st.fullName)
			return false
		}
		seen[st.fullName] = true
		return true
	})
	return dup
}
