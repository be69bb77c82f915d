package router

import "slices"

// Append attaches child as the last child of n. A child that already has a
// parent is detached from it first. Appending to a node of a running tree
// bumps the structural version, so the next transition activates the child
// and rebuilds the matcher.
func (n *Node) Append(child *Node) {
	if child == nil || child == n {
		return
	}
	for p := n; p != nil; p = p.Parent() {
		if p == child {
			panic("router: append would create a cycle")
		}
	}
	if child.Parent() != nil {
		child.detach()
	}

	child.mu.Lock()
	child.parent = n
	child.isRoot = false
	child.mu.Unlock()

	n.mu.Lock()
	n.children = append(n.children, child)
	s := n.session
	n.mu.Unlock()

	if s != nil {
		child.bind(s)
		s.bump()
	}
	n.events.emit(Notification{Event: EventAppend, Node: n, Child: child})
}

// Delete detaches n from its parent and deactivates its subtree. The
// subtree keeps its shape and can be appended elsewhere.
func (n *Node) Delete() {
	s := n.session0()
	n.detach()
	n.mu.Lock()
	n.isRoot = false
	n.mu.Unlock()
	if s != nil {
		s.bump()
	}
	n.emit(EventDelete)
}

func (n *Node) detach() {
	n.mu.Lock()
	p := n.parent
	n.parent = nil
	n.mu.Unlock()

	if p != nil {
		p.mu.Lock()
		p.children = slices.DeleteFunc(p.children, func(c *Node) bool { return c == n })
		p.mu.Unlock()
	}
	n.deactivate()
	n.unbind()
}

// Walk calls fn for n and then for every descendant in pre-order. Children
// are snapshotted before they are visited, so fn may append or delete.
func (n *Node) Walk(fn func(*Node)) {
	n.walk(func(node *Node) bool {
		fn(node)
		return true
	})
}

// walk is Walk with early exit: it stops as soon as fn returns false.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.Children() {
		if !child.walk(fn) {
			return false
		}
	}
	return true
}

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

// Children returns a snapshot of the children.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.children)
}

func (n *Node) session0() *Session {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.session
}

// bind attaches the subtree to s and registers its aliases.
func (n *Node) bind(s *Session) {
	n.Walk(func(node *Node) {
		node.mu.Lock()
		if node.session == s {
			node.mu.Unlock()
			return
		}
		node.session = s
		as := slices.Clone(node.aliases)
		node.mu.Unlock()
		s.registerAliases(as...)
	})
}

func (n *Node) unbind() {
	n.Walk(func(node *Node) {
		node.mu.Lock()
		s := node.session
		node.session = nil
		as := slices.Clone(node.aliases)
		node.mu.Unlock()
		if s != nil {
			s.dropAliases(as)
		}
	})
}
