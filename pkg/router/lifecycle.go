package router

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// run wraps one transition in the middleware chain.
func (r *Router) run(ctx context.Context, kind Kind, change Change) (*Transition, error) {
	t := newTransition(kind, change)
	mw := append(r.session.middlewareSnapshot(), r.middlewareSnapshot()...)
	err := ComposeMiddleware(ctx, t, mw, func(ctx context.Context) error {
		err := r.transition(ctx, t, change)
		t.Duration = time.Since(t.Started)
		return err
	})
	if t.Duration == 0 {
		t.Duration = time.Since(t.Started)
	}
	return t, err
}

// transition drives the lifecycle for one change:
//
//	guards -> structural re-check -> veto check -> commit -> after hooks
//
// Vetoes are outcomes, not errors. The only error returned is the context's.
func (r *Router) transition(ctx context.Context, t *Transition, change Change) error {
	mark := r.session.Version()
	m := r.currentMatcher()
	from, to := r.resolve(m, change)
	t.From, t.To = from, to

	if sameRoute(from, to) {
		r.allow(change)
		t.Outcome = OutcomeUnchanged
		return nil
	}

	var cancels []func()

	guards := r.guards()
	approvals := 0
	for _, guard := range guards {
		hc := &HookContext{From: from, To: to, transition: t, cancels: &cancels}
		ok, err := r.call(ctx, hc, "beforeEach", guard)
		if err != nil {
			return r.interrupt(t, cancels, err)
		}
		if ok {
			approvals++
		}
	}

	// A guard may have reshaped the tree or registered an alias.
	if r.session.Version() != mark {
		m = r.currentMatcher()
		from, to = r.resolve(m, change)
		t.From, t.To = from, to
	}

	if approvals < len(guards) {
		t.Outcome = OutcomeAborted
		r.cancel(t, change, cancels)
		return nil
	}

	if to == nil {
		t.Outcome = OutcomeNotFound
		r.root.events.emit(Notification{Event: EventNotFound, Node: r.root, Segment: change.NewSegment})
		return nil
	}

	plan := Diff(from, to)
	t.Plan = plan

	ok, err := r.requestUnmount(ctx, t, plan.Unmounts, &cancels)
	if err != nil {
		return r.interrupt(t, cancels, err)
	}
	if ok {
		ok, err = r.requestMount(ctx, t, plan.Mounts, &cancels)
		if err != nil {
			return r.interrupt(t, cancels, err)
		}
	}
	if !ok {
		t.Outcome = OutcomeCancelled
		r.cancel(t, change, cancels)
		return nil
	}

	r.allow(change)

	for _, node := range plan.Unmounts {
		if err := r.callNode(ctx, t, node, "leave", node.options.Leave); err != nil {
			return r.interrupt(t, nil, err)
		}
	}
	for _, node := range plan.Ancestors {
		if err := r.mount(ctx, t, node); err != nil {
			return r.interrupt(t, nil, err)
		}
		if err := r.callNode(ctx, t, node, "update", node.options.Update); err != nil {
			return r.interrupt(t, nil, err)
		}
	}
	for _, node := range plan.Mounts {
		if err := r.mount(ctx, t, node); err != nil {
			return r.interrupt(t, nil, err)
		}
	}
	t.Outcome = OutcomeCommitted

	for _, hook := range r.afterHooks() {
		hc := &HookContext{From: from, To: to, transition: t}
		if _, err := r.call(ctx, hc, "afterEach", hook); err != nil {
			return err
		}
	}
	return nil
}

// resolve parses both segments. An empty old segment means nothing is
// mounted.
func (r *Router) resolve(m *matcher, change Change) (from, to *ParseResult) {
	if change.OldSegment != "" {
		from = m.parse(change.OldSegment)
	}
	return from, m.parse(change.NewSegment)
}

// requestUnmount asks every unmounting node for permission. All hooks run;
// the request succeeds only if each one approved.
func (r *Router) requestUnmount(ctx context.Context, t *Transition, nodes []*Node, cancels *[]func()) (bool, error) {
	approvals := 0
	for _, node := range nodes {
		hook := node.options.BeforeLeave
		if hook == nil {
			approvals++
			continue
		}
		hc := r.nodeContext(t, node)
		hc.cancels = cancels
		ok, err := r.call(ctx, hc, "beforeLeave", hook)
		if err != nil {
			return false, err
		}
		if ok {
			approvals++
		}
	}
	return approvals == len(nodes), nil
}

// requestMount is requestUnmount for BeforeEnter. Callbacks passed to Next
// are queued on the node until it mounts.
func (r *Router) requestMount(ctx context.Context, t *Transition, nodes []*Node, cancels *[]func()) (bool, error) {
	approvals := 0
	for _, node := range nodes {
		node.resetDelayed()
		hook := node.options.BeforeEnter
		if hook == nil {
			approvals++
			continue
		}
		hc := r.nodeContext(t, node)
		hc.cancels = cancels
		ok, err := r.call(ctx, hc, "beforeEnter", hook)
		if err != nil {
			return false, err
		}
		if ok {
			approvals++
			node.addDelayed(hc.takeDelayed())
		}
	}
	return approvals == len(nodes), nil
}

// mount flushes the node's delayed callbacks and calls Enter.
func (r *Router) mount(ctx context.Context, t *Transition, node *Node) error {
	for _, cb := range node.takeDelayed() {
		r.safely(t, node, "delayed", cb)
	}
	return r.callNode(ctx, t, node, "enter", node.options.Enter)
}

func (r *Router) callNode(ctx context.Context, t *Transition, node *Node, name string, hook Hook) error {
	if hook == nil {
		return nil
	}
	_, err := r.call(ctx, r.nodeContext(t, node), name, hook)
	return err
}

func (r *Router) nodeContext(t *Transition, node *Node) *HookContext {
	hc := &HookContext{From: t.From, To: t.To, node: node, transition: t}
	if t.To != nil {
		hc.Params = t.To.Params
		hc.Query = t.To.Query
	}
	return hc
}

// call invokes a hook and logs any fault.
func (r *Router) call(ctx context.Context, hc *HookContext, name string, hook Hook) (bool, error) {
	ok, fault, err := invoke(ctx, hc, name, hook)
	if fault != nil {
		r.logger().Warn("hook failed",
			"hook", name,
			"node", nodeName(hc.node),
			"transition_id", hc.transition.ID,
			"error", fault)
	}
	return ok, err
}

func (r *Router) safely(t *Transition, node *Node, name string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger().Warn("callback panicked",
				"hook", name,
				"node", nodeName(node),
				"transition_id", t.ID,
				"panic", rec)
		}
	}()
	fn()
}

// allow commits the change at the location.
func (r *Router) allow(change Change) {
	if change.IfAllowed != nil {
		change.IfAllowed()
	}
}

// cancel runs the OnCancel callbacks and, for location-driven transitions,
// rolls the location back.
func (r *Router) cancel(t *Transition, change Change, cancels []func()) {
	if t.Kind == KindObserve && change.OldSegment != "" {
		loc := r.session.location
		observing := loc.IsObserving()
		if observing {
			loc.Unobserve()
		}
		loc.Back()
		if observing {
			loc.Observe(r.onChange)
		}
		r.logger().Info("transition rolled back",
			"transition_id", t.ID,
			"outcome", t.Outcome.String(),
			"segment", change.NewSegment)
	}
	for _, fn := range cancels {
		r.safely(t, nil, "cancel", fn)
	}
}

func (r *Router) interrupt(t *Transition, cancels []func(), err error) error {
	t.Outcome = OutcomeInterrupted
	for _, fn := range cancels {
		r.safely(t, nil, "cancel", fn)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r.logger().Debug("transition interrupted", "transition_id", t.ID, "error", err)
	}
	return err
}

func (r *Router) logger() *slog.Logger { return r.session.logger }

func nodeName(n *Node) string {
	if n == nil {
		return ""
	}
	return n.FullName()
}
