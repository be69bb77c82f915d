package router

import (
	"context"
	"slices"
	"sync"
)

// Router is the facade over one tree root.
type Router struct {
	session *Session
	root    *Node

	mu         sync.Mutex
	started    bool
	matcher    *matcher
	beforeEach []Hook
	afterEach  []Hook
	middleware []Middleware
	baseCtx    context.Context
}

// Root returns the tree root.
func (r *Router) Root() *Node { return r.root }

// Session returns the owning session.
func (r *Router) Session() *Session { return r.session }

// Started reports whether Start succeeded and Stop has not been called.
func (r *Router) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Start stops every other router of the session, activates the whole tree,
// starts observing the location and runs the initial transition to the
// current segment. Anonymous names are renumbered from zero.
//
// ctx bounds the initial transition only. Transitions triggered later by
// the location run with ctx's values but without its cancellation.
func (r *Router) Start(ctx context.Context) (*Transition, error) {
	loc := r.session.location
	if loc == nil {
		return nil, ErrNoLocation
	}

	r.session.claim(r)
	if r.Started() {
		r.stop(false)
	}

	r.session.resetNames()
	if _, err := r.root.activate(r.session, false); err != nil {
		r.root.deactivate()
		r.session.release(r)
		return nil, err
	}
	if err := r.root.checkNames(); err != nil {
		r.root.deactivate()
		r.session.release(r)
		return nil, err
	}

	r.mu.Lock()
	r.matcher = newMatcher(r.root, r.session.aliasSnapshot(), r.session.Version())
	r.started = true
	r.baseCtx = context.WithoutCancel(ctx)
	r.mu.Unlock()

	loc.Observe(r.onChange)

	var (
		t   *Transition
		err error
	)
	loc.Apply(func(c Change) {
		t, err = r.run(ctx, KindApply, c)
	})
	return t, err
}

// Stop stops observing the location and deactivates the tree.
func (r *Router) Stop() {
	r.stop(true)
}

func (r *Router) stop(release bool) {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.matcher = nil
	r.mu.Unlock()

	r.session.location.Unobserve()
	r.root.deactivate()
	if release {
		r.session.release(r)
	}
}

// onChange is the location observer.
func (r *Router) onChange(c Change) {
	r.mu.Lock()
	ctx := r.baseCtx
	r.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := r.run(ctx, KindObserve, c); err != nil {
		r.logger().Warn("transition failed", "segment", c.NewSegment, "error", err)
	}
}

// Push navigates to route and adds a location entry once the transition
// is allowed.
func (r *Router) Push(ctx context.Context, route Route, opts ...NavigateOption) (*Transition, error) {
	return r.Navigate(ctx, route, opts...)
}

// Replace navigates to route and overwrites the current location entry.
func (r *Router) Replace(ctx context.Context, route Route, opts ...NavigateOption) (*Transition, error) {
	return r.Navigate(ctx, route, append(opts, WithReplace())...)
}

// Navigate runs the lifecycle towards route. The location only changes if
// the transition commits or the route is unchanged.
func (r *Router) Navigate(ctx context.Context, route Route, opts ...NavigateOption) (*Transition, error) {
	if !r.Started() {
		return nil, ErrNotStarted
	}

	var options NavigateOptions
	for _, opt := range opts {
		opt(&options)
	}

	path, err := r.resolvePath(route, options)
	if err != nil {
		return nil, err
	}

	loc := r.session.location
	kind := KindPush
	if options.Replace {
		kind = KindReplace
	}

	change := Change{
		OldSegment: loc.Segment(""),
		NewSegment: path,
		IfAllowed: func() {
			observing := loc.IsObserving()
			if observing {
				loc.Unobserve()
			}
			if options.Replace {
				loc.Replace(path)
			} else {
				loc.Push(path)
			}
			if observing {
				loc.Observe(r.onChange)
			}
			if options.Callback != nil {
				options.Callback()
			}
		},
	}
	return r.run(ctx, kind, change)
}

// Match resolves segment against the tree without running the lifecycle.
// An empty segment means the current location.
func (r *Router) Match(segment string) (*ParseResult, error) {
	if !r.Started() {
		return nil, ErrNotStarted
	}
	if segment == "" {
		segment = r.session.location.Segment("")
	}
	return r.currentMatcher().parse(segment), nil
}

// Find returns the first node in pre-order whose full name is fullName.
func (r *Router) Find(fullName string) *Node {
	return r.FindFunc(func(n *Node) bool { return n.FullName() == fullName })
}

// FindFunc returns the first node in pre-order for which pred is true.
func (r *Router) FindFunc(pred func(*Node) bool) *Node {
	var found *Node
	r.root.walk(func(n *Node) bool {
		if pred(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// BeforeEach registers a global guard. Guards run in registration order
// before every transition, and any of them may veto.
func (r *Router) BeforeEach(h Hook) {
	r.mu.Lock()
	r.beforeEach = append(r.beforeEach, h)
	r.mu.Unlock()
}

// AfterEach registers a hook that runs after every committed transition.
// It does not run for aborted, cancelled, unchanged or not-found
// transitions, nor after a vetoed one has been rolled back.
func (r *Router) AfterEach(h Hook) {
	r.mu.Lock()
	r.afterEach = append(r.afterEach, h)
	r.mu.Unlock()
}

// Use appends transition middleware for this router.
func (r *Router) Use(mw ...Middleware) {
	r.mu.Lock()
	r.middleware = append(r.middleware, mw...)
	r.mu.Unlock()
}

// On subscribes to events fired on the root. Node level events are
// available through Node.On.
func (r *Router) On(ev Event, fn Listener) func() {
	return r.root.On(ev, fn)
}

func (r *Router) guards() []Hook {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.beforeEach)
}

func (r *Router) afterHooks() []Hook {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.afterEach)
}

func (r *Router) middlewareSnapshot() []Middleware {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.middleware)
}

// currentMatcher returns a matcher for the current structural version,
// activating nodes that joined the tree since the last build.
func (r *Router) currentMatcher() *matcher {
	version := r.session.Version()
	r.mu.Lock()
	m := r.matcher
	r.mu.Unlock()
	if m != nil && m.version == version {
		return m
	}

	if _, err := r.root.activate(r.session, true); err != nil {
		r.logger().Error("activating appended nodes", "error", err)
	}
	if err := r.root.checkNames(); err != nil {
		r.logger().Error("route tree", "error", err)
	}

	m = newMatcher(r.root, r.session.aliasSnapshot(), version)
	r.mu.Lock()
	r.matcher = m
	r.mu.Unlock()
	return m
}
