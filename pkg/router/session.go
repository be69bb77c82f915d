package router

import (
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/nestroute/pkg/pathpattern"
	"github.com/vango-dev/nestroute/pkg/routepath"
)

// Session holds the state shared by every tree bound to one Location: the
// structural version, the anonymous name counter, the running routers and
// the alias registry.
type Session struct {
	location Location
	logger   *slog.Logger

	version atomic.Uint64

	mu         sync.Mutex
	counter    int
	running    []*Router
	aliases    []*alias
	middleware []Middleware
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger for hook faults and rollbacks.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMiddleware adds transition middleware to every router of the session.
func WithMiddleware(mw ...Middleware) SessionOption {
	return func(s *Session) {
		s.middleware = append(s.middleware, mw...)
	}
}

// NewSession creates a session bound to loc.
func NewSession(loc Location, opts ...SessionOption) *Session {
	s := &Session{location: loc}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "router")
	}
	return s
}

// Location returns the location the session follows.
func (s *Session) Location() Location { return s.location }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Version returns the structural version.
func (s *Session) Version() uint64 { return s.version.Load() }

// Use appends transition middleware shared by every router of the session.
func (s *Session) Use(mw ...Middleware) {
	s.mu.Lock()
	s.middleware = append(s.middleware, mw...)
	s.mu.Unlock()
}

// Router binds root to the session and returns its facade. The tree is
// inert until Start.
func (s *Session) Router(root *Node) *Router {
	root.mu.Lock()
	root.isRoot = true
	root.mu.Unlock()
	root.bind(s)
	return &Router{session: s, root: root}
}

func (s *Session) bump() {
	s.version.Add(1)
}

func (s *Session) resetNames() {
	s.mu.Lock()
	s.counter = 0
	s.mu.Unlock()
}

func (s *Session) anonymousName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := "anonymous" + strconv.Itoa(s.counter)
	s.counter++
	return name
}

// claim stops every other running router and records r as running.
func (s *Session) claim(r *Router) {
	s.mu.Lock()
	others := slices.DeleteFunc(slices.Clone(s.running), func(o *Router) bool { return o == r })
	s.running = []*Router{r}
	s.mu.Unlock()

	for _, o := range others {
		o.stop(false)
	}
}

func (s *Session) release(r *Router) {
	s.mu.Lock()
	s.running = slices.DeleteFunc(s.running, func(o *Router) bool { return o == r })
	s.mu.Unlock()
}

func (s *Session) middlewareSnapshot() []Middleware {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.middleware)
}

// alias is an extra template that resolves to its owner.
type alias struct {
	owner   *Node
	path    string
	pattern *pathpattern.Pattern
}

func (s *Session) registerAliases(as ...*alias) {
	if len(as) == 0 {
		return
	}
	s.mu.Lock()
	s.aliases = append(s.aliases, as...)
	s.mu.Unlock()
	s.bump()
}

func (s *Session) dropAliases(as []*alias) {
	if len(as) == 0 {
		return
	}
	s.mu.Lock()
	s.aliases = slices.DeleteFunc(s.aliases, func(a *alias) bool { return slices.Contains(as, a) })
	s.mu.Unlock()
}

func (s *Session) aliasSnapshot() []*alias {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.aliases)
}

// Alias registers an extra path template that resolves to n. Aliases are
// checked before the regular match, in registration order.
func (n *Node) Alias(path string) error {
	path = routepath.NormalizeAlias(path)
	p, err := pathpattern.Compile(path)
	if err != nil {
		return err
	}
	a := &alias{owner: n, path: path, pattern: p}

	n.mu.Lock()
	n.aliases = append(n.aliases, a)
	s := n.session
	n.mu.Unlock()

	if s != nil {
		s.registerAliases(a)
	}
	return nil
}
