// Package location provides router.Location implementations that do not
// depend on a browser: an in-memory history and a location mirrored from a
// remote client.
package location

import (
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/vango-dev/nestroute/pkg/router"
	"github.com/vango-dev/nestroute/pkg/routepath"
)

// stack is a history list with a cursor and an optional observer. Its
// methods never call the observer; callers notify after unlocking.
//
// last is the cursor delta of the most recent user move, or 0 once that
// move was reverted or the router changed the history itself.
type stack struct {
	mu       sync.Mutex
	entries  []string
	index    int
	last     int
	observer func(router.Change)
}

func normalize(segment string) string {
	return routepath.EnsureLeadingSlash(segment)
}

func (s *stack) current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[s.index]
}

// push drops forward entries and appends segment. user marks a move the
// observer is told about.
func (s *stack) push(segment string, user bool) (old, now string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old = s.entries[s.index]
	s.entries = append(s.entries[:s.index+1], normalize(segment))
	s.index++
	s.last = 0
	if user {
		s.last = 1
	}
	return old, s.entries[s.index]
}

func (s *stack) replace(segment string) (old, now string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old = s.entries[s.index]
	s.entries[s.index] = normalize(segment)
	s.last = 0
	return old, s.entries[s.index]
}

// move shifts the cursor by delta on behalf of the user and reports
// whether it moved.
func (s *stack) move(delta int) (old, now string, moved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old = s.entries[s.index]
	next := s.index + delta
	if next < 0 || next >= len(s.entries) {
		return old, old, false
	}
	s.index = next
	s.last = delta
	return old, s.entries[s.index], true
}

// revert undoes the last user move and returns the delta it applied, or 0
// if there was nothing to undo.
func (s *stack) revert() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.last
	s.last = 0
	next := s.index - d
	if d == 0 || next < 0 || next >= len(s.entries) {
		return 0
	}
	s.index = next
	return -d
}

func (s *stack) snapshot() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries), s.index
}

func (s *stack) Observe(fn func(router.Change)) {
	s.mu.Lock()
	s.observer = fn
	s.mu.Unlock()
}

func (s *stack) Unobserve() {
	s.mu.Lock()
	s.observer = nil
	s.mu.Unlock()
}

func (s *stack) IsObserving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observer != nil
}

func (s *stack) Apply(fn func(router.Change)) {
	fn(router.Change{NewSegment: s.current()})
}

// Segment returns the current segment when rawURL is empty. Otherwise it
// extracts the path and query of rawURL, which may be absolute.
func (s *stack) Segment(rawURL string) string {
	if rawURL == "" {
		return s.current()
	}
	if !strings.Contains(rawURL, "://") {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return routepath.WithQuery(routepath.EnsureLeadingSlash(u.Path), u.RawQuery)
}

func (s *stack) notify(old, now string) {
	s.mu.Lock()
	fn := s.observer
	s.mu.Unlock()
	if fn != nil {
		fn(router.Change{NewSegment: now, OldSegment: old})
	}
}
