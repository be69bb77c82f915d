package router

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
)

// fakeLocation is a history stack that counts router-initiated mutations.
type fakeLocation struct {
	mu       sync.Mutex
	entries  []string
	observer func(Change)

	pushes   []string
	replaces []string
	backs    int
}

func newFakeLocation(initial string) *fakeLocation {
	return &fakeLocation{entries: []string{initial}}
}

func (f *fakeLocation) Observe(fn func(Change)) {
	f.mu.Lock()
	f.observer = fn
	f.mu.Unlock()
}

func (f *fakeLocation) Unobserve() {
	f.mu.Lock()
	f.observer = nil
	f.mu.Unlock()
}

func (f *fakeLocation) IsObserving() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.observer != nil
}

func (f *fakeLocation) Apply(fn func(Change)) {
	fn(Change{NewSegment: f.Segment("")})
}

func (f *fakeLocation) Segment(url string) string {
	if url != "" {
		return url
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[len(f.entries)-1]
}

func (f *fakeLocation) Push(segment string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, segment)
	f.pushes = append(f.pushes, segment)
}

func (f *fakeLocation) Replace(segment string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[len(f.entries)-1] = segment
	f.replaces = append(f.replaces, segment)
}

func (f *fakeLocation) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backs++
	if len(f.entries) > 1 {
		f.entries = f.entries[:len(f.entries)-1]
	}
}

// navigate simulates the user changing the location.
func (f *fakeLocation) navigate(segment string) {
	f.mu.Lock()
	old := f.entries[len(f.entries)-1]
	f.entries = append(f.entries, segment)
	fn := f.observer
	f.mu.Unlock()
	if fn != nil {
		fn(Change{NewSegment: segment, OldSegment: old})
	}
}

func (f *fakeLocation) stats() (pushes, replaces []string, backs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pushes...), append([]string(nil), f.replaces...), f.backs
}

// recorder collects hook invocations in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) hook(label string) Hook {
	return func(hc *HookContext) error {
		r.add(label)
		return nil
	}
}

func (r *recorder) add(label string) {
	r.mu.Lock()
	r.calls = append(r.calls, label)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func quietSession(loc Location, opts ...SessionOption) *Session {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSession(loc, append([]SessionOption{WithLogger(logger)}, opts...)...)
}

// startRouter starts a router on root at segment and fails the test on
// error.
func startRouter(t *testing.T, root *Node, segment string) (*Router, *fakeLocation, *Transition) {
	t.Helper()
	loc := newFakeLocation(segment)
	r := quietSession(loc).Router(root)
	tr, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return r, loc, tr
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.FullName()
	}
	return out
}
