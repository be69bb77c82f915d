package router

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
)

// ErrVetoed is returned by a hook to decline a transition. It is a control
// value, not a fault.
var ErrVetoed = errors.New("router: transition vetoed")

// Hook is a lifecycle callback. Guards and veto hooks decide through the
// HookContext or their return value; for Enter, Leave, Update and AfterEach
// the decision is ignored.
type Hook func(hc *HookContext) error

// HookContext is passed to every hook invocation.
type HookContext struct {
	// From is the route being left. It is nil on the initial transition.
	From *ParseResult

	// To is the route being entered.
	To *ParseResult

	// Params and Query are To's. They are nil for global guards.
	Params Params
	Query  url.Values

	ctx        context.Context
	node       *Node
	transition *Transition
	decision   *decision
	cancels    *[]func()
	delayed    []func()
	mu         sync.Mutex
}

// Context returns the transition context.
func (hc *HookContext) Context() context.Context { return hc.ctx }

// Node returns the node the hook belongs to, or nil for global hooks.
func (hc *HookContext) Node() *Node { return hc.node }

// Transition returns the running transition.
func (hc *HookContext) Transition() *Transition { return hc.transition }

// Next approves. During BeforeEnter, callbacks are queued on the node and
// run right before its Enter hook once the transition commits. Only the
// first Next or Veto counts.
func (hc *HookContext) Next(callbacks ...func()) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	if hc.decision.settle(false) {
		hc.delayed = append(hc.delayed, callbacks...)
	}
}

// Veto declines the transition. Only the first Next or Veto counts.
func (hc *HookContext) Veto() {
	hc.decision.settle(true)
}

// OnCancel registers fn to run if the transition is vetoed or aborted.
func (hc *HookContext) OnCancel(fn func()) {
	if fn == nil || hc.cancels == nil {
		return
	}
	hc.mu.Lock()
	*hc.cancels = append(*hc.cancels, fn)
	hc.mu.Unlock()
}

func (hc *HookContext) takeDelayed() []func() {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	out := hc.delayed
	hc.delayed = nil
	return out
}

// decision is a one-shot signal settled by Next, Veto or the hook's return.
type decision struct {
	once   sync.Once
	done   chan struct{}
	vetoed bool
}

func newDecision() *decision {
	return &decision{done: make(chan struct{})}
}

// settle records the decision and reports whether it was the first one.
func (d *decision) settle(vetoed bool) bool {
	first := false
	d.once.Do(func() {
		d.vetoed = vetoed
		first = true
		close(d.done)
	})
	return first
}

// HookError wraps a hook that failed or panicked.
type HookError struct {
	Hook string
	Node string
	Err  error
}

func (e *HookError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("router: %s hook: %v", e.Hook, e.Err)
	}
	return fmt.Sprintf("router: %s hook on %s: %v", e.Hook, e.Node, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// invoke runs h and waits for it to return, so hooks never overlap. The
// decision is the first of Next, Veto or the return value; a Next or Veto
// made early still wins over what the hook returns. invoke reports whether
// the hook approved. A fault, a panic included, counts as approval and is
// returned as a *HookError. A hook that does not return blocks until ctx
// is done.
func invoke(ctx context.Context, hc *HookContext, name string, h Hook) (approved bool, fault error, err error) {
	d := newDecision()
	hc.decision = d
	hc.ctx = ctx

	nodeName := ""
	if hc.node != nil {
		nodeName = hc.node.FullName()
	}

	returned := make(chan error, 1)
	go func() {
		var fault error
		defer func() {
			if r := recover(); r != nil {
				fault = &HookError{Hook: name, Node: nodeName, Err: fmt.Errorf("panic: %v", r)}
				d.settle(false)
			}
			returned <- fault
		}()
		res := h(hc)
		switch {
		case res == nil:
			d.settle(false)
		case errors.Is(res, ErrVetoed):
			d.settle(true)
		default:
			fault = &HookError{Hook: name, Node: nodeName, Err: res}
			d.settle(false)
		}
	}()

	select {
	case fault = <-returned:
	case <-ctx.Done():
		return false, nil, ctx.Err()
	}
	return !d.vetoed, fault, nil
}
