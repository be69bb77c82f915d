package router

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestStartEndToEnd(t *testing.T) {
	rec := &recorder{}
	detail := NewNode(Options{Name: "detail", Path: "/detail/:id", Enter: rec.hook("detail")})
	app := NewNode(Options{Name: "app", Path: "/app", Enter: rec.hook("app")}, detail)
	root := NewNode(Options{Name: "root", Path: "/"}, app)

	_, _, tr := startRouter(t, root, "/app/detail/7")

	if tr.Kind != KindApply {
		t.Errorf("Kind = %v, want apply", tr.Kind)
	}
	if tr.Outcome != OutcomeCommitted {
		t.Fatalf("Outcome = %v, want committed", tr.Outcome)
	}
	if tr.From != nil {
		t.Errorf("From = %v, want nil", tr.From)
	}
	if tr.To.Router != detail {
		t.Errorf("To.Router = %v, want detail", tr.To.Router)
	}
	if !reflect.DeepEqual(tr.To.Params, Params{"id": {"7"}}) {
		t.Errorf("To.Params = %v, want id=7", tr.To.Params)
	}
	if got := rec.list(); !reflect.DeepEqual(got, []string{"app", "detail"}) {
		t.Errorf("enter order = %v, want [app detail]", got)
	}
	if tr.ID == "" {
		t.Error("transition has no ID")
	}
}

func TestCommitOrder(t *testing.T) {
	rec := &recorder{}
	hooks := func(name string) Options {
		return Options{
			Name:        name,
			Path:        "/" + name,
			BeforeEnter: rec.hook(name + ":beforeEnter"),
			BeforeLeave: rec.hook(name + ":beforeLeave"),
			Enter:       rec.hook(name + ":enter"),
			Leave:       rec.hook(name + ":leave"),
			Update:      rec.hook(name + ":update"),
		}
	}

	b := NewNode(hooks("b"))
	c := NewNode(hooks("c"))
	a := NewNode(hooks("a"), b, c)
	root := NewNode(Options{Name: "root"}, a)

	r, _, _ := startRouter(t, root, "/a/b")
	r.BeforeEach(rec.hook("beforeEach"))
	r.AfterEach(rec.hook("afterEach"))
	rec.calls = nil

	tr, err := r.Push(t.Context(), Path("/a/c"))
	if err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	if tr.Outcome != OutcomeCommitted {
		t.Fatalf("Outcome = %v, want committed", tr.Outcome)
	}

	want := []string{
		"beforeEach",
		"b:beforeLeave",
		"c:beforeEnter",
		"b:leave",
		"a:enter",
		"a:update",
		"c:enter",
		"afterEach",
	}
	if got := rec.list(); !reflect.DeepEqual(got, want) {
		t.Errorf("order =\n%v\nwant\n%v", got, want)
	}
}

func TestLocationDrivenVetoRollsBackOnce(t *testing.T) {
	rec := &recorder{}
	b := NewNode(Options{
		Name: "b",
		Path: "/b",
		BeforeLeave: func(hc *HookContext) error {
			hc.Veto()
			return nil
		},
		Leave: rec.hook("b:leave"),
	})
	c := NewNode(Options{Name: "c", Path: "/c", Enter: rec.hook("c:enter")})
	a := NewNode(Options{Name: "a", Path: "/a", Enter: rec.hook("a:enter"), Update: rec.hook("a:update")}, b, c)
	root := NewNode(Options{Name: "root"}, a)

	r, loc, _ := startRouter(t, root, "/a/b")
	rec.calls = nil

	var outcome Outcome
	r.Use(MiddlewareFunc(func(ctx context.Context, tr *Transition, next func(context.Context) error) error {
		err := next(ctx)
		outcome = tr.Outcome
		return err
	}))

	loc.navigate("/a/c")

	if outcome != OutcomeCancelled {
		t.Errorf("Outcome = %v, want cancelled", outcome)
	}
	if got := rec.list(); len(got) != 0 {
		t.Errorf("commit hooks ran after veto: %v", got)
	}
	_, _, backs := loc.stats()
	if backs != 1 {
		t.Errorf("Back() called %d times, want 1", backs)
	}
	if !loc.IsObserving() {
		t.Error("observation not resumed after rollback")
	}
	if got := loc.Segment(""); got != "/a/b" {
		t.Errorf("location = %q, want /a/b", got)
	}
}

func TestVetoByReturnedError(t *testing.T) {
	entered := false
	target := NewNode(Options{
		Name:        "target",
		Path:        "/target",
		BeforeEnter: func(*HookContext) error { return ErrVetoed },
		Enter: func(*HookContext) error {
			entered = true
			return nil
		},
	})
	root := NewNode(Options{Name: "root"}, target)
	r, loc, _ := startRouter(t, root, "/")

	tr, err := r.Push(t.Context(), Path("/target"))
	if err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	if tr.Outcome != OutcomeCancelled {
		t.Errorf("Outcome = %v, want cancelled", tr.Outcome)
	}
	if entered {
		t.Error("Enter ran after veto")
	}
	pushes, _, backs := loc.stats()
	if len(pushes) != 0 {
		t.Errorf("location pushed %v after veto", pushes)
	}
	if backs != 0 {
		t.Errorf("Back() called %d times for a programmatic push, want 0", backs)
	}
}

func TestVetoHooksAllRun(t *testing.T) {
	rec := &recorder{}
	leaf := func(name string, veto bool) *Node {
		return NewNode(Options{
			Name: name,
			Path: "/" + name,
			BeforeLeave: func(hc *HookContext) error {
				rec.add(name)
				if veto {
					return ErrVetoed
				}
				return nil
			},
		})
	}
	x := leaf("x", true)
	y := leaf("y", false)
	x.Append(y)
	root := NewNode(Options{Name: "root"}, x, NewNode(Options{Name: "z", Path: "/z"}))

	r, _, _ := startRouter(t, root, "/x/y")
	tr, err := r.Push(t.Context(), Path("/z"))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Outcome != OutcomeCancelled {
		t.Errorf("Outcome = %v, want cancelled", tr.Outcome)
	}
	if got := rec.list(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("BeforeLeave calls = %v, want [x y]", got)
	}
}

func TestHookFaultsApprove(t *testing.T) {
	tests := []struct {
		name string
		hook Hook
	}{
		{"error", func(*HookContext) error { return errors.New("boom") }},
		{"panic", func(*HookContext) error { panic("boom") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entered := false
			target := NewNode(Options{
				Name:        "target",
				Path:        "/target",
				BeforeEnter: tt.hook,
				Enter: func(*HookContext) error {
					entered = true
					return nil
				},
			})
			root := NewNode(Options{Name: "root"}, target)
			r, _, _ := startRouter(t, root, "/")
			r.BeforeEach(tt.hook)
			r.AfterEach(tt.hook)

			tr, err := r.Push(t.Context(), Path("/target"))
			if err != nil {
				t.Fatalf("Push() error: %v", err)
			}
			if tr.Outcome != OutcomeCommitted {
				t.Errorf("Outcome = %v, want committed", tr.Outcome)
			}
			if !entered {
				t.Error("Enter did not run")
			}
		})
	}
}

func TestGuardsRejectCount(t *testing.T) {
	rec := &recorder{}
	target := NewNode(Options{Name: "target", Path: "/target", Enter: rec.hook("enter")})
	root := NewNode(Options{Name: "root"}, target)
	r, loc, _ := startRouter(t, root, "/")

	r.BeforeEach(func(hc *HookContext) error {
		rec.add("guard1")
		hc.Veto()
		return nil
	})
	r.BeforeEach(func(hc *HookContext) error {
		rec.add("guard2")
		hc.Next()
		return nil
	})

	tr, err := r.Push(t.Context(), Path("/target"))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Outcome != OutcomeAborted {
		t.Errorf("Outcome = %v, want aborted", tr.Outcome)
	}
	if got := rec.list(); !reflect.DeepEqual(got, []string{"guard1", "guard2"}) {
		t.Errorf("calls = %v, want both guards and no enter", got)
	}
	if pushes, _, _ := loc.stats(); len(pushes) != 0 {
		t.Errorf("location pushed %v after guard veto", pushes)
	}
}

func TestFirstDecisionWins(t *testing.T) {
	target := NewNode(Options{
		Name: "target",
		Path: "/target",
		BeforeEnter: func(hc *HookContext) error {
			hc.Next()
			hc.Veto()
			return ErrVetoed
		},
	})
	root := NewNode(Options{Name: "root"}, target)
	r, _, _ := startRouter(t, root, "/")

	tr, err := r.Push(t.Context(), Path("/target"))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Outcome != OutcomeCommitted {
		t.Errorf("Outcome = %v, want committed", tr.Outcome)
	}
}

func TestHookRunsToCompletionAfterNext(t *testing.T) {
	var mu sync.Mutex
	finished := false
	sawFinished := false
	target := NewNode(Options{
		Name: "target",
		Path: "/target",
		BeforeEnter: func(hc *HookContext) error {
			hc.Next()
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			finished = true
			mu.Unlock()
			return nil
		},
		Enter: func(hc *HookContext) error {
			mu.Lock()
			sawFinished = finished
			mu.Unlock()
			return nil
		},
	})
	root := NewNode(Options{Name: "root"}, target)
	r, _, _ := startRouter(t, root, "/")

	tr, err := r.Push(t.Context(), Path("/target"))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Outcome != OutcomeCommitted {
		t.Errorf("Outcome = %v, want committed", tr.Outcome)
	}
	if !sawFinished {
		t.Error("Enter ran before BeforeEnter returned")
	}
}

func TestEnterIsAwaited(t *testing.T) {
	rec := &recorder{}
	a := NewNode(Options{
		Name: "a",
		Path: "/a",
		Enter: func(hc *HookContext) error {
			hc.Next()
			time.Sleep(10 * time.Millisecond)
			rec.add("enter:a")
			return nil
		},
	})
	root := NewNode(Options{Name: "root"}, a)
	r, _, _ := startRouter(t, root, "/")
	r.AfterEach(rec.hook("after"))

	if _, err := r.Push(t.Context(), Path("/a")); err != nil {
		t.Fatal(err)
	}
	want := []string{"enter:a", "after"}
	if got := rec.list(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestDelayedCallbacksRunBeforeEnter(t *testing.T) {
	rec := &recorder{}
	target := NewNode(Options{
		Name: "target",
		Path: "/target",
		BeforeEnter: func(hc *HookContext) error {
			hc.Next(func() { rec.add("delayed") })
			return nil
		},
		Enter: rec.hook("enter"),
	})
	root := NewNode(Options{Name: "root"}, target)
	r, _, _ := startRouter(t, root, "/")

	if _, err := r.Push(t.Context(), Path("/target")); err != nil {
		t.Fatal(err)
	}
	if got := rec.list(); !reflect.DeepEqual(got, []string{"delayed", "enter"}) {
		t.Errorf("calls = %v, want [delayed enter]", got)
	}
}

func TestOnCancelCallbacks(t *testing.T) {
	cancelled := 0
	target := NewNode(Options{
		Name: "target",
		Path: "/target",
		BeforeEnter: func(hc *HookContext) error {
			hc.OnCancel(func() { cancelled++ })
			return ErrVetoed
		},
	})
	root := NewNode(Options{Name: "root"}, target)
	r, _, _ := startRouter(t, root, "/")
	r.BeforeEach(func(hc *HookContext) error {
		hc.OnCancel(func() { cancelled++ })
		return nil
	})

	if _, err := r.Push(t.Context(), Path("/target")); err != nil {
		t.Fatal(err)
	}
	if cancelled != 2 {
		t.Errorf("cancel callbacks ran %d times, want 2", cancelled)
	}
}

func TestUpdateSameNodeNewParams(t *testing.T) {
	rec := &recorder{}
	user := NewNode(Options{
		Name:   "user",
		Path:   "/user/:id",
		Enter:  func(hc *HookContext) error { rec.add("enter:" + hc.Params.Get("id")); return nil },
		Update: func(hc *HookContext) error { rec.add("update:" + hc.Params.Get("id")); return nil },
		Leave:  rec.hook("leave"),
	})
	root := NewNode(Options{Name: "root"}, user)
	r, _, _ := startRouter(t, root, "/user/1")

	tr, err := r.Push(t.Context(), Path("/user/2"))
	if err != nil {
		t.Fatal(err)
	}
	if got := names(tr.Plan.Ancestors); !reflect.DeepEqual(got, []string{"root", "root.user"}) {
		t.Errorf("Ancestors = %v", got)
	}
	want := []string{"enter:1", "enter:2", "update:2"}
	if got := rec.list(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestUnchangedRouteShortCircuits(t *testing.T) {
	rec := &recorder{}
	user := NewNode(Options{Name: "user", Path: "/user/:id", Update: rec.hook("update")})
	root := NewNode(Options{Name: "root"}, user)
	r, loc, _ := startRouter(t, root, "/user/1")
	r.BeforeEach(rec.hook("guard"))

	called := false
	tr, err := r.Push(t.Context(), Path("/user/1"), WithCallback(func() { called = true }))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Outcome != OutcomeUnchanged {
		t.Errorf("Outcome = %v, want unchanged", tr.Outcome)
	}
	if got := rec.list(); len(got) != 0 {
		t.Errorf("hooks ran for an unchanged route: %v", got)
	}
	if pushes, _, _ := loc.stats(); !reflect.DeepEqual(pushes, []string{"/user/1"}) {
		t.Errorf("pushes = %v, want [/user/1]", pushes)
	}
	if !called {
		t.Error("callback not called")
	}
}

func TestNotFound(t *testing.T) {
	root := NewNode(Options{Name: "root", Path: "/"})
	r, loc, _ := startRouter(t, root, "/")

	var missing string
	unsubscribe := r.On(EventNotFound, func(n Notification) { missing = n.Segment })
	defer unsubscribe()

	tr, err := r.Push(t.Context(), Path("/nowhere"))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Outcome != OutcomeNotFound {
		t.Errorf("Outcome = %v, want notfound", tr.Outcome)
	}
	if missing != "/nowhere" {
		t.Errorf("EventNotFound segment = %q, want /nowhere", missing)
	}
	if pushes, _, _ := loc.stats(); len(pushes) != 0 {
		t.Errorf("pushes = %v, want none", pushes)
	}
}

func TestStructuralChangeDuringGuard(t *testing.T) {
	root := NewNode(Options{Name: "root", Path: "/"})
	r, _, _ := startRouter(t, root, "/")

	added := NewNode(Options{Name: "added", Path: "/added"})
	r.BeforeEach(func(hc *HookContext) error {
		if hc.To == nil && added.Parent() == nil {
			root.Append(added)
		}
		return nil
	})

	tr, err := r.Push(t.Context(), Path("/added"))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Outcome != OutcomeCommitted {
		t.Fatalf("Outcome = %v, want committed", tr.Outcome)
	}
	if tr.To == nil || tr.To.Router != added {
		t.Errorf("To = %v, want root.added", tr.To)
	}
}

func TestContextCancelInterrupts(t *testing.T) {
	target := NewNode(Options{
		Name: "target",
		Path: "/target",
		BeforeEnter: func(hc *HookContext) error {
			<-hc.Context().Done()
			return nil
		},
	})
	root := NewNode(Options{Name: "root"}, target)
	r, loc, _ := startRouter(t, root, "/")

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	tr, err := r.Push(ctx, Path("/target"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Push() error = %v, want deadline exceeded", err)
	}
	if tr.Outcome != OutcomeInterrupted {
		t.Errorf("Outcome = %v, want interrupted", tr.Outcome)
	}
	if pushes, _, _ := loc.stats(); len(pushes) != 0 {
		t.Errorf("pushes = %v, want none", pushes)
	}
}

func TestHookContextFields(t *testing.T) {
	var got *HookContext
	target := NewNode(Options{
		Name: "target",
		Path: "/target/:id",
		Enter: func(hc *HookContext) error {
			got = hc
			return nil
		},
	})
	root := NewNode(Options{Name: "root"}, target)
	r, _, _ := startRouter(t, root, "/")

	if _, err := r.Push(t.Context(), Path("/target/5?view=full")); err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("Enter not called")
	}
	if got.Node() != target {
		t.Errorf("Node() = %v, want target", got.Node())
	}
	if got.From == nil || got.From.Router != root {
		t.Errorf("From = %v, want root", got.From)
	}
	if got.Params.Get("id") != "5" || got.Query.Get("view") != "full" {
		t.Errorf("Params = %v, Query = %v", got.Params, got.Query)
	}
	if got.Transition() == nil || got.Transition().Kind != KindPush {
		t.Errorf("Transition() = %+v", got.Transition())
	}
}

func TestAfterEachOnlyAfterCommit(t *testing.T) {
	rec := &recorder{}
	root := NewNode(Options{Name: "root"},
		NewNode(Options{Name: "open", Path: "/open"}),
		NewNode(Options{
			Name:        "locked",
			Path:        "/locked",
			BeforeEnter: func(hc *HookContext) error { return ErrVetoed },
		}),
	)
	r, loc, _ := startRouter(t, root, "/")
	r.AfterEach(func(hc *HookContext) error {
		rec.add(hc.Transition().Outcome.String())
		return nil
	})

	loc.navigate("/locked")
	loc.navigate("/nowhere")
	if _, err := r.Push(t.Context(), Path("/locked")); err != nil {
		t.Fatal(err)
	}
	if got := rec.list(); len(got) != 0 {
		t.Errorf("AfterEach ran for %v, want no calls", got)
	}

	if _, err := r.Push(t.Context(), Path("/open")); err != nil {
		t.Fatal(err)
	}
	if got := rec.list(); !reflect.DeepEqual(got, []string{"committed"}) {
		t.Errorf("AfterEach calls = %v, want [committed]", got)
	}
}
