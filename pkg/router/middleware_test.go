package router

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type nextFunc = func(context.Context) error

func TestMiddlewareFuncHandle(t *testing.T) {
	called := false
	mw := MiddlewareFunc(func(ctx context.Context, tr *Transition, next nextFunc) error {
		called = true
		return next(ctx)
	})

	err := mw.Handle(t.Context(), &Transition{}, func(context.Context) error { return nil })
	if err != nil {
		t.Errorf("Handle() error = %v", err)
	}
	if !called {
		t.Error("middleware was not called")
	}
}

func TestComposeMiddlewareEmpty(t *testing.T) {
	called := false
	handler := func(context.Context) error {
		called = true
		return nil
	}

	err := ComposeMiddleware(t.Context(), &Transition{}, nil, handler)
	if err != nil {
		t.Errorf("ComposeMiddleware() error = %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
}

func TestComposeMiddlewareOrder(t *testing.T) {
	var order []string

	mw1 := MiddlewareFunc(func(ctx context.Context, tr *Transition, next nextFunc) error {
		order = append(order, "mw1-before")
		err := next(ctx)
		order = append(order, "mw1-after")
		return err
	})

	mw2 := MiddlewareFunc(func(ctx context.Context, tr *Transition, next nextFunc) error {
		order = append(order, "mw2-before")
		err := next(ctx)
		order = append(order, "mw2-after")
		return err
	})

	handler := func(context.Context) error {
		order = append(order, "handler")
		return nil
	}

	err := ComposeMiddleware(t.Context(), &Transition{}, []Middleware{mw1, mw2}, handler)
	if err != nil {
		t.Errorf("ComposeMiddleware() error = %v", err)
	}

	expected := []string{
		"mw1-before",
		"mw2-before",
		"handler",
		"mw2-after",
		"mw1-after",
	}
	if !reflect.DeepEqual(order, expected) {
		t.Errorf("order = %v, want %v", order, expected)
	}
}

func TestComposeMiddlewareShortCircuit(t *testing.T) {
	var order []string
	testErr := errors.New("short circuit")

	mw1 := MiddlewareFunc(func(ctx context.Context, tr *Transition, next nextFunc) error {
		order = append(order, "mw1-before")
		return testErr
	})

	mw2 := MiddlewareFunc(func(ctx context.Context, tr *Transition, next nextFunc) error {
		order = append(order, "mw2-before")
		return next(ctx)
	})

	handler := func(context.Context) error {
		order = append(order, "handler")
		return nil
	}

	err := ComposeMiddleware(t.Context(), &Transition{}, []Middleware{mw1, mw2}, handler)
	if err != testErr {
		t.Errorf("ComposeMiddleware() error = %v, want %v", err, testErr)
	}
	if len(order) != 1 || order[0] != "mw1-before" {
		t.Errorf("order = %v, want [mw1-before]", order)
	}
}

type ctxKey struct{}

func TestMiddlewareContextReachesHooks(t *testing.T) {
	var seen any
	target := NewNode(Options{
		Name: "target",
		Path: "/target",
		Enter: func(hc *HookContext) error {
			seen = hc.Context().Value(ctxKey{})
			return nil
		},
	})
	root := NewNode(Options{Name: "root"}, target)
	r, _, _ := startRouter(t, root, "/")

	r.Use(MiddlewareFunc(func(ctx context.Context, tr *Transition, next nextFunc) error {
		return next(context.WithValue(ctx, ctxKey{}, tr.ID))
	}))

	tr, err := r.Push(t.Context(), Path("/target"))
	if err != nil {
		t.Fatal(err)
	}
	if seen != tr.ID {
		t.Errorf("hook saw %v, want transition ID %s", seen, tr.ID)
	}
}

func TestMiddlewareCanBlockTransition(t *testing.T) {
	denied := errors.New("denied")
	root := NewNode(Options{Name: "root"}, NewNode(Options{Name: "a", Path: "/a"}))
	loc := newFakeLocation("/")
	s := quietSession(loc, WithMiddleware(MiddlewareFunc(func(ctx context.Context, tr *Transition, next nextFunc) error {
		if tr.Kind == KindPush {
			return denied
		}
		return next(ctx)
	})))
	r := s.Router(root)
	if _, err := r.Start(t.Context()); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Push(t.Context(), Path("/a")); !errors.Is(err, denied) {
		t.Errorf("Push() error = %v, want denied", err)
	}
	if pushes, _, _ := loc.stats(); len(pushes) != 0 {
		t.Errorf("pushes = %v, want none", pushes)
	}
}

func TestChain(t *testing.T) {
	var order []string

	mw1 := MiddlewareFunc(func(ctx context.Context, tr *Transition, next nextFunc) error {
		order = append(order, "mw1")
		return next(ctx)
	})

	mw2 := MiddlewareFunc(func(ctx context.Context, tr *Transition, next nextFunc) error {
		order = append(order, "mw2")
		return next(ctx)
	})

	chain := Chain(mw1, mw2)

	err := chain.Handle(t.Context(), &Transition{}, func(context.Context) error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Errorf("Chain.Handle() error = %v", err)
	}
	if !reflect.DeepEqual(order, []string{"mw1", "mw2", "handler"}) {
		t.Errorf("order = %v, want [mw1 mw2 handler]", order)
	}
}

func TestSkipAndOnly(t *testing.T) {
	isPush := func(tr *Transition) bool { return tr.Kind == KindPush }

	tests := []struct {
		name      string
		build     func(Middleware) Middleware
		kind      Kind
		wantMwRun bool
	}{
		{"skip matching", func(mw Middleware) Middleware { return Skip(isPush, mw) }, KindPush, false},
		{"skip other", func(mw Middleware) Middleware { return Skip(isPush, mw) }, KindObserve, true},
		{"only matching", func(mw Middleware) Middleware { return Only(isPush, mw) }, KindPush, true},
		{"only other", func(mw Middleware) Middleware { return Only(isPush, mw) }, KindObserve, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mwCalled, handlerCalled := false, false
			mw := MiddlewareFunc(func(ctx context.Context, tr *Transition, next nextFunc) error {
				mwCalled = true
				return next(ctx)
			})

			err := tt.build(mw).Handle(t.Context(), &Transition{Kind: tt.kind}, func(context.Context) error {
				handlerCalled = true
				return nil
			})
			if err != nil {
				t.Errorf("Handle() error = %v", err)
			}
			if mwCalled != tt.wantMwRun {
				t.Errorf("middleware called = %v, want %v", mwCalled, tt.wantMwRun)
			}
			if !handlerCalled {
				t.Error("handler should have been called")
			}
		})
	}
}
