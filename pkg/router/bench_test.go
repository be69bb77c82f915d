package router

import (
	"fmt"
	"testing"
)

func benchRouter(b *testing.B, root *Node) *Router {
	b.Helper()
	loc := newFakeLocation("/")
	r := quietSession(loc).Router(root)
	if _, err := r.Start(b.Context()); err != nil {
		b.Fatalf("Start() error: %v", err)
	}
	b.Cleanup(r.Stop)
	return r
}

func BenchmarkMatchStatic(b *testing.B) {
	root := NewNode(Options{Name: "root", Path: "/"})
	for _, p := range []string{"about", "contact", "pricing", "features"} {
		root.Append(NewNode(Options{Name: p, Path: "/" + p}))
	}
	r := benchRouter(b, root)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Match("/pricing")
	}
}

func BenchmarkMatchParam(b *testing.B) {
	root := NewNode(Options{Name: "root", Path: "/"},
		NewNode(Options{Name: "user", Path: "/users/:id"}),
	)
	r := benchRouter(b, root)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Match("/users/123")
	}
}

func BenchmarkMatchDeep(b *testing.B) {
	leaf := NewNode(Options{Name: "files", Path: "/files/:path*"})
	node := leaf
	for i := 4; i >= 0; i-- {
		node = NewNode(Options{Name: fmt.Sprintf("l%d", i), Path: fmt.Sprintf("/l%d/:p%d", i, i)}, node)
	}
	root := NewNode(Options{Name: "root", Path: "/"}, node)
	r := benchRouter(b, root)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Match("/l0/a/l1/b/l2/c/l3/d/l4/e/files/x/y/z?tab=1")
	}
}

func BenchmarkMatchManyRoutes(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("routes=%d", n), func(b *testing.B) {
			root := NewNode(Options{Name: "root", Path: "/"})
			for i := 0; i < n; i++ {
				root.Append(NewNode(Options{Name: fmt.Sprintf("r%d", i), Path: fmt.Sprintf("/r%d/:id", i)}))
			}
			r := benchRouter(b, root)
			target := fmt.Sprintf("/r%d/42", n-1)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				r.Match(target)
			}
		})
	}
}

func BenchmarkNavigate(b *testing.B) {
	root := NewNode(Options{Name: "root", Path: "/"},
		NewNode(Options{Name: "a", Path: "/a/:id"}),
		NewNode(Options{Name: "b", Path: "/b"}),
	)
	r := benchRouter(b, root)
	ctx := b.Context()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%2 == 0 {
			r.Navigate(ctx, Path("/b"))
		} else {
			r.Navigate(ctx, Named("root.a", Params{"id": {"7"}}))
		}
	}
}
