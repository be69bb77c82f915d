// Package router implements a hierarchical client-side router.
//
// A route tree is built from Nodes. Each Node carries a path template that
// is relative to its parent and optional lifecycle hooks. A Router owns one
// tree root inside a Session and follows a Location (hash, history, an
// in-memory stack or a remote client) as it changes.
//
// # Matching
//
// Every active node is a candidate, not only leaves. A segment resolves to
// the deepest node whose full path template matches it; among nodes of equal
// depth the first one in pre-order wins. Aliases registered with Node.Alias
// are checked before the primary pass, in registration order.
//
// # Transitions
//
// On every location change the router resolves the previous and the new
// segment, computes a Plan with Diff and runs the lifecycle:
//
//	BeforeEach guards        (all of them, sequentially)
//	BeforeLeave on unmounts  (veto check)
//	BeforeEnter on mounts    (veto check)
//	Leave on unmounts        (commit)
//	Enter + Update on ancestors
//	Enter on mounts
//	AfterEach hooks
//
// A hook decides by calling HookContext.Next or HookContext.Veto, or by
// returning. Returning nil approves and returning ErrVetoed vetoes. Any
// other error, or a panic, is logged and treated as approval. The first
// decision counts, but the transition only moves on once the hook has
// returned, so hooks never run concurrently. A hook that does not return
// stalls the transition until its context is cancelled.
//
// # Usage
//
//	root := router.NewNode(router.Options{Path: "/"},
//	    router.NewNode(router.Options{Name: "app", Path: "/app"},
//	        router.NewNode(router.Options{
//	            Name: "detail",
//	            Path: "/detail/:id",
//	            Enter: func(hc *router.HookContext) error {
//	                fmt.Println("showing", hc.Params.Get("id"))
//	                return nil
//	            },
//	        }),
//	    ),
//	)
//
//	session := router.NewSession(location.NewMemory("/app/detail/7"))
//	r := session.Router(root)
//	if _, err := r.Start(ctx); err != nil {
//	    return err
//	}
//	r.Push(ctx, router.Named("app.detail", router.Params{"id": {"8"}}))
package router
