// Package errors provides the structured errors reported by routerd.
//
// Library packages return plain sentinel errors. At the tool boundary
// (configuration, manifests, the WebSocket protocol and the CLI) they are
// turned into a RouterdError that carries a stable code, a category, an
// explanation and, when known, the manifest location that caused it.
//
// # Error Codes
//
//	R0xx  routing      router preconditions and navigation
//	R1xx  config       routerd.json
//	R2xx  manifest     route manifests
//	R3xx  protocol     WebSocket frames and origins
//	R4xx  cli          command line usage
//
// # Usage
//
//	err := errors.New("R204").
//	    WithLocation("routes.yaml", 12, 9).
//	    WithSuggestion("Rename one of the sibling routes")
//
//	fmt.Print(err.Format())
//	// ERROR R204: Duplicate sibling name
//	//
//	//   routes.yaml:12:9
//	//
//	//     10 │   - name: docs
//	//     11 │     path: /docs
//	//   → 12 │   - name: docs
//	//        │         ^
//	//
//	//   Hint: Rename one of the sibling routes
package errors
