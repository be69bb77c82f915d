// Package server exposes route trees to remote clients over HTTP and
// WebSocket.
//
// Every WebSocket connection gets its own routing session. The tree is
// built from the current manifest, and the client's address bar is
// mirrored by a location.Remote. The client reports what the user did and
// the server answers with the location commands and lifecycle
// notifications the router produced.
//
// # Frames
//
// Frames are JSON text messages with a "type" field.
//
// Client to server:
//
//	{"type":"change","segment":"/items/7?tab=specs"}   user navigated
//	{"type":"back"}                                    user went back
//	{"type":"navigate","path":"/cart","replace":true}  ask the router to navigate
//	{"type":"navigate","name":"shop.item","params":{"id":["7"]}}
//
// Server to client:
//
//	{"type":"hello","conn":"<uuid>","segment":"/"}
//	{"type":"push","segment":"/cart"}                  mirror in the address bar
//	{"type":"replace","segment":"/cart"}
//	{"type":"back"}                                    undo a vetoed change
//	{"type":"forward"}                                 undo a vetoed back
//	{"type":"lifecycle","hook":"enter","route":"shop.item","params":{"id":["7"]}}
//	{"type":"transition","transitionId":"...","kind":"push","outcome":"committed","route":"shop.cart"}
//	{"type":"notfound","segment":"/nope"}
//	{"type":"error","code":"R301","message":"..."}
//
// A client must not report location changes it applied because of a push,
// replace, back or forward frame.
//
// # HTTP Endpoints
//
//	GET /ws        WebSocket upgrade (path configurable)
//	GET /routes    the activated route table as JSON
//	GET /match     ?segment=... resolved without running hooks
//	GET /healthz   200 once a manifest is loaded
//	GET /metrics   Prometheus metrics, when a gatherer is configured
//
// Manifest reloads apply to new connections only. Open connections keep
// the tree they started with.
package server
