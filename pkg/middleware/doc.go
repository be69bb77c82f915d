// Package middleware provides observability middleware for router
// transitions.
//
// This package includes:
//   - OpenTelemetry tracing, one span per transition
//   - Prometheus metrics for transitions and the routerd service
//   - Structured transition logging
//
// # OpenTelemetry Middleware
//
// The OpenTelemetry middleware starts a span before the lifecycle runs and
// ends it once the outcome is known. The span context is passed down the
// chain, so hooks reach it through HookContext.Context():
//
//	sess := router.NewSession(loc, router.WithMiddleware(
//	    middleware.OpenTelemetry(middleware.WithTracerName("shop")),
//	))
//
// Spans carry the transition ID, kind, segments, destination route and
// outcome.
//
// # Prometheus Metrics
//
// Metrics collected:
//   - routerd_transitions_total: transitions by kind and outcome
//   - routerd_transition_duration_seconds: lifecycle duration by kind
//   - routerd_route_commits_total: committed transitions by destination
//   - routerd_active_connections: open WebSocket connections
//   - routerd_protocol_errors_total: rejected frames by type
//   - routerd_manifest_reloads_total: manifest reloads by status
//
// Route labels are dotted full names, never raw segments, so cardinality is
// bounded by the size of the route tree.
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	sess := router.NewSession(loc, router.WithMiddleware(m.Middleware()))
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package middleware
