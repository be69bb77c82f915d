package router

// Change describes a location transition reported by a Location.
type Change struct {
	// NewSegment is the segment being navigated to.
	NewSegment string

	// OldSegment is the segment being left. It is empty for the initial
	// Apply.
	OldSegment string

	// IfAllowed commits the change at the location. It is nil when the
	// location already shows NewSegment.
	IfAllowed func()
}

// Location is the source of segment changes: a URL hash, the history API,
// an in-memory stack or a remote client.
//
// The router calls Unobserve before it mutates the location itself and
// Observe again afterwards, so a Location must not report its own Push,
// Replace or Back to the observer while unobserved.
type Location interface {
	// Observe starts delivering changes to fn.
	Observe(fn func(Change))

	// Unobserve stops delivering changes.
	Unobserve()

	// IsObserving reports whether an observer is installed.
	IsObserving() bool

	// Apply synchronously calls fn with the current segment.
	Apply(fn func(Change))

	// Segment extracts the segment from url, or returns the current
	// segment when url is empty.
	Segment(url string) string

	// Push adds a new entry with the given segment.
	Push(segment string)

	// Replace overwrites the current entry.
	Replace(segment string)

	// Back undoes the last change delivered to the observer, so the
	// location shows its OldSegment again. It is a no-op when there is
	// nothing to undo.
	Back()
}
