package router

import "errors"

// Precondition faults. They are reported immediately and never retried.
var (
	ErrNotStarted    = errors.New("router: not started")
	ErrNoLocation    = errors.New("router: session has no location")
	ErrDuplicateName = errors.New("router: duplicate full name")
	ErrUnknownRoute  = errors.New("router: no route with that name")
	ErrInactive      = errors.New("router: node is not active")
)
