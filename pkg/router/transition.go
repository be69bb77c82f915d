package router

import (
	"time"

	"github.com/google/uuid"
)

// Kind tells what started a transition.
type Kind int

const (
	// KindApply is the initial transition run by Start.
	KindApply Kind = iota
	// KindObserve is a change reported by the location.
	KindObserve
	// KindPush is a Push call.
	KindPush
	// KindReplace is a Replace call.
	KindReplace
)

func (k Kind) String() string {
	switch k {
	case KindApply:
		return "apply"
	case KindObserve:
		return "observe"
	case KindPush:
		return "push"
	case KindReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Outcome is how a transition ended.
type Outcome int

const (
	// OutcomePending is set while the transition runs.
	OutcomePending Outcome = iota
	// OutcomeCommitted means the lifecycle ran to completion.
	OutcomeCommitted
	// OutcomeUnchanged means the destination equals the current route.
	OutcomeUnchanged
	// OutcomeAborted means a global guard vetoed.
	OutcomeAborted
	// OutcomeCancelled means a BeforeLeave or BeforeEnter hook vetoed.
	OutcomeCancelled
	// OutcomeNotFound means no node matched the destination.
	OutcomeNotFound
	// OutcomeInterrupted means the context was cancelled mid-transition.
	OutcomeInterrupted
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeCommitted:
		return "committed"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeAborted:
		return "aborted"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeNotFound:
		return "notfound"
	case OutcomeInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Transition records one run of the lifecycle.
type Transition struct {
	ID         string
	Kind       Kind
	OldSegment string
	NewSegment string

	// From and To are the resolved routes after any structural re-check.
	From *ParseResult
	To   *ParseResult

	// Plan is set once the veto check starts.
	Plan Plan

	Outcome  Outcome
	Started  time.Time
	Duration time.Duration
}

func newTransition(kind Kind, change Change) *Transition {
	return &Transition{
		ID:         uuid.NewString(),
		Kind:       kind,
		OldSegment: change.OldSegment,
		NewSegment: change.NewSegment,
		Started:    time.Now(),
	}
}

// Committed reports whether the lifecycle ran to completion.
func (t *Transition) Committed() bool { return t.Outcome == OutcomeCommitted }
