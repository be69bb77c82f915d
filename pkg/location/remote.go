package location

import "github.com/vango-dev/nestroute/pkg/router"

// Op is a command sent to a remote client.
type Op string

const (
	OpPush    Op = "push"
	OpReplace Op = "replace"
	OpBack    Op = "back"
	OpForward Op = "forward"
)

// Command asks the remote client to change its location.
type Command struct {
	Op      Op     `json:"op"`
	Segment string `json:"segment,omitempty"`
}

// Remote mirrors the location of a remote client. The client reports user
// navigation with Report; router-initiated changes are sent back to it as
// Commands. The client must not report changes it applied on command.
type Remote struct {
	stack
	sink func(Command)
}

var _ router.Location = (*Remote)(nil)

// NewRemote creates a remote location at initial. sink receives every
// outbound command and must not block.
func NewRemote(initial string, sink func(Command)) *Remote {
	return &Remote{stack: stack{entries: []string{normalize(initial)}}, sink: sink}
}

// Push records segment and tells the client to push it.
func (r *Remote) Push(segment string) {
	_, now := r.push(segment, false)
	r.send(Command{Op: OpPush, Segment: now})
}

// Replace records segment and tells the client to replace its entry.
func (r *Remote) Replace(segment string) {
	_, now := r.replace(segment)
	r.send(Command{Op: OpReplace, Segment: now})
}

// Back undoes the last navigation the client reported: the client is told
// to go back after a Report and forward after a ReportBack. The local
// history follows without notifying the observer.
func (r *Remote) Back() {
	switch r.revert() {
	case -1:
		r.send(Command{Op: OpBack})
	case 1:
		r.send(Command{Op: OpForward})
	}
}

// Report records a navigation the client already performed and notifies
// the observer.
func (r *Remote) Report(segment string) {
	old, now := r.push(segment, true)
	r.notify(old, now)
}

// ReportBack records a back navigation performed by the client.
func (r *Remote) ReportBack() {
	if old, now, ok := r.move(-1); ok {
		r.notify(old, now)
	}
}

func (r *Remote) send(c Command) {
	if r.sink != nil {
		r.sink(c)
	}
}
