package router

import "sync"

// Event identifies a tree notification.
type Event int

// The closed set of events a Node emits.
const (
	// EventActivate fires on a node after it becomes active.
	EventActivate Event = iota + 1

	// EventDeactivate fires on a node after it is deactivated.
	EventDeactivate

	// EventAppend fires on the parent when a child is appended.
	EventAppend

	// EventDelete fires on a node after it is detached from its parent.
	EventDelete

	// EventNotFound fires on the root when a segment matches no node.
	EventNotFound
)

func (e Event) String() string {
	switch e {
	case EventActivate:
		return "activate"
	case EventDeactivate:
		return "deactivate"
	case EventAppend:
		return "append"
	case EventDelete:
		return "delete"
	case EventNotFound:
		return "notfound"
	default:
		return "unknown"
	}
}

// Notification is delivered to listeners.
type Notification struct {
	Event Event

	// Node is the node the event fired on.
	Node *Node

	// Child is the appended node for EventAppend.
	Child *Node

	// Segment is the unmatched segment for EventNotFound.
	Segment string
}

// Listener receives notifications.
type Listener func(Notification)

type subscription struct {
	id int
	fn Listener
}

// listeners is a per-node subscriber table. The zero value is ready to use.
type listeners struct {
	mu     sync.Mutex
	nextID int
	subs   map[Event][]subscription
}

func (l *listeners) on(ev Event, fn Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subs == nil {
		l.subs = make(map[Event][]subscription)
	}
	l.nextID++
	id := l.nextID
	l.subs[ev] = append(l.subs[ev], subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			subs := l.subs[ev]
			for i, s := range subs {
				if s.id == id {
					l.subs[ev] = append(subs[:i:i], subs[i+1:]...)
					return
				}
			}
		})
	}
}

// emit calls every listener for n.Event. Listeners run outside the lock and
// may subscribe or unsubscribe.
func (l *listeners) emit(n Notification) {
	l.mu.Lock()
	subs := append([]subscription(nil), l.subs[n.Event]...)
	l.mu.Unlock()
	for _, s := range subs {
		s.fn(n)
	}
}

func (n *Node) emit(ev Event) {
	n.events.emit(Notification{Event: ev, Node: n})
}
