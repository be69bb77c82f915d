package location

import "github.com/vango-dev/nestroute/pkg/router"

// Memory is an in-process history. Push, Replace and Back serve the router
// and do not notify the observer. GoBack, GoForward and Navigate model user
// actions and do.
type Memory struct {
	stack
}

var _ router.Location = (*Memory)(nil)

// NewMemory creates a history with one entry.
func NewMemory(initial string) *Memory {
	return &Memory{stack: stack{entries: []string{normalize(initial)}}}
}

// Push adds an entry after the current one.
func (m *Memory) Push(segment string) {
	m.push(segment, false)
}

// Replace overwrites the current entry.
func (m *Memory) Replace(segment string) {
	m.replace(segment)
}

// Back undoes the last user action: a Navigate or GoForward is undone by
// stepping back, a GoBack by stepping forward.
func (m *Memory) Back() {
	m.revert()
}

// GoBack moves to the previous entry and notifies the observer.
func (m *Memory) GoBack() {
	if old, now, ok := m.move(-1); ok {
		m.notify(old, now)
	}
}

// GoForward moves to the next entry and notifies the observer.
func (m *Memory) GoForward() {
	if old, now, ok := m.move(1); ok {
		m.notify(old, now)
	}
}

// Navigate pushes segment and notifies the observer, like a user following
// a link.
func (m *Memory) Navigate(segment string) {
	old, now := m.push(segment, true)
	m.notify(old, now)
}

// Entries returns the history and the cursor position.
func (m *Memory) Entries() ([]string, int) {
	return m.snapshot()
}
