// FILE: lixenwraith/logfile/events.go
package logfile

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// EventKind identifies a file lifecycle transition
type EventKind int

const (
	EventRotated EventKind = iota + 1
	EventCompressed
	EventDeleted
)

func (k EventKind) String() string {
	switch k {
	case EventRotated:
		return "rotated"
	case EventCompressed:
		return "compressed"
	case EventDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is delivered to handlers after a transition completed.
// Path is the closed file for EventRotated, the archive for EventCompressed
// and the removed file for EventDeleted.
type Event struct {
	Kind EventKind
	Path string
	Time time.Time
}

// EventHandler observes file lifecycle events. Methods run synchronously on
// the goroutine that caused the event and must not block for long.
// Handlers are compared by identity for removal, so use pointer types.
type EventHandler interface {
	OnRotated(Event)
	OnCompressed(Event)
	OnDeleted(Event)
}

// EventHandlerFuncs adapts optional functions to EventHandler. Nil fields are ignored.
type EventHandlerFuncs struct {
	Rotated    func(Event)
	Compressed func(Event)
	Deleted    func(Event)
}

func (f *EventHandlerFuncs) OnRotated(e Event) {
	if f.Rotated != nil {
		f.Rotated(e)
	}
}

func (f *EventHandlerFuncs) OnCompressed(e Event) {
	if f.Compressed != nil {
		f.Compressed(e)
	}
}

func (f *EventHandlerFuncs) OnDeleted(e Event) {
	if f.Deleted != nil {
		f.Deleted(e)
	}
}

// notifier holds the handler registry. Registration copies the slice so
// dispatch iterates a snapshot without holding the lock.
type notifier struct {
	mu       sync.Mutex
	handlers []EventHandler
	onPanic  func(h EventHandler, e Event, r any)
}

func (n *notifier) add(h EventHandler) {
	if h == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	next := make([]EventHandler, len(n.handlers), len(n.handlers)+1)
	copy(next, n.handlers)
	n.handlers = append(next, h)
}

// remove drops the first registration of h and reports whether one existed
func (n *notifier) remove(h EventHandler) bool {
	if h == nil || !reflect.TypeOf(h).Comparable() {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, existing := range n.handlers {
		if existing == h {
			next := make([]EventHandler, 0, len(n.handlers)-1)
			next = append(next, n.handlers[:i]...)
			n.handlers = append(next, n.handlers[i+1:]...)
			return true
		}
	}
	return false
}

func (n *notifier) snapshot() []EventHandler {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.handlers
}

// notify delivers e to every handler in registration order.
// A panicking handler does not stop delivery to the others.
func (n *notifier) notify(e Event) {
	for _, h := range n.snapshot() {
		n.deliver(h, e)
	}
}

func (n *notifier) deliver(h EventHandler, e Event) {
	defer func() {
		if r := recover(); r != nil && n.onPanic != nil {
			n.onPanic(h, e, r)
		}
	}()

	switch e.Kind {
	case EventRotated:
		h.OnRotated(e)
	case EventCompressed:
		h.OnCompressed(e)
	case EventDeleted:
		h.OnDeleted(e)
	}
}

// AddEventHandler registers h. Registering the same handler twice delivers twice.
func (l *Logger) AddEventHandler(h EventHandler) {
	l.notifier.add(h)
}

// RemoveEventHandler unregisters h and reports whether it was registered.
func (l *Logger) RemoveEventHandler(h EventHandler) bool {
	return l.notifier.remove(h)
}

// emit timestamps and dispatches an event
func (l *Logger) emit(kind EventKind, path string) {
	l.notifier.notify(Event{Kind: kind, Path: path, Time: l.clock.Now()})
}
