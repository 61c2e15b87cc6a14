// FILE: lixenwraith/logfile/events_test.go
package logfile

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder stores every delivered event
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) OnRotated(e Event)    { r.record(e) }
func (r *eventRecorder) OnCompressed(e Event) { r.record(e) }
func (r *eventRecorder) OnDeleted(e Event)    { r.record(e) }

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *eventRecorder) paths(kind EventKind) []string {
	var paths []string
	for _, e := range r.all() {
		if e.Kind == kind {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

func TestNotifierOrder(t *testing.T) {
	logger := NewLogger(WithClock(newFakeClock(testDay)))
	defer logger.Shutdown()

	var order []string
	logger.AddEventHandler(&EventHandlerFuncs{Rotated: func(Event) { order = append(order, "first") }})
	logger.AddEventHandler(&EventHandlerFuncs{Rotated: func(Event) { order = append(order, "second") }})
	// Only Deleted set: rotation is ignored
	logger.AddEventHandler(&EventHandlerFuncs{Deleted: func(Event) { order = append(order, "deleted") }})

	logger.emit(EventRotated, "/logs/app-2025-03-10-1.log")
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestNotifierPanicRecovery(t *testing.T) {
	rec := &errorRecorder{}
	logger := NewLogger(WithErrorHandler(rec.handle))
	defer logger.Shutdown()

	after := &eventRecorder{}
	logger.AddEventHandler(&EventHandlerFuncs{Compressed: func(Event) { panic("boom") }})
	logger.AddEventHandler(after)

	require.NotPanics(t, func() {
		logger.emit(EventCompressed, "/logs/app-2025-03-10-1.log.gz")
	})

	assert.Equal(t, []string{"/logs/app-2025-03-10-1.log.gz"}, after.paths(EventCompressed))
	reports := rec.get("event_handler")
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0].Error(), "boom")
	assert.Contains(t, reports[0].Error(), "compressed")
}

func TestRemoveEventHandler(t *testing.T) {
	logger := NewLogger()
	defer logger.Shutdown()

	a, b := &eventRecorder{}, &eventRecorder{}
	logger.AddEventHandler(a)
	logger.AddEventHandler(b)
	logger.AddEventHandler(a)
	logger.AddEventHandler(nil)

	logger.emit(EventDeleted, "x")
	assert.Len(t, a.all(), 2, "registered twice, delivered twice")

	assert.True(t, logger.RemoveEventHandler(a))
	logger.emit(EventDeleted, "y")
	assert.Len(t, a.all(), 3)
	assert.Len(t, b.all(), 2)

	assert.True(t, logger.RemoveEventHandler(a))
	assert.False(t, logger.RemoveEventHandler(a))
	assert.False(t, logger.RemoveEventHandler(nil))

	logger.emit(EventDeleted, "z")
	assert.Len(t, a.all(), 3)
	assert.Len(t, b.all(), 3)
}

// funcHandler is a non-comparable EventHandler
type funcHandler struct {
	fns []func(Event)
}

func (funcHandler) OnRotated(Event)    {}
func (funcHandler) OnCompressed(Event) {}
func (funcHandler) OnDeleted(Event)    {}

func TestRemoveNonComparableHandler(t *testing.T) {
	logger := NewLogger()
	defer logger.Shutdown()

	h := funcHandler{}
	logger.AddEventHandler(h)
	assert.NotPanics(t, func() {
		assert.False(t, logger.RemoveEventHandler(h))
	})
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "rotated", EventRotated.String())
	assert.Equal(t, "compressed", EventCompressed.String())
	assert.Equal(t, "deleted", EventDeleted.String())
	assert.Equal(t, "EventKind(9)", EventKind(9).String())
}
