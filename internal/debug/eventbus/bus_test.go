package eventbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handler(id string) HandlerFunc {
	return HandlerFunc{ID: id, Fn: func(e Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	}}
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func TestBusDispatchesInPublishOrder(t *testing.T) {
	bus := NewBus(16)
	rec := &recorder{}
	bus.Subscribe(EventIteration, rec.handler("a"))
	bus.Subscribe(EventRunCompleted, rec.handler("a"))

	bus.Publish(Event{Type: EventIteration, Data: map[string]interface{}{"iteration": 1}})
	bus.Publish(Event{Type: EventIteration, Data: map[string]interface{}{"iteration": 2}})
	bus.Publish(Event{Type: EventRunCompleted})
	bus.Publish(Event{Type: "ignored"})
	bus.Shutdown()

	assert.Equal(t, []string{EventIteration, EventIteration, EventRunCompleted}, rec.types())
	assert.Equal(t, 1, rec.events[0].Data["iteration"])
	assert.False(t, rec.events[0].Timestamp.IsZero())
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(4)
	rec := &recorder{}
	h := rec.handler("a")
	bus.Subscribe(EventIteration, h)
	bus.Unsubscribe(EventIteration, h)

	bus.Publish(Event{Type: EventIteration})
	bus.Shutdown()

	assert.Empty(t, rec.types())
}

func TestBusPublishAfterShutdownIsDropped(t *testing.T) {
	bus := NewBus(4)
	bus.Shutdown()
	bus.Shutdown()

	require.NotPanics(t, func() {
		bus.Publish(Event{Type: EventIteration})
	})
	assert.Equal(t, uint64(1), bus.Dropped())
}

func TestBusRecoversFromHandlerPanic(t *testing.T) {
	bus := NewBus(4)
	rec := &recorder{}

	var panicked []string
	bus.OnPanic(func(id string, err error) {
		panicked = append(panicked, id)
	})
	bus.Subscribe(EventRunFailed, HandlerFunc{ID: "boom", Fn: func(Event) { panic("boom") }})
	bus.Subscribe(EventRunFailed, rec.handler("after"))

	bus.Publish(Event{Type: EventRunFailed})
	bus.Shutdown()

	assert.Equal(t, []string{"boom"}, panicked)
	assert.Equal(t, []string{EventRunFailed}, rec.types())
}

type captureLogger struct {
	mu    sync.Mutex
	info  []string
	debug []string
}

func (c *captureLogger) Debug(_ string, msg string, _ map[string]interface{}) {
	c.mu.Lock()
	c.debug = append(c.debug, msg)
	c.mu.Unlock()
}

func (c *captureLogger) Info(_ string, msg string, _ map[string]interface{}) {
	c.mu.Lock()
	c.info = append(c.info, msg)
	c.mu.Unlock()
}

func TestLogEvents(t *testing.T) {
	bus := NewBus(8)
	log := &captureLogger{}
	LogEvents(bus, log)

	bus.Publish(Event{Type: EventIteration})
	bus.Publish(Event{Type: EventTimingDone})
	bus.Publish(Event{Type: EventTimingStarted})
	bus.Shutdown()

	assert.Equal(t, []string{EventIteration}, log.info)
	assert.Equal(t, []string{EventTimingDone}, log.debug)
}
