// Package eventbus fans segmentation events out to subscribers on a single
// dispatch goroutine, so each handler sees events in publish order.
package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	EventIteration     = "disf.iteration"
	EventTimingStarted = "timing.started"
	EventTimingDone    = "timing.completed"
	EventRunCompleted  = "run.completed"
	EventRunFailed     = "run.failed"
)

type Event struct {
	Type      string
	Timestamp time.Time
	Data      map[string]interface{}
	Context   context.Context
}

type EventHandler interface {
	Handle(event Event)
	GetID() string
}

// HandlerFunc adapts a plain function to EventHandler.
type HandlerFunc struct {
	ID string
	Fn func(Event)
}

func (h HandlerFunc) Handle(event Event) { h.Fn(event) }
func (h HandlerFunc) GetID() string      { return h.ID }

type Bus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	buffer      chan Event
	closed      bool
	dropped     uint64
	panicHook   func(handlerID string, err error)
	wg          sync.WaitGroup
}

func NewBus(bufferSize int) *Bus {
	bus := &Bus{
		subscribers: make(map[string][]EventHandler),
		buffer:      make(chan Event, bufferSize),
	}

	bus.startWorker()
	return bus
}

// OnPanic registers a callback for handlers that panic. Dispatch continues
// with the next handler either way.
func (b *Bus) OnPanic(hook func(handlerID string, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.panicHook = hook
}

// Publish never blocks: events published to a full buffer or a shut down
// bus are dropped and counted.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.dropped++
		return
	}

	select {
	case b.buffer <- event:
	default:
		b.dropped++
	}
}

func (b *Bus) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

func (b *Bus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

func (b *Bus) Unsubscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.subscribers[eventType]
	for i, h := range handlers {
		if h.GetID() == handler.GetID() {
			b.subscribers[eventType] = append(handlers[:i:i], handlers[i+1:]...)
			break
		}
	}
}

// Shutdown stops accepting events and waits until the buffered ones have
// been dispatched.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.buffer)
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Bus) startWorker() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for event := range b.buffer {
			b.dispatchEvent(event)
		}
	}()
}

func (b *Bus) dispatchEvent(event Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, len(b.subscribers[event.Type]))
	copy(handlers, b.subscribers[event.Type])
	hook := b.panicHook
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.safeHandle(handler, event, hook)
	}
}

func (b *Bus) safeHandle(h EventHandler, event Event, hook func(string, error)) {
	defer func() {
		if r := recover(); r != nil && hook != nil {
			hook(h.GetID(), fmt.Errorf("handler panic: %v", r))
		}
	}()
	h.Handle(event)
}
