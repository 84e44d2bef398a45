// Package timing measures named operations and reports them on the event
// bus.
package timing

import (
	"context"
	"sync"
	"time"

	"disf-superpixels/internal/debug/eventbus"
)

type timingKey struct{}

type EventPublisher interface {
	Publish(event eventbus.Event)
}

type TimingInfo struct {
	Operation string
	StartTime time.Time
}

type Tracker struct {
	timings  map[string][]time.Duration
	mu       sync.RWMutex
	eventBus EventPublisher
	enabled  bool
}

// NewTracker creates an enabled tracker. eventBus may be nil.
func NewTracker(eventBus EventPublisher) *Tracker {
	return &Tracker{
		timings:  make(map[string][]time.Duration),
		eventBus: eventBus,
		enabled:  true,
	}
}

func (tt *Tracker) isEnabled() bool {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	return tt.enabled
}

// StartTiming returns a child of ctx that carries the start time of
// operation. Pass it to EndTiming.
func (tt *Tracker) StartTiming(ctx context.Context, operation string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if !tt.isEnabled() {
		return ctx
	}

	start := time.Now()
	ctx = context.WithValue(ctx, timingKey{}, TimingInfo{
		Operation: operation,
		StartTime: start,
	})

	if tt.eventBus != nil {
		tt.eventBus.Publish(eventbus.Event{
			Type:      eventbus.EventTimingStarted,
			Timestamp: start,
			Data: map[string]interface{}{
				"operation": operation,
			},
		})
	}

	return ctx
}

func (tt *Tracker) EndTiming(ctx context.Context) {
	if ctx == nil || !tt.isEnabled() {
		return
	}

	timingInfo, ok := ctx.Value(timingKey{}).(TimingInfo)
	if !ok {
		return
	}

	duration := time.Since(timingInfo.StartTime)

	tt.mu.Lock()
	tt.timings[timingInfo.Operation] = append(tt.timings[timingInfo.Operation], duration)
	tt.mu.Unlock()

	if tt.eventBus != nil {
		tt.eventBus.Publish(eventbus.Event{
			Type: eventbus.EventTimingDone,
			Data: map[string]interface{}{
				"operation":   timingInfo.Operation,
				"duration_ms": float64(duration.Microseconds()) / 1000,
			},
		})
	}
}

func (tt *Tracker) GetTimings(operation string) []time.Duration {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	timings := tt.timings[operation]
	if timings == nil {
		return nil
	}

	result := make([]time.Duration, len(timings))
	copy(result, timings)
	return result
}

func (tt *Tracker) GetAllTimings() map[string][]time.Duration {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	result := make(map[string][]time.Duration)
	for operation, timings := range tt.timings {
		result[operation] = make([]time.Duration, len(timings))
		copy(result[operation], timings)
	}
	return result
}

func (tt *Tracker) GetAverageTime(operation string) time.Duration {
	timings := tt.GetTimings(operation)
	if len(timings) == 0 {
		return 0
	}

	var total time.Duration
	for _, duration := range timings {
		total += duration
	}

	return total / time.Duration(len(timings))
}

func (tt *Tracker) SetEnabled(enabled bool) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.enabled = enabled
}

// Reset drops the samples of operation, or of every operation when it is
// empty.
func (tt *Tracker) Reset(operation string) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if operation == "" {
		tt.timings = make(map[string][]time.Duration)
	} else {
		delete(tt.timings, operation)
	}
}
