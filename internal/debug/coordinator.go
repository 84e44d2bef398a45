// Package debug bundles the event bus and the timing tracker that the
// command line tools share.
package debug

import (
	"time"

	"disf-superpixels/internal/debug/eventbus"
	"disf-superpixels/internal/debug/timing"
	"disf-superpixels/internal/disf"
)

type Config struct {
	EnableTimingTracking bool
	LogEvents            bool
	EventBufferSize      int
}

func DefaultConfig() Config {
	return Config{
		EnableTimingTracking: true,
		LogEvents:            true,
		EventBufferSize:      1000,
	}
}

func ProductionConfig() Config {
	return Config{
		EnableTimingTracking: false,
		LogEvents:            true,
		EventBufferSize:      100,
	}
}

type Coordinator struct {
	bus           *eventbus.Bus
	timingTracker *timing.Tracker
}

// NewCoordinator starts the event bus. With LogEvents set, run and
// iteration events are written through log.
func NewCoordinator(config Config, log eventbus.Logger) *Coordinator {
	bus := eventbus.NewBus(config.EventBufferSize)
	if config.LogEvents && log != nil {
		eventbus.LogEvents(bus, log)
	}

	timingTracker := timing.NewTracker(bus)
	timingTracker.SetEnabled(config.EnableTimingTracking)

	return &Coordinator{
		bus:           bus,
		timingTracker: timingTracker,
	}
}

func (dc *Coordinator) Bus() *eventbus.Bus {
	return dc.bus
}

func (dc *Coordinator) TimingTracker() *timing.Tracker {
	return dc.timingTracker
}

// IterationObserver publishes one event per DISF iteration, tagged with
// source so concurrent runs can be told apart.
func (dc *Coordinator) IterationObserver(source string) disf.Observer {
	return func(stats disf.IterationStats) {
		dc.bus.Publish(eventbus.Event{
			Type: eventbus.EventIteration,
			Data: map[string]interface{}{
				"source":     source,
				"iteration":  stats.Iteration,
				"seeds":      stats.Seeds,
				"kept":       stats.Kept,
				"elapsed_ms": float64(stats.Elapsed.Microseconds()) / 1000,
			},
		})
	}
}

// RunFinished publishes the outcome of one segmentation.
func (dc *Coordinator) RunFinished(source string, result *disf.Result, elapsed time.Duration, err error) {
	if err != nil {
		dc.bus.Publish(eventbus.Event{
			Type: eventbus.EventRunFailed,
			Data: map[string]interface{}{
				"source": source,
				"error":  err.Error(),
			},
		})
		return
	}

	dc.bus.Publish(eventbus.Event{
		Type: eventbus.EventRunCompleted,
		Data: map[string]interface{}{
			"source":      source,
			"superpixels": result.Superpixels,
			"iterations":  result.Iterations,
			"elapsed_ms":  elapsed.Milliseconds(),
		},
	})
}

func (dc *Coordinator) Shutdown() {
	dc.bus.Shutdown()
}
