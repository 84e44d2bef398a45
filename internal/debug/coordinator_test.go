package debug

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disf-superpixels/internal/debug/eventbus"
	"disf-superpixels/internal/disf"
)

func TestIterationObserverAndRunEvents(t *testing.T) {
	dc := NewCoordinator(Config{EventBufferSize: 16}, nil)

	var mu sync.Mutex
	var got []eventbus.Event
	record := eventbus.HandlerFunc{ID: "t", Fn: func(e eventbus.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	}}
	for _, typ := range []string{eventbus.EventIteration, eventbus.EventRunCompleted, eventbus.EventRunFailed} {
		dc.Bus().Subscribe(typ, record)
	}

	observe := dc.IterationObserver("img.png")
	observe(disf.IterationStats{Iteration: 1, Seeds: 100, Kept: 60})
	dc.RunFinished("img.png", &disf.Result{Superpixels: 50, Iterations: 3}, time.Second, nil)
	dc.RunFinished("other.png", nil, 0, errors.New("boom"))
	dc.Shutdown()

	require.Len(t, got, 3)
	assert.Equal(t, eventbus.EventIteration, got[0].Type)
	assert.Equal(t, "img.png", got[0].Data["source"])
	assert.Equal(t, 60, got[0].Data["kept"])
	assert.Equal(t, 50, got[1].Data["superpixels"])
	assert.Equal(t, "boom", got[2].Data["error"])
}

func TestTimingTrackerFollowsConfig(t *testing.T) {
	dc := NewCoordinator(ProductionConfig(), nil)
	defer dc.Shutdown()

	ctx := dc.TimingTracker().StartTiming(context.Background(), "load")
	dc.TimingTracker().EndTiming(ctx)
	assert.Empty(t, dc.TimingTracker().GetAllTimings())
}
