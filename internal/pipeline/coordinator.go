package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"disf-superpixels/internal/algorithms"
	"disf-superpixels/internal/disf"
)

const (
	LabelsFile     = "labels.pgm"
	BordersFile    = "borders.pgm"
	SideBySideFile = "side_by_side.png"
	OverlayFile    = "overlay.png"
)

// Outputs lists the files written for one segmentation.
type Outputs struct {
	Dir        string
	Labels     string
	Borders    string
	SideBySide string
	Overlay    string
}

// Coordinator drives one image through load, segment and save.
type Coordinator struct {
	mu            sync.RWMutex
	lastInput     *ImageData
	lastResult    *disf.Result
	loader        ImageLoader
	saver         ImageSaver
	renderer      Renderer
	segmenters    *algorithms.Manager
	logger        Logger
	timingTracker TimingTracker
}

func NewCoordinator(loader ImageLoader, saver ImageSaver, renderer Renderer, segmenters *algorithms.Manager,
	logger Logger, timingTracker TimingTracker) *Coordinator {
	return &Coordinator{
		loader:        loader,
		saver:         saver,
		renderer:      renderer,
		segmenters:    segmenters,
		logger:        logger,
		timingTracker: timingTracker,
	}
}

func (c *Coordinator) LoadImage(ctx context.Context, path string) (*ImageData, error) {
	imageData, err := c.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.lastInput = imageData
	c.mu.Unlock()
	return imageData, nil
}

// SegmentImage runs engine over an already loaded image. An empty engine
// name selects the manager's current engine.
func (c *Coordinator) SegmentImage(ctx context.Context, imageData *ImageData, engine string,
	params map[string]interface{}, progress disf.Observer) (*disf.Result, error) {
	if imageData == nil {
		return nil, fmt.Errorf("no image loaded")
	}
	if engine == "" {
		engine = c.segmenters.GetCurrentEngine()
	}

	segmenter, err := c.segmenters.GetSegmenter(engine)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = c.segmenters.GetParameters(engine)
	}

	tctx := c.timingTracker.StartTiming(ctx, "segment")
	result, err := segmenter.Segment(ctx, imageData.Image, params, progress)
	c.timingTracker.EndTiming(tctx)
	if err != nil {
		c.logger.Error("Coordinator", err, map[string]interface{}{
			"engine": engine,
			"path":   imageData.Path,
		})
		return nil, err
	}

	c.logger.Info("Coordinator", "segmentation completed", map[string]interface{}{
		"engine":        engine,
		"superpixels":   result.Superpixels,
		"iterations":    result.Iterations,
		"initial_seeds": result.InitialSeeds,
	})

	c.mu.Lock()
	c.lastInput = imageData
	c.lastResult = result
	c.mu.Unlock()
	return result, nil
}

// Process loads path and segments it.
func (c *Coordinator) Process(ctx context.Context, path, engine string, params map[string]interface{},
	progress disf.Observer) (*ImageData, *disf.Result, error) {
	imageData, err := c.LoadImage(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	result, err := c.SegmentImage(ctx, imageData, engine, params, progress)
	if err != nil {
		return nil, nil, err
	}
	return imageData, result, nil
}

// SaveOutputs writes the label and border maps plus the side-by-side
// rendering into dir, and the colour overlay when requested.
func (c *Coordinator) SaveOutputs(ctx context.Context, result *disf.Result, dir string, overlay bool) (*Outputs, error) {
	if result == nil {
		return nil, fmt.Errorf("no result to save")
	}

	tctx := c.timingTracker.StartTiming(ctx, "save_outputs")
	defer c.timingTracker.EndTiming(tctx)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	out := &Outputs{
		Dir:        dir,
		Labels:     filepath.Join(dir, LabelsFile),
		Borders:    filepath.Join(dir, BordersFile),
		SideBySide: filepath.Join(dir, SideBySideFile),
	}

	if err := c.saver.SavePGM(out.Labels, result.Labels); err != nil {
		return nil, err
	}
	if err := c.saver.SavePGM(out.Borders, result.Borders); err != nil {
		return nil, err
	}

	pair, err := c.renderer.SideBySide(result.Labels, result.Borders)
	if err != nil {
		return nil, fmt.Errorf("rendering side by side: %w", err)
	}
	if err := c.saver.SavePNG(out.SideBySide, pair); err != nil {
		return nil, err
	}

	if overlay {
		colored, err := c.renderer.Overlay(result.Labels, result.Borders)
		if err != nil {
			return nil, fmt.Errorf("rendering overlay: %w", err)
		}
		out.Overlay = filepath.Join(dir, OverlayFile)
		if err := c.saver.SavePNG(out.Overlay, colored); err != nil {
			return nil, err
		}
	}

	c.logger.Info("Coordinator", "outputs written", map[string]interface{}{
		"dir": dir,
	})
	return out, nil
}

func (c *Coordinator) Segmenters() *algorithms.Manager {
	return c.segmenters
}

func (c *Coordinator) Renderer() Renderer {
	return c.renderer
}

func (c *Coordinator) GetLastInput() *ImageData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastInput
}

func (c *Coordinator) GetLastResult() *disf.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastResult
}
