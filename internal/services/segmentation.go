// Package services runs segmentations end to end: one file, a batch of
// files, or jobs pulled from a queue. Every run is recorded.
package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"disf-superpixels/internal/algorithms/params"
	"disf-superpixels/internal/disf"
	"disf-superpixels/internal/logger"
	"disf-superpixels/internal/models"
	"disf-superpixels/internal/pipeline"
)

// RunRecorder persists finished runs.
type RunRecorder interface {
	InsertRun(ctx context.Context, run *models.Run) error
}

// EventSink receives per-iteration progress and the outcome of each run.
type EventSink interface {
	IterationObserver(source string) disf.Observer
	RunFinished(source string, result *disf.Result, elapsed time.Duration, err error)
}

type Request struct {
	Path      string
	OutputDir string
	// Engine may be empty for the current engine.
	Engine  string
	Params  map[string]interface{}
	Overlay bool
}

type Outcome struct {
	Run     *models.Run
	Input   *pipeline.ImageData
	Result  *disf.Result
	Outputs *pipeline.Outputs
}

type SegmentationService struct {
	coordinator *pipeline.Coordinator
	recorder    RunRecorder
	events      EventSink
	logger      logger.Logger
}

// NewSegmentationService wires the pipeline to optional recorder and
// events; either may be nil.
func NewSegmentationService(coordinator *pipeline.Coordinator, recorder RunRecorder, events EventSink,
	log logger.Logger) *SegmentationService {
	return &SegmentationService{
		coordinator: coordinator,
		recorder:    recorder,
		events:      events,
		logger:      log,
	}
}

func (s *SegmentationService) Coordinator() *pipeline.Coordinator {
	return s.coordinator
}

// SegmentFile loads req.Path, segments it and writes the outputs to
// req.OutputDir. The returned outcome always carries the run record, also
// when err is non-nil.
func (s *SegmentationService) SegmentFile(ctx context.Context, req Request) (*Outcome, error) {
	engine := req.Engine
	if engine == "" {
		engine = s.coordinator.Segmenters().GetCurrentEngine()
	}
	values := req.Params
	if values == nil {
		values = s.coordinator.Segmenters().GetParameters(engine)
	}

	p, _, perr := params.Parse(values)
	run := models.NewRun(req.Path, engine, p.InitSeeds, p.FinalSuperpixels)
	run.OutputDir = req.OutputDir
	outcome := &Outcome{Run: run}

	err := perr
	if err == nil {
		err = s.segment(ctx, req, engine, values, outcome)
	}

	if err != nil {
		run.Fail(err)
	} else {
		run.Complete()
	}
	if s.events != nil {
		s.events.RunFinished(req.Path, outcome.Result, run.Duration, err)
	}

	if s.recorder != nil {
		// a cancelled run is still recorded
		if rerr := s.recorder.InsertRun(context.WithoutCancel(ctx), run); rerr != nil {
			s.logger.Warning("SegmentationService", "failed to record run", map[string]interface{}{
				"run_id": run.ID,
				"error":  rerr.Error(),
			})
			err = multierr.Append(err, rerr)
		}
	}
	return outcome, err
}

func (s *SegmentationService) segment(ctx context.Context, req Request, engine string,
	values map[string]interface{}, outcome *Outcome) error {
	var observer disf.Observer
	if s.events != nil {
		observer = s.events.IterationObserver(req.Path)
	}

	input, result, err := s.coordinator.Process(ctx, req.Path, engine, values, observer)
	if err != nil {
		return err
	}
	outcome.Input = input
	outcome.Result = result

	run := outcome.Run
	run.Width, run.Height = input.Width, input.Height
	run.Superpixels = result.Superpixels
	run.Iterations = result.Iterations
	run.EffectiveSeeds = result.EffectiveSeeds

	outputs, err := s.coordinator.SaveOutputs(ctx, result, req.OutputDir, req.Overlay)
	if err != nil {
		return err
	}
	outcome.Outputs = outputs
	return nil
}

// Batch segments every path with up to workers concurrent runs. Each image
// gets its own directory under outRoot. A failed image does not stop the
// others; the returned error combines all failures and outcomes[i] belongs
// to paths[i].
func (s *SegmentationService) Batch(ctx context.Context, paths []string, outRoot string, template Request,
	workers int) ([]*Outcome, error) {
	if workers <= 0 {
		workers = 1
	}
	dirs := OutputDirs(paths, outRoot)
	outcomes := make([]*Outcome, len(paths))
	errs := make([]error, len(paths))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, path := range paths {
		eg.Go(func() error {
			req := template
			req.Path = path
			req.OutputDir = dirs[i]

			outcomes[i], errs[i] = s.SegmentFile(ctx, req)
			if errs[i] != nil {
				s.logger.Error("SegmentationService", errs[i], map[string]interface{}{
					"path": path,
				})
			}
			// only cancellation aborts the batch
			return ctx.Err()
		})
	}

	err := eg.Wait()
	for i, e := range errs {
		if e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", paths[i], e))
		}
	}
	return outcomes, err
}

// OutputDirs names one directory per input after its base name, adding a
// numeric suffix when two inputs share a name.
func OutputDirs(paths []string, outRoot string) []string {
	seen := make(map[string]int)
	dirs := make([]string, len(paths))
	for i, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s-%d", name, n)
		}
		dirs[i] = filepath.Join(outRoot, name)
	}
	return dirs
}
