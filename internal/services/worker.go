package services

import (
	"context"
	"time"

	"disf-superpixels/internal/algorithms/params"
	"disf-superpixels/internal/logger"
	"disf-superpixels/internal/models"
	"disf-superpixels/internal/queue"
)

// JobSource is the queue side a worker needs.
type JobSource interface {
	Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]queue.Delivery, error)
	Ack(ctx context.Context, id string) error
	PublishResult(ctx context.Context, res *models.JobResult) (string, error)
	ClaimStale(ctx context.Context, consumer string, minIdle time.Duration, count int64) ([]queue.Delivery, error)
}

type WorkerOptions struct {
	Name       string
	Block      time.Duration
	JobTimeout time.Duration
	Overlay    bool

	// ClaimIdle is how long a job must sit unacked with another consumer
	// before this worker takes it over at startup. Zero disables it.
	ClaimIdle time.Duration
}

type Worker struct {
	source  JobSource
	service *SegmentationService
	opts    WorkerOptions
	logger  logger.Logger
}

func NewWorker(source JobSource, service *SegmentationService, opts WorkerOptions, log logger.Logger) *Worker {
	if opts.Block <= 0 {
		opts.Block = 5 * time.Second
	}
	return &Worker{source: source, service: service, opts: opts, logger: log}
}

// Run consumes jobs until ctx is cancelled. A job is acked once its result
// has been published, whether the segmentation succeeded or not.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Worker", "waiting for jobs", map[string]interface{}{
		"worker": w.opts.Name,
	})

	if err := w.reclaim(ctx); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		deliveries, err := w.source.Read(ctx, w.opts.Name, 1, w.opts.Block)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		for _, d := range deliveries {
			if err := w.Handle(ctx, d); err != nil {
				return err
			}
		}
	}
}

// reclaim finishes jobs a dead consumer left pending.
func (w *Worker) reclaim(ctx context.Context) error {
	if w.opts.ClaimIdle <= 0 {
		return nil
	}
	deliveries, err := w.source.ClaimStale(ctx, w.opts.Name, w.opts.ClaimIdle, 16)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	if len(deliveries) > 0 {
		w.logger.Info("Worker", "reclaimed stale jobs", map[string]interface{}{
			"count": len(deliveries),
		})
	}
	for _, d := range deliveries {
		if err := w.Handle(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// Handle runs one delivery. The returned error is a queue failure; a
// failed segmentation is reported in the published result instead.
func (w *Worker) Handle(ctx context.Context, d queue.Delivery) error {
	if d.Err != nil {
		// nothing to run or report; ack so it leaves the pending list
		w.logger.Warning("Worker", "dropping malformed message", map[string]interface{}{
			"id":    d.ID,
			"error": d.Err.Error(),
		})
		return w.source.Ack(context.WithoutCancel(ctx), d.ID)
	}

	job := d.Job
	jctx := ctx
	if w.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		jctx, cancel = context.WithTimeout(ctx, w.opts.JobTimeout)
		defer cancel()
	}

	outcome, err := w.service.SegmentFile(jctx, RequestFromJob(job, w.opts.Overlay))
	if err != nil {
		w.logger.Error("Worker", err, map[string]interface{}{
			"job_id": job.ID,
			"path":   job.Path,
		})
	}

	// the job context may be done by now; publishing must still happen
	pctx := context.WithoutCancel(ctx)
	if _, err := w.source.PublishResult(pctx, models.ResultFromRun(job, outcome.Run, w.opts.Name)); err != nil {
		return err
	}
	return w.source.Ack(pctx, d.ID)
}

// RequestFromJob overlays the job's parameters on the engine defaults.
func RequestFromJob(job *models.Job, overlay bool) Request {
	values := params.Defaults()
	if job.InitSeeds > 0 {
		values[params.InitSeeds] = job.InitSeeds
	}
	if job.FinalSuperpixels > 0 {
		values[params.FinalSuperpixels] = job.FinalSuperpixels
	}
	return Request{
		Path:      job.Path,
		OutputDir: job.OutputDir,
		Engine:    job.Engine,
		Params:    values,
		Overlay:   overlay || job.Overlay,
	}
}
