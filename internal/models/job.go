package models

import (
	"time"

	"github.com/google/uuid"
)

// Job asks a worker to segment one image. It travels as JSON on the jobs
// stream.
type Job struct {
	ID               string    `json:"id"`
	Path             string    `json:"path"`
	OutputDir        string    `json:"output_dir"`
	Engine           string    `json:"engine,omitempty"`
	InitSeeds        int       `json:"initial_seeds"`
	FinalSuperpixels int       `json:"final_superpixels"`
	Overlay          bool      `json:"overlay,omitempty"`
	EnqueuedAt       time.Time `json:"enqueued_at"`
}

func NewJob(path, outputDir, engine string, initSeeds, finalSuperpixels int) *Job {
	return &Job{
		ID:               uuid.NewString(),
		Path:             path,
		OutputDir:        outputDir,
		Engine:           engine,
		InitSeeds:        initSeeds,
		FinalSuperpixels: finalSuperpixels,
		EnqueuedAt:       time.Now().UTC(),
	}
}

// JobResult is published by a worker once a job is done.
type JobResult struct {
	JobID       string    `json:"job_id"`
	RunID       string    `json:"run_id"`
	Worker      string    `json:"worker"`
	Status      RunStatus `json:"status"`
	Superpixels int       `json:"superpixels"`
	Iterations  int       `json:"iterations"`
	OutputDir   string    `json:"output_dir"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	FinishedAt  time.Time `json:"finished_at"`
}

// ResultFromRun fills a JobResult from the run recorded for job.
func ResultFromRun(job *Job, run *Run, worker string) *JobResult {
	return &JobResult{
		JobID:       job.ID,
		RunID:       run.ID,
		Worker:      worker,
		Status:      run.Status,
		Superpixels: run.Superpixels,
		Iterations:  run.Iterations,
		OutputDir:   run.OutputDir,
		Error:       run.Error,
		DurationMS:  run.Duration.Milliseconds(),
		FinishedAt:  time.Now().UTC(),
	}
}
