// Package models holds the records shared by the store, the job queue and
// the command line.
package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is one segmentation of one image, successful or not.
type Run struct {
	ID               string
	Source           string
	Engine           string
	InitSeeds        int
	FinalSuperpixels int
	EffectiveSeeds   int
	Superpixels      int
	Iterations       int
	Width            int
	Height           int
	OutputDir        string
	Status           RunStatus
	Error            string
	StartedAt        time.Time
	Duration         time.Duration
}

// NewRun starts a record for source with a fresh ID.
func NewRun(source, engine string, initSeeds, finalSuperpixels int) *Run {
	return &Run{
		ID:               uuid.NewString(),
		Source:           source,
		Engine:           engine,
		InitSeeds:        initSeeds,
		FinalSuperpixels: finalSuperpixels,
		StartedAt:        time.Now(),
	}
}

// Fail marks the run failed with err.
func (r *Run) Fail(err error) {
	r.Status = RunFailed
	r.Error = err.Error()
	r.Duration = time.Since(r.StartedAt)
}

func (r *Run) Complete() {
	r.Status = RunCompleted
	r.Error = ""
	r.Duration = time.Since(r.StartedAt)
}
