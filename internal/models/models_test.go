package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLifecycle(t *testing.T) {
	run := NewRun("a.png", "go", 8000, 50)
	_, err := uuid.Parse(run.ID)
	require.NoError(t, err)

	run.Fail(errors.New("decode failed"))
	assert.Equal(t, RunFailed, run.Status)
	assert.Equal(t, "decode failed", run.Error)

	run.Complete()
	assert.Equal(t, RunCompleted, run.Status)
	assert.Empty(t, run.Error)
}

func TestJobWireFormat(t *testing.T) {
	job := NewJob("/data/a.png", "out/a", "", 8000, 50)

	raw, err := json.Marshal(job)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "/data/a.png", fields["path"])
	assert.EqualValues(t, 8000, fields["initial_seeds"])
	assert.NotContains(t, fields, "engine")
}

func TestResultFromRun(t *testing.T) {
	job := NewJob("a.png", "out", "go", 100, 10)
	run := NewRun(job.Path, "go", 100, 10)
	run.Superpixels = 9
	run.Iterations = 4
	run.OutputDir = "out"
	run.Complete()

	res := ResultFromRun(job, run, "worker-1")
	assert.Equal(t, job.ID, res.JobID)
	assert.Equal(t, run.ID, res.RunID)
	assert.Equal(t, RunCompleted, res.Status)
	assert.Equal(t, 9, res.Superpixels)
	assert.Equal(t, "worker-1", res.Worker)
}
