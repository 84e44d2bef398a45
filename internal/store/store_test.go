package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disf-superpixels/internal/models"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestInsertAndGetRun(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	run := models.NewRun("img.png", "go", 8000, 50)
	run.EffectiveSeeds = 5714
	run.Superpixels = 50
	run.Iterations = 6
	run.Width, run.Height = 100, 100
	run.OutputDir = "out/img"
	run.Complete()
	run.Duration = 1500 * time.Millisecond

	require.NoError(t, s.InsertRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Source, got.Source)
	assert.Equal(t, 5714, got.EffectiveSeeds)
	assert.Equal(t, models.RunCompleted, got.Status)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
}

func TestGetRunNotFound(t *testing.T) {
	s, _ := openTestStore(t)
	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	base := time.Now()
	var ids []string
	for i := 0; i < 3; i++ {
		run := models.NewRun("img.png", "go", 100, 10)
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		run.Fail(assert.AnError)
		require.NoError(t, s.InsertRun(ctx, run))
		ids = append(ids, run.ID)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Equal(t, models.RunFailed, runs[0].Status)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestReopenKeepsData(t *testing.T) {
	s, path := openTestStore(t)
	ctx := context.Background()

	run := models.NewRun("img.png", "go", 100, 10)
	run.Complete()
	require.NoError(t, s.InsertRun(ctx, run))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.GetRun(ctx, run.ID)
	assert.NoError(t, err)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoPath)
}
