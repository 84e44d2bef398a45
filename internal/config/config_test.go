package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8000, cfg.Engine.InitSeeds)
	assert.Equal(t, 50, cfg.Engine.Superpixels)
	assert.Equal(t, "disf:jobs", cfg.Redis.Stream)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  name: native
  initial_seeds: 2000
  final_superpixels: 100
loader: native
log:
  level: debug
`), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "native", cfg.Engine.Name)
	assert.Equal(t, 2000, cfg.Engine.InitSeeds)
	assert.Equal(t, 100, cfg.Engine.Superpixels)
	assert.Equal(t, LoaderNative, cfg.Loader)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched sections keep their defaults
	assert.Equal(t, "segmenters", cfg.Redis.Group)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DISF_SEEDS", "3000")
	t.Setenv("DISF_SUPERPIXELS", "30")
	t.Setenv("DISF_OUTPUT_DIR", "/tmp/segments")
	t.Setenv("DISF_STRICT_SAMPLING", "true")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Engine.InitSeeds)
	assert.Equal(t, 30, cfg.Engine.Superpixels)
	assert.Equal(t, "/tmp/segments", cfg.Output.Dir)
	assert.True(t, cfg.Engine.StrictSampling)
}

func TestLoadDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DISF_REDIS_ADDR=redis.internal:6380\n"), 0o644))
	t.Setenv("DISF_REDIS_ADDR", "")
	os.Unsetenv("DISF_REDIS_ADDR")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)

	t.Setenv("DISF_SEEDS", "lots")
	_, err = Load("", "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"seeds", func(c *Config) { c.Engine.InitSeeds = 1 }},
		{"superpixels", func(c *Config) { c.Engine.Superpixels = 0 }},
		{"ordering", func(c *Config) { c.Engine.InitSeeds = 10; c.Engine.Superpixels = 20 }},
		{"loader", func(c *Config) { c.Loader = "magick" }},
		{"workers", func(c *Config) { c.Batch.Workers = -1 }},
		{"output", func(c *Config) { c.Output.Dir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEngineParams(t *testing.T) {
	cfg := Default()
	params := cfg.EngineParams()
	assert.Equal(t, 8000, params["initial_seeds"])
	assert.Equal(t, false, params["strict_sampling"])
}
