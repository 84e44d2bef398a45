// Package config loads run settings from a YAML file, an optional .env file
// and DISF_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"disf-superpixels/internal/algorithms/params"
)

const (
	LoaderOpenCV = "opencv"
	LoaderNative = "native"
)

type Config struct {
	Engine   EngineConfig `yaml:"engine"`
	Output   OutputConfig `yaml:"output"`
	Loader   string       `yaml:"loader"`
	Batch    BatchConfig  `yaml:"batch"`
	Log      LogConfig    `yaml:"log"`
	Store    StoreConfig  `yaml:"store"`
	Redis    RedisConfig  `yaml:"redis"`
	Viewer   ViewerConfig `yaml:"viewer"`
	Timeouts Timeouts     `yaml:"timeouts"`
}

type EngineConfig struct {
	Name           string `yaml:"name"`
	InitSeeds      int    `yaml:"initial_seeds"`
	Superpixels    int    `yaml:"final_superpixels"`
	StrictSampling bool   `yaml:"strict_sampling"`
	Workers        int    `yaml:"workers"`
}

type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Colorize bool   `yaml:"colorize"`
}

type BatchConfig struct {
	Workers int `yaml:"workers"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type StoreConfig struct {
	// Path of the SQLite run history. Empty disables recording.
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	Stream        string `yaml:"stream"`
	Group         string `yaml:"group"`
	ResultsStream string `yaml:"results_stream"`
}

type ViewerConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Timeouts struct {
	ShutdownSeconds int `yaml:"shutdown_seconds"`
	JobSeconds      int `yaml:"job_seconds"`
}

func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Name:        "go",
			InitSeeds:   8000,
			Superpixels: 50,
		},
		Output: OutputConfig{Dir: "out"},
		Loader: LoaderOpenCV,
		Batch:  BatchConfig{Workers: 4},
		Log:    LogConfig{Level: "info", Format: "console"},
		Store:  StoreConfig{Path: "disf.db"},
		Redis: RedisConfig{
			Addr:          "localhost:6379",
			Stream:        "disf:jobs",
			Group:         "segmenters",
			ResultsStream: "disf:results",
		},
		Viewer:   ViewerConfig{Width: 1200, Height: 600},
		Timeouts: Timeouts{ShutdownSeconds: 10, JobSeconds: 300},
	}
}

// Load starts from Default, overlays the YAML file at path (skipped when
// empty), loads envFile into the environment when it exists and finally
// applies DISF_* overrides.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"DISF_ENGINE":         &c.Engine.Name,
		"DISF_OUTPUT_DIR":     &c.Output.Dir,
		"DISF_LOADER":         &c.Loader,
		"DISF_LOG_LEVEL":      &c.Log.Level,
		"DISF_LOG_FORMAT":     &c.Log.Format,
		"DISF_LOG_FILE":       &c.Log.File,
		"DISF_STORE":          &c.Store.Path,
		"DISF_REDIS_ADDR":     &c.Redis.Addr,
		"DISF_REDIS_PASSWORD": &c.Redis.Password,
		"DISF_REDIS_STREAM":   &c.Redis.Stream,
		"DISF_REDIS_GROUP":    &c.Redis.Group,
		"DISF_REDIS_RESULTS":  &c.Redis.ResultsStream,
	}
	ints := map[string]*int{
		"DISF_SEEDS":         &c.Engine.InitSeeds,
		"DISF_SUPERPIXELS":   &c.Engine.Superpixels,
		"DISF_WORKERS":       &c.Engine.Workers,
		"DISF_BATCH_WORKERS": &c.Batch.Workers,
		"DISF_REDIS_DB":      &c.Redis.DB,
	}

	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	if v, ok := lookup("DISF_STRICT_SAMPLING"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DISF_STRICT_SAMPLING: %w", err)
		}
		c.Engine.StrictSampling = b
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Engine.InitSeeds <= 1 {
		return fmt.Errorf("engine.initial_seeds must be greater than 1, got %d", c.Engine.InitSeeds)
	}
	if c.Engine.Superpixels <= 1 {
		return fmt.Errorf("engine.final_superpixels must be greater than 1, got %d", c.Engine.Superpixels)
	}
	if c.Engine.InitSeeds < c.Engine.Superpixels {
		return fmt.Errorf("engine.initial_seeds (%d) must not be fewer than engine.final_superpixels (%d)",
			c.Engine.InitSeeds, c.Engine.Superpixels)
	}
	if c.Engine.Workers < 0 || c.Batch.Workers < 0 {
		return fmt.Errorf("worker counts must not be negative")
	}
	switch c.Loader {
	case LoaderOpenCV, LoaderNative:
	default:
		return fmt.Errorf("loader must be %q or %q, got %q", LoaderOpenCV, LoaderNative, c.Loader)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	return nil
}

// EngineParams renders the engine section in the map form the segmenters
// consume.
func (c *Config) EngineParams() map[string]interface{} {
	return map[string]interface{}{
		params.InitSeeds:        c.Engine.InitSeeds,
		params.FinalSuperpixels: c.Engine.Superpixels,
		params.StrictSampling:   c.Engine.StrictSampling,
		params.Workers:          c.Engine.Workers,
	}
}
