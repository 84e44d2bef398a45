package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"disf-superpixels/internal/algorithms"
	"disf-superpixels/internal/config"
	"disf-superpixels/internal/debug"
	"disf-superpixels/internal/logger"
	"disf-superpixels/internal/pipeline"
	"disf-superpixels/internal/services"
	"disf-superpixels/internal/shutdown"
	"disf-superpixels/internal/store"
)

// env is everything a command needs, built from config and flags.
type env struct {
	cfg        *config.Config
	log        logger.Logger
	logCloser  io.Closer
	debug      *debug.Coordinator
	shutdown   *shutdown.Manager
	segmenters *algorithms.Manager
	store      *store.Store
	service    *services.SegmentationService
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.IsSet("loader") {
		cfg.Loader = c.String("loader")
	}
	if c.IsSet("seeds") {
		cfg.Engine.InitSeeds = c.Int("seeds")
	}
	if c.IsSet("superpixels") {
		cfg.Engine.Superpixels = c.Int("superpixels")
	}
	if c.IsSet("engine") {
		cfg.Engine.Name = c.String("engine")
	}
	if c.IsSet("strict") {
		cfg.Engine.StrictSampling = c.Bool("strict")
	}
	if c.IsSet("overlay") {
		cfg.Output.Colorize = c.Bool("overlay")
	}
	if c.IsSet("workers") {
		cfg.Batch.Workers = c.Int("workers")
	}
	if c.IsSet("out") {
		cfg.Output.Dir = c.String("out")
	}

	return cfg, cfg.Validate()
}

// newEnv wires the application. withStore opens the run history when a
// store path is configured.
func newEnv(c *cli.Context, withStore bool) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	log, closer, err := logger.New(os.Stderr, logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return nil, err
	}

	debugConfig := debug.ProductionConfig()
	if cfg.Log.Level == "debug" {
		debugConfig = debug.DefaultConfig()
	}
	debugCoord := debug.NewCoordinator(debugConfig, log)

	e := &env{
		cfg:       cfg,
		log:       log,
		logCloser: closer,
		debug:     debugCoord,
		shutdown:  shutdown.NewManager(log, time.Duration(cfg.Timeouts.ShutdownSeconds)*time.Second),
	}
	e.shutdown.Register(debugCoord)
	e.shutdown.Listen()

	e.segmenters = algorithms.NewManager()
	if err := e.segmenters.SetCurrentEngine(cfg.Engine.Name); err != nil {
		e.Close()
		return nil, fmt.Errorf("%w (available: %v)", err, e.segmenters.GetAvailableEngines())
	}

	loader, err := pipeline.NewLoader(cfg.Loader, log, debugCoord.TimingTracker())
	if err != nil {
		e.Close()
		return nil, err
	}
	coordinator := pipeline.NewCoordinator(loader, pipeline.NewSaver(log), pipeline.NewRenderer(cfg.Loader),
		e.segmenters, log, debugCoord.TimingTracker())

	var recorder services.RunRecorder
	if withStore && cfg.Store.Path != "" {
		e.store, err = store.Open(e.Context(), cfg.Store.Path)
		if err != nil {
			e.Close()
			return nil, err
		}
		recorder = e.store
	}

	e.service = services.NewSegmentationService(coordinator, recorder, debugCoord, log)
	return e, nil
}

// Context is cancelled on SIGINT or SIGTERM.
func (e *env) Context() context.Context {
	return e.shutdown.Context()
}

// Request builds a segmentation request from the engine config.
func (e *env) Request(path, outDir string) services.Request {
	return services.Request{
		Path:      path,
		OutputDir: outDir,
		Engine:    e.cfg.Engine.Name,
		Params:    e.cfg.EngineParams(),
		Overlay:   e.cfg.Output.Colorize,
	}
}

// Close stops the event bus and releases the store and the log file.
func (e *env) Close() error {
	e.shutdown.Shutdown()

	var err error
	if e.store != nil {
		err = multierr.Append(err, e.store.Close())
	}
	return multierr.Append(err, e.logCloser.Close())
}
