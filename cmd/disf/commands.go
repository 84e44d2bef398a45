package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"disf-superpixels/internal/models"
	"disf-superpixels/internal/pipeline"
	"disf-superpixels/internal/queue"
	"disf-superpixels/internal/services"
	"disf-superpixels/internal/viewer"
)

var (
	okColor   = color.New(color.FgGreen).SprintFunc()
	failColor = color.New(color.FgRed).SprintFunc()
	dimColor  = color.New(color.Faint).SprintFunc()
)

func segmentCommand() *cli.Command {
	return &cli.Command{
		Name:      "segment",
		Usage:     "segment one image and write labels.pgm, borders.pgm and side_by_side.png",
		ArgsUsage: "IMAGE",
		Flags: append(engineFlags(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output directory"},
			&cli.BoolFlag{Name: "show", Usage: "open a window with the label and border maps"},
		),
		Action: func(c *cli.Context) (err error) {
			if c.NArg() != 1 {
				return cli.Exit("segment takes exactly one image", 2)
			}

			e, err := newEnv(c, true)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, e.Close()) }()

			outcome, err := e.service.SegmentFile(e.Context(), e.Request(c.Args().First(), e.cfg.Output.Dir))
			if err != nil {
				return err
			}
			printOutcome(outcome)

			if c.Bool("show") {
				return show(e, outcome)
			}
			return nil
		},
	}
}

func show(e *env, outcome *services.Outcome) error {
	panels := viewer.Panels{
		Title:   filepath.Base(outcome.Run.Source),
		Labels:  pipeline.ScaleToGray(outcome.Result.Labels),
		Borders: pipeline.ScaleToGray(outcome.Result.Borders),
		Summary: fmt.Sprintf("%d superpixels from %d seeds in %d iterations",
			outcome.Result.Superpixels, outcome.Result.InitialSeeds, outcome.Result.Iterations),
	}
	overlay, err := e.service.Coordinator().Renderer().Overlay(outcome.Result.Labels, outcome.Result.Borders)
	if err != nil {
		return err
	}
	panels.Overlay = overlay

	viewer.New(e.cfg.Viewer.Width, e.cfg.Viewer.Height).Run(panels)
	return nil
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "segment many images concurrently, one output directory each",
		ArgsUsage: "IMAGE...",
		Flags: append(engineFlags(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "root output directory"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "concurrent images"},
		),
		Action: func(c *cli.Context) (err error) {
			if c.NArg() == 0 {
				return cli.Exit("batch needs at least one image", 2)
			}

			e, err := newEnv(c, true)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, e.Close()) }()

			start := time.Now()
			outcomes, batchErr := e.service.Batch(e.Context(), c.Args().Slice(), e.cfg.Output.Dir,
				e.Request("", ""), e.cfg.Batch.Workers)

			failed := 0
			for _, o := range outcomes {
				if o == nil {
					continue
				}
				if o.Run.Status == models.RunFailed {
					failed++
				}
				printOutcome(o)
			}
			fmt.Printf("%d images, %d failed, %s\n", c.NArg(), failed, time.Since(start).Round(time.Millisecond))

			if batchErr != nil {
				return fmt.Errorf("%d of %d images failed", failed, c.NArg())
			}
			return nil
		},
	}
}

func enqueueCommand() *cli.Command {
	return &cli.Command{
		Name:      "enqueue",
		Usage:     "queue images for workers on the Redis jobs stream",
		ArgsUsage: "IMAGE...",
		Flags: append(engineFlags(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "root output directory as seen by the workers"},
		),
		Action: func(c *cli.Context) (err error) {
			if c.NArg() == 0 {
				return cli.Exit("enqueue needs at least one image", 2)
			}

			e, err := newEnv(c, false)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, e.Close()) }()

			q, err := openQueue(e)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, q.Close()) }()

			paths := c.Args().Slice()
			dirs := services.OutputDirs(paths, e.cfg.Output.Dir)
			for i, path := range paths {
				abs, err := filepath.Abs(path)
				if err != nil {
					return err
				}
				outDir, err := filepath.Abs(dirs[i])
				if err != nil {
					return err
				}

				job := models.NewJob(abs, outDir, e.cfg.Engine.Name, e.cfg.Engine.InitSeeds, e.cfg.Engine.Superpixels)
				job.Overlay = e.cfg.Output.Colorize
				id, err := q.Enqueue(e.Context(), job)
				if err != nil {
					return err
				}
				fmt.Printf("%s %s %s\n", okColor("queued"), path, dimColor(id))
			}
			return nil
		},
	}
}

func workerCommand() *cli.Command {
	return &cli.Command{
		Name:  "worker",
		Usage: "segment jobs from the Redis jobs stream until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "consumer name, unique per worker"},
			&cli.DurationFlag{Name: "claim-idle", Value: 10 * time.Minute, Usage: "take over jobs left unacked this long by another worker"},
			&cli.BoolFlag{Name: "overlay", Usage: "write colour overlays for every job"},
		},
		Action: func(c *cli.Context) (err error) {
			e, err := newEnv(c, true)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, e.Close()) }()

			q, err := openQueue(e)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, q.Close()) }()

			name := c.String("name")
			if name == "" {
				host, _ := os.Hostname()
				name = fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
			}

			w := services.NewWorker(q, e.service, services.WorkerOptions{
				Name:       name,
				JobTimeout: time.Duration(e.cfg.Timeouts.JobSeconds) * time.Second,
				ClaimIdle:  c.Duration("claim-idle"),
				Overlay:    e.cfg.Output.Colorize,
			}, e.log)
			return w.Run(e.Context())
		},
	}
}

func openQueue(e *env) (*queue.RedisStreams, error) {
	q, err := queue.NewRedisStreams(e.Context(), queue.Config{
		Addr:          e.cfg.Redis.Addr,
		Password:      e.cfg.Redis.Password,
		DB:            e.cfg.Redis.DB,
		Stream:        e.cfg.Redis.Stream,
		Group:         e.cfg.Redis.Group,
		ResultsStream: e.cfg.Redis.ResultsStream,
	})
	if err != nil {
		return nil, err
	}
	if err := q.EnsureGroup(e.Context()); err != nil {
		return nil, multierr.Append(err, q.Close())
	}
	return q, nil
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list recorded runs, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of runs, 0 for all"},
		},
		Action: func(c *cli.Context) (err error) {
			e, err := newEnv(c, true)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, e.Close()) }()

			if e.store == nil {
				return errors.New("run history is disabled: store.path is empty")
			}

			runs, err := e.store.ListRuns(e.Context(), c.Int("limit"))
			if err != nil {
				return err
			}
			for _, run := range runs {
				fmt.Println(formatRun(run))
			}
			return nil
		},
	}
}

func printOutcome(o *services.Outcome) {
	fmt.Println(formatRun(o.Run))
	if o.Outputs == nil {
		return
	}
	files := []string{o.Outputs.Labels, o.Outputs.Borders, o.Outputs.SideBySide}
	if o.Outputs.Overlay != "" {
		files = append(files, o.Outputs.Overlay)
	}
	fmt.Println(dimColor("  " + strings.Join(files, "  ")))
}

func formatRun(run *models.Run) string {
	status := okColor(string(run.Status))
	detail := fmt.Sprintf("%dx%d  N0=%d Nf=%d  %d superpixels  %d iterations",
		run.Width, run.Height, run.InitSeeds, run.FinalSuperpixels, run.Superpixels, run.Iterations)
	if run.Status == models.RunFailed {
		status = failColor(string(run.Status))
		detail = run.Error
	}
	return fmt.Sprintf("%s  %-9s  %s  %s  %s  %s",
		run.StartedAt.Format(time.DateTime), status, run.Engine, run.Source, detail,
		dimColor(run.Duration.Round(time.Millisecond)))
}
