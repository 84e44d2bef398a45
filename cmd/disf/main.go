package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

const AppVersion = "1.0.0"

func newApp() *cli.App {
	return &cli.App{
		Name:    "disf",
		Usage:   "DISF superpixel segmentation",
		Version: AppVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"DISF_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before DISF_* overrides",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warning or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "console or json",
			},
			&cli.StringFlag{
				Name:  "loader",
				Usage: "image decoder: opencv or native",
			},
		},
		Commands: []*cli.Command{
			segmentCommand(),
			batchCommand(),
			enqueueCommand(),
			workerCommand(),
			historyCommand(),
		},
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "seeds",
			Usage: "number of initial seeds (N0)",
		},
		&cli.IntFlag{
			Name:    "superpixels",
			Aliases: []string{"n"},
			Usage:   "number of final superpixels (Nf)",
		},
		&cli.StringFlag{
			Name:  "engine",
			Usage: "segmentation engine: go or native",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "fail instead of lowering a seed count the image cannot hold",
		},
		&cli.BoolFlag{
			Name:  "overlay",
			Usage: "also write a colour overlay",
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
