// Package main is the label-tools command.
package main

import (
	"log"
	"os"

	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"

	labeltools "github.com/menta2k/label-tools"
	"github.com/menta2k/label-tools/internal/config"
)

const (
	// Global flags.
	flagConfig  = "config"
	flagDebug   = "debug"
	flagQuiet   = "quiet"
	flagWorkers = "workers"
	flagLogFile = "log-file"

	// Command flags.
	flagSrc        = "src"
	flagDst        = "dst"
	flagSplit      = "split"
	flagImage      = "image"
	flagLabels     = "labels"
	flagOut        = "out"
	flagSeg        = "seg"
	flagNames      = "names"
	flagDataset    = "dataset"
	flagIndex      = "index"
	flagClasses    = "classes"
	flagModel      = "model"
	flagURL        = "url"
	flagBackend    = "backend"
	flagTestVision = "test-vision"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var logger golog.Logger

	return &cli.App{
		Name:    "label-tools",
		Usage:   "maintain Darknet and YOLOv8 object detection datasets",
		Version: labeltools.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
				Value:   config.GetConfigPath(),
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.BoolFlag{
				Name:    flagQuiet,
				Aliases: []string{"q"},
				Usage:   "disable logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write JSON logs to `FILE`, rotated by size",
			},
			&cli.IntFlag{
				Name:  flagWorkers,
				Usage: "number of files processed in parallel (overrides merge.workers)",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			logger, err = newLogger(c.Bool(flagDebug), c.Bool(flagQuiet), c.String(flagLogFile))
			return err
		},
		Commands: []*cli.Command{
			{
				Name:      "merge",
				Usage:     "replace every label file with the single box enclosing all its objects",
				ArgsUsage: "<dataset-root | label.txt...>",
				Action: func(c *cli.Context) error {
					return mergeAction(c, logger)
				},
			},
			{
				Name:      "seg2bbox",
				Usage:     "convert YOLOv8 segmentation labels to bounding boxes in place",
				ArgsUsage: "<dataset-root>",
				Action: func(c *cli.Context) error {
					return seg2bboxAction(c, logger)
				},
			},
			{
				Name:  "restructure",
				Usage: "copy a Darkmark folder into the YOLOv8 layout",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagSrc, Usage: "Darkmark `DIR`", Required: true},
					&cli.StringFlag{Name: flagDst, Usage: "dataset root `DIR`", Required: true},
					&cli.StringFlag{Name: flagSplit, Usage: "split to create (train, valid or test)", Value: "train"},
				},
				Action: func(c *cli.Context) error {
					return restructureAction(c, logger)
				},
			},
			{
				Name:  "draw",
				Usage: "draw the labels of an image for visual inspection",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagImage, Usage: "image `FILE`"},
					&cli.StringFlag{Name: flagLabels, Usage: "label `FILE`"},
					&cli.StringFlag{Name: flagDataset, Usage: "pick the sample from dataset root `DIR` instead"},
					&cli.StringFlag{Name: flagSplit, Usage: "split of the sample", Value: "train"},
					&cli.IntFlag{Name: flagIndex, Usage: "index of the sample in the split"},
					&cli.StringFlag{Name: flagOut, Usage: "output image `FILE` or directory", Required: true},
					&cli.BoolFlag{Name: flagSeg, Usage: "labels are segmentation polygons"},
					&cli.StringFlag{Name: flagNames, Usage: "class names `FILE`"},
				},
				Action: func(c *cli.Context) error {
					return drawAction(c, logger)
				},
			},
			{
				Name:  "prelabel",
				Usage: "draft label files with a vision model",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: flagImage, Usage: "image `FILE` to label, repeatable"},
					&cli.StringFlag{Name: flagDataset, Usage: "label every image of dataset root `DIR`"},
					&cli.StringFlag{Name: flagOut, Usage: "label `FILE` for a single image"},
					&cli.StringSliceFlag{Name: flagClasses, Usage: "class names, in id order"},
					&cli.StringFlag{Name: flagNames, Usage: "class names `FILE`"},
					&cli.StringFlag{Name: flagModel, Usage: "model name"},
					&cli.StringFlag{Name: flagURL, Usage: "server URL"},
					&cli.StringFlag{Name: flagBackend, Usage: "ollama or llamacpp"},
					&cli.BoolFlag{Name: flagTestVision, Usage: "only ask the model to describe the image"},
				},
				Action: func(c *cli.Context) error {
					return prelabelAction(c, logger)
				},
			},
			{
				Name:  "config",
				Usage: "manage the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:      "init",
						Usage:     "write the default configuration",
						ArgsUsage: "[path]",
						Action:    configInitAction,
					},
					{
						Name:   "show",
						Usage:  "print the configuration in use",
						Action: configShowAction,
					},
				},
			},
		},
	}
}
