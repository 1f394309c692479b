package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/edaniels/golog"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	labeltools "github.com/menta2k/label-tools"
	"github.com/menta2k/label-tools/internal/config"
	"github.com/menta2k/label-tools/internal/utils"
	"github.com/menta2k/label-tools/pkg/dataset"
)

// loadConfig reads the configuration file, falling back to the defaults when
// the default path does not exist. Global flags override file values.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	path := c.String(flagConfig)
	switch {
	case utils.FileExists(path):
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case c.IsSet(flagConfig):
		return nil, errors.Errorf("config file %s does not exist", path)
	}

	if c.IsSet(flagWorkers) {
		cfg.Merge.Workers = c.Int(flagWorkers)
	}
	return cfg, nil
}

func newTools(c *cli.Context, logger golog.Logger) (*labeltools.Tools, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return labeltools.New(logger, cfg)
}

func interruptible(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt)
}

// finish prints the batch summary and turns failures into a non-zero exit
func finish(c *cli.Context, what string, report dataset.Report) error {
	if len(report.Failures) > 0 {
		fmt.Fprintln(c.App.ErrWriter, failureTable(report.Failures))
	}
	fmt.Fprintf(c.App.Writer, "%s: %s\n", what, report)
	if report.Failed > 0 || report.Skipped > 0 {
		return cli.Exit(fmt.Sprintf("%d files failed, %d skipped", report.Failed, report.Skipped), 1)
	}
	return nil
}

func failureTable(failures []dataset.Failure) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "File", "Error"})
	for i, f := range failures {
		t.AppendRow(table.Row{i + 1, f.Path, f.Err.Error()})
	}
	return t.Render()
}

func mergeAction(c *cli.Context, logger golog.Logger) error {
	if c.NArg() == 0 {
		return errors.New("expected a dataset root or label files")
	}
	tools, err := newTools(c, logger)
	if err != nil {
		return err
	}
	ctx, stop := interruptible(c)
	defer stop()

	args := c.Args().Slice()
	if len(args) == 1 && utils.DirExists(args[0]) {
		report, err := tools.MergeDataset(ctx, args[0])
		if err != nil {
			return err
		}
		return finish(c, "merge", report)
	}
	return finish(c, "merge", tools.MergeFiles(ctx, args))
}

func seg2bboxAction(c *cli.Context, logger golog.Logger) error {
	if c.NArg() != 1 {
		return errors.New("expected a dataset root")
	}
	tools, err := newTools(c, logger)
	if err != nil {
		return err
	}
	ctx, stop := interruptible(c)
	defer stop()

	report, err := tools.ConvertDataset(ctx, c.Args().First())
	if err != nil {
		return err
	}
	return finish(c, "seg2bbox", report)
}

func restructureAction(c *cli.Context, logger golog.Logger) error {
	tools, err := newTools(c, logger)
	if err != nil {
		return err
	}
	counts, err := tools.Restructure(c.String(flagSrc), c.String(flagDst), c.String(flagSplit))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "restructure: images=%d labels=%d names=%d\n", counts.Images, counts.Labels, counts.Names)
	return nil
}

func drawAction(c *cli.Context, logger golog.Logger) error {
	tools, err := newTools(c, logger)
	if err != nil {
		return err
	}

	imagePath, labelPath := c.String(flagImage), c.String(flagLabels)
	if root := c.String(flagDataset); root != "" {
		imagePath, labelPath, err = dataset.SampleFiles(root, c.String(flagSplit), c.Int(flagIndex))
		if err != nil {
			return err
		}
	}
	if imagePath == "" || labelPath == "" {
		return errors.New("either --image and --labels or --dataset is required")
	}

	var names []string
	if f := c.String(flagNames); f != "" {
		if names, err = utils.LoadClassNames(f); err != nil {
			return err
		}
	}
	out := c.String(flagOut)
	if utils.DirExists(out) {
		suffix := "_boxes"
		if c.Bool(flagSeg) {
			suffix = "_seg"
		}
		out = utils.GenerateOutputFilename(imagePath, out, "", suffix, tools.Config().Render.Format)
	}
	if err := tools.Visualize(imagePath, labelPath, out, c.Bool(flagSeg), names); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "wrote", out)
	return nil
}

func prelabelAction(c *cli.Context, logger golog.Logger) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet(flagClasses) {
		cfg.Prelabel.Classes = c.StringSlice(flagClasses)
	}
	if c.IsSet(flagNames) {
		cfg.Prelabel.Classes = nil
		cfg.Prelabel.NamesFile = c.String(flagNames)
	}
	if c.IsSet(flagModel) {
		cfg.Prelabel.Model = c.String(flagModel)
	}
	if c.IsSet(flagURL) {
		cfg.Prelabel.URL = c.String(flagURL)
	}
	if c.IsSet(flagBackend) {
		cfg.Prelabel.Backend = c.String(flagBackend)
	}

	tools, err := labeltools.New(logger, cfg)
	if err != nil {
		return err
	}
	vc, err := tools.VisionClient()
	if err != nil {
		return err
	}
	ctx, stop := interruptible(c)
	defer stop()

	images := c.StringSlice(flagImage)
	root := c.String(flagDataset)
	if len(images) == 0 && root == "" {
		return errors.New("either --image or --dataset is required")
	}

	labeler, err := tools.NewLabeler(vc)
	if err != nil {
		return err
	}

	if c.Bool(flagTestVision) {
		if len(images) == 0 {
			return errors.New("--test-vision needs --image")
		}
		answer, err := labeler.TestVision(ctx, images[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, answer)
		return nil
	}

	if out := c.String(flagOut); out != "" {
		if len(images) != 1 {
			return errors.New("--out needs exactly one --image")
		}
		n, err := labeler.LabelFile(ctx, images[0], out)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "prelabel: %d objects written to %s\n", n, out)
		return nil
	}

	if root != "" {
		report, err := tools.PrelabelDataset(ctx, vc, root)
		if err != nil {
			return err
		}
		return finish(c, "prelabel", report)
	}
	report, err := tools.Prelabel(ctx, vc, images)
	if err != nil {
		return err
	}
	return finish(c, "prelabel", report)
}

func configInitAction(c *cli.Context) error {
	path := c.String(flagConfig)
	if c.NArg() > 0 {
		path = c.Args().First()
	}
	if utils.FileExists(path) {
		return errors.Errorf("%s already exists", path)
	}
	if err := config.Default().SaveToFile(path); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "wrote", path)
	return nil
}

func configShowAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
