// Package labeltools maintains Darknet and YOLOv8 object detection datasets.
//
// It wraps the packages under pkg/ behind a single configured entry point:
//
//	cfg := config.Default()
//	tools, err := labeltools.New(golog.NewDevelopmentLogger("label-tools"), cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// replace every label file with the single box enclosing its objects
//	report, err := tools.MergeDataset(ctx, "datasets/cars")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(report)
//
// The components are:
//
//  1. Darknet (pkg/darknet): label line parsing, box geometry and merging
//  2. Segmentation (pkg/segmentation): polygon to bounding box conversion
//  3. Dataset (pkg/dataset): YOLOv8 folder layout and the concurrent batch driver
//  4. Render (pkg/render): box and polygon overlays
//  5. Prelabel (pkg/prelabel): draft labels from a vision model served by
//     Ollama (pkg/ollama) or llama.cpp (pkg/llamacpp)
package labeltools

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/menta2k/label-tools/internal/config"
	"github.com/menta2k/label-tools/internal/utils"
	"github.com/menta2k/label-tools/pkg/client"
	"github.com/menta2k/label-tools/pkg/darknet"
	"github.com/menta2k/label-tools/pkg/dataset"
	"github.com/menta2k/label-tools/pkg/llamacpp"
	"github.com/menta2k/label-tools/pkg/ollama"
	"github.com/menta2k/label-tools/pkg/prelabel"
	"github.com/menta2k/label-tools/pkg/render"
	"github.com/menta2k/label-tools/pkg/segmentation"
	"github.com/menta2k/label-tools/pkg/types"
)

// Version of the label tools
const Version = "1.0.0"

// Tools runs dataset operations with a shared configuration
type Tools struct {
	logger golog.Logger
	cfg    *config.Config
}

// New creates Tools from cfg. A nil cfg uses config.Default and a nil
// logger the global one.
func New(logger golog.Logger, cfg *config.Config) (*Tools, error) {
	if logger == nil {
		logger = golog.Global()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &Tools{logger: logger, cfg: cfg}, nil
}

// Config returns the configuration in use
func (t *Tools) Config() *config.Config {
	return t.cfg
}

func (t *Tools) batch() *dataset.Batch {
	return dataset.NewBatch(t.logger, t.cfg.Merge.Workers)
}

// MergeFiles replaces each label file with its merged box
func (t *Tools) MergeFiles(ctx context.Context, paths []string) dataset.Report {
	rewriter := darknet.NewRewriter(t.logger)
	return t.batch().Run(ctx, paths, func(ctx context.Context, path string) error {
		_, err := rewriter.OverwriteWithMergedBox(path)
		return err
	})
}

// MergeDataset replaces every label file of a YOLOv8 dataset with its merged box
func (t *Tools) MergeDataset(ctx context.Context, root string) (dataset.Report, error) {
	files, err := dataset.LabelFiles(t.logger, root, t.cfg.Dataset.Splits)
	if err != nil {
		return dataset.Report{}, err
	}
	t.logger.Infow("merging label files", "root", root, "files", len(files))
	return t.MergeFiles(ctx, files), nil
}

// ConvertDataset rewrites every segmentation label file of a YOLOv8 dataset
// as bounding boxes
func (t *Tools) ConvertDataset(ctx context.Context, root string) (dataset.Report, error) {
	files, err := dataset.LabelFiles(t.logger, root, t.cfg.Dataset.Splits)
	if err != nil {
		return dataset.Report{}, err
	}
	t.logger.Infow("converting segmentation labels", "root", root, "files", len(files))

	converter := segmentation.NewConverter(t.logger)
	return t.batch().Run(ctx, files, func(ctx context.Context, path string) error {
		return converter.ConvertFile(path)
	}), nil
}

// Restructure copies a flat Darkmark folder into the YOLOv8 layout
func (t *Tools) Restructure(src, dst, split string) (types.RestructureCounts, error) {
	return dataset.Restructure(t.logger, src, dst, split)
}

// RenderOptions returns the drawing options from the configuration
func (t *Tools) RenderOptions() (render.Options, error) {
	c, err := config.ParseColor(t.cfg.Render.Color)
	if err != nil {
		return render.Options{}, err
	}
	opts := render.DefaultOptions()
	opts.Color = c
	opts.Thickness = t.cfg.Render.Thickness
	opts.FontSize = t.cfg.Render.FontSize
	opts.FillAlpha = t.cfg.Render.FillAlpha
	return opts, nil
}

// Visualize draws a label file over its image and saves the result to
// outPath. seg selects segmentation polygons instead of boxes.
func (t *Tools) Visualize(imagePath, labelPath, outPath string, seg bool, names []string) error {
	opts, err := t.RenderOptions()
	if err != nil {
		return err
	}
	v := render.NewVisualizer(t.logger, opts, t.cfg.Render.Format, t.cfg.Render.Quality, t.cfg.Render.Lossless)
	v.SetClassNames(names)
	if seg {
		return v.Polygons(imagePath, labelPath, outPath)
	}
	return v.Boxes(imagePath, labelPath, outPath)
}

// VisionClient creates the client for the configured pre-labelling backend
func (t *Tools) VisionClient() (client.VisionClient, error) {
	switch t.cfg.Prelabel.Backend {
	case "ollama":
		return ollama.NewClient(t.cfg.Prelabel.URL)
	case "llamacpp":
		return llamacpp.NewClient(t.cfg.Prelabel.URL)
	default:
		return nil, errors.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", t.cfg.Prelabel.Backend)
	}
}

// ClassNames returns the pre-labelling classes, read from the names file
// when no classes are configured
func (t *Tools) ClassNames() ([]string, error) {
	if len(t.cfg.Prelabel.Classes) > 0 {
		return t.cfg.Prelabel.Classes, nil
	}
	if t.cfg.Prelabel.NamesFile == "" {
		return nil, errors.New("no classes configured, set prelabel.classes or prelabel.names_file")
	}
	return utils.LoadClassNames(t.cfg.Prelabel.NamesFile)
}

// NewLabeler creates a Labeler for the configured model and classes
func (t *Tools) NewLabeler(vc client.VisionClient) (*prelabel.Labeler, error) {
	classes, err := t.ClassNames()
	if err != nil {
		return nil, err
	}
	return prelabel.NewLabeler(t.logger, vc, prelabel.Options{
		Model:         t.cfg.Prelabel.Model,
		Classes:       classes,
		MinConfidence: t.cfg.Prelabel.MinConfidence,
		MaxSide:       t.cfg.Prelabel.SendSize,
		Quality:       t.cfg.Prelabel.SendQuality,
	})
}

// Prelabel writes draft label files for images using vc. Each label goes to
// dataset.LabelForImage of its image.
func (t *Tools) Prelabel(ctx context.Context, vc client.VisionClient, images []string) (dataset.Report, error) {
	labeler, err := t.NewLabeler(vc)
	if err != nil {
		return dataset.Report{}, err
	}
	return t.batch().Run(ctx, images, func(ctx context.Context, path string) error {
		_, err := labeler.LabelFile(ctx, path, dataset.LabelForImage(path))
		return err
	}), nil
}

// PrelabelDataset pre-labels every image of a YOLOv8 dataset
func (t *Tools) PrelabelDataset(ctx context.Context, vc client.VisionClient, root string) (dataset.Report, error) {
	images, err := dataset.ImageFiles(t.logger, root, t.cfg.Dataset.Splits)
	if err != nil {
		return dataset.Report{}, err
	}
	t.logger.Infow("pre-labelling images", "root", root, "images", len(images))
	return t.Prelabel(ctx, vc, images)
}
