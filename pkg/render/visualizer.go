package render

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/menta2k/label-tools/internal/utils"
)

// Visualizer renders label files over their images and saves the result
type Visualizer struct {
	logger   golog.Logger
	opts     Options
	names    []string
	format   string
	quality  int
	lossless bool
}

// NewVisualizer creates a Visualizer writing images in format ("png", "jpg"
// or "webp"). An empty format is taken from the output file extension.
func NewVisualizer(logger golog.Logger, opts Options, format string, quality int, lossless bool) *Visualizer {
	return &Visualizer{
		logger:   logger,
		opts:     opts,
		format:   format,
		quality:  quality,
		lossless: lossless,
	}
}

// SetClassNames sets the names drawn instead of numeric class ids
func (v *Visualizer) SetClassNames(names []string) {
	v.names = names
}

// Boxes draws the Darknet boxes of labelPath over imagePath and saves to outPath
func (v *Visualizer) Boxes(imagePath, labelPath, outPath string) error {
	img, lines, err := v.load(imagePath, labelPath)
	if err != nil {
		return err
	}
	anns := ParseBoxes(lines)
	for _, a := range anns {
		v.logger.Debugw("drawing box", "class", a.Class, "box", a.Box)
	}
	return v.save(DrawBoxes(img, anns, v.names, v.opts), outPath)
}

// Polygons draws the segmentation polygons of labelPath over imagePath and
// saves to outPath
func (v *Visualizer) Polygons(imagePath, labelPath, outPath string) error {
	img, lines, err := v.load(imagePath, labelPath)
	if err != nil {
		return err
	}
	polys := ParsePolygons(lines)
	v.logger.Debugw("drawing polygons", "count", len(polys))
	return v.save(DrawPolygons(img, polys, v.names, v.opts), outPath)
}

func (v *Visualizer) load(imagePath, labelPath string) (image.Image, []string, error) {
	if !utils.FileExists(imagePath) {
		return nil, nil, errors.Wrapf(os.ErrNotExist, "image not found: %s", imagePath)
	}
	if !utils.FileExists(labelPath) {
		return nil, nil, errors.Wrapf(os.ErrNotExist, "label file not found: %s", labelPath)
	}

	img, err := LoadImage(imagePath)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(labelPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to read label file")
	}

	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return img, lines, nil
}

func (v *Visualizer) save(img image.Image, outPath string) error {
	format := v.format
	if format == "" {
		format = utils.GetFileExtension(outPath)
	}
	if err := utils.EnsureDir(filepath.Dir(outPath)); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	if err := SaveImage(img, outPath, format, v.quality, v.lossless); err != nil {
		return errors.Wrapf(err, "failed to save %s", outPath)
	}
	v.logger.Infow("wrote overlay", "path", outPath)
	return nil
}
