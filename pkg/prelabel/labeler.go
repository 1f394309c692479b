// Package prelabel drafts Darknet label files with a vision model.
//
// The model is asked for the objects of a fixed class list in JSON. Its answer
// is sanitized, mapped onto class ids and written as Darknet lines, ready for
// manual review.
package prelabel

import (
	"bytes"
	"context"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/menta2k/label-tools/internal/utils"
	"github.com/menta2k/label-tools/pkg/client"
	"github.com/menta2k/label-tools/pkg/darknet"
	"github.com/menta2k/label-tools/pkg/render"
	"github.com/menta2k/label-tools/pkg/types"
)

// Options configures a Labeler
type Options struct {
	Model   string
	Classes []string
	// MinConfidence drops objects the model is less sure about
	MinConfidence float64
	// MaxSide downscales the image before sending it, 0 keeps the original size
	MaxSide int
	Quality int
}

// Labeler produces annotations for images using a vision client
type Labeler struct {
	logger golog.Logger
	client client.VisionClient
	opts   Options
	prompt string
}

// NewLabeler creates a Labeler. At least one class name is required.
func NewLabeler(logger golog.Logger, vc client.VisionClient, opts Options) (*Labeler, error) {
	if vc == nil {
		return nil, errors.New("vision client is required")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("model is required")
	}
	if len(opts.Classes) == 0 {
		return nil, errors.New("at least one class is required")
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 85
	}
	return &Labeler{
		logger: logger,
		client: vc,
		opts:   opts,
		prompt: BuildPrompt(opts.Classes),
	}, nil
}

// Label locates the configured classes in the image at imagePath
func (l *Labeler) Label(ctx context.Context, imagePath string) ([]types.Annotation, error) {
	img, err := render.LoadImage(imagePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", imagePath)
	}

	data, sent, err := EncodeImage(img, l.opts.MaxSide, l.opts.Quality)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode image")
	}
	l.logger.Debugw("sending image", "path", imagePath, "size", sent, "bytes", len(data))

	raw, err := l.client.Locate(ctx, l.opts.Model, l.prompt, data)
	if err != nil {
		return nil, err
	}
	l.logger.Debugw("model response", "path", imagePath, "raw", raw)

	result, err := ParseResult(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read detections for %s", imagePath)
	}

	anns := ToAnnotations(result, l.opts.Classes, l.opts.MinConfidence, sent.X, sent.Y)
	if dropped := len(result.Objects) - len(anns); dropped > 0 {
		l.logger.Infow("dropped detections", "path", imagePath, "count", dropped)
	}
	return anns, nil
}

// LabelFile labels imagePath and writes the result to labelPath as Darknet
// lines. An image without detections gets an empty label file.
func (l *Labeler) LabelFile(ctx context.Context, imagePath, labelPath string) (int, error) {
	anns, err := l.Label(ctx, imagePath)
	if err != nil {
		return 0, err
	}

	var buf strings.Builder
	for _, a := range anns {
		buf.WriteString(darknet.FormatLine(a))
		buf.WriteByte('\n')
	}

	if err := utils.EnsureDir(filepath.Dir(labelPath)); err != nil {
		return 0, errors.Wrap(err, "failed to create label directory")
	}
	if err := utils.WriteFileAtomic(labelPath, []byte(buf.String())); err != nil {
		return 0, err
	}
	l.logger.Infow("wrote labels", "path", labelPath, "objects", len(anns))
	return len(anns), nil
}

// TestVision asks a free-form question to check the model can see the image
func (l *Labeler) TestVision(ctx context.Context, imagePath string) (string, error) {
	img, err := render.LoadImage(imagePath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to load %s", imagePath)
	}
	data, _, err := EncodeImage(img, l.opts.MaxSide, l.opts.Quality)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode image")
	}
	return l.client.SimpleQuery(ctx, l.opts.Model, SimpleTestPrompt, data)
}

// EncodeImage downscales img so its longest side is at most maxDim and
// encodes it as JPEG. It returns the size of the encoded image.
func EncodeImage(img image.Image, maxDim, quality int) ([]byte, image.Point, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, image.Point{}, err
	}
	return buf.Bytes(), img.Bounds().Size(), nil
}
