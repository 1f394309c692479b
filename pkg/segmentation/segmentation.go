// Package segmentation converts YOLOv8 polygon labels to Darknet bounding boxes.
//
// A segmentation line is "<class> x1 y1 x2 y2 ..." with normalized vertex
// coordinates. Each polygon is reduced to the smallest box holding all of its
// vertices.
package segmentation

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/menta2k/label-tools/internal/utils"
	"github.com/menta2k/label-tools/pkg/darknet"
	"github.com/menta2k/label-tools/pkg/types"
)

// ParsePolygon parses a single segmentation line
func ParsePolygon(line string) (types.Polygon, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return types.Polygon{}, &darknet.FormatError{Text: line, Reason: "empty line"}
	}
	class, err := strconv.Atoi(parts[0])
	if err != nil {
		return types.Polygon{}, &darknet.FormatError{Text: line, Reason: "invalid class id", Err: err}
	}

	coords := parts[1:]
	if len(coords) == 0 || len(coords)%2 != 0 {
		return types.Polygon{}, &darknet.FormatError{
			Text:   line,
			Reason: fmt.Sprintf("expected coordinate pairs, got %d values", len(coords)),
		}
	}

	poly := types.Polygon{Class: class, Points: make([]types.Point, 0, len(coords)/2)}
	for i := 0; i < len(coords); i += 2 {
		x, err := strconv.ParseFloat(coords[i], 64)
		if err != nil {
			return types.Polygon{}, &darknet.FormatError{Text: line, Reason: "invalid coordinate", Err: err}
		}
		y, err := strconv.ParseFloat(coords[i+1], 64)
		if err != nil {
			return types.Polygon{}, &darknet.FormatError{Text: line, Reason: "invalid coordinate", Err: err}
		}
		poly.Points = append(poly.Points, types.Point{X: x, Y: y})
	}
	return poly, nil
}

// Bounds returns the corners enclosing every vertex of p.
// p must hold at least one point.
func Bounds(p types.Polygon) types.Corners {
	xs := make([]float64, len(p.Points))
	ys := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		xs[i] = pt.X
		ys[i] = pt.Y
	}
	return types.Corners{
		Class: p.Class,
		X1:    floats.Min(xs),
		Y1:    floats.Min(ys),
		X2:    floats.Max(xs),
		Y2:    floats.Max(ys),
	}
}

// ToAnnotation reduces a polygon to its bounding box in center format
func ToAnnotation(p types.Polygon) types.Annotation {
	c := Bounds(p)
	w := c.X2 - c.X1
	h := c.Y2 - c.Y1
	return types.Annotation{
		Class: p.Class,
		Box: types.Box{
			XCenter: c.X1 + w/2,
			YCenter: c.Y1 + h/2,
			Width:   w,
			Height:  h,
		},
	}
}

// SegToBBox converts one segmentation line to a Darknet line
func SegToBBox(line string) (string, error) {
	p, err := ParsePolygon(line)
	if err != nil {
		return "", err
	}
	return darknet.FormatLine(ToAnnotation(p)), nil
}

// ConvertLines converts segmentation lines to annotations, skipping blank lines
func ConvertLines(lines []string) ([]types.Annotation, error) {
	var out []types.Annotation
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, err := ParsePolygon(line)
		if err != nil {
			var fe *darknet.FormatError
			if errors.As(err, &fe) {
				fe.Line = i + 1
			}
			return nil, err
		}
		out = append(out, ToAnnotation(p))
	}
	return out, nil
}

// Converter rewrites segmentation label files as bounding box label files
type Converter struct {
	logger golog.Logger
}

// NewConverter creates a Converter. A nil logger falls back to the global one.
func NewConverter(logger golog.Logger) *Converter {
	if logger == nil {
		logger = golog.Global()
	}
	return &Converter{logger: logger}
}

// ConvertFile replaces the polygons in the label file at path with their
// bounding boxes, one per line. Empty files are left untouched and a
// malformed line leaves the file unchanged.
func (c *Converter) ConvertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	if strings.TrimSpace(string(data)) == "" {
		c.logger.Debugw("file is empty, skipping", "path", path)
		return nil
	}

	anns, err := ConvertLines(strings.Split(string(data), "\n"))
	if err != nil {
		return errors.WithMessage(err, path)
	}

	var b strings.Builder
	for _, a := range anns {
		b.WriteString(darknet.FormatLine(a))
		b.WriteByte('\n')
	}
	if err := utils.WriteFileAtomic(path, []byte(b.String())); err != nil {
		return err
	}
	c.logger.Debugw("converted to bounding box format", "path", path, "boxes", len(anns))
	return nil
}
