// Package render draws Darknet boxes and YOLOv8 polygons over their images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/menta2k/label-tools/pkg/types"
)

var labelFont *truetype.Font

func init() {
	var err error
	labelFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Options controls how annotations are drawn
type Options struct {
	Color     color.NRGBA
	TextColor color.NRGBA
	Thickness float64
	FontSize  float64
	// FillAlpha is the polygon fill opacity in [0,1], 0 disables the fill
	FillAlpha float64
}

// DefaultOptions returns green boxes with white labels
func DefaultOptions() Options {
	return Options{
		Color:     color.NRGBA{0, 255, 0, 255},
		TextColor: color.NRGBA{255, 255, 255, 255},
		Thickness: 2,
		FontSize:  14,
		FillAlpha: 0.5,
	}
}

// ParseBoxes reads box annotations for drawing. Lines with fewer than five
// fields or unparsable numbers are skipped rather than reported.
func ParseBoxes(lines []string) []types.Annotation {
	var out []types.Annotation
	for _, line := range lines {
		toks := strings.Fields(line)
		if len(toks) < 5 {
			continue
		}
		class, err := strconv.Atoi(toks[0])
		if err != nil {
			continue
		}
		var v [4]float64
		ok := true
		for i := range v {
			if v[i], err = strconv.ParseFloat(toks[i+1], 64); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		out = append(out, types.Annotation{
			Class: class,
			Box:   types.Box{XCenter: v[0], YCenter: v[1], Width: v[2], Height: v[3]},
		})
	}
	return out
}

// ParsePolygons reads polygon annotations for drawing, skipping lines with
// fewer than three fields, an odd number of coordinates or bad numbers
func ParsePolygons(lines []string) []types.Polygon {
	var out []types.Polygon
	for _, line := range lines {
		toks := strings.Fields(line)
		if len(toks) < 3 || (len(toks)-1)%2 != 0 {
			continue
		}
		class, err := strconv.Atoi(toks[0])
		if err != nil {
			continue
		}
		poly := types.Polygon{Class: class}
		for i := 1; i < len(toks); i += 2 {
			x, errX := strconv.ParseFloat(toks[i], 64)
			y, errY := strconv.ParseFloat(toks[i+1], 64)
			if errX != nil || errY != nil {
				poly.Points = nil
				break
			}
			poly.Points = append(poly.Points, types.Point{X: x, Y: y})
		}
		if len(poly.Points) == 0 {
			continue
		}
		out = append(out, poly)
	}
	return out
}

// BoxToPixels converts a normalized center box to pixel corners clamped to
// a w x h image
func BoxToPixels(b types.Box, w, h int) image.Rectangle {
	x1 := int(math.Round((b.XCenter - b.Width/2) * float64(w)))
	y1 := int(math.Round((b.YCenter - b.Height/2) * float64(h)))
	x2 := int(math.Round((b.XCenter + b.Width/2) * float64(w)))
	y2 := int(math.Round((b.YCenter + b.Height/2) * float64(h)))

	x1, y1 = maxInt(0, x1), maxInt(0, y1)
	x2, y2 = minInt(w-1, x2), minInt(h-1, y2)
	return image.Rect(x1, y1, x2, y2)
}

// DrawBoxes draws every annotation as a rectangle with a "<class> detected"
// label above it. names maps class ids to display names and may be nil.
func DrawBoxes(img image.Image, anns []types.Annotation, names []string, opts Options) image.Image {
	dc := gg.NewContextForImage(img)
	w, h := dc.Width(), dc.Height()
	dc.SetFontFace(truetype.NewFace(labelFont, &truetype.Options{Size: opts.FontSize}))

	for _, a := range anns {
		r := BoxToPixels(a.Box, w, h)

		dc.SetColor(opts.Color)
		dc.SetLineWidth(opts.Thickness)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()

		drawLabel(dc, className(names, a.Class)+" detected", float64(r.Min.X), float64(r.Min.Y-6), opts)
	}
	return dc.Image()
}

// DrawPolygons fills each polygon with a translucent color, outlines it in
// black and writes the class at its first vertex
func DrawPolygons(img image.Image, polys []types.Polygon, names []string, opts Options) image.Image {
	dc := gg.NewContextForImage(img)
	w, h := float64(dc.Width()), float64(dc.Height())
	dc.SetFontFace(truetype.NewFace(labelFont, &truetype.Options{Size: opts.FontSize}))

	for _, p := range polys {
		if len(p.Points) == 0 {
			continue
		}
		dc.NewSubPath()
		for _, pt := range p.Points {
			dc.LineTo(math.Round(pt.X*w), math.Round(pt.Y*h))
		}
		dc.ClosePath()

		if opts.FillAlpha > 0 {
			fill := opts.Color
			fill.A = uint8(math.Round(255 * clamp(opts.FillAlpha, 0, 1)))
			dc.SetColor(fill)
			dc.FillPreserve()
		}
		dc.SetColor(color.Black)
		dc.SetLineWidth(opts.Thickness)
		dc.Stroke()

		first := p.Points[0]
		drawLabel(dc, className(names, p.Class), math.Round(first.X*w), math.Round(first.Y*h)-6, opts)
	}
	return dc.Image()
}

func drawLabel(dc *gg.Context, text string, x, baseline float64, opts Options) {
	// keep the text inside the image when the box touches the top edge
	if baseline < opts.FontSize {
		baseline = opts.FontSize
	}
	dc.SetColor(opts.TextColor)
	dc.DrawString(text, x, baseline)
}

func className(names []string, class int) string {
	if class >= 0 && class < len(names) && names[class] != "" {
		return names[class]
	}
	return fmt.Sprintf("%d", class)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
