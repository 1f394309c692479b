package darknet

import (
	"github.com/menta2k/label-tools/pkg/types"
)

// ToCorners converts a center-format box to (x1, y1, x2, y2).
// Degenerate sizes produce degenerate but consistent corners.
func ToCorners(b types.Box) (x1, y1, x2, y2 float64) {
	x1 = b.XCenter - b.Width/2
	y1 = b.YCenter - b.Height/2
	x2 = b.XCenter + b.Width/2
	y2 = b.YCenter + b.Height/2
	return x1, y1, x2, y2
}

// Corners returns the annotation in corner format
func Corners(a types.Annotation) types.Corners {
	x1, y1, x2, y2 := ToCorners(a.Box)
	return types.Corners{Class: a.Class, X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// ParseLineToCorners parses a line and returns its class and corners
func ParseLineToCorners(line string) (types.Corners, error) {
	a, err := ParseLine(line)
	if err != nil {
		return types.Corners{}, err
	}
	return Corners(a), nil
}

// ToCenter converts corners back to Darknet center format.
// It fails with a GeometryError when x2 < x1 or y2 < y1.
func ToCenter(c types.Corners) (types.Annotation, error) {
	if c.X2 < c.X1 || c.Y2 < c.Y1 {
		return types.Annotation{}, &GeometryError{Corners: [4]float64{c.X1, c.Y1, c.X2, c.Y2}}
	}
	return types.Annotation{
		Class: c.Class,
		Box: types.Box{
			XCenter: (c.X1 + c.X2) / 2,
			YCenter: (c.Y1 + c.Y2) / 2,
			Width:   c.X2 - c.X1,
			Height:  c.Y2 - c.Y1,
		},
	}, nil
}
