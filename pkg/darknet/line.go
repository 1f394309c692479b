// Package darknet reads, converts and merges Darknet/YOLO bounding box annotations.
//
// A Darknet label file holds one object per line:
//
//	<class> <x_center> <y_center> <width> <height>
//
// with coordinates normalized to the image size. Trailing fields such as a
// confidence score are accepted and ignored.
package darknet

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/menta2k/label-tools/pkg/types"
)

// fieldCount is the number of leading tokens a line must carry
const fieldCount = 5

// serializePrecision is the number of significant digits kept when writing
// coordinates. float64 preserves any 15-digit decimal, so this strips the
// noise left by center/corner arithmetic (0.5499999999999999 -> 0.55).
const serializePrecision = 15

// ParseLine parses a single Darknet line into an Annotation
func ParseLine(line string) (types.Annotation, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return types.Annotation{}, &FormatError{Text: line, Reason: "empty line"}
	}
	if len(parts) < fieldCount {
		return types.Annotation{}, &FormatError{
			Text:   line,
			Reason: fmt.Sprintf("expected %d values, got %d", fieldCount, len(parts)),
		}
	}

	class, err := strconv.Atoi(parts[0])
	if err != nil {
		return types.Annotation{}, &FormatError{Text: line, Reason: "invalid class id", Err: err}
	}

	var vals [4]float64
	for i := range vals {
		v, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return types.Annotation{}, &FormatError{Text: line, Reason: "invalid coordinate", Err: err}
		}
		vals[i] = v
	}

	return types.Annotation{
		Class: class,
		Box: types.Box{
			XCenter: vals[0],
			YCenter: vals[1],
			Width:   vals[2],
			Height:  vals[3],
		},
	}, nil
}

// FormatLine serializes an Annotation as "class xc yc w h" without a newline
func FormatLine(a types.Annotation) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(a.Class))
	for _, v := range []float64{a.Box.XCenter, a.Box.YCenter, a.Box.Width, a.Box.Height} {
		b.WriteByte(' ')
		b.WriteString(FormatFloat(v))
	}
	return b.String()
}

// FormatFloat writes v rounded to 15 significant digits in plain decimal form
func FormatFloat(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', serializePrecision, 64), 64)
	if err != nil {
		rounded = v
	}
	if rounded == 0 {
		// avoid "-0"
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
