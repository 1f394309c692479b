package segmentation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/menta2k/label-tools/pkg/darknet"
)

const sampleSeg = "2 0.207031 0.558594 0.208984 0.527344 0.210938 0.488281 0.214844 0.445312 0.21875 0.412109 0.222656 0.382812"

func TestParsePolygon(t *testing.T) {
	p, err := ParsePolygon(sampleSeg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Class, test.ShouldEqual, 2)
	test.That(t, p.Points, test.ShouldHaveLength, 6)
	test.That(t, p.Points[0].X, test.ShouldEqual, 0.207031)
	test.That(t, p.Points[0].Y, test.ShouldEqual, 0.558594)

	for _, line := range []string{"", "a 0.1 0.2", "1", "1 0.1 0.2 0.3", "1 0.1 x"} {
		_, err := ParsePolygon(line)
		var fe *darknet.FormatError
		test.That(t, errors.As(err, &fe), test.ShouldBeTrue)
	}
}

func TestToAnnotation(t *testing.T) {
	p, err := ParsePolygon(sampleSeg)
	test.That(t, err, test.ShouldBeNil)

	a := ToAnnotation(p)
	test.That(t, a.Class, test.ShouldEqual, 2)
	test.That(t, a.Box.Width, test.ShouldAlmostEqual, 0.222656-0.207031, 1e-9)
	test.That(t, a.Box.Height, test.ShouldAlmostEqual, 0.558594-0.382812, 1e-9)
	test.That(t, a.Box.XCenter, test.ShouldAlmostEqual, (0.207031+0.222656)/2, 1e-9)
	test.That(t, a.Box.YCenter, test.ShouldAlmostEqual, (0.382812+0.558594)/2, 1e-9)
}

func TestSegToBBox(t *testing.T) {
	line, err := SegToBBox("0 0.1 0.2 0.5 0.2 0.5 0.6 0.1 0.6")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, line, test.ShouldEqual, "0 0.3 0.4 0.4 0.4")

	// a single vertex collapses to a zero-size box
	line, err = SegToBBox("1 0.25 0.75")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, line, test.ShouldEqual, "1 0.25 0.75 0 0")
}

func TestConvertLines(t *testing.T) {
	anns, err := ConvertLines([]string{"0 0.1 0.2 0.5 0.6", "", "1 0.2 0.2 0.4 0.4"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, anns, test.ShouldHaveLength, 2)
	test.That(t, anns[1].Class, test.ShouldEqual, 1)

	_, err = ConvertLines([]string{"0 0.1 0.2 0.5 0.6", "1 0.2"})
	var fe *darknet.FormatError
	test.That(t, errors.As(err, &fe), test.ShouldBeTrue)
	test.That(t, fe.Line, test.ShouldEqual, 2)
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.txt")
	test.That(t, os.WriteFile(path, []byte("0 0.1 0.2 0.5 0.2 0.5 0.6 0.1 0.6\n1 0.25 0.75\n"), 0o644), test.ShouldBeNil)

	c := NewConverter(golog.NewTestLogger(t))
	test.That(t, c.ConvertFile(path), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "0 0.3 0.4 0.4 0.4\n1 0.25 0.75 0 0\n")

	// converted boxes are valid Darknet lines
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		_, err := darknet.ParseLine(line)
		test.That(t, err, test.ShouldBeNil)
	}
}

func TestConvertFileEmptyAndInvalid(t *testing.T) {
	dir := t.TempDir()
	c := NewConverter(golog.NewTestLogger(t))

	empty := filepath.Join(dir, "empty.txt")
	test.That(t, os.WriteFile(empty, nil, 0o644), test.ShouldBeNil)
	test.That(t, c.ConvertFile(empty), test.ShouldBeNil)
	data, err := os.ReadFile(empty)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, data, test.ShouldBeEmpty)

	bad := filepath.Join(dir, "bad.txt")
	content := "0 0.1 0.2 0.5\n"
	test.That(t, os.WriteFile(bad, []byte(content), 0o644), test.ShouldBeNil)
	test.That(t, c.ConvertFile(bad), test.ShouldNotBeNil)
	data, err = os.ReadFile(bad)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, content)

	test.That(t, c.ConvertFile(filepath.Join(dir, "missing.txt")), test.ShouldNotBeNil)
}
