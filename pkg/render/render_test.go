package render

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/menta2k/label-tools/pkg/types"
)

var gray = color.NRGBA{128, 128, 128, 255}

func createTestImage(width, height int) image.Image {
	return imaging.New(width, height, gray)
}

func pixel(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestBoxToPixels(t *testing.T) {
	r := BoxToPixels(types.Box{XCenter: 0.5, YCenter: 0.5, Width: 0.4, Height: 0.4}, 100, 100)
	test.That(t, r, test.ShouldResemble, image.Rect(30, 30, 70, 70))

	// boxes leaking past the border are clamped
	r = BoxToPixels(types.Box{XCenter: 0.05, YCenter: 0.95, Width: 0.3, Height: 0.3}, 100, 100)
	test.That(t, r, test.ShouldResemble, image.Rect(0, 80, 20, 99))
}

func TestParseBoxes(t *testing.T) {
	anns := ParseBoxes([]string{
		"0 0.5 0.5 0.4 0.4",
		"1 0.5 0.5",
		"x 0.5 0.5 0.4 0.4",
		"2 0.1 0.2 0.3 nope",
		"3 0.1 0.2 0.3 0.4 0.99",
	})
	test.That(t, anns, test.ShouldHaveLength, 2)
	test.That(t, anns[0].Class, test.ShouldEqual, 0)
	test.That(t, anns[1].Class, test.ShouldEqual, 3)
	test.That(t, anns[1].Box.Height, test.ShouldEqual, 0.4)
}

func TestParsePolygons(t *testing.T) {
	polys := ParsePolygons([]string{
		"0 0.1 0.2 0.5 0.2 0.5 0.6",
		"1 0.1 0.2 0.3",
		"2",
		"3 0.1 x",
	})
	test.That(t, polys, test.ShouldHaveLength, 1)
	test.That(t, polys[0].Points, test.ShouldResemble, []types.Point{{X: 0.1, Y: 0.2}, {X: 0.5, Y: 0.2}, {X: 0.5, Y: 0.6}})
}

func TestDrawBoxes(t *testing.T) {
	img := createTestImage(100, 100)
	anns := ParseBoxes([]string{"0 0.5 0.5 0.4 0.4"})

	out := DrawBoxes(img, anns, []string{"car"}, DefaultOptions())
	test.That(t, out.Bounds(), test.ShouldResemble, img.Bounds())

	// left edge of the box
	edge := pixel(out, 30, 50)
	test.That(t, edge.G, test.ShouldEqual, uint8(255))
	test.That(t, edge.R, test.ShouldEqual, uint8(0))

	// inside and far outside are untouched
	test.That(t, pixel(out, 50, 50), test.ShouldResemble, gray)
	test.That(t, pixel(out, 90, 90), test.ShouldResemble, gray)

	// the source image is not modified
	test.That(t, pixel(img, 30, 50), test.ShouldResemble, gray)
}

func TestDrawPolygons(t *testing.T) {
	img := createTestImage(100, 100)
	polys := ParsePolygons([]string{"0 0.2 0.2 0.8 0.2 0.8 0.8 0.2 0.8"})

	out := DrawPolygons(img, polys, nil, DefaultOptions())
	inside := pixel(out, 50, 50)
	test.That(t, inside.G, test.ShouldBeGreaterThan, gray.G)
	test.That(t, inside.R, test.ShouldBeLessThan, gray.R)
	test.That(t, pixel(out, 95, 95), test.ShouldResemble, gray)

	opts := DefaultOptions()
	opts.FillAlpha = 0
	out = DrawPolygons(img, polys, nil, opts)
	test.That(t, pixel(out, 50, 50), test.ShouldResemble, gray)
}

func TestClassName(t *testing.T) {
	test.That(t, className([]string{"car", "bus"}, 1), test.ShouldEqual, "bus")
	test.That(t, className([]string{"car"}, 4), test.ShouldEqual, "4")
	test.That(t, className(nil, 0), test.ShouldEqual, "0")
}

func TestSaveAndLoadImage(t *testing.T) {
	dir := t.TempDir()
	img := createTestImage(40, 20)

	for _, format := range []string{"png", "jpg"} {
		path := filepath.Join(dir, "out."+format)
		test.That(t, SaveImage(img, path, format, 90, false), test.ShouldBeNil)

		loaded, err := LoadImage(path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, loaded.Bounds().Dx(), test.ShouldEqual, 40)
		test.That(t, loaded.Bounds().Dy(), test.ShouldEqual, 20)
	}

	err := SaveImage(img, filepath.Join(dir, "out.tiff"), "tiff", 90, false)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = LoadImage(filepath.Join(dir, "missing.png"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestVisualizer(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "img.png")
	labelPath := filepath.Join(dir, "img.txt")
	segPath := filepath.Join(dir, "seg.txt")
	test.That(t, SaveImage(createTestImage(100, 100), imagePath, "png", 90, false), test.ShouldBeNil)
	test.That(t, os.WriteFile(labelPath, []byte("0 0.5 0.5 0.4 0.4\n\n"), 0o644), test.ShouldBeNil)
	test.That(t, os.WriteFile(segPath, []byte("0 0.2 0.2 0.8 0.2 0.8 0.8\n"), 0o644), test.ShouldBeNil)

	v := NewVisualizer(golog.NewTestLogger(t), DefaultOptions(), "", 90, false)
	v.SetClassNames([]string{"car"})

	out := filepath.Join(dir, "out", "boxes.png")
	test.That(t, v.Boxes(imagePath, labelPath, out), test.ShouldBeNil)
	drawn, err := LoadImage(out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pixel(drawn, 30, 50).G, test.ShouldEqual, uint8(255))

	test.That(t, v.Polygons(imagePath, segPath, filepath.Join(dir, "out", "seg.png")), test.ShouldBeNil)

	err = v.Boxes(imagePath, filepath.Join(dir, "missing.txt"), out)
	test.That(t, errors.Is(err, os.ErrNotExist), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "label file not found")

	err = v.Boxes(filepath.Join(dir, "missing.png"), labelPath, out)
	test.That(t, errors.Is(err, os.ErrNotExist), test.ShouldBeTrue)
}
