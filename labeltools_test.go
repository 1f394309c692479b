package labeltools

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/menta2k/label-tools/internal/config"
	"github.com/menta2k/label-tools/pkg/llamacpp"
	"github.com/menta2k/label-tools/pkg/ollama"
	"github.com/menta2k/label-tools/pkg/render"
)

type stubClient struct {
	reply string
}

func (s *stubClient) SimpleQuery(ctx context.Context, model, prompt string, img []byte) (string, error) {
	return s.reply, nil
}

func (s *stubClient) Locate(ctx context.Context, model, prompt string, img []byte) (string, error) {
	return s.reply, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	test.That(t, os.MkdirAll(filepath.Dir(path), 0o755), test.ShouldBeNil)
	test.That(t, os.WriteFile(path, []byte(content), 0o644), test.ShouldBeNil)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	return string(data)
}

func writeImage(t *testing.T, path string) {
	t.Helper()
	test.That(t, os.MkdirAll(filepath.Dir(path), 0o755), test.ShouldBeNil)
	img := imaging.New(100, 100, color.NRGBA{64, 64, 64, 255})
	test.That(t, render.SaveImage(img, path, "png", 90, false), test.ShouldBeNil)
}

func newTools(t *testing.T, cfg *config.Config) *Tools {
	t.Helper()
	tools, err := New(golog.NewTestLogger(t), cfg)
	test.That(t, err, test.ShouldBeNil)
	return tools
}

func TestNew(t *testing.T) {
	tools := newTools(t, nil)
	test.That(t, tools.Config(), test.ShouldResemble, config.Default())

	cfg := config.Default()
	cfg.Merge.Workers = 0
	_, err := New(nil, cfg)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMergeDataset(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "train", "labels", "a.txt")
	b := filepath.Join(root, "valid", "labels", "b.txt")
	writeFile(t, a, "0 0.5 0.5 0.4 0.4\n0 0.7 0.7 0.2 0.2\n")
	writeFile(t, b, "\n")

	report, err := newTools(t, nil).MergeDataset(context.Background(), root)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Processed, test.ShouldEqual, int64(2))
	test.That(t, report.Failed, test.ShouldEqual, int64(0))
	test.That(t, readFile(t, a), test.ShouldEqual, "0 0.55 0.55 0.5 0.5\n")
	test.That(t, readFile(t, b), test.ShouldEqual, "\n")

	_, err = newTools(t, nil).MergeDataset(context.Background(), filepath.Join(root, "missing"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConvertDataset(t *testing.T) {
	root := t.TempDir()
	seg := filepath.Join(root, "train", "labels", "s.txt")
	writeFile(t, seg, "0 0.1 0.2 0.5 0.2 0.5 0.6 0.1 0.6\n")

	report, err := newTools(t, nil).ConvertDataset(context.Background(), root)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Processed, test.ShouldEqual, int64(1))
	test.That(t, readFile(t, seg), test.ShouldEqual, "0 0.3 0.4 0.4 0.4\n")
}

func TestRestructure(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "a.jpg"), "jpg")
	writeFile(t, filepath.Join(src, "a.txt"), "0 0.5 0.5 0.1 0.1\n")

	counts, err := newTools(t, nil).Restructure(src, dst, "train")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, counts.Images, test.ShouldEqual, 1)
	test.That(t, counts.Labels, test.ShouldEqual, 1)
}

func TestVisualize(t *testing.T) {
	dir := t.TempDir()
	imagePath := filepath.Join(dir, "img.png")
	labelPath := filepath.Join(dir, "img.txt")
	writeImage(t, imagePath)
	writeFile(t, labelPath, "0 0.5 0.5 0.4 0.4\n")

	cfg := config.Default()
	cfg.Render.Color = "#ff0000"
	tools := newTools(t, cfg)

	out := filepath.Join(dir, "out.png")
	test.That(t, tools.Visualize(imagePath, labelPath, out, false, []string{"car"}), test.ShouldBeNil)

	img, err := render.LoadImage(out)
	test.That(t, err, test.ShouldBeNil)
	edge := color.NRGBAModel.Convert(img.At(30, 50)).(color.NRGBA)
	test.That(t, edge.R, test.ShouldEqual, uint8(255))
	test.That(t, edge.G, test.ShouldEqual, uint8(0))
}

func TestVisionClient(t *testing.T) {
	tools := newTools(t, nil)
	vc, err := tools.VisionClient()
	test.That(t, err, test.ShouldBeNil)
	_, ok := vc.(*ollama.Client)
	test.That(t, ok, test.ShouldBeTrue)

	cfg := config.Default()
	cfg.Prelabel.Backend = "llamacpp"
	cfg.Prelabel.URL = "http://localhost:8080"
	vc, err = newTools(t, cfg).VisionClient()
	test.That(t, err, test.ShouldBeNil)
	_, ok = vc.(*llamacpp.Client)
	test.That(t, ok, test.ShouldBeTrue)
}

func TestClassNames(t *testing.T) {
	_, err := newTools(t, nil).ClassNames()
	test.That(t, err, test.ShouldNotBeNil)

	names := filepath.Join(t.TempDir(), "obj.names")
	writeFile(t, names, "car\nbus\n\n")
	cfg := config.Default()
	cfg.Prelabel.NamesFile = names
	classes, err := newTools(t, cfg).ClassNames()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, classes, test.ShouldResemble, []string{"car", "bus"})
}

func TestPrelabelDataset(t *testing.T) {
	root := t.TempDir()
	writeImage(t, filepath.Join(root, "train", "images", "a.png"))
	writeImage(t, filepath.Join(root, "valid", "images", "b.png"))

	cfg := config.Default()
	cfg.Prelabel.Classes = []string{"car"}
	vc := &stubClient{reply: `{"objects":[{"label":"car","confidence":0.9,"box":{"x":0.25,"y":0.25,"w":0.5,"h":0.5}}]}`}

	report, err := newTools(t, cfg).PrelabelDataset(context.Background(), vc, root)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Processed, test.ShouldEqual, int64(2))
	test.That(t, readFile(t, filepath.Join(root, "train", "labels", "a.txt")), test.ShouldEqual, "0 0.5 0.5 0.5 0.5\n")
	test.That(t, readFile(t, filepath.Join(root, "valid", "labels", "b.txt")), test.ShouldEqual, "0 0.5 0.5 0.5 0.5\n")
}
