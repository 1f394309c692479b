package utils

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestFileKinds(t *testing.T) {
	test.That(t, GetFileExtension("a/b/photo.JPG"), test.ShouldEqual, "jpg")
	test.That(t, GetFileExtension("noext"), test.ShouldEqual, "")
	test.That(t, IsImageFile("x.webp"), test.ShouldBeTrue)
	test.That(t, IsImageFile("x.txt"), test.ShouldBeFalse)
	test.That(t, IsLabelFile("x.TXT"), test.ShouldBeTrue)
	test.That(t, IsNamesFile("obj.names"), test.ShouldBeTrue)
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "c.jpg"} {
		test.That(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644), test.ShouldBeNil)
	}
	test.That(t, os.Mkdir(filepath.Join(dir, "d.txt"), 0o755), test.ShouldBeNil)

	files, err := ListFiles(dir, IsLabelFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, files, test.ShouldResemble, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")})

	_, err = ListFiles(filepath.Join(dir, "missing"), IsLabelFile)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGenerateOutputFilename(t *testing.T) {
	test.That(t, GenerateOutputFilename("in/photo.jpg", "out", "", "_boxes", "png"), test.ShouldEqual,
		filepath.Join("out", "photo_boxes.png"))
	test.That(t, GenerateOutputFilename("in/photo.webp", "out", "x_", "", ""), test.ShouldEqual,
		filepath.Join("out", "x_photo.webp"))
	test.That(t, GenerateOutputFilename("in/photo", "out", "", "", ""), test.ShouldEqual,
		filepath.Join("out", "photo.png"))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "label.txt")
	test.That(t, os.WriteFile(path, []byte("old"), 0o600), test.ShouldBeNil)

	test.That(t, WriteFileAtomic(path, []byte("new\n")), test.ShouldBeNil)
	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "new\n")

	info, err := os.Stat(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Mode().Perm(), test.ShouldEqual, os.FileMode(0o600))

	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, entries, test.ShouldHaveLength, 1)

	fresh := filepath.Join(dir, "fresh.txt")
	test.That(t, WriteFileAtomic(fresh, []byte("x")), test.ShouldBeNil)
	test.That(t, FileExists(fresh), test.ShouldBeTrue)

	err = WriteFileAtomic(filepath.Join(dir, "missing", "x.txt"), []byte("x"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	test.That(t, os.WriteFile(src, []byte("pixels"), 0o644), test.ShouldBeNil)

	test.That(t, CopyFile(src, dst), test.ShouldBeNil)
	data, err := os.ReadFile(dst)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "pixels")
	test.That(t, FileExists(src), test.ShouldBeTrue)

	test.That(t, CopyFile(filepath.Join(dir, "nope"), dst), test.ShouldNotBeNil)
}

func TestLoadClassNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obj.names")
	test.That(t, os.WriteFile(path, []byte("car\n\nbus \n\n\n"), 0o644), test.ShouldBeNil)

	names, err := LoadClassNames(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, names, test.ShouldResemble, []string{"car", "", "bus"})

	_, err = LoadClassNames(path + ".missing")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDirs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	test.That(t, DirExists(dir), test.ShouldBeFalse)
	test.That(t, EnsureDir(dir), test.ShouldBeNil)
	test.That(t, DirExists(dir), test.ShouldBeTrue)
	test.That(t, FileExists(dir), test.ShouldBeFalse)
	test.That(t, EnsureDir(dir), test.ShouldBeNil)
}
