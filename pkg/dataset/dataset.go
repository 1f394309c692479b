// Package dataset walks YOLOv8 dataset folders and applies label operations
// to every file, one worker per file.
//
// The expected layout is
//
//	root/
//	    train/{images,labels}/
//	    valid/{images,labels}/
//	    test/{images,labels}/
package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/menta2k/label-tools/internal/utils"
)

// Splits are the split folders of a YOLOv8 dataset, in processing order
var Splits = []string{"train", "valid", "test"}

const (
	imagesDir = "images"
	labelsDir = "labels"
)

// LabelsDir returns <root>/<split>/labels
func LabelsDir(root, split string) string {
	return filepath.Join(root, split, labelsDir)
}

// ImagesDir returns <root>/<split>/images
func ImagesDir(root, split string) string {
	return filepath.Join(root, split, imagesDir)
}

// LabelFiles lists the .txt label files of every split under root.
// Splits that do not exist are logged and skipped.
func LabelFiles(logger golog.Logger, root string, splits []string) ([]string, error) {
	if !utils.DirExists(root) {
		return nil, errors.Errorf("dataset folder %s does not exist", root)
	}

	var files []string
	for _, split := range splits {
		if !utils.DirExists(filepath.Join(root, split)) {
			logger.Infow("split folder does not exist, skipping", "split", split, "root", root)
			continue
		}
		dir := LabelsDir(root, split)
		found, err := utils.ListFiles(dir, utils.IsLabelFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list labels in %s", dir)
		}
		logger.Debugw("found label files", "dir", dir, "count", len(found))
		files = append(files, found...)
	}
	return files, nil
}

// SampleFiles returns the index-th label file of a split (sorted by name) and
// the path of its .jpg image
func SampleFiles(root, split string, index int) (imagePath, labelPath string, err error) {
	labels, err := utils.ListFiles(LabelsDir(root, split), utils.IsLabelFile)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to list labels")
	}
	if index < 0 || index >= len(labels) {
		return "", "", errors.Errorf("sample index %d out of range, %s has %d labels", index, split, len(labels))
	}

	labelPath = labels[index]
	base := strings.TrimSuffix(filepath.Base(labelPath), filepath.Ext(labelPath))
	imagePath = filepath.Join(ImagesDir(root, split), base+".jpg")
	return imagePath, labelPath, nil
}

// ImageForLabel finds the image that belongs to a label file in the sibling
// images folder, trying the known image extensions
func ImageForLabel(labelPath string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(labelPath), filepath.Ext(labelPath))
	dir := filepath.Join(filepath.Dir(filepath.Dir(labelPath)), imagesDir)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp", ".bmp"} {
		p := filepath.Join(dir, base+ext)
		if utils.FileExists(p) {
			return p, nil
		}
	}
	return "", errors.Wrapf(os.ErrNotExist, "no image for %s in %s", filepath.Base(labelPath), dir)
}

// LabelForImage returns where the label file of an image lives: the sibling
// labels folder when the image sits in an images folder, else next to it
func LabelForImage(imagePath string) string {
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath)) + ".txt"
	dir := filepath.Dir(imagePath)
	if filepath.Base(dir) == imagesDir {
		return filepath.Join(filepath.Dir(dir), labelsDir, base)
	}
	return filepath.Join(dir, base)
}

// ImageFiles lists the images of every split under root
func ImageFiles(logger golog.Logger, root string, splits []string) ([]string, error) {
	if !utils.DirExists(root) {
		return nil, errors.Errorf("dataset folder %s does not exist", root)
	}

	var files []string
	for _, split := range splits {
		dir := ImagesDir(root, split)
		if !utils.DirExists(dir) {
			logger.Infow("images folder does not exist, skipping", "split", split, "root", root)
			continue
		}
		found, err := utils.ListFiles(dir, utils.IsImageFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list images in %s", dir)
		}
		files = append(files, found...)
	}
	return files, nil
}
