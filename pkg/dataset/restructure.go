package dataset

import (
	"os"
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/menta2k/label-tools/internal/utils"
	"github.com/menta2k/label-tools/pkg/types"
)

// restructureImageExts are the image types copied out of a Darkmark folder
var restructureImageExts = map[string]bool{"jpg": true, "jpeg": true, "png": true}

// Restructure copies a flat Darkmark folder into the YOLOv8 layout under dst:
// images to <dst>/<split>/images, .txt labels to <dst>/<split>/labels and
// .names files to <dst>/<split>. Other files are ignored.
func Restructure(logger golog.Logger, src, dst, split string) (types.RestructureCounts, error) {
	var counts types.RestructureCounts

	if split == "" {
		return counts, errors.New("split must not be empty")
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return counts, errors.Wrapf(err, "failed to read Darkmark folder %s", src)
	}

	splitDir := filepath.Join(dst, split)
	for _, dir := range []string{ImagesDir(dst, split), LabelsDir(dst, split)} {
		if err := utils.EnsureDir(dir); err != nil {
			return counts, errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	logger.Infow("created YOLOv8 folder structure", "dir", splitDir)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		from := filepath.Join(src, name)

		var (
			to    string
			count *int
		)
		switch ext := utils.GetFileExtension(name); {
		case restructureImageExts[ext]:
			to, count = filepath.Join(ImagesDir(dst, split), name), &counts.Images
		case utils.IsLabelFile(name):
			to, count = filepath.Join(LabelsDir(dst, split), name), &counts.Labels
		case utils.IsNamesFile(name):
			to, count = filepath.Join(splitDir, name), &counts.Names
		default:
			continue
		}

		if err := utils.CopyFile(from, to); err != nil {
			return counts, errors.Wrapf(err, "failed to copy %s", name)
		}
		*count++
		if count == &counts.Names {
			logger.Infow("copied names file", "file", name, "dir", splitDir)
		}
	}

	logger.Infow("restructure finished", "images", counts.Images, "labels", counts.Labels, "dir", splitDir)
	return counts, nil
}
