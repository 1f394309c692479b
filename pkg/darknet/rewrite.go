package darknet

import (
	"os"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/menta2k/label-tools/internal/utils"
)

// Rewriter replaces annotation files with their merged box
type Rewriter struct {
	logger golog.Logger
}

// NewRewriter creates a Rewriter. A nil logger falls back to the global one.
func NewRewriter(logger golog.Logger) *Rewriter {
	if logger == nil {
		logger = golog.Global()
	}
	return &Rewriter{logger: logger}
}

// OverwriteWithMergedBox replaces the content of the annotation file at path
// with a single line holding the merged box of all its lines.
//
// A file that is empty or whitespace-only is left untouched. The new content
// is written to a temporary file and renamed over path.
func (r *Rewriter) OverwriteWithMergedBox(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return path, errors.Wrapf(err, "failed to read %s", path)
	}

	content := string(data)
	if strings.TrimSpace(content) == "" {
		r.logger.Debugw("file is empty, skipping", "path", path)
		return path, nil
	}

	corners, err := MergeLines(strings.Split(content, "\n"))
	if err != nil {
		return path, errors.WithMessage(err, path)
	}
	merged, err := ToCenter(corners)
	if err != nil {
		return path, errors.WithMessage(err, path)
	}

	if err := utils.WriteFileAtomic(path, []byte(FormatLine(merged)+"\n")); err != nil {
		return path, err
	}
	r.logger.Debugw("overwritten with merged bbox", "path", path, "box", FormatLine(merged))
	return path, nil
}

// OverwriteWithMergedBox uses a Rewriter with the global logger
func OverwriteWithMergedBox(path string) (string, error) {
	return NewRewriter(nil).OverwriteWithMergedBox(path)
}
