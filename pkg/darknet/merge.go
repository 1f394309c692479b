package darknet

import (
	"bufio"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/menta2k/label-tools/pkg/types"
)

// Merger accumulates boxes of a single class into their enclosing box.
// The zero value is ready to use.
type Merger struct {
	count int
	box   types.Corners
}

// Add folds one annotation into the running enclosing box.
// line is only used for error reporting.
func (m *Merger) Add(a types.Annotation, line int) error {
	c := Corners(a)
	if m.count == 0 {
		m.box = c
		m.count++
		return nil
	}
	if c.Class != m.box.Class {
		return &ClassMismatchError{Want: m.box.Class, Got: c.Class, Line: line}
	}
	m.box.X1 = math.Min(m.box.X1, c.X1)
	m.box.Y1 = math.Min(m.box.Y1, c.Y1)
	m.box.X2 = math.Max(m.box.X2, c.X2)
	m.box.Y2 = math.Max(m.box.Y2, c.Y2)
	m.count++
	return nil
}

// Count returns the number of boxes merged so far
func (m *Merger) Count() int {
	return m.count
}

// Result returns the merged corners, or EmptyFileError if nothing was added
func (m *Merger) Result() (types.Corners, error) {
	if m.count == 0 {
		return types.Corners{}, &EmptyFileError{}
	}
	return m.box, nil
}

// MergeLines merges every annotation line into a single enclosing box.
// Blank lines are skipped; any malformed line aborts the merge.
func MergeLines(lines []string) (types.Corners, error) {
	var m Merger
	for i, line := range lines {
		if err := m.addLine(line, i+1); err != nil {
			return types.Corners{}, err
		}
	}
	return m.Result()
}

// MergeReader is MergeLines over the lines of r
func MergeReader(r io.Reader) (types.Corners, error) {
	var m Merger
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		if err := m.addLine(scanner.Text(), n); err != nil {
			return types.Corners{}, err
		}
	}
	if err := scanner.Err(); err != nil {
		return types.Corners{}, errors.Wrap(err, "failed to read annotations")
	}
	return m.Result()
}

// MergeFile merges all boxes in the annotation file at path
func MergeFile(path string) (types.Corners, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Corners{}, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	c, err := MergeReader(f)
	if err != nil {
		return types.Corners{}, errors.WithMessage(err, path)
	}
	return c, nil
}

func (m *Merger) addLine(line string, n int) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	a, err := ParseLine(line)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Line = n
		}
		return err
	}
	return m.Add(a, n)
}
