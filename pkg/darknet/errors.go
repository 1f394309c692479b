package darknet

import (
	"fmt"
)

// FormatError reports a malformed annotation line
type FormatError struct {
	Line   int // 1-based line number, 0 when unknown
	Text   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s (%q)", e.Line, msg, e.Text)
	}
	return fmt.Sprintf("%s (%q)", msg, e.Text)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// GeometryError reports corners with x2 < x1 or y2 < y1
type GeometryError struct {
	Corners [4]float64
}

func (e *GeometryError) Error() string {
	c := e.Corners
	return fmt.Sprintf("invalid corners: x2 < x1 or y2 < y1 (%v,%v,%v,%v)", c[0], c[1], c[2], c[3])
}

// ClassMismatchError is returned when a file being merged mixes class ids
type ClassMismatchError struct {
	Want int
	Got  int
	Line int
}

func (e *ClassMismatchError) Error() string {
	return fmt.Sprintf("multiple classes found: line %d has class %d, expected %d", e.Line, e.Got, e.Want)
}

// EmptyFileError is returned when there are no boxes to merge
type EmptyFileError struct{}

func (e *EmptyFileError) Error() string {
	return "no bounding boxes found"
}
