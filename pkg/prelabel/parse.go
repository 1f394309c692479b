package prelabel

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/menta2k/label-tools/pkg/darknet"
	"github.com/menta2k/label-tools/pkg/types"
)

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInline       = regexp.MustCompile(`(?m)//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseResult decodes a model answer into a DetectionResult
func ParseResult(raw string) (*types.DetectionResult, error) {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, errors.New("no json found in model response")
	}

	var result types.DetectionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// models also answer with unquoted keys
		result = types.DetectionResult{}
		if err5 := json5.Unmarshal([]byte(raw), &result); err5 != nil {
			return nil, errors.Wrap(err, "failed to parse model response")
		}
	}
	return &result, nil
}

// sanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reInline.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

// ClassIndex maps a detection label to its class id, ignoring case and
// surrounding spaces. Numeric labels are accepted as ids.
func ClassIndex(classes []string, label string) (int, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	for i, c := range classes {
		if strings.ToLower(strings.TrimSpace(c)) == label {
			return i, true
		}
	}
	if id, err := strconv.Atoi(label); err == nil && id >= 0 && id < len(classes) {
		return id, true
	}
	return -1, false
}

// ToAnnotations converts located objects into Darknet annotations. Objects
// with an unknown label, a confidence below minConfidence or no area left
// after clamping to the image are dropped. imgW and imgH are the size of the
// image the model saw, used when it answers in pixels.
func ToAnnotations(result *types.DetectionResult, classes []string, minConfidence float64, imgW, imgH int) []types.Annotation {
	if result == nil {
		return nil
	}

	var out []types.Annotation
	for _, obj := range result.Objects {
		class, ok := ClassIndex(classes, obj.Label)
		if !ok || obj.Confidence < minConfidence {
			continue
		}

		r := normalizeRect(obj.Box, imgW, imgH)
		ann, err := darknet.ToCenter(types.Corners{
			Class: class,
			X1:    r.X,
			Y1:    r.Y,
			X2:    clamp(r.X+r.W, 0, 1),
			Y2:    clamp(r.Y+r.H, 0, 1),
		})
		if err != nil || ann.Box.Width == 0 || ann.Box.Height == 0 {
			continue
		}
		out = append(out, ann)
	}
	return out
}

// normalizeRect ensures box coordinates are within [0,1] bounds
func normalizeRect(b types.Rect, imgW, imgH int) types.Rect {
	// Convert from pixel coordinates if needed
	if imgW > 0 && imgH > 0 && (b.X > 1 || b.Y > 1 || b.W > 1 || b.H > 1) {
		b = types.Rect{
			X: b.X / float64(imgW),
			Y: b.Y / float64(imgH),
			W: b.W / float64(imgW),
			H: b.H / float64(imgH),
		}
	}
	return types.Rect{
		X: clamp(b.X, 0, 1),
		Y: clamp(b.Y, 0, 1),
		W: clamp(b.W, 0, 1),
		H: clamp(b.H, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
