package prelabel

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are an object locator producing training labels.

Find every instance of these classes: %s.

Return JSON only:
{
  "objects": [
    {"label": "string", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ]
}

HARD RULES
- "label" must be exactly one of the listed classes. Ignore anything else.
- All coordinates are normalized to [0,1] (NOT pixels).
- x,y is the top-left corner of the box, w,h its width and height.
- Each box should tightly include one object. Do not merge neighbouring objects.
- If nothing is found, return {"objects": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// SimpleTestPrompt checks that the model receives the image at all
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// BuildPrompt returns the locating prompt for the given class names
func BuildPrompt(classes []string) string {
	quoted := make([]string, 0, len(classes))
	for _, c := range classes {
		if c = strings.TrimSpace(c); c != "" {
			quoted = append(quoted, fmt.Sprintf("%q", c))
		}
	}
	return fmt.Sprintf(promptTemplate, strings.Join(quoted, ", "))
}
