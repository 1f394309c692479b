// Package types holds the annotation records shared by the label tools.
package types

// Box represents a normalized bounding box in Darknet center format.
// Coordinates are relative to the image size and expected in [0,1].
type Box struct {
	XCenter float64 `json:"x_center"`
	YCenter float64 `json:"y_center"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Annotation is a single object record from a Darknet label file
type Annotation struct {
	Class int `json:"class"`
	Box   Box `json:"box"`
}

// Corners is a box in corner format (top-left, bottom-right)
type Corners struct {
	Class int     `json:"class"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
}

// Point is a normalized polygon vertex
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is a YOLOv8 segmentation record
type Polygon struct {
	Class  int     `json:"class"`
	Points []Point `json:"points"`
}

// RestructureCounts reports how many files were copied into the YOLOv8 layout
type RestructureCounts struct {
	Images int `json:"images"`
	Labels int `json:"labels"`
	Names  int `json:"names"`
}

// Rect is a normalized box given by its top-left corner and size
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Detection is an object located by a vision model
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Rect    `json:"box"`
}

// DetectionResult is the JSON document the pre-labelling prompt asks for
type DetectionResult struct {
	Objects []Detection `json:"objects"`
}
