package types

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Detection is one object reported by a vision model
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// DetectionResult is the parsed answer of a vision model for one image
type DetectionResult struct {
	Objects     []Detection `json:"objects"`
	Description string      `json:"description"`
}

// Tag is a detection category. Name is the aggregation key, ID is informational.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Frame is one detected object instance at a frame index
type Frame struct {
	Confidence float64 `json:"confidence"`
	Tag        Tag     `json:"tag"`
	Box        Box     `json:"box"`
}

// AnnotationData holds every detection of a video keyed by frame index
type AnnotationData struct {
	FPS    float64 `json:"fps"`
	Frames *Frames `json:"frames"`
}

// Empty reports whether there is nothing to aggregate
func (a *AnnotationData) Empty() bool {
	return a == nil || a.Frames.Len() == 0
}

// Series is the per-frame count sequence for one tag
type Series struct {
	Name string `json:"name"`
	Data []int  `json:"data"`
}
