// Package filter selects detections by confidence.
package filter

import "github.com/menta2k/annotation-graph/pkg/types"

// ByConfidence returns the detections whose confidence is at least threshold.
// Order is preserved and the input slice is left untouched.
func ByConfidence(frames []types.Frame, threshold float64) []types.Frame {
	out := make([]types.Frame, 0, len(frames))
	for _, f := range frames {
		if f.Confidence >= threshold {
			out = append(out, f)
		}
	}
	return out
}
