// Package annotationgraph turns per-frame object detections into a
// confidence-filtered tag frequency chart.
//
// Basic usage:
//
//	package main
//
//	import (
//		"fmt"
//		"log"
//
//		annotationgraph "github.com/menta2k/annotation-graph"
//		"github.com/menta2k/annotation-graph/pkg/types"
//	)
//
//	func main() {
//		frames := types.NewFrames()
//		frames.Set(0, []types.Frame{{Confidence: 0.9, Tag: types.Tag{ID: 1, Name: "cat"}}})
//		frames.Set(1, []types.Frame{{Confidence: 0.4, Tag: types.Tag{ID: 2, Name: "dog"}}})
//
//		tags := types.NewTagUniverse(types.Tag{ID: 1, Name: "cat"}, types.Tag{ID: 2, Name: "dog"})
//
//		data, err := annotationgraph.New().Build(0.5, &types.AnnotationData{FPS: 30, Frames: frames}, tags,
//			func(i int) { fmt.Println("selected", i) })
//		if err != nil {
//			log.Fatal(err)
//		}
//		for _, s := range data.Series {
//			fmt.Println(s.Name, s.Data)
//		}
//	}
//
// The pipeline runs in five steps, each in its own package:
//
//  1. filter (pkg/filter): keeps detections at or above the confidence threshold
//  2. frequency (pkg/frequency): counts detections per known tag and frame index
//  3. series (pkg/series): ranks tags by total count, ties in tag universe order
//  4. tooltip (pkg/tooltip): marks series with any non-zero value as hoverable
//  5. chart (pkg/chart): builds the renderer configuration and sizing callbacks
//
// Build is pure: identical inputs give identical output, and a Graph may be
// shared between goroutines.
package annotationgraph

import (
	"fmt"

	"github.com/menta2k/annotation-graph/pkg/chart"
	"github.com/menta2k/annotation-graph/pkg/frequency"
	"github.com/menta2k/annotation-graph/pkg/series"
	"github.com/menta2k/annotation-graph/pkg/tooltip"
	"github.com/menta2k/annotation-graph/pkg/types"
)

// Version of the annotation graph library
const Version = "1.0.0"

// ChartData is everything a renderer needs to draw the frequency chart
type ChartData struct {
	Series                []types.Series `json:"series"`
	Options               *chart.Options `json:"options"`
	TooltipEnabledIndexes []int          `json:"tooltipEnabledSeriesIndexes"`
}

// Graph runs the aggregation pipeline
type Graph struct {
	builder *chart.Builder
}

// New creates a Graph with default chart configuration
func New() *Graph {
	return &Graph{builder: chart.New()}
}

// NewWithConfig creates a Graph with custom chart configuration
func NewWithConfig(chartConfig chart.Config) *Graph {
	return &Graph{builder: chart.NewWithConfig(chartConfig)}
}

// Build computes chart data for detections at or above confidence.
//
// It returns nil data and a nil error when there is nothing to chart: no
// annotation data, no frames, or no known tags. Frame indexes must be
// strictly ascending. The confidence range is not checked.
func (g *Graph) Build(confidence float64, data *types.AnnotationData, universe *types.TagUniverse, onPointSelected func(int)) (*ChartData, error) {
	if data.Empty() || universe.Len() == 0 {
		return nil, nil
	}
	if err := data.Frames.Validate(); err != nil {
		return nil, fmt.Errorf("invalid annotation data: %w", err)
	}

	sorted := series.SortByTotal(frequency.Aggregate(data, universe, confidence))
	enabled := tooltip.EnabledIndexes(sorted)

	return &ChartData{
		Series:                sorted,
		Options:               g.builder.Build(data, enabled, onPointSelected),
		TooltipEnabledIndexes: enabled,
	}, nil
}

// TooltipWidth returns the tooltip panel width for a number of enabled series
func (g *Graph) TooltipWidth(enabled int) int {
	return g.builder.TooltipWidth(enabled)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
