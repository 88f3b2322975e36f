// Package presenter decides what the annotation graph view shows for an
// asset: the chart, or a placeholder message when there is nothing to draw.
package presenter

import (
	"fmt"

	"github.com/charmbracelet/log"

	annotationgraph "github.com/menta2k/annotation-graph"
	"github.com/menta2k/annotation-graph/internal/logger"
	"github.com/menta2k/annotation-graph/pkg/types"
)

// AssetType is the media kind of an asset
type AssetType string

// Known asset types
const (
	AssetVideo AssetType = "video"
	AssetImage AssetType = "image"
	AssetAudio AssetType = "audio"
)

// Asset is the media item whose annotations are shown
type Asset struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type AssetType `json:"type"`
}

// State is what the view displays
type State int

// View states
const (
	StateNoAsset State = iota
	StateUnsupported
	StateNoData
	StateReady
)

var stateNames = map[State]string{
	StateNoAsset:     "no_asset",
	StateUnsupported: "unsupported",
	StateNoData:      "no_data",
	StateReady:       "ready",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Placeholder messages
const (
	MessageNoAsset     = "Select an asset to see its annotations."
	MessageUnsupported = "The annotation graph is only available for video assets."
	MessageNoData      = "No annotations above the selected confidence yet."
)

// View is the presentation of one asset
type View struct {
	State   State                      `json:"state"`
	Message string                     `json:"message,omitempty"`
	Chart   *annotationgraph.ChartData `json:"chart,omitempty"`
}

// Presenter builds views from a Graph
type Presenter struct {
	graph  *annotationgraph.Graph
	logger *log.Logger
}

// New creates a Presenter. A nil logger discards output.
func New(graph *annotationgraph.Graph, l *log.Logger) *Presenter {
	if graph == nil {
		graph = annotationgraph.New()
	}
	if l == nil {
		l = logger.Discard()
	}
	return &Presenter{graph: graph, logger: l}
}

// Present returns the chart for a video asset, or a placeholder view when
// there is no asset, the asset is not a video, or there is nothing to chart.
func (p *Presenter) Present(asset *Asset, confidence float64, data *types.AnnotationData, universe *types.TagUniverse, onPointSelected func(int)) (*View, error) {
	switch {
	case asset == nil:
		return &View{State: StateNoAsset, Message: MessageNoAsset}, nil
	case asset.Type != AssetVideo:
		p.logger.Debug("Asset is not a video", "asset", asset.ID, "type", asset.Type)
		return &View{State: StateUnsupported, Message: MessageUnsupported}, nil
	}

	chartData, err := p.graph.Build(confidence, data, universe, onPointSelected)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart for asset %s: %w", asset.ID, err)
	}
	if chartData == nil || len(chartData.TooltipEnabledIndexes) == 0 {
		return &View{State: StateNoData, Message: MessageNoData, Chart: chartData}, nil
	}

	p.logger.Debug("Built chart", "asset", asset.ID, "series", len(chartData.Series), "frames", len(chartData.Options.XAxis.Categories))
	return &View{State: StateReady, Chart: chartData}, nil
}
