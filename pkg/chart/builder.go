// Package chart assembles the renderer configuration for a tag frequency chart.
package chart

import (
	"strconv"

	"github.com/menta2k/annotation-graph/pkg/tooltip"
	"github.com/menta2k/annotation-graph/pkg/types"
)

// Fixed presentation values
const (
	TypeArea      = "area"
	CurveSmooth   = "smooth"
	AxisNumeric   = "numeric"
	ThemeDark     = "dark"
	DefaultHeight = 350
)

// Config holds the adjustable parts of the chart configuration
type Config struct {
	Height             int
	Theme              string
	TooltipRows        int
	TooltipColumnWidth int
}

// Builder creates chart options
type Builder struct {
	config Config
}

// New creates a Builder with default configuration
func New() *Builder {
	return &Builder{
		config: Config{
			Height:             DefaultHeight,
			Theme:              ThemeDark,
			TooltipRows:        tooltip.DefaultRows,
			TooltipColumnWidth: tooltip.DefaultColumnWidth,
		},
	}
}

// NewWithConfig creates a Builder with custom configuration. Zero or
// negative sizes and an empty theme fall back to the defaults.
func NewWithConfig(config Config) *Builder {
	if config.Height <= 0 {
		config.Height = DefaultHeight
	}
	if config.Theme == "" {
		config.Theme = ThemeDark
	}
	if config.TooltipRows <= 0 {
		config.TooltipRows = tooltip.DefaultRows
	}
	if config.TooltipColumnWidth <= 0 {
		config.TooltipColumnWidth = tooltip.DefaultColumnWidth
	}
	return &Builder{config: config}
}

// Build returns options whose categories are the frame indexes of data in
// iteration order. Clicks are reported to onPointSelected by category
// position, and only the enabled series show in the tooltip.
func (b *Builder) Build(data *types.AnnotationData, enabled []int, onPointSelected func(int)) *Options {
	var categories []int
	if data != nil {
		categories = data.Frames.Indexes()
	} else {
		categories = []int{}
	}
	enabled = append([]int{}, enabled...)
	resize := b.tooltipResizer(len(enabled))

	return &Options{
		Chart: Chart{
			Height:     b.config.Height,
			Type:       TypeArea,
			Toolbar:    Visibility{Show: false},
			Animations: Switch{Enabled: false},
			Sparkline:  Switch{Enabled: true},
			Events: Events{
				Click:   clickHandler(len(categories), onPointSelected),
				Mounted: resize,
				Updated: resize,
			},
		},
		DataLabels: Switch{Enabled: false},
		Stroke:     Stroke{Curve: CurveSmooth},
		XAxis: XAxis{
			Type:       AxisNumeric,
			Categories: categories,
		},
		Tooltip: Tooltip{
			Theme:           b.config.Theme,
			X:               TooltipX{Formatter: FormatSeconds},
			EnabledOnSeries: enabled,
		},
		Legend: Visibility{Show: false},
	}
}

// TooltipWidth returns the tooltip panel width for a number of enabled series
func (b *Builder) TooltipWidth(enabled int) int {
	return tooltip.Width(enabled, b.config.TooltipRows, b.config.TooltipColumnWidth)
}

// ResizeTooltip sets surface to the width needed for the enabled series
func (b *Builder) ResizeTooltip(surface TooltipSurface, enabled int) {
	if surface == nil {
		return
	}
	surface.SetWidth(b.TooltipWidth(enabled))
}

func (b *Builder) tooltipResizer(enabled int) func(TooltipSurface) {
	return func(surface TooltipSurface) {
		b.ResizeTooltip(surface, enabled)
	}
}

// clickHandler ignores positions outside the category range; the renderer
// reports -1 when a click misses every point.
func clickHandler(categories int, onPointSelected func(int)) func(int) {
	return func(dataPointIndex int) {
		if onPointSelected == nil || dataPointIndex < 0 || dataPointIndex >= categories {
			return
		}
		onPointSelected(dataPointIndex)
	}
}

// FormatSeconds renders a millisecond value as seconds with three decimals
func FormatSeconds(ms float64) string {
	return strconv.FormatFloat(ms/1000, 'f', 3, 64)
}
