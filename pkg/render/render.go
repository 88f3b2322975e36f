// Package render draws chart data as an area chart image and plays the
// renderer side of the chart event contract: it fires the mount and update
// hooks with its tooltip panel and forwards clicks by category position.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	annotationgraph "github.com/menta2k/annotation-graph"
	"github.com/menta2k/annotation-graph/internal/logger"
	"github.com/menta2k/annotation-graph/pkg/chart"
	"github.com/menta2k/annotation-graph/pkg/processing"
	"github.com/menta2k/annotation-graph/pkg/tooltip"
)

// ErrNoData is returned when there is no chart data to draw
var ErrNoData = errors.New("no chart data")

// NoHover disables the tooltip overlay
const NoHover = -1

// Series colors, in series order
var palette = []string{"008FFB", "00E396", "FEB019", "FF4560", "775DD0"}

const maxXTicks = 8

// Config holds the render settings
type Config struct {
	Width  int
	Height int // 0 uses the chart option height

	TooltipRows        int
	TooltipColumnWidth int

	Format   string
	Quality  int
	Lossless bool
}

// DefaultConfig returns the default render settings
func DefaultConfig() Config {
	return Config{
		Width:              1200,
		TooltipRows:        tooltip.DefaultRows,
		TooltipColumnWidth: tooltip.DefaultColumnWidth,
		Format:             "png",
		Quality:            90,
	}
}

// Renderer draws chart data. It holds on to the options it last mounted, so
// redrawing them fires the update hook and drawing any other options mounts
// them afresh.
type Renderer struct {
	config    Config
	logger    *log.Logger
	processor *processing.Processor

	mu      sync.Mutex
	mounted *chart.Options
	panel   *tooltipPanel
}

// New creates a Renderer. A nil logger discards output.
func New(config Config, l *log.Logger) *Renderer {
	if config.TooltipRows <= 0 {
		config.TooltipRows = tooltip.DefaultRows
	}
	if config.TooltipColumnWidth <= 0 {
		config.TooltipColumnWidth = tooltip.DefaultColumnWidth
	}
	if l == nil {
		l = logger.Discard()
	}
	return &Renderer{
		config:    config,
		logger:    l,
		processor: processing.NewProcessor(),
		panel:     &tooltipPanel{},
	}
}

// Render draws data without a tooltip
func (r *Renderer) Render(data *annotationgraph.ChartData) (image.Image, error) {
	return r.RenderHover(data, NoHover)
}

// RenderHover draws data with the tooltip panel open at category position
// hover. Positions outside the category range draw no tooltip.
func (r *Renderer) RenderHover(data *annotationgraph.ChartData, hover int) (image.Image, error) {
	if data == nil || data.Options == nil {
		return nil, ErrNoData
	}
	opts := data.Options
	categories := opts.XAxis.Categories
	if len(categories) == 0 || len(data.Series) == 0 {
		return nil, ErrNoData
	}

	width, height := r.size(opts)
	ch := gochart.Chart{
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: padding(opts)},
		XAxis:      xAxis(categories),
		YAxis:      gochart.YAxis{Range: &gochart.ContinuousRange{Min: 0, Max: yMax(data)}},
		Series:     chartSeries(data),
	}
	if opts.Legend.Show {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}

	var buf bytes.Buffer
	if err := ch.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode chart: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.notify(opts)
	if hover < 0 || hover >= len(categories) {
		return img, nil
	}

	r.logger.Debug("Drawing tooltip", "category", categories[hover], "width", r.panel.width)
	return r.panel.overlay(img, data, hover, plotX(opts, width, hover), r.config), nil
}

// notify fires the update hook when opts were the last options drawn and
// the mount hook otherwise.
func (r *Renderer) notify(opts *chart.Options) {
	hook := opts.Chart.Events.Updated
	if r.mounted != opts {
		hook = opts.Chart.Events.Mounted
		r.mounted = opts
	}
	if hook != nil {
		hook(r.panel)
	}
}

// TooltipWidth returns the width last applied to the tooltip panel
func (r *Renderer) TooltipWidth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.panel.width
}

// PointAt maps a horizontal pixel position to the position of the nearest
// category, or -1 when x lies outside the plot.
func (r *Renderer) PointAt(data *annotationgraph.ChartData, x int) int {
	if data == nil || data.Options == nil || len(data.Options.XAxis.Categories) == 0 {
		return -1
	}
	categories := data.Options.XAxis.Categories
	width, _ := r.size(data.Options)
	left, right := plotBounds(data.Options, width)
	if x < left || x > right {
		return -1
	}

	lo, hi := xRange(categories)
	value := lo + float64(x-left)/float64(right-left)*(hi-lo)
	best := 0
	for i, c := range categories {
		if math.Abs(float64(c)-value) < math.Abs(float64(categories[best])-value) {
			best = i
		}
	}
	return best
}

// Click forwards a click at pixel x to the chart click hook
func (r *Renderer) Click(data *annotationgraph.ChartData, x int) {
	if data == nil || data.Options == nil || data.Options.Chart.Events.Click == nil {
		return
	}
	data.Options.Chart.Events.Click(r.PointAt(data, x))
}

// Save writes img in the configured format
func (r *Renderer) Save(img image.Image, path string) error {
	if err := r.processor.SaveImage(img, path, r.config.Format, r.config.Quality, r.config.Lossless); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}
	r.logger.Info("Saved chart", "path", path)
	return nil
}

func (r *Renderer) size(opts *chart.Options) (int, int) {
	width := r.config.Width
	if width <= 0 {
		width = DefaultConfig().Width
	}
	height := r.config.Height
	if height <= 0 {
		height = opts.Chart.Height
	}
	if height <= 0 {
		height = chart.DefaultHeight
	}
	return width, height
}

// plotX is the pixel position of the category at pos
func plotX(opts *chart.Options, width, pos int) int {
	left, right := plotBounds(opts, width)
	lo, hi := xRange(opts.XAxis.Categories)
	c := float64(opts.XAxis.Categories[pos])
	return left + int((c-lo)/(hi-lo)*float64(right-left))
}

func plotBounds(opts *chart.Options, width int) (int, int) {
	pad := padding(opts)
	return pad.Left, width - pad.Right
}

func xRange(categories []int) (float64, float64) {
	lo, hi := float64(categories[0]), float64(categories[len(categories)-1])
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

const sparklinePadding = 8

func padding(opts *chart.Options) gochart.Box {
	if opts.Chart.Sparkline.Enabled {
		return gochart.Box{Top: sparklinePadding, Left: sparklinePadding, Right: sparklinePadding, Bottom: sparklinePadding}
	}
	return gochart.Box{Top: 14, Left: 16, Right: 12, Bottom: 32}
}

func seriesColor(i int) drawing.Color {
	return drawing.ColorFromHex(palette[i%len(palette)])
}

// chartSeries draws one filled series per tag. A single category is
// widened to a flat segment so the chart has a non-empty x range.
func chartSeries(data *annotationgraph.ChartData) []gochart.Series {
	categories := data.Options.XAxis.Categories
	out := make([]gochart.Series, 0, len(data.Series))
	for i, s := range data.Series {
		xs := make([]float64, 0, len(categories)+1)
		ys := make([]float64, 0, len(categories)+1)
		for j, c := range categories {
			xs = append(xs, float64(c))
			v := 0.0
			if j < len(s.Data) {
				v = float64(s.Data[j])
			}
			ys = append(ys, v)
		}
		if len(xs) == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}

		col := seriesColor(i)
		out = append(out, gochart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				FillColor:   col.WithAlpha(64),
			},
		})
	}
	return out
}

func xAxis(categories []int) gochart.XAxis {
	lo, hi := xRange(categories)

	step := max(1, (len(categories)+maxXTicks-1)/maxXTicks)
	ticks := make([]gochart.Tick, 0, maxXTicks+1)
	for i := 0; i < len(categories); i += step {
		ticks = append(ticks, gochart.Tick{Value: float64(categories[i]), Label: strconv.Itoa(categories[i])})
	}
	if len(ticks) == 1 {
		ticks = append(ticks, gochart.Tick{Value: hi, Label: ""})
	}
	return gochart.XAxis{Range: &gochart.ContinuousRange{Min: lo, Max: hi}, Ticks: ticks}
}

func yMax(data *annotationgraph.ChartData) float64 {
	peak := 1
	for _, s := range data.Series {
		for _, v := range s.Data {
			peak = max(peak, v)
		}
	}
	return float64(peak)
}
