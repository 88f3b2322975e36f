package render

import (
	"image"
	"image/color"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	annotationgraph "github.com/menta2k/annotation-graph"
	"github.com/menta2k/annotation-graph/pkg/chart"
	"github.com/menta2k/annotation-graph/pkg/tooltip"
)

const (
	panelPad    = 6
	panelLine   = 16
	panelSwatch = 8
	panelOffset = 12
)

// tooltipPanel is the hover panel. Its width is set by the chart's mount
// and update hooks.
type tooltipPanel struct {
	width int
}

// SetWidth implements chart.TooltipSurface
func (p *tooltipPanel) SetWidth(px int) {
	p.width = px
}

type panelEntry struct {
	name  string
	value int
	color color.NRGBA
}

type panelTheme struct {
	background color.NRGBA
	text       color.NRGBA
}

func themeFor(name string) panelTheme {
	if name == chart.ThemeDark {
		return panelTheme{background: color.NRGBA{30, 30, 30, 230}, text: color.NRGBA{255, 255, 255, 255}}
	}
	return panelTheme{background: color.NRGBA{255, 255, 255, 235}, text: color.NRGBA{33, 33, 33, 255}}
}

// entries lists the tooltip-enabled series and their value at hover
func entries(data *annotationgraph.ChartData, hover int) []panelEntry {
	out := make([]panelEntry, 0, len(data.Options.Tooltip.EnabledOnSeries))
	for _, idx := range data.Options.Tooltip.EnabledOnSeries {
		if idx < 0 || idx >= len(data.Series) {
			continue
		}
		s := data.Series[idx]
		v := 0
		if hover < len(s.Data) {
			v = s.Data[hover]
		}
		c := seriesColor(idx)
		out = append(out, panelEntry{name: s.Name, value: v, color: color.NRGBA{c.R, c.G, c.B, 255}})
	}
	return out
}

// overlay draws the panel next to x. Entries fill a column top to bottom
// before starting the next one.
func (p *tooltipPanel) overlay(base image.Image, data *annotationgraph.ChartData, hover, x int, cfg Config) image.Image {
	list := entries(data, hover)
	rows := cfg.TooltipRows

	width := p.width
	if width <= 0 {
		width = tooltip.Width(len(list), rows, cfg.TooltipColumnWidth)
	}
	width = max(width, cfg.TooltipColumnWidth)
	height := 2*panelPad + panelLine*(1+min(len(list), rows))

	theme := themeFor(data.Options.Tooltip.Theme)
	panel := imaging.New(width, height, theme.background)

	category := data.Options.XAxis.Categories[hover]
	header := strconv.Itoa(category)
	if f := data.Options.Tooltip.X.Formatter; f != nil {
		header = f(float64(category))
	}
	drawText(panel, header, panelPad, panelPad+panelLine-4, width-2*panelPad, theme.text)

	for i, e := range list {
		col, row := i/rows, i%rows
		left := panelPad + col*cfg.TooltipColumnWidth
		baseline := panelPad + panelLine*(row+2) - 4

		swatch := image.Rect(left, baseline-panelSwatch, left+panelSwatch, baseline)
		fillRect(panel, swatch, e.color)

		label := e.name + ": " + strconv.Itoa(e.value)
		drawText(panel, label, left+panelSwatch+4, baseline, cfg.TooltipColumnWidth-panelSwatch-4-panelPad, theme.text)
	}

	b := base.Bounds()
	px := x + panelOffset
	if px+width > b.Dx() {
		px = x - panelOffset - width
	}
	px = max(px, 0)
	return imaging.Overlay(base, panel, image.Pt(px, panelPad), 1.0)
}

// drawText writes text at the baseline, cut to fit within maxWidth pixels
func drawText(dst *image.NRGBA, text string, x, y, maxWidth int, c color.NRGBA) {
	dr := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	runes := []rune(text)
	for len(runes) > 0 && dr.MeasureString(string(runes)).Ceil() > maxWidth {
		runes = runes[:len(runes)-1]
	}
	dr.DrawString(string(runes))
}

func fillRect(dst *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.SetNRGBA(x, y, c)
		}
	}
}
