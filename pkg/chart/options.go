package chart

// Options is the renderer-facing chart configuration. It encodes to the
// ApexCharts options shape; callbacks are not serialized.
type Options struct {
	Chart      Chart      `json:"chart"`
	DataLabels Switch     `json:"dataLabels"`
	Stroke     Stroke     `json:"stroke"`
	XAxis      XAxis      `json:"xaxis"`
	Tooltip    Tooltip    `json:"tooltip"`
	Legend     Visibility `json:"legend"`
}

// Chart holds the top-level chart settings and renderer event hooks
type Chart struct {
	Height     int        `json:"height"`
	Type       string     `json:"type"`
	Toolbar    Visibility `json:"toolbar"`
	Animations Switch     `json:"animations"`
	Sparkline  Switch     `json:"sparkline"`
	Events     Events     `json:"-"`
}

// Events are invoked by the rendering collaborator
type Events struct {
	// Click receives the positional index of the selected category
	Click func(dataPointIndex int)
	// Mounted and Updated run after the renderer finishes drawing and
	// size the tooltip panel the renderer owns.
	Mounted func(surface TooltipSurface)
	Updated func(surface TooltipSurface)
}

// Visibility toggles a chart element
type Visibility struct {
	Show bool `json:"show"`
}

// Switch toggles a chart feature
type Switch struct {
	Enabled bool `json:"enabled"`
}

// Stroke controls how series lines are drawn
type Stroke struct {
	Curve string `json:"curve"`
}

// XAxis holds the frame indexes plotted along the x axis
type XAxis struct {
	Type       string `json:"type"`
	Categories []int  `json:"categories"`
}

// Tooltip configures hover tooltips
type Tooltip struct {
	Theme           string   `json:"theme"`
	X               TooltipX `json:"x"`
	EnabledOnSeries []int    `json:"enabledOnSeries"`
}

// TooltipX formats the x value shown in the tooltip header
type TooltipX struct {
	Formatter func(value float64) string `json:"-"`
}

// TooltipSurface is the tooltip element owned by the renderer
type TooltipSurface interface {
	SetWidth(px int)
}
