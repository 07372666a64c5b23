package history

import "math"

const (
	tooltipOffsetX = 12
	tooltipOffsetY = 28
	tooltipMargin  = 8
)

type Hover struct {
	Index      int    `json:"index"`
	Sample     Sample `json:"sample"`
	TimeLabel  string `json:"timeLabel"`
	ValueLabel string `json:"valueLabel"`
}

func (h Hover) Text() string {
	return h.TimeLabel + " · " + h.ValueLabel
}

// Resolve finds the sample nearest to the pointer at (x, y). It reports false
// when there is nothing to show: no state, no samples, or a pointer outside
// the plot area.
func Resolve(state *RenderState, x, y float64) (Hover, bool) {
	if state == nil || len(state.Points) == 0 {
		return Hover{}, false
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		return Hover{}, false
	}
	if x < state.Pad || x > state.Pad+state.PlotWidth || y < state.Pad || y > state.Pad+state.PlotHeight {
		return Hover{}, false
	}

	ratio := (x - state.Pad) / state.PlotWidth
	ratio = math.Max(0, math.Min(1, ratio))
	n := len(state.Points)
	idx := int(math.Round(ratio * float64(n-1)))
	idx = max(0, min(n-1, idx))

	p := state.Points[idx]
	value := state.layout().Clamp(p.Value)
	return Hover{
		Index:      idx,
		Sample:     p,
		TimeLabel:  formatClock(p.Timestamp, state.Location),
		ValueLabel: state.Metric.Format(value),
	}, true
}

// PlaceTooltip anchors a tooltip of tipWidth next to the pointer, keeping it
// inside a panel of panelWidth and below the panel's top edge.
func PlaceTooltip(x, y, panelWidth, tipWidth float64) (left, top float64) {
	left = math.Min(panelWidth-tipWidth-tooltipMargin, math.Max(tooltipMargin, x+tooltipOffsetX))
	top = math.Max(tooltipMargin, y-tooltipOffsetY)
	return left, top
}
