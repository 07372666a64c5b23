package history

import "math"

const (
	tickCount   = 5
	minPad      = 36
	maxPad      = 64
	labelGutter = 16
	rightGutter = 18

	LabelFontSize = 11
	EmptyFontSize = 12
)

// TextMeasurer reports the rendered width of text in surface units.
type TextMeasurer interface {
	MeasureText(text string, size float64) float64
}

// Layout is the coordinate mapping for one render pass.
// Min and Max are the drawing range, DataMin and DataMax the true range.
type Layout struct {
	HasData    bool
	Pad        float64
	PlotWidth  float64
	PlotHeight float64
	Min        float64
	Max        float64
	DataMin    float64
	DataMax    float64
	Ticks      [tickCount]float64
}

// ComputeLayout sizes the left margin to the widest tick label and derives
// the plot area for a width x height surface.
func ComputeLayout(points []Sample, spec MetricSpec, width, height float64, m TextMeasurer) Layout {
	var l Layout
	widest := 0.0
	if len(points) > 0 {
		l.HasData = true
		l.DataMin, l.DataMax = valueBounds(points)
		l.Min, l.Max = l.DataMin, l.DataMax
		l.Ticks = ticksBetween(l.DataMin, l.DataMax)
		for _, v := range l.Ticks {
			if w := m.MeasureText(spec.Format(v), LabelFontSize); w > widest {
				widest = w
			}
		}
	}

	pad := float64(minPad)
	if l.HasData {
		pad = math.Max(minPad, math.Min(maxPad, math.Ceil(widest+labelGutter)))
	}
	l.Pad = pad
	l.PlotWidth = math.Max(1, width-pad-rightGutter)
	l.PlotHeight = math.Max(1, height-2*pad)

	if l.HasData && spec.DisplayRange != nil {
		l.Min, l.Max = spec.DisplayRange.Min, spec.DisplayRange.Max
		l.Ticks = ticksBetween(l.Min, l.Max)
	}
	return l
}

func ticksBetween(lo, hi float64) [tickCount]float64 {
	var ticks [tickCount]float64
	span := hi - lo
	if span == 0 {
		span = 1
	}
	for i := range ticks {
		ticks[i] = hi - span*(float64(i)/(tickCount-1))
	}
	return ticks
}

func (l Layout) span() float64 {
	if s := l.Max - l.Min; s != 0 {
		return s
	}
	return 1
}

// Clamp limits v to the drawing range.
func (l Layout) Clamp(v float64) float64 {
	return math.Min(l.Max, math.Max(l.Min, v))
}

// Y maps a value to a vertical pixel position; values outside the range are clamped.
func (l Layout) Y(v float64) float64 {
	return l.Pad + l.PlotHeight - ((l.Clamp(v)-l.Min)/l.span())*l.PlotHeight
}

// X maps sample index i of n to a horizontal pixel position.
func (l Layout) X(i, n int) float64 {
	if n < 2 {
		return l.Pad + l.PlotWidth
	}
	return l.Pad + l.PlotWidth*(float64(i)/float64(n-1))
}

// GridY is the vertical position of gridline i.
func (l Layout) GridY(i int) float64 {
	return l.Pad + l.PlotHeight*(float64(i)/(tickCount-1))
}
