package history

import (
	"math"
	"time"
)

const (
	DefaultWidth  = 600
	DefaultHeight = 240

	timeLabelWidth = 110
	minTimeLabels  = 4
	maxTimeLabels  = 8
	NoDataText     = "no data"
)

// RenderState is the immutable result of one render pass. Hover resolution
// reads it; nothing writes it after Render returns.
type RenderState struct {
	Metric MetricSpec
	Known  bool

	// Points are the filtered samples, Drawn the downsampled subset on screen.
	Points []Sample
	Drawn  []Sample

	Min, Max         float64
	DataMin, DataMax float64

	Pad        float64
	PlotWidth  float64
	PlotHeight float64
	Width      float64
	Height     float64

	// Clipped counts samples outside the metric's display range.
	Clipped int

	Location *time.Location
}

func (s *RenderState) layout() Layout {
	return Layout{
		HasData:    len(s.Points) > 0,
		Pad:        s.Pad,
		PlotWidth:  s.PlotWidth,
		PlotHeight: s.PlotHeight,
		Min:        s.Min,
		Max:        s.Max,
		DataMin:    s.DataMin,
		DataMax:    s.DataMax,
	}
}

type Renderer struct {
	Catalog   *Catalog
	MaxPoints int
	Location  *time.Location
	Theme     Theme
}

func NewRenderer(catalog *Catalog) *Renderer {
	return &Renderer{
		Catalog:   catalog,
		MaxPoints: DefaultMaxPoints,
		Location:  time.Local,
		Theme:     DefaultTheme(),
	}
}

// Render clears s and draws the history chart for points. The same inputs
// always produce the same drawing.
func (r *Renderer) Render(s Surface, points []Sample, metricID string) *RenderState {
	width, height := s.Size()
	if !(width > 0) || math.IsInf(width, 0) {
		width = DefaultWidth
	}
	if !(height > 0) || math.IsInf(height, 0) {
		height = DefaultHeight
	}
	ratio := s.PixelRatio()
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		ratio = 1
	}
	s.Reset(width, height, ratio)

	spec, known := r.Catalog.Lookup(metricID)
	if !known {
		spec = MetricSpec{ID: metricID, Precision: 1}
		points = nil
	}
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}

	l := ComputeLayout(points, spec, width, height, s)
	state := &RenderState{
		Metric:     spec,
		Known:      known,
		Points:     points,
		Pad:        l.Pad,
		PlotWidth:  l.PlotWidth,
		PlotHeight: l.PlotHeight,
		Width:      width,
		Height:     height,
		Location:   loc,
	}

	r.drawGrid(s, l)
	if !l.HasData {
		s.FillText(NoDataText, Point{X: l.Pad + l.PlotWidth/2, Y: height / 2}, TextStyle{
			Size:     EmptyFontSize,
			Color:    r.Theme.Empty,
			Align:    AlignCenter,
			Baseline: BaselineMiddle,
		})
		return state
	}

	state.Min, state.Max = l.Min, l.Max
	state.DataMin, state.DataMax = l.DataMin, l.DataMax
	state.Clipped = spec.Clipped(points)

	drawn := Downsample(points, r.MaxPoints)
	state.Drawn = drawn

	r.drawTickLabels(s, l, spec)
	timeY := l.Pad + l.PlotHeight + 8
	r.drawTimeLabels(s, l, drawn, timeY, loc)

	if len(drawn) == 1 {
		end := r.drawEndMarker(s, l, spec, drawn[0], 1)
		s.FillText(formatClock(drawn[0].Timestamp, loc), Point{X: end.X, Y: timeY}, TextStyle{
			Size:     LabelFontSize,
			Color:    r.Theme.Label,
			Align:    AlignRight,
			Baseline: BaselineTop,
		})
		return state
	}

	line := make([]Point, len(drawn))
	for i, p := range drawn {
		line[i] = Point{X: l.X(i, len(drawn)), Y: l.Y(p.Value)}
	}
	area := make([]Point, 0, len(line)+2)
	area = append(area, line...)
	area = append(area,
		Point{X: l.Pad + l.PlotWidth, Y: l.Pad + l.PlotHeight},
		Point{X: l.Pad, Y: l.Pad + l.PlotHeight},
	)
	s.FillArea(area, Gradient{
		Top:    l.Pad,
		Bottom: l.Pad + l.PlotHeight,
		From:   r.Theme.FillTop,
		To:     r.Theme.FillBottom,
	})
	s.StrokePath(line, r.Theme.Accent, r.Theme.LineWidth)
	r.drawEndMarker(s, l, spec, drawn[len(drawn)-1], len(drawn))
	return state
}

func (r *Renderer) drawGrid(s Surface, l Layout) {
	for i := 0; i < tickCount; i++ {
		y := l.GridY(i)
		s.StrokeLine(Point{X: l.Pad, Y: y}, Point{X: l.Pad + l.PlotWidth, Y: y}, r.Theme.Grid, r.Theme.GridWidth)
	}
}

func (r *Renderer) drawTickLabels(s Surface, l Layout, spec MetricSpec) {
	style := TextStyle{Size: LabelFontSize, Color: r.Theme.Label, Align: AlignRight, Baseline: BaselineMiddle}
	for i, v := range l.Ticks {
		s.FillText(spec.Format(v), Point{X: l.Pad - 10, Y: l.GridY(i)}, style)
	}
}

func (r *Renderer) drawTimeLabels(s Surface, l Layout, drawn []Sample, y float64, loc *time.Location) {
	if len(drawn) < 2 {
		return
	}
	count := int(math.Floor(l.PlotWidth / timeLabelWidth))
	count = max(minTimeLabels, min(maxTimeLabels, count))
	for i := 0; i < count; i++ {
		frac := float64(i) / float64(count-1)
		idx := int(math.Round(float64(len(drawn)-1) * frac))
		style := TextStyle{Size: LabelFontSize, Color: r.Theme.Label, Align: AlignCenter, Baseline: BaselineTop}
		switch i {
		case 0:
			style.Align = AlignLeft
		case count - 1:
			style.Align = AlignRight
		}
		s.FillText(formatClock(drawn[idx].Timestamp, loc), Point{X: l.Pad + l.PlotWidth*frac, Y: y}, style)
	}
}

// drawEndMarker draws the dot and value label for the last of n drawn samples.
func (r *Renderer) drawEndMarker(s Surface, l Layout, spec MetricSpec, last Sample, n int) Point {
	value := l.Clamp(last.Value)
	at := Point{X: l.X(n-1, n), Y: l.Y(value)}
	s.FillCircle(at, r.Theme.MarkerRadius, r.Theme.Marker)
	s.FillText(spec.Format(value), Point{X: at.X + 6, Y: at.Y}, TextStyle{
		Size:     LabelFontSize,
		Color:    r.Theme.ValueLabel,
		Align:    AlignLeft,
		Baseline: BaselineMiddle,
	})
	return at
}

// formatClock renders unix seconds as a short hour:minute label.
func formatClock(ts float64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9)).In(loc).Format("15:04")
}
