package history

import (
	"math"
	"testing"
	"time"
)

func testRenderer() *Renderer {
	r := NewRenderer(DefaultCatalog())
	r.Location = time.UTC
	return r
}

func TestRenderEndToEndTemperature(t *testing.T) {
	raw := []RawPoint{{1000.0, 18.0}, {1010.0, 18.4}, {1020.0, nil}, {1030.0, 19.1}}
	points := Filter(raw)
	if len(points) != 3 {
		t.Fatalf("expected 3 filtered points, got %d", len(points))
	}

	surf := newRecorder(600, 240, 2)
	state := testRenderer().Render(surf, points, "dht_temp")

	if state.Min != 0 || state.Max != 45 {
		t.Fatalf("expected drawing band 0..45, got %v..%v", state.Min, state.Max)
	}
	if state.DataMin != 18 || state.DataMax != 19.1 {
		t.Fatalf("expected data range 18..19.1, got %v..%v", state.DataMin, state.DataMax)
	}
	sum := Summarize(state.Points, DefaultCatalog(), "dht_temp")
	if sum.Min != "18.0 °C" || sum.Max != "19.1 °C" || sum.Last != "19.1 °C" {
		t.Fatalf("summary %+v", sum)
	}
	if !surf.hasText("19.1 °C") {
		t.Fatalf("expected the last-value label, texts: %+v", surf.texts)
	}
	if len(surf.paths) != 1 || len(surf.areas) != 1 || len(surf.circles) != 1 {
		t.Fatalf("expected one line, one fill, one marker: %d %d %d", len(surf.paths), len(surf.areas), len(surf.circles))
	}
	if state.Clipped != 0 {
		t.Fatalf("nothing should be clipped, got %d", state.Clipped)
	}
}

func TestRenderTemperatureClamp(t *testing.T) {
	points := []Sample{{0, 20}, {60, 100}, {120, 30}}
	surf := newRecorder(600, 240, 1)
	state := testRenderer().Render(surf, points, "dht_temp")

	l := state.layout()
	line := surf.paths[0]
	if line[1].Y != l.Y(45) {
		t.Fatalf("y(100)=%v want y(45)=%v", line[1].Y, l.Y(45))
	}
	if line[1].Y != state.Pad {
		t.Fatalf("clamped value should sit on the top edge %v, got %v", state.Pad, line[1].Y)
	}
	if got := Summarize(state.Points, DefaultCatalog(), "dht_temp").Max; got != "100.0 °C" {
		t.Fatalf("text max %q", got)
	}
	if state.Clipped != 1 {
		t.Fatalf("expected one clipped sample, got %d", state.Clipped)
	}
}

func TestRenderEmpty(t *testing.T) {
	surf := newRecorder(600, 240, 1)
	state := testRenderer().Render(surf, nil, "dht_temp")
	if len(state.Points) != 0 {
		t.Fatalf("unexpected points")
	}
	if len(surf.lines) != 5 {
		t.Fatalf("expected 5 gridlines, got %d", len(surf.lines))
	}
	if len(surf.texts) != 1 || surf.texts[0].Text != NoDataText {
		t.Fatalf("expected only the no data label, got %+v", surf.texts)
	}
	if surf.texts[0].Style.Align != AlignCenter {
		t.Fatalf("no data label should be centred")
	}
	if len(surf.paths)+len(surf.areas)+len(surf.circles) != 0 {
		t.Fatalf("nothing but gridlines expected")
	}
	sum := Summarize(state.Points, DefaultCatalog(), "dht_temp")
	if sum.Min != "--" || sum.Max != "--" || sum.Last != "--" || sum.Count != "--" {
		t.Fatalf("empty summary %+v", sum)
	}
	if _, ok := Resolve(state, 100, 100); ok {
		t.Fatalf("hover on an empty chart must not resolve")
	}
}

func TestRenderUnknownMetricShowsNoData(t *testing.T) {
	surf := newRecorder(600, 240, 1)
	state := testRenderer().Render(surf, []Sample{{0, 1}, {1, 2}}, "co2")
	if state.Known {
		t.Fatalf("co2 is not in the catalog")
	}
	if !surf.hasText(NoDataText) || len(surf.paths) != 0 {
		t.Fatalf("expected a no data render")
	}
}

func TestRenderFlatSeries(t *testing.T) {
	points := []Sample{{0, 5}, {10, 5}, {20, 5}, {30, 5}}
	surf := newRecorder(600, 240, 1)
	state := testRenderer().Render(surf, points, "lux")
	if !finite(state.Pad, state.PlotWidth, state.PlotHeight) {
		t.Fatalf("non-finite state %+v", state)
	}
	for _, p := range surf.paths[0] {
		if !finite(p.X, p.Y) {
			t.Fatalf("non-finite point %+v", p)
		}
	}
}

func TestRenderSinglePoint(t *testing.T) {
	points := []Sample{{3600, 250}}
	surf := newRecorder(600, 240, 1)
	state := testRenderer().Render(surf, points, "soil_ch1")
	if len(surf.paths) != 0 || len(surf.areas) != 0 {
		t.Fatalf("single point must not draw a line or fill")
	}
	if len(surf.circles) != 1 || surf.circles[0].X != state.Pad+state.PlotWidth {
		t.Fatalf("marker should sit on the right edge: %+v", surf.circles)
	}
	if !surf.hasText("250") || !surf.hasText("01:00") {
		t.Fatalf("expected value and time labels, got %+v", surf.texts)
	}
}

func TestRenderDefaultsAndBackingRatio(t *testing.T) {
	surf := newRecorder(0, math.NaN(), 0)
	state := testRenderer().Render(surf, nil, "lux")
	if state.Width != DefaultWidth || state.Height != DefaultHeight {
		t.Fatalf("expected default size, got %vx%v", state.Width, state.Height)
	}
	if surf.ratio != 1 {
		t.Fatalf("expected ratio fallback 1, got %v", surf.ratio)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	points := series(2000)
	surf := newRecorder(800, 300, 2)
	r := testRenderer()
	r.Render(surf, points, "lux")
	first := append([]textOp(nil), surf.texts...)
	firstLine := append([]Point(nil), surf.paths[0]...)

	r.Render(surf, points, "lux")
	if surf.resets != 2 {
		t.Fatalf("each render must reset the surface")
	}
	if len(surf.texts) != len(first) || len(surf.paths) != 1 {
		t.Fatalf("second render accumulated content")
	}
	for i := range first {
		if first[i] != surf.texts[i] {
			t.Fatalf("text %d differs: %+v vs %+v", i, first[i], surf.texts[i])
		}
	}
	for i := range firstLine {
		if firstLine[i] != surf.paths[0][i] {
			t.Fatalf("line point %d differs", i)
		}
	}
}

func TestRenderDownsamplesDrawnLineOnly(t *testing.T) {
	points := series(5000)
	surf := newRecorder(900, 300, 1)
	state := testRenderer().Render(surf, points, "lux")
	if len(state.Points) != 5000 {
		t.Fatalf("state must keep every filtered point")
	}
	if len(state.Drawn) > DefaultMaxPoints+1 || len(surf.paths[0]) != len(state.Drawn) {
		t.Fatalf("drawn %d, line %d", len(state.Drawn), len(surf.paths[0]))
	}
	last := surf.paths[0][len(surf.paths[0])-1]
	if last.X != state.Pad+state.PlotWidth {
		t.Fatalf("line must end on the right edge")
	}
}

func TestRenderTimeLabels(t *testing.T) {
	points := series(100)
	surf := newRecorder(1200, 300, 1)
	state := testRenderer().Render(surf, points, "lux")

	var labels []textOp
	for _, op := range surf.texts {
		if op.Style.Baseline == BaselineTop {
			labels = append(labels, op)
		}
	}
	want := max(4, min(8, int(state.PlotWidth/110)))
	if len(labels) != want {
		t.Fatalf("expected %d time labels, got %d", want, len(labels))
	}
	if labels[0].Style.Align != AlignLeft || labels[len(labels)-1].Style.Align != AlignRight {
		t.Fatalf("edge labels must align inwards")
	}
	for _, op := range labels[1 : len(labels)-1] {
		if op.Style.Align != AlignCenter {
			t.Fatalf("interior labels must be centred")
		}
	}
	if labels[0].Text != "00:16" {
		t.Fatalf("first label %q", labels[0].Text)
	}
}
