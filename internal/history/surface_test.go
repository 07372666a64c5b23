package history

import "image/color"

// fixedMeasurer gives every rune the same advance so layouts are predictable.
type fixedMeasurer struct {
	advance float64
}

func (m fixedMeasurer) MeasureText(text string, size float64) float64 {
	return float64(len([]rune(text))) * m.advance * size / LabelFontSize
}

type textOp struct {
	Text  string
	At    Point
	Style TextStyle
}

type recorder struct {
	fixedMeasurer
	width, height, ratio float64

	resets  int
	lines   [][2]Point
	paths   [][]Point
	areas   [][]Point
	circles []Point
	texts   []textOp
}

func newRecorder(width, height, ratio float64) *recorder {
	return &recorder{fixedMeasurer: fixedMeasurer{advance: 6}, width: width, height: height, ratio: ratio}
}

func (r *recorder) Size() (float64, float64) { return r.width, r.height }
func (r *recorder) PixelRatio() float64      { return r.ratio }

func (r *recorder) Reset(width, height, ratio float64) {
	r.resets++
	r.width, r.height, r.ratio = width, height, ratio
	r.lines, r.paths, r.areas, r.circles, r.texts = nil, nil, nil, nil, nil
}

func (r *recorder) StrokeLine(from, to Point, _ color.Color, _ float64) {
	r.lines = append(r.lines, [2]Point{from, to})
}

func (r *recorder) StrokePath(path []Point, _ color.Color, _ float64) {
	r.paths = append(r.paths, append([]Point(nil), path...))
}

func (r *recorder) FillArea(path []Point, _ Gradient) {
	r.areas = append(r.areas, append([]Point(nil), path...))
}

func (r *recorder) FillCircle(center Point, _ float64, _ color.Color) {
	r.circles = append(r.circles, center)
}

func (r *recorder) FillText(text string, at Point, style TextStyle) {
	r.texts = append(r.texts, textOp{Text: text, At: at, Style: style})
}

func (r *recorder) hasText(text string) bool {
	for _, t := range r.texts {
		if t.Text == text {
			return true
		}
	}
	return false
}
