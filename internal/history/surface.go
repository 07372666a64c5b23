package history

import (
	"image/color"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

type Point struct {
	X, Y float64
}

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

type Baseline int

const (
	BaselineAlphabetic Baseline = iota
	BaselineMiddle
	BaselineTop
)

type TextStyle struct {
	Size     float64
	Color    color.Color
	Align    Align
	Baseline Baseline
}

// Gradient is a vertical fill running From at y=Top to To at y=Bottom.
type Gradient struct {
	Top, Bottom float64
	From, To    color.Color
}

// Surface is a drawing target addressed in layout units (CSS pixels).
// Implementations scale to device pixels themselves.
type Surface interface {
	TextMeasurer

	// Size returns the layout size; zero means unknown.
	Size() (width, height float64)
	PixelRatio() float64
	// Reset resizes the backing buffer for ratio, clears it and resets the transform.
	Reset(width, height, ratio float64)

	StrokeLine(from, to Point, c color.Color, width float64)
	StrokePath(path []Point, c color.Color, width float64)
	// FillArea fills the closed polygon path.
	FillArea(path []Point, g Gradient)
	FillCircle(center Point, radius float64, c color.Color)
	FillText(text string, at Point, style TextStyle)
}

type Theme struct {
	Grid       drawing.Color
	Label      drawing.Color
	Empty      drawing.Color
	Accent     drawing.Color
	FillTop    drawing.Color
	FillBottom drawing.Color
	Marker     drawing.Color
	ValueLabel drawing.Color

	GridWidth    float64
	LineWidth    float64
	MarkerRadius float64
}

func DefaultTheme() Theme {
	accent := drawing.ColorFromHex("0ea5a4")
	return Theme{
		Grid:         drawing.ColorFromHex("94a3b8").WithAlpha(102),
		Label:        drawing.ColorFromHex("64748b"),
		Empty:        drawing.ColorFromHex("94a3b8"),
		Accent:       accent,
		FillTop:      accent.WithAlpha(64),
		FillBottom:   accent.WithAlpha(5),
		Marker:       accent,
		ValueLabel:   drawing.ColorFromHex("0f172a"),
		GridWidth:    1,
		LineWidth:    2,
		MarkerRadius: 3,
	}
}
