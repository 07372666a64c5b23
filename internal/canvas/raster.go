package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/tomek7667/serachart/internal/history"
)

// Raster draws into an RGBA image sized for the device pixel ratio.
type Raster struct {
	Measurer

	// Background fills the image on every Reset; nil leaves it transparent.
	Background color.Color

	width, height, ratio float64
	img                  *image.RGBA
	gc                   *drawing.RasterGraphicContext
}

var _ history.Surface = (*Raster)(nil)

func NewRaster(width, height, ratio float64) *Raster {
	return &Raster{width: width, height: height, ratio: ratio}
}

func (r *Raster) Size() (float64, float64) { return r.width, r.height }
func (r *Raster) PixelRatio() float64      { return r.ratio }

// Image returns the backing image of the last render.
func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Reset(width, height, ratio float64) {
	r.width, r.height, r.ratio = width, height, ratio
	w := int(math.Ceil(width * ratio))
	h := int(math.Ceil(height * ratio))
	r.img = image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	if r.Background != nil {
		draw.Draw(r.img, r.img.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)
	}
	// only fails for non-RGBA images
	gc, _ := drawing.NewRasterGraphicContext(r.img)
	gc.Scale(ratio, ratio)
	r.gc = gc
}

func (r *Raster) StrokeLine(from, to history.Point, c color.Color, width float64) {
	r.StrokePath([]history.Point{from, to}, c, width)
}

func (r *Raster) StrokePath(path []history.Point, c color.Color, width float64) {
	if r.gc == nil || len(path) < 2 {
		return
	}
	r.gc.BeginPath()
	r.gc.SetStrokeColor(c)
	r.gc.SetLineWidth(width)
	r.gc.MoveTo(path[0].X, path[0].Y)
	for _, p := range path[1:] {
		r.gc.LineTo(p.X, p.Y)
	}
	r.gc.Stroke()
}

func (r *Raster) FillCircle(center history.Point, radius float64, c color.Color) {
	if r.gc == nil {
		return
	}
	r.gc.BeginPath()
	r.gc.SetFillColor(c)
	r.gc.ArcTo(center.X, center.Y, radius, radius, 0, 2*math.Pi)
	r.gc.Close()
	r.gc.Fill()
}

// FillArea rasterises the polygon with x/image/vector because the graphic
// context only paints solid colours.
func (r *Raster) FillArea(path []history.Point, g history.Gradient) {
	if r.img == nil || len(path) < 3 {
		return
	}
	b := r.img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(r.dev(path[0].X), r.dev(path[0].Y))
	for _, p := range path[1:] {
		z.LineTo(r.dev(p.X), r.dev(p.Y))
	}
	z.ClosePath()
	z.Draw(r.img, b, &verticalGradient{
		bounds: b,
		top:    g.Top * r.ratio,
		bottom: g.Bottom * r.ratio,
		from:   toNRGBA(g.From),
		to:     toNRGBA(g.To),
	}, image.Point{})
}

func (r *Raster) FillText(text string, at history.Point, style history.TextStyle) {
	if r.img == nil || text == "" {
		return
	}
	size := style.Size
	if !(size > 0) {
		size = history.LabelFontSize
	}
	withFace(size*r.ratio, func(f font.Face) {
		x := fixed.Int26_6(math.Round(sanitize(at.X) * r.ratio * 64))
		y := fixed.Int26_6(math.Round(sanitize(at.Y) * r.ratio * 64))
		switch style.Align {
		case history.AlignCenter:
			x -= font.MeasureString(f, text) / 2
		case history.AlignRight:
			x -= font.MeasureString(f, text)
		}
		m := f.Metrics()
		switch style.Baseline {
		case history.BaselineMiddle:
			y += (m.Ascent - m.Descent) / 2
		case history.BaselineTop:
			y += m.Ascent
		}
		d := &font.Drawer{
			Dst:  r.img,
			Src:  image.NewUniform(style.Color),
			Face: f,
			Dot:  fixed.Point26_6{X: x, Y: y},
		}
		d.DrawString(text)
	})
}

// EncodePNG writes the last render as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	if r.img == nil {
		return fmt.Errorf("nothing rendered")
	}
	if err := png.Encode(w, r.img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func (r *Raster) dev(v float64) float32 {
	return float32(sanitize(v) * r.ratio)
}

type verticalGradient struct {
	bounds      image.Rectangle
	top, bottom float64
	from, to    color.NRGBA
}

func (g *verticalGradient) ColorModel() color.Model { return color.NRGBAModel }
func (g *verticalGradient) Bounds() image.Rectangle { return g.bounds }

func (g *verticalGradient) At(_, y int) color.Color {
	t := 0.0
	if span := g.bottom - g.top; span > 0 {
		t = (float64(y) + 0.5 - g.top) / span
	}
	t = math.Max(0, math.Min(1, t))
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return color.NRGBA{
		R: lerp(g.from.R, g.to.R),
		G: lerp(g.from.G, g.to.G),
		B: lerp(g.from.B, g.to.B),
		A: lerp(g.from.A, g.to.A),
	}
}
