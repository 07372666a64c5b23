package canvas

import (
	"bytes"
	"fmt"
	"html"
	"image/color"
	"io"

	"github.com/tomek7667/serachart/internal/history"
)

// SVG collects the drawing as an SVG document. The pixel ratio is kept for
// callers but does not change the output; SVG scales without blur.
type SVG struct {
	Measurer

	width, height, ratio float64
	body                 bytes.Buffer
	gradients            int
}

var _ history.Surface = (*SVG)(nil)

func NewSVG(width, height float64) *SVG {
	return &SVG{width: width, height: height, ratio: 1}
}

func (s *SVG) Size() (float64, float64) { return s.width, s.height }
func (s *SVG) PixelRatio() float64      { return s.ratio }

func (s *SVG) Reset(width, height, ratio float64) {
	s.width, s.height, s.ratio = width, height, ratio
	s.body.Reset()
	s.gradients = 0
}

func (s *SVG) StrokeLine(from, to history.Point, c color.Color, width float64) {
	fmt.Fprintf(&s.body, `<line x1="%s" y1="%s" x2="%s" y2="%s" %s stroke-width="%s"/>`+"\n",
		num(from.X), num(from.Y), num(to.X), num(to.Y), paint("stroke", c), num(width))
}

func (s *SVG) StrokePath(path []history.Point, c color.Color, width float64) {
	if len(path) < 2 {
		return
	}
	fmt.Fprintf(&s.body, `<polyline points="%s" fill="none" %s stroke-width="%s" stroke-linejoin="round" stroke-linecap="round"/>`+"\n",
		points(path), paint("stroke", c), num(width))
}

func (s *SVG) FillArea(path []history.Point, g history.Gradient) {
	if len(path) < 3 {
		return
	}
	id := fmt.Sprintf("fill%d", s.gradients)
	s.gradients++
	fmt.Fprintf(&s.body, `<defs><linearGradient id="%s" gradientUnits="userSpaceOnUse" x1="0" y1="%s" x2="0" y2="%s">`,
		id, num(g.Top), num(g.Bottom))
	fmt.Fprintf(&s.body, `<stop offset="0" %s/><stop offset="1" %s/></linearGradient></defs>`+"\n",
		paint("stop-color", g.From), paint("stop-color", g.To))
	fmt.Fprintf(&s.body, `<polygon points="%s" fill="url(#%s)"/>`+"\n", points(path), id)
}

func (s *SVG) FillCircle(center history.Point, radius float64, c color.Color) {
	fmt.Fprintf(&s.body, `<circle cx="%s" cy="%s" r="%s" %s/>`+"\n",
		num(center.X), num(center.Y), num(radius), paint("fill", c))
}

func (s *SVG) FillText(text string, at history.Point, style history.TextStyle) {
	anchor := "start"
	switch style.Align {
	case history.AlignCenter:
		anchor = "middle"
	case history.AlignRight:
		anchor = "end"
	}
	baseline := "alphabetic"
	switch style.Baseline {
	case history.BaselineMiddle:
		baseline = "middle"
	case history.BaselineTop:
		baseline = "hanging"
	}
	fmt.Fprintf(&s.body, `<text x="%s" y="%s" font-family="Roboto, Helvetica, Arial, sans-serif" font-size="%s" %s text-anchor="%s" dominant-baseline="%s">%s</text>`+"\n",
		num(at.X), num(at.Y), num(style.Size), paint("fill", style.Color), anchor, baseline, html.EscapeString(text))
}

// WriteTo writes the complete document.
func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	var doc bytes.Buffer
	fmt.Fprintf(&doc, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(s.width), num(s.height), num(s.width), num(s.height))
	doc.Write(s.body.Bytes())
	doc.WriteString("</svg>\n")
	return doc.WriteTo(w)
}

func (s *SVG) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = s.WriteTo(&buf)
	return buf.Bytes()
}

func points(path []history.Point) string {
	var b bytes.Buffer
	for i, p := range path {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(num(p.X))
		b.WriteByte(',')
		b.WriteString(num(p.Y))
	}
	return b.String()
}

// paint renders c as an attribute plus its matching opacity attribute.
func paint(attr string, c color.Color) string {
	n := toNRGBA(c)
	opacity := attr + "-opacity"
	if attr == "stop-color" {
		opacity = "stop-opacity"
	}
	return fmt.Sprintf(`%s="#%02x%02x%02x" %s="%s"`, attr, n.R, n.G, n.B, opacity, num(float64(n.A)/255))
}
