// Package canvas implements history.Surface for PNG and SVG output.
package canvas

import (
	"image/color"
	"math"
	"strconv"
	"sync"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"golang.org/x/image/font"
)

// maxFaces bounds the face cache; pixel ratios come from clients.
const maxFaces = 32

var (
	fontOnce sync.Once
	labelTTF *truetype.Font
	fontErr  error

	// truetype faces keep glyph caches and must not be shared between
	// goroutines, so every use holds facesMu.
	facesMu sync.Mutex
	faces   = make(map[float64]font.Face)
)

// withFace calls fn with the label font at size pixels. It reports false
// when the font is unavailable or size is not positive.
func withFace(size float64, fn func(font.Face)) bool {
	if !(size > 0) || math.IsInf(size, 0) {
		return false
	}
	fontOnce.Do(func() { labelTTF, fontErr = chart.GetDefaultFont() })
	if fontErr != nil {
		return false
	}
	facesMu.Lock()
	defer facesMu.Unlock()
	f, ok := faces[size]
	if !ok {
		if len(faces) >= maxFaces {
			clear(faces)
		}
		f = truetype.NewFace(labelTTF, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
		faces[size] = f
	}
	fn(f)
	return true
}

// Measurer measures text in the label font. Without hinting advances scale
// linearly, so a label drawn at size*ratio device pixels is ratio times
// the measured width.
type Measurer struct{}

func (Measurer) MeasureText(text string, size float64) float64 {
	var width float64
	withFace(size, func(f font.Face) {
		width = float64(font.MeasureString(f, text)) / 64
	})
	return width
}

func toNRGBA(c color.Color) color.NRGBA {
	if c == nil {
		return color.NRGBA{}
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(sanitize(v)*100)/100, 'f', -1, 64)
}
