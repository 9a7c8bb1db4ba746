package treemap

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/chan4lk/spacemap/internal/domain"
)

type Scale string

const (
	ScaleLinear Scale = "linear"
	ScaleLog    Scale = "log"
)

func ParseScale(value string) (Scale, bool) {
	switch Scale(value) {
	case ScaleLinear, ScaleLog:
		return Scale(value), true
	}
	return ScaleLog, false
}

// Intensity maps a size onto [0,1] relative to the largest entry in view:
// empty is 0, the maximum saturates at 1, and bigger never maps lower. Log
// scaling keeps mid-sized entries distinguishable next to a few giants.
func Intensity(size, max uint64, scale Scale) float64 {
	if max == 0 || size == 0 {
		return 0
	}
	if size >= max {
		return 1
	}
	if scale == ScaleLinear {
		return float64(size) / float64(max)
	}
	return math.Log1p(float64(size)) / math.Log1p(float64(max))
}

// Palette blends a dim base toward a hot accent as intensity rises.
type Palette struct {
	low  colorful.Color
	high colorful.Color
}

// Directories run teal, files run red, matching the classic explorer color
// classes.
var (
	dirPalette  = Palette{low: colorful.Color{R: 0.10, G: 0.25, B: 0.25}, high: colorful.Color{R: 0.20, G: 0.87, B: 0.80}}
	filePalette = Palette{low: colorful.Color{R: 0.26, G: 0.12, B: 0.12}, high: colorful.Color{R: 1.00, G: 0.33, B: 0.27}}
)

func (palette Palette) Hex(intensity float64) string {
	t := math.Max(0, math.Min(1, intensity))
	return palette.low.BlendLuv(palette.high, t).Clamped().Hex()
}

// HeatColor picks the palette for the node's kind and returns a terminal hex
// color for the given intensity.
func HeatColor(node *domain.Node, intensity float64) string {
	if node != nil && node.IsDir() {
		return dirPalette.Hex(intensity)
	}
	return filePalette.Hex(intensity)
}
