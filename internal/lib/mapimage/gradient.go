package mapimage

import (
	"fmt"
	"image/color"
	"math"

	"github.com/georgia-utilities/alertbot/internal/lib/geo"
)

// Gradient maps a rating in [0,1] onto a color ramp
type Gradient struct {
	Stops []color.RGBA
}

// DefaultGradient runs from pale yellow (unsure) to deep red (certain)
func DefaultGradient() Gradient {
	return Gradient{Stops: []color.RGBA{
		{R: 0xFF, G: 0xE0, B: 0x5C, A: 0xFF},
		{R: 0xFF, G: 0x9A, B: 0x2E, A: 0xFF},
		{R: 0xE5, G: 0x3B, B: 0x1F, A: 0xFF},
		{R: 0xA8, G: 0x00, B: 0x1E, A: 0xFF},
	}}
}

// At interpolates the color for t, clamped to [0,1]
func (g Gradient) At(t float64) color.RGBA {
	if len(g.Stops) == 0 {
		return color.RGBA{A: 0xFF}
	}
	if len(g.Stops) == 1 || math.IsNaN(t) || t <= 0 {
		return g.Stops[0]
	}
	if t >= 1 {
		return g.Stops[len(g.Stops)-1]
	}

	pos := t * float64(len(g.Stops)-1)
	i := int(pos)
	frac := pos - float64(i)
	a, b := g.Stops[i], g.Stops[i+1]
	return color.RGBA{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: lerp(a.A, b.A, frac),
	}
}

// ForGeometry picks the color of a geometry; unrated uses the low end
func (g Gradient) ForGeometry(geometry geo.Geometry) color.RGBA {
	if !geometry.HasRating() {
		return g.At(0)
	}
	return g.At(geometry.RatingValue())
}

// Bucket quantizes a geometry's rating to one of n shared styles
func Bucket(geometry geo.Geometry, n int) int {
	if n <= 1 || !geometry.HasRating() {
		return 0
	}
	r := math.Max(0, math.Min(1, geometry.RatingValue()))
	return int(math.Round(r * float64(n-1)))
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// StaticColor formats c as 0xRRGGBBAA for map path styles
func StaticColor(c color.RGBA) string {
	return fmt.Sprintf("0x%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// PathsFor colors each geometry by its rating
func PathsFor(geometries []geo.Geometry, gradient Gradient, weight int) []Path {
	paths := make([]Path, 0, len(geometries))
	for _, g := range geometries {
		paths = append(paths, Path{Color: gradient.ForGeometry(g), Weight: weight, Geometry: g})
	}
	return paths
}
