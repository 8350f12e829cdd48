package geo

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// LineStringType is the GeoJSON type of every Geometry
const LineStringType = "LineString"

// NewGeometry wraps a line string as an unrated Geometry
func NewGeometry(line orb.LineString) Geometry {
	return Geometry{Type: LineStringType, Coordinates: line}
}

// Rated returns a copy of g carrying the given rating
func Rated(g Geometry, rating float64) Geometry {
	out := g.Clone()
	out.SetRating(rating)
	return out
}

// Clone deep-copies the geometry so ratings never leak between copies
func (g Geometry) Clone() Geometry {
	out := Geometry{Type: g.Type, Coordinates: g.Coordinates.Clone()}
	if g.Rating != nil {
		r := *g.Rating
		out.Rating = &r
	}
	return out
}

// HasRating reports whether a rating has been assigned
func (g Geometry) HasRating() bool {
	return g.Rating != nil
}

// RatingValue returns the rating, 0 when unrated
func (g Geometry) RatingValue() float64 {
	if g.Rating == nil {
		return 0
	}
	return *g.Rating
}

// SetRating assigns the rating unconditionally
func (g *Geometry) SetRating(rating float64) {
	g.Rating = &rating
}

// RaiseRating assigns rating only if the geometry is unrated or rated lower
func (g *Geometry) RaiseRating(rating float64) {
	if g.Rating == nil || *g.Rating < rating {
		g.SetRating(rating)
	}
}

// Outranks reports whether g should win over other in deduplication.
// Any rated geometry beats an unrated one.
func (g Geometry) Outranks(other Geometry) bool {
	switch {
	case g.Rating == nil:
		return false
	case other.Rating == nil:
		return true
	default:
		return *g.Rating > *other.Rating
	}
}

// Key serializes the coordinate sequence; geometries with equal keys are
// the same physical line
func (g Geometry) Key() string {
	var b strings.Builder
	for i, c := range g.Coordinates {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatFloat(c[0], 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(c[1], 'f', -1, 64))
	}
	return b.String()
}

func pointFromOrb(p orb.Point) Point {
	return Point{Latitude: p.Lat(), Longitude: p.Lon()}
}
