package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
)

// geoUtils implements the GeoUtils interface
type geoUtils struct{}

// NewGeoUtils creates a new GeoUtils implementation
func NewGeoUtils() GeoUtils {
	return &geoUtils{}
}

// PointToPoint calculates great-circle distance between two points using Haversine formula
func (g *geoUtils) PointToPoint(p1, p2 Point) (float64, error) {
	// Validate coordinates
	if !isValidCoordinate(p1) || !isValidCoordinate(p2) {
		return 0, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}

	if p1.Latitude == p2.Latitude && p1.Longitude == p2.Longitude {
		return 0, nil
	}

	// Convert degrees to radians
	lat1 := p1.Latitude * math.Pi / 180
	lon1 := p1.Longitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	lon2 := p2.Longitude * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	// Earth's radius in meters
	const earthRadius = 6371000
	return earthRadius * c, nil
}

// LineLength sums the great-circle length of every segment. Invalid
// coordinates contribute nothing.
func (g *geoUtils) LineLength(geometry Geometry) float64 {
	var total float64
	for i := 1; i < len(geometry.Coordinates); i++ {
		prev := pointFromOrb(geometry.Coordinates[i-1])
		cur := pointFromOrb(geometry.Coordinates[i])
		d, err := g.PointToPoint(prev, cur)
		if err != nil {
			continue
		}
		total += d
	}
	return total
}

// Bounds returns the bounding box of all geometries
func (g *geoUtils) Bounds(geometries []Geometry) (Bounds, bool) {
	var b Bounds
	found := false
	for _, geometry := range geometries {
		for _, c := range geometry.Coordinates {
			p := pointFromOrb(c)
			if !isValidCoordinate(p) {
				continue
			}
			if !found {
				b.Min, b.Max = p, p
				found = true
				continue
			}
			b.Min.Latitude = math.Min(b.Min.Latitude, p.Latitude)
			b.Min.Longitude = math.Min(b.Min.Longitude, p.Longitude)
			b.Max.Latitude = math.Max(b.Max.Latitude, p.Latitude)
			b.Max.Longitude = math.Max(b.Max.Longitude, p.Longitude)
		}
	}
	return b, found
}

// EncodeGeometry encodes a geometry as a Google polyline. GeoJSON order is
// lon/lat while polylines are lat/lng, so pairs are swapped here.
func (g *geoUtils) EncodeGeometry(geometry Geometry) string {
	coords := make([][]float64, 0, len(geometry.Coordinates))
	for _, c := range geometry.Coordinates {
		coords = append(coords, []float64{c.Lat(), c.Lon()})
	}
	return string(polyline.EncodeCoords(coords))
}

// isValidCoordinate validates latitude and longitude values
func isValidCoordinate(point Point) bool {
	return point.Latitude >= -90 && point.Latitude <= 90 &&
		point.Longitude >= -180 && point.Longitude <= 180
}
