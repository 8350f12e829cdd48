package geo

import (
	"github.com/paulmach/orb"
)

// Point represents a geographic coordinate
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Geometry is a street line string with an optional match rating.
// Coordinates are [longitude, latitude] pairs as in GeoJSON.
type Geometry struct {
	Type        string         `json:"type"`
	Coordinates orb.LineString `json:"coordinates"`
	Rating      *float64       `json:"rating,omitempty"`
}

// Bounds is the bounding box of a set of geometries
type Bounds struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// GeoUtils interface defines geographic calculation utilities
type GeoUtils interface {
	// Calculate great-circle distance between two points in meters
	PointToPoint(p1, p2 Point) (float64, error)

	// Total length of a geometry in meters
	LineLength(g Geometry) float64

	// Bounding box of all coordinates, false when there are none
	Bounds(geometries []Geometry) (Bounds, bool)

	// Encode a geometry as a Google polyline string
	EncodeGeometry(g Geometry) string
}

// NewGeoUtils is implemented in geo.go
