package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
)

func TestGeoUtils_PointToPoint(t *testing.T) {
	// Batumi boulevard to Batumi railway station
	boulevard := Point{Latitude: 41.6500, Longitude: 41.6300}
	station := Point{Latitude: 41.6430, Longitude: 41.6640}

	geoUtils := NewGeoUtils()

	distance, err := geoUtils.PointToPoint(boulevard, station)
	require.NoError(t, err)
	assert.InDelta(t, 2940, distance, 100, "Distance should be approximately 2.9km")

	// Same point is zero
	distance, err = geoUtils.PointToPoint(boulevard, boulevard)
	require.NoError(t, err)
	assert.Equal(t, 0.0, distance)

	invalidPoint := Point{Latitude: 200, Longitude: -300}
	_, err = geoUtils.PointToPoint(boulevard, invalidPoint)
	assert.Error(t, err, "Should return error for invalid coordinates")
}

func TestGeoUtils_LineLength(t *testing.T) {
	geoUtils := NewGeoUtils()
	g := NewGeometry(orb.LineString{{41.6300, 41.6500}, {41.6640, 41.6430}})

	assert.InDelta(t, 2940, geoUtils.LineLength(g), 100)
	assert.Equal(t, 0.0, geoUtils.LineLength(NewGeometry(orb.LineString{{41.63, 41.65}})))
}

func TestGeoUtils_Bounds(t *testing.T) {
	geoUtils := NewGeoUtils()

	_, ok := geoUtils.Bounds(nil)
	assert.False(t, ok)

	b, ok := geoUtils.Bounds([]Geometry{
		NewGeometry(orb.LineString{{41.60, 41.64}, {41.65, 41.66}}),
		NewGeometry(orb.LineString{{41.70, 41.62}}),
	})
	require.True(t, ok)
	assert.Equal(t, Point{Latitude: 41.62, Longitude: 41.60}, b.Min)
	assert.Equal(t, Point{Latitude: 41.66, Longitude: 41.70}, b.Max)
}

func TestGeoUtils_PolylineRoundTrip(t *testing.T) {
	geoUtils := NewGeoUtils()
	g := NewGeometry(orb.LineString{{41.63612, 41.64228}, {41.63701, 41.64305}, {41.63822, 41.64391}})

	encoded := geoUtils.EncodeGeometry(g)
	require.NotEmpty(t, encoded)

	// polylines are lat/lng
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.Len(t, coords, 3)
	assert.InDelta(t, 41.64228, coords[0][0], 1e-5)
	assert.InDelta(t, 41.63612, coords[0][1], 1e-5)
	assert.InDelta(t, 41.64391, coords[2][0], 1e-5)
}

func TestGeometry_CloneIsIndependent(t *testing.T) {
	g := NewGeometry(orb.LineString{{1, 2}, {3, 4}})
	g.SetRating(0.5)

	c := g.Clone()
	c.SetRating(0.9)
	c.Coordinates[0] = orb.Point{9, 9}

	assert.Equal(t, 0.5, g.RatingValue())
	assert.Equal(t, orb.Point{1, 2}, g.Coordinates[0])
}

func TestGeometry_RaiseRatingKeepsMax(t *testing.T) {
	g := NewGeometry(orb.LineString{{1, 2}})
	assert.False(t, g.HasRating())

	g.RaiseRating(0.4)
	g.RaiseRating(0.3)
	assert.Equal(t, 0.4, g.RatingValue())

	g.RaiseRating(0.8)
	assert.Equal(t, 0.8, g.RatingValue())
}

func TestGeometry_Outranks(t *testing.T) {
	unrated := NewGeometry(orb.LineString{{1, 2}})
	low := Rated(unrated, 3)
	high := Rated(unrated, 5)

	assert.True(t, high.Outranks(low))
	assert.False(t, low.Outranks(high))
	assert.True(t, low.Outranks(unrated))
	assert.False(t, unrated.Outranks(low))
	assert.False(t, unrated.Outranks(unrated))
}

func TestGeometry_Key(t *testing.T) {
	a := NewGeometry(orb.LineString{{0, 0}, {1, 1}})
	b := Rated(a, 1)
	c := NewGeometry(orb.LineString{{1, 1}, {0, 0}})

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, "0,0;1,1", a.Key())
}
