package geospatial

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/earthimagery/internal/core/domain"
)

func TestSquareRegion_ContainsCenter(t *testing.T) {
	center := domain.GeoPoint{Lat: 37.8, Lon: -122.4}
	r := SquareRegion(center, 100)

	assert.Less(t, r.Bounds.MinLat, center.Lat)
	assert.Greater(t, r.Bounds.MaxLat, center.Lat)
	assert.Less(t, r.Bounds.MinLon, center.Lon)
	assert.Greater(t, r.Bounds.MaxLon, center.Lon)
}

func TestSquareRegion_ClosedRing(t *testing.T) {
	r := SquareRegion(domain.GeoPoint{Lat: 43.26, Lon: -2.93}, 500)

	require.Len(t, r.Coordinates, 5)
	assert.Equal(t, r.Coordinates[0], r.Coordinates[len(r.Coordinates)-1])
}

func TestSquareRegion_HalfWidth(t *testing.T) {
	center := domain.GeoPoint{Lat: 10, Lon: 20}
	r := SquareRegion(center, 1000)

	north := geo.Distance(orb.Point{center.Lon, center.Lat}, orb.Point{center.Lon, r.Bounds.MaxLat})
	assert.InDelta(t, 1000, north, 5)
}

func TestSquareRegion_MonotonicInDimension(t *testing.T) {
	center := domain.GeoPoint{Lat: 37.8, Lon: -122.4}
	prev := 0.0
	for _, dim := range []float64{0.01, 0.1, 0.5, 1, 5} {
		area := SquareRegion(center, dim*1000).Bounds.Area()
		assert.Greater(t, area, prev, "dim %v", dim)
		prev = area
	}
}

func TestPolygon_RoundTrip(t *testing.T) {
	r := SquareRegion(domain.GeoPoint{Lat: 1, Lon: 1}, 250)
	p := Polygon(r)

	require.Len(t, p, 1)
	assert.Equal(t, len(r.Coordinates), len(p[0]))
	assert.True(t, p.Bound().Contains(orb.Point{1, 1}))
}
