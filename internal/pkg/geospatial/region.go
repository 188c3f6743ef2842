package geospatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/samirrijal/earthimagery/internal/core/domain"
)

// SquareRegion buffers center by halfWidthMeters and returns the bounding box
// of the buffer as a closed [lon, lat] ring, counter-clockwise from the
// south-west corner.
func SquareRegion(center domain.GeoPoint, halfWidthMeters float64) domain.Region {
	b := geo.NewBoundAroundPoint(orb.Point{center.Lon, center.Lat}, halfWidthMeters)

	ring := b.ToRing()
	coords := make([][2]float64, len(ring))
	for i, p := range ring {
		coords[i] = [2]float64{p.Lon(), p.Lat()}
	}

	return domain.Region{
		Bounds: domain.Bounds{
			MinLat: b.Min.Lat(),
			MinLon: b.Min.Lon(),
			MaxLat: b.Max.Lat(),
			MaxLon: b.Max.Lon(),
		},
		Coordinates: coords,
	}
}

// Polygon converts a region back into an orb polygon.
func Polygon(r domain.Region) orb.Polygon {
	ring := make(orb.Ring, len(r.Coordinates))
	for i, c := range r.Coordinates {
		ring[i] = orb.Point{c[0], c[1]}
	}
	return orb.Polygon{ring}
}
