package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Area returns the box area in square degrees.
func (b Bounds) Area() float64 {
	return (b.MaxLat - b.MinLat) * (b.MaxLon - b.MinLon)
}

// Region is a thumbnail clip region: the bounds plus the closed ring of
// [lon, lat] pairs sent to the imagery platform.
type Region struct {
	Bounds      Bounds       `json:"bounds"`
	Coordinates [][2]float64 `json:"coordinates"`
}
