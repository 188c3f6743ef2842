package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// DateLayout is the YYYY-MM-DD layout used in filters and logs.
const DateLayout = "2006-01-02"

// Sentinel-2 collection and pipeline constants.
const (
	CollectionS2Harmonized = "COPERNICUS/S2_HARMONIZED"
	CloudPercentProperty   = "CLOUDY_PIXEL_PERCENTAGE"
	MaxCloudPercent        = 20.0

	DefaultDimensionKm = 0.1
	ThumbnailWidth     = 2048
	ThumbnailHeight    = 2048
	ThumbnailFormat    = "png"
)

// DisplayBands are the visible-light bands used for rendering (red, green, blue).
var DisplayBands = []string{"B4", "B3", "B2"}

// ImageryRequest is one parsed imagery lookup.
type ImageryRequest struct {
	Point       GeoPoint `json:"point"`
	Year        int      `json:"year"`
	DimensionKm float64  `json:"dimension_km"`
}

// ValidDimension reports whether km is a usable region half-width: finite,
// positive, and still finite in meters.
func ValidDimension(km float64) bool {
	return km > 0 && !math.IsInf(km, 0) && !math.IsInf(km*1000, 0)
}

// Validate rejects a dimension ValidDimension refuses. Zero is not a
// default here; callers apply DefaultDimensionKm before building the request.
func (r ImageryRequest) Validate() error {
	if !ValidDimension(r.DimensionKm) {
		return &ValidationError{
			Field:   "dim",
			Value:   strconv.FormatFloat(r.DimensionKm, 'g', -1, 64),
			Message: MsgInvalidDimension,
		}
	}
	return nil
}

// DateRange is a calendar window over image acquisition time.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// YearRange returns [YYYY-01-01, YYYY-12-31] for year.
func YearRange(year int) DateRange {
	return DateRange{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// StartString returns the start date formatted as YYYY-MM-DD.
func (r DateRange) StartString() string { return formatDate(r.Start) }

// EndString returns the end date formatted as YYYY-MM-DD.
func (r DateRange) EndString() string { return formatDate(r.End) }

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.StartString(), r.EndString())
}

// formatDate zero-pads years below 1000 so the platform still parses them.
func formatDate(t time.Time) string {
	if t.Year() >= 0 && t.Year() < 1000 {
		return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
	}
	return t.Format(DateLayout)
}

// VisParams are the visualization parameters applied when rendering.
type VisParams struct {
	Min   float64  `json:"min"`
	Max   float64  `json:"max"`
	Bands []string `json:"bands"`
	Gamma float64  `json:"gamma"`
}

// DefaultVisParams returns the fixed true-color visualization.
func DefaultVisParams() VisParams {
	return VisParams{
		Min:   0,
		Max:   0.3,
		Bands: append([]string(nil), DisplayBands...),
		Gamma: 1.4,
	}
}

// ThumbnailSpec describes one render request against the imagery platform.
type ThumbnailSpec struct {
	Image  ImageCollectionQuery
	Region Region
	Width  int
	Height int
	Format string
	Vis    VisParams
}

// ThumbnailResult is returned to callers on success.
type ThumbnailResult struct {
	URL string `json:"url"`
}

// ThumbnailEvent is published after a thumbnail URL has been generated.
type ThumbnailEvent struct {
	ID          string    `json:"id"`
	Point       GeoPoint  `json:"point"`
	Year        int       `json:"year"`
	DimensionKm float64   `json:"dimension_km"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}
