package domain

import (
	"strconv"
	"strings"
)

// ParseImageryRequest parses raw request parameters. An empty dimText
// selects DefaultDimensionKm. Errors are *ValidationError.
func ParseImageryRequest(lonText, latText, yearText, dimText string) (ImageryRequest, error) {
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		return ImageryRequest{}, &ValidationError{Field: "lon", Value: lonText, Message: MsgInvalidCoordinates}
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return ImageryRequest{}, &ValidationError{Field: "lat", Value: latText, Message: MsgInvalidCoordinates}
	}

	year, err := strconv.Atoi(strings.TrimSpace(yearText))
	if err != nil {
		return ImageryRequest{}, &ValidationError{Field: "date", Value: yearText, Message: MsgInvalidYear}
	}

	dim := DefaultDimensionKm
	if strings.TrimSpace(dimText) != "" {
		dim, err = strconv.ParseFloat(strings.TrimSpace(dimText), 64)
		if err != nil || !ValidDimension(dim) {
			return ImageryRequest{}, &ValidationError{Field: "dim", Value: dimText, Message: MsgInvalidDimension}
		}
	}

	return ImageryRequest{
		Point:       GeoPoint{Lat: lat, Lon: lon},
		Year:        year,
		DimensionKm: dim,
	}, nil
}
