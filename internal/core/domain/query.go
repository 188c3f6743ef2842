package domain

import (
	"errors"
	"fmt"
)

// StepKind identifies one stage of a collection query pipeline.
type StepKind string

const (
	StepFilterBounds   StepKind = "filter_bounds"
	StepFilterDate     StepKind = "filter_date"
	StepFilterLessThan StepKind = "filter_less_than"
	StepMap            StepKind = "map"
	StepSort           StepKind = "sort"
	StepFirst          StepKind = "first"
	StepSelect         StepKind = "select"
)

// Transform names a per-image transform the platform applies during Map.
type Transform string

// TransformCloudMaskS2 masks Sentinel-2 pixels flagged in the QA60 band
// (bit 10 opaque clouds, bit 11 cirrus) and scales reflectance by 1/10000.
const TransformCloudMaskS2 Transform = "cloud_mask_s2"

// Sentinel-2 QA60 bit masks.
const (
	QABand         = "QA60"
	CloudBitMask   = 1 << 10
	CirrusBitMask  = 1 << 11
	ReflectanceDiv = 10000
)

// QueryStep is a single descriptor in an ImageCollectionQuery.
type QueryStep struct {
	Kind      StepKind  `json:"kind"`
	Point     *GeoPoint `json:"point,omitempty"`
	Dates     DateRange `json:"-"`
	Property  string    `json:"property,omitempty"`
	Value     float64   `json:"value,omitempty"`
	Transform Transform `json:"transform,omitempty"`
	Ascending bool      `json:"ascending,omitempty"`
	Bands     []string  `json:"bands,omitempty"`
}

// ImageCollectionQuery is a declarative pipeline over a remote image
// collection. It is evaluated by the imagery platform, never locally.
// Every method returns a new query; the receiver is left untouched.
type ImageCollectionQuery struct {
	Collection string      `json:"collection"`
	Steps      []QueryStep `json:"steps"`
}

// NewCollectionQuery starts a pipeline over the named collection.
func NewCollectionQuery(collection string) ImageCollectionQuery {
	return ImageCollectionQuery{Collection: collection}
}

func (q ImageCollectionQuery) with(step QueryStep) ImageCollectionQuery {
	steps := make([]QueryStep, 0, len(q.Steps)+1)
	steps = append(steps, q.Steps...)
	q.Steps = append(steps, step)
	return q
}

// FilterBounds keeps images whose footprint intersects point.
func (q ImageCollectionQuery) FilterBounds(point GeoPoint) ImageCollectionQuery {
	p := point
	return q.with(QueryStep{Kind: StepFilterBounds, Point: &p})
}

// FilterDate keeps images acquired in [r.Start, r.End).
func (q ImageCollectionQuery) FilterDate(r DateRange) ImageCollectionQuery {
	return q.with(QueryStep{Kind: StepFilterDate, Dates: r})
}

// FilterLessThan keeps images whose property is strictly below value.
func (q ImageCollectionQuery) FilterLessThan(property string, value float64) ImageCollectionQuery {
	return q.with(QueryStep{Kind: StepFilterLessThan, Property: property, Value: value})
}

// Map applies t to every image in the collection.
func (q ImageCollectionQuery) Map(t Transform) ImageCollectionQuery {
	return q.with(QueryStep{Kind: StepMap, Transform: t})
}

// Sort orders the collection by property.
func (q ImageCollectionQuery) Sort(property string, ascending bool) ImageCollectionQuery {
	return q.with(QueryStep{Kind: StepSort, Property: property, Ascending: ascending})
}

// First reduces the collection to its first image.
func (q ImageCollectionQuery) First() ImageCollectionQuery {
	return q.with(QueryStep{Kind: StepFirst})
}

// Select restricts the selected image to bands.
func (q ImageCollectionQuery) Select(bands ...string) ImageCollectionQuery {
	return q.with(QueryStep{Kind: StepSelect, Bands: append([]string(nil), bands...)})
}

// IsImage reports whether the pipeline yields a single image rather than a collection.
func (q ImageCollectionQuery) IsImage() bool {
	for _, s := range q.Steps {
		if s.Kind == StepFirst {
			return true
		}
	}
	return false
}

// Validate checks step ordering: collection steps must precede First and
// Select is only valid on an image.
func (q ImageCollectionQuery) Validate() error {
	if q.Collection == "" {
		return errors.New("query: collection is required")
	}
	image := false
	for i, s := range q.Steps {
		switch s.Kind {
		case StepFirst:
			if image {
				return fmt.Errorf("query: step %d: first applied twice", i)
			}
			image = true
		case StepSelect:
			if !image {
				return fmt.Errorf("query: step %d: select requires an image", i)
			}
			if len(s.Bands) == 0 {
				return fmt.Errorf("query: step %d: select needs at least one band", i)
			}
		case StepFilterBounds:
			if s.Point == nil {
				return fmt.Errorf("query: step %d: filter_bounds needs a point", i)
			}
			fallthrough
		case StepFilterDate, StepFilterLessThan, StepMap, StepSort:
			if image {
				return fmt.Errorf("query: step %d: %s applies to collections only", i, s.Kind)
			}
		default:
			return fmt.Errorf("query: step %d: unknown kind %q", i, s.Kind)
		}
	}
	return nil
}

// CloudFreeQuery builds the Sentinel-2 pipeline: bounds, date window, cloud
// percentage below MaxCloudPercent, cloud mask, sorted least cloudy first.
func CloudFreeQuery(point GeoPoint, dates DateRange) ImageCollectionQuery {
	return NewCollectionQuery(CollectionS2Harmonized).
		FilterBounds(point).
		FilterDate(dates).
		FilterLessThan(CloudPercentProperty, MaxCloudPercent).
		Map(TransformCloudMaskS2).
		Sort(CloudPercentProperty, true)
}
