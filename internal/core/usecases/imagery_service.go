package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/earthimagery/internal/core/domain"
	"github.com/samirrijal/earthimagery/internal/core/ports"
	"github.com/samirrijal/earthimagery/internal/pkg/geospatial"
	"github.com/samirrijal/earthimagery/internal/pkg/logging"
)

var tracer = otel.Tracer("github.com/samirrijal/earthimagery/internal/core/usecases")

// ImageryService turns one imagery request into one thumbnail URL.
type ImageryService struct {
	platform ports.ImageryPlatform
	events   ports.EventPublisher
	now      func() time.Time
}

// NewImageryService creates a new ImageryService. events may be nil.
func NewImageryService(platform ports.ImageryPlatform, events ports.EventPublisher) *ImageryService {
	return &ImageryService{platform: platform, events: events, now: time.Now}
}

// GetImagery finds the least cloudy image covering req.Point in req.Year and
// returns a URL to a 2048x2048 true-color PNG of the surrounding square.
func (s *ImageryService) GetImagery(ctx context.Context, req domain.ImageryRequest) (*domain.ThumbnailResult, error) {
	ctx, span := tracer.Start(ctx, "ImageryService.GetImagery")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("imagery.lon", req.Point.Lon),
		attribute.Float64("imagery.lat", req.Point.Lat),
		attribute.Int("imagery.year", req.Year),
		attribute.Float64("imagery.dim_km", req.DimensionKm),
	)

	result, err := s.getImagery(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func (s *ImageryService) getImagery(ctx context.Context, req domain.ImageryRequest) (*domain.ThumbnailResult, error) {
	log := logging.FromContext(ctx)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	log.Debug("received imagery parameters",
		"lon", req.Point.Lon, "lat", req.Point.Lat, "year", req.Year, "dim_km", req.DimensionKm)

	dates := domain.YearRange(req.Year)
	collection := domain.CloudFreeQuery(req.Point, dates)

	size, err := s.platform.Size(ctx, collection)
	if err != nil {
		return nil, err
	}
	log.Debug("image collection size", "size", size, "dates", dates.String())

	if size == 0 {
		log.Warn("no images found for year range", "dates", dates.String())
		return nil, domain.ErrNoImages
	}

	image := collection.First().Select(domain.DisplayBands...)
	region := geospatial.SquareRegion(req.Point, req.DimensionKm*1000)
	log.Debug("region for thumbnail", "coordinates", region.Coordinates)

	url, err := s.platform.Thumbnail(ctx, domain.ThumbnailSpec{
		Image:  image,
		Region: region,
		Width:  domain.ThumbnailWidth,
		Height: domain.ThumbnailHeight,
		Format: domain.ThumbnailFormat,
		Vis:    domain.DefaultVisParams(),
	})
	if err != nil {
		return nil, err
	}
	log.Info("thumbnail URL generated", "url", url)

	s.publish(ctx, req, url)

	return &domain.ThumbnailResult{URL: url}, nil
}

// publish emits a ThumbnailEvent. Failures never fail the request.
func (s *ImageryService) publish(ctx context.Context, req domain.ImageryRequest, url string) {
	if s.events == nil {
		return
	}
	event := &domain.ThumbnailEvent{
		ID:          uuid.NewString(),
		Point:       req.Point,
		Year:        req.Year,
		DimensionKm: req.DimensionKm,
		URL:         url,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.events.PublishThumbnail(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("publish thumbnail event failed", "error", err)
	}
}
