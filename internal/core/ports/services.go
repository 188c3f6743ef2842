package ports

import (
	"context"

	"github.com/samirrijal/earthimagery/internal/core/domain"
)

// ImageryPlatform evaluates collection queries on a remote imagery service.
// Each method performs at least one blocking round trip.
type ImageryPlatform interface {
	// Size returns the number of images a collection query yields.
	Size(ctx context.Context, q domain.ImageCollectionQuery) (int, error)
	// Thumbnail renders spec and returns a URL to the result.
	Thumbnail(ctx context.Context, spec domain.ThumbnailSpec) (string, error)
	// HealthCheck performs one read-only diagnostic query.
	HealthCheck(ctx context.Context) error
}

// SessionConnector establishes an authenticated platform session.
type SessionConnector func(ctx context.Context) (ImageryPlatform, error)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishThumbnail(ctx context.Context, event *domain.ThumbnailEvent) error
}
