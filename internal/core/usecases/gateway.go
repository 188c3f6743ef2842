package usecases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/samirrijal/earthimagery/internal/core/domain"
	"github.com/samirrijal/earthimagery/internal/core/ports"
	"github.com/samirrijal/earthimagery/internal/pkg/metrics"
)

// Gateway owns the imagery platform session. It is created once at startup,
// initialized once, and handed to request handlers as their platform.
// Until Initialize succeeds every platform call fails with
// domain.ErrSessionUnavailable.
type Gateway struct {
	connect ports.SessionConnector

	mu       sync.RWMutex
	platform ports.ImageryPlatform
	initErr  error
}

// NewGateway creates a Gateway that establishes its session with connect.
func NewGateway(connect ports.SessionConnector) *Gateway {
	return &Gateway{connect: connect}
}

// Initialize establishes the session. Failures are logged and returned;
// the caller decides whether they are fatal.
func (g *Gateway) Initialize(ctx context.Context) error {
	platform, err := g.connect(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		g.platform = nil
		g.initErr = err
		metrics.EarthEngineSessionUp.Set(0)
		slog.Error("error initializing imagery platform session", "error", err)
		return err
	}

	g.platform = platform
	g.initErr = nil
	metrics.EarthEngineSessionUp.Set(1)
	slog.Info("imagery platform session initialized")
	return nil
}

// Ready reports whether a session has been established.
func (g *Gateway) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.platform != nil
}

// Err returns the initialization failure, if any.
func (g *Gateway) Err() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.initErr
}

func (g *Gateway) session() (ports.ImageryPlatform, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.platform == nil {
		return nil, domain.ErrSessionUnavailable
	}
	return g.platform, nil
}

// Size implements ports.ImageryPlatform.
func (g *Gateway) Size(ctx context.Context, q domain.ImageCollectionQuery) (int, error) {
	p, err := g.session()
	if err != nil {
		return 0, err
	}
	return p.Size(ctx, q)
}

// Thumbnail implements ports.ImageryPlatform.
func (g *Gateway) Thumbnail(ctx context.Context, spec domain.ThumbnailSpec) (string, error) {
	p, err := g.session()
	if err != nil {
		return "", err
	}
	return p.Thumbnail(ctx, spec)
}

// HealthCheck runs the platform's diagnostic query and logs the outcome.
// Startup callers ignore the returned error.
func (g *Gateway) HealthCheck(ctx context.Context) error {
	p, err := g.session()
	if err != nil {
		slog.Error("error fetching diagnostic image info", "error", err)
		return err
	}
	if err := p.HealthCheck(ctx); err != nil {
		slog.Error("error fetching diagnostic image info", "error", err)
		return err
	}
	slog.Debug("imagery platform health check passed")
	return nil
}
