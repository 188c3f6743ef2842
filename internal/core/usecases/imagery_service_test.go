package usecases_test

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/samirrijal/earthimagery/internal/core/domain"
	"github.com/samirrijal/earthimagery/internal/core/usecases"
)

// --- Mock ImageryPlatform ---

type mockPlatform struct {
	sizeFn      func(ctx context.Context, q domain.ImageCollectionQuery) (int, error)
	thumbnailFn func(ctx context.Context, spec domain.ThumbnailSpec) (string, error)
	healthFn    func(ctx context.Context) error

	specs []domain.ThumbnailSpec
}

func (m *mockPlatform) Size(ctx context.Context, q domain.ImageCollectionQuery) (int, error) {
	if m.sizeFn != nil {
		return m.sizeFn(ctx, q)
	}
	return 1, nil
}

func (m *mockPlatform) Thumbnail(ctx context.Context, spec domain.ThumbnailSpec) (string, error) {
	m.specs = append(m.specs, spec)
	if m.thumbnailFn != nil {
		return m.thumbnailFn(ctx, spec)
	}
	return "https://earthengine.googleapis.com/v1/projects/p/thumbnails/abc:getPixels", nil
}

func (m *mockPlatform) HealthCheck(ctx context.Context) error {
	if m.healthFn != nil {
		return m.healthFn(ctx)
	}
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []*domain.ThumbnailEvent
	err    error
}

func (m *mockPublisher) PublishThumbnail(ctx context.Context, e *domain.ThumbnailEvent) error {
	m.events = append(m.events, e)
	return m.err
}

func request(year int, dim float64) domain.ImageryRequest {
	return domain.ImageryRequest{
		Point:       domain.GeoPoint{Lat: 37.8, Lon: -122.4},
		Year:        year,
		DimensionKm: dim,
	}
}

// --- Tests ---

func TestImageryService_Success(t *testing.T) {
	var gotQuery domain.ImageCollectionQuery
	platform := &mockPlatform{
		sizeFn: func(ctx context.Context, q domain.ImageCollectionQuery) (int, error) {
			gotQuery = q
			return 12, nil
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewImageryService(platform, pub)

	res, err := svc.GetImagery(context.Background(), request(2020, 0.1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.URL == "" {
		t.Fatal("expected non-empty url")
	}

	if gotQuery.Collection != domain.CollectionS2Harmonized {
		t.Errorf("unexpected collection %s", gotQuery.Collection)
	}
	if gotQuery.Steps[1].Dates.StartString() != "2020-01-01" || gotQuery.Steps[1].Dates.EndString() != "2020-12-31" {
		t.Errorf("unexpected date range %s", gotQuery.Steps[1].Dates)
	}
	if p := gotQuery.Steps[0].Point; p == nil || p.Lon != -122.4 || p.Lat != 37.8 {
		t.Errorf("unexpected bounds point %+v", p)
	}

	if len(platform.specs) != 1 {
		t.Fatalf("expected 1 thumbnail call, got %d", len(platform.specs))
	}
	spec := platform.specs[0]
	if !spec.Image.IsImage() {
		t.Error("thumbnail should render a single image")
	}
	last := spec.Image.Steps[len(spec.Image.Steps)-1]
	if last.Kind != domain.StepSelect || !reflect.DeepEqual(last.Bands, []string{"B4", "B3", "B2"}) {
		t.Errorf("expected select B4,B3,B2, got %+v", last)
	}

	if len(pub.events) != 1 || pub.events[0].URL != res.URL || pub.events[0].ID == "" {
		t.Errorf("expected one thumbnail event, got %+v", pub.events)
	}
}

func TestImageryService_FixedRenderParameters(t *testing.T) {
	platform := &mockPlatform{}
	svc := usecases.NewImageryService(platform, nil)

	for _, req := range []domain.ImageryRequest{request(2018, 0.1), request(2023, 7.5), request(2016, 0.01)} {
		if _, err := svc.GetImagery(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	want := domain.VisParams{Min: 0, Max: 0.3, Bands: []string{"B4", "B3", "B2"}, Gamma: 1.4}
	for i, spec := range platform.specs {
		if !reflect.DeepEqual(spec.Vis, want) {
			t.Errorf("call %d: vis params %+v", i, spec.Vis)
		}
		if spec.Width != 2048 || spec.Height != 2048 || spec.Format != "png" {
			t.Errorf("call %d: unexpected output %dx%d %s", i, spec.Width, spec.Height, spec.Format)
		}
	}
}

func TestImageryService_RegionGrowsWithDimension(t *testing.T) {
	platform := &mockPlatform{}
	svc := usecases.NewImageryService(platform, nil)

	dims := []float64{0.05, 0.1, 1, 10}
	for _, d := range dims {
		if _, err := svc.GetImagery(context.Background(), request(2020, d)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	for i := 1; i < len(platform.specs); i++ {
		prev := platform.specs[i-1].Region.Bounds.Area()
		cur := platform.specs[i].Region.Bounds.Area()
		if cur <= prev {
			t.Errorf("dim %v: area %v not larger than %v", dims[i], cur, prev)
		}
	}
}

func TestImageryService_NoImages(t *testing.T) {
	platform := &mockPlatform{
		sizeFn: func(ctx context.Context, q domain.ImageCollectionQuery) (int, error) { return 0, nil },
	}
	pub := &mockPublisher{}
	svc := usecases.NewImageryService(platform, pub)

	_, err := svc.GetImagery(context.Background(), request(1950, 0.1))
	if !errors.Is(err, domain.ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
	if len(platform.specs) != 0 {
		t.Error("thumbnail should not be requested for an empty collection")
	}
	if len(pub.events) != 0 {
		t.Error("no event expected on failure")
	}
}

func TestImageryService_PlatformErrorPassesThrough(t *testing.T) {
	boom := errors.New("Earth Engine memory capacity exceeded")
	platform := &mockPlatform{
		thumbnailFn: func(ctx context.Context, spec domain.ThumbnailSpec) (string, error) { return "", boom },
	}
	svc := usecases.NewImageryService(platform, nil)

	_, err := svc.GetImagery(context.Background(), request(2020, 0.1))
	if !errors.Is(err, boom) {
		t.Fatalf("expected platform error, got %v", err)
	}
	if err.Error() != boom.Error() {
		t.Errorf("expected raw message %q, got %q", boom.Error(), err.Error())
	}
}

func TestImageryService_PublishFailureIgnored(t *testing.T) {
	svc := usecases.NewImageryService(&mockPlatform{}, &mockPublisher{err: errors.New("nats down")})

	res, err := svc.GetImagery(context.Background(), request(2020, 0.1))
	if err != nil {
		t.Fatalf("publish failure must not fail the request: %v", err)
	}
	if res.URL == "" {
		t.Error("expected url")
	}
}

func TestImageryService_InvalidDimension(t *testing.T) {
	platform := &mockPlatform{}
	svc := usecases.NewImageryService(platform, nil)

	for _, dim := range []float64{0, -1, math.NaN(), math.Inf(1), 1e308} {
		_, err := svc.GetImagery(context.Background(), request(2020, dim))
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("dim %v: expected ValidationError, got %v", dim, err)
		}
	}
	if len(platform.specs) != 0 {
		t.Errorf("invalid dimensions must not reach the platform, got %d thumbnails", len(platform.specs))
	}
}
