// Package earthengine talks to the Earth Engine REST API with a service
// account. Queries are compiled to expression graphs and evaluated remotely.
package earthengine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/earthimagery/internal/core/domain"
	"github.com/samirrijal/earthimagery/internal/pkg/metrics"
)

const (
	// DefaultBaseURL is the public Earth Engine REST endpoint.
	DefaultBaseURL = "https://earthengine.googleapis.com"
	// DefaultProject is used when neither options nor credentials name one.
	DefaultProject = "earthengine-legacy"
	// DefaultHealthImage is the image the health check describes.
	DefaultHealthImage = "COPERNICUS/S2_SR/20190606T104031_20190606T104545_T31TFJ"

	apiVersion       = "v1"
	defaultUserAgent = "earthimagery/1.0"
)

var tracer = otel.Tracer("github.com/samirrijal/earthimagery/internal/adapters/earthengine")

// Client is an authenticated Earth Engine session. It is safe for
// concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	project     string
	tokenURL    string
	healthImage string
	userAgent   string
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient sets the HTTP client used for API calls. The client must
// already attach credentials; Connect skips the token exchange.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) error {
		if c == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		cl.httpClient = c
		return nil
	}
}

// WithBaseURL overrides the REST endpoint.
func WithBaseURL(u string) Option {
	return func(cl *Client) error {
		u = strings.TrimRight(strings.TrimSpace(u), "/")
		if u == "" {
			return fmt.Errorf("base url cannot be empty")
		}
		cl.baseURL = u
		return nil
	}
}

// WithProject sets the Cloud project that owns the computations.
func WithProject(p string) Option {
	return func(cl *Client) error {
		cl.project = strings.TrimPrefix(strings.TrimSpace(p), "projects/")
		return nil
	}
}

// WithTokenURL overrides the OAuth2 token endpoint.
func WithTokenURL(u string) Option {
	return func(cl *Client) error {
		cl.tokenURL = u
		return nil
	}
}

// WithHealthImage sets the image described by HealthCheck.
func WithHealthImage(id string) Option {
	return func(cl *Client) error {
		if id != "" {
			cl.healthImage = id
		}
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) error {
		cl.userAgent = ua
		return nil
	}
}

// Connect authenticates creds and returns a ready session. Token exchange
// failures are *domain.InitializationError.
func Connect(ctx context.Context, creds *Credentials, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:     DefaultBaseURL,
		healthImage: DefaultHealthImage,
		userAgent:   defaultUserAgent,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.project == "" && creds != nil {
		c.project = creds.ProjectID
	}
	if c.project == "" {
		c.project = DefaultProject
	}

	if c.httpClient == nil {
		if creds == nil {
			return nil, &domain.InitializationError{Err: fmt.Errorf("credentials are required")}
		}
		conf := creds.JWTConfig(Scopes...)
		if c.tokenURL != "" {
			conf.TokenURL = c.tokenURL
		}
		// The token source outlives ctx; it refreshes for the life of the process.
		ts := conf.TokenSource(context.WithoutCancel(ctx))
		if _, err := ts.Token(); err != nil {
			return nil, &domain.InitializationError{Err: err}
		}
		c.httpClient = oauth2.NewClient(context.WithoutCancel(ctx), ts)
	}

	slog.Info("earth engine session established", "project", c.project, "base_url", c.baseURL)
	return c, nil
}

// Project returns the Cloud project ID.
func (c *Client) Project() string { return c.project }

func (c *Client) projectPath() string {
	return "projects/" + c.project
}

func (c *Client) userProject() string {
	if c.project == DefaultProject {
		return ""
	}
	return c.project
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.baseURL, apiVersion, c.projectPath(), method)
}

// call wraps one REST call with a span and metrics.
func (c *Client) call(ctx context.Context, operation, method string, body, out any) error {
	ctx, span := tracer.Start(ctx, "earthengine."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("earthengine.project", c.project))

	start := time.Now()
	err := postJSON(ctx, c.httpClient, c.endpoint(method), c.userAgent, c.userProject(), body, out)
	metrics.ObserveEarthEngineCall(operation, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

type computeRequest struct {
	Expression *expression `json:"expression"`
}

type computeResponse struct {
	Result json.RawMessage `json:"result"`
}

// compute evaluates expr and returns its result.
func (c *Client) compute(ctx context.Context, operation string, expr *expression) (*structpb.Value, error) {
	var resp computeResponse
	if err := c.call(ctx, operation, "value:compute", computeRequest{Expression: expr}, &resp); err != nil {
		return nil, err
	}
	v := &structpb.Value{}
	if len(resp.Result) == 0 {
		return v, nil
	}
	if err := protojson.Unmarshal(resp.Result, v); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return v, nil
}

// Size returns the number of images q yields.
func (c *Client) Size(ctx context.Context, q domain.ImageCollectionQuery) (int, error) {
	expr, err := sizeExpression(q)
	if err != nil {
		return 0, err
	}
	v, err := c.compute(ctx, "size", expr)
	if err != nil {
		return 0, err
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("size: unexpected result %v", v)
	}
	return int(n.NumberValue), nil
}

type thumbnailRequest struct {
	Expression *expression `json:"expression"`
	FileFormat string      `json:"fileFormat"`
}

type thumbnailResponse struct {
	Name string `json:"name"`
}

// Thumbnail registers a thumbnail for spec and returns its pixel URL.
func (c *Client) Thumbnail(ctx context.Context, spec domain.ThumbnailSpec) (string, error) {
	expr, err := thumbnailExpression(spec)
	if err != nil {
		return "", err
	}
	format, err := fileFormat(spec.Format)
	if err != nil {
		return "", err
	}

	var resp thumbnailResponse
	if err := c.call(ctx, "thumbnail", "thumbnails", thumbnailRequest{Expression: expr, FileFormat: format}, &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return "", fmt.Errorf("thumbnail: response has no name")
	}
	return fmt.Sprintf("%s/%s/%s:getPixels", c.baseURL, apiVersion, resp.Name), nil
}

// HealthCheck describes the configured health image.
func (c *Client) HealthCheck(ctx context.Context) error {
	g := newGraph()
	expr := g.expression(invoke("Image.load", args{"id": stringConst(c.healthImage)}))
	v, err := c.compute(ctx, "health", expr)
	if err != nil {
		return err
	}
	bands := v.GetStructValue().GetFields()["bands"].GetListValue().GetValues()
	slog.Debug("diagnostic image info", "image", c.healthImage, "bands", len(bands))
	return nil
}
