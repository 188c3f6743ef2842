//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/earthimagery/internal/adapters/earthengine"
	"github.com/samirrijal/earthimagery/internal/adapters/http"
	"github.com/samirrijal/earthimagery/internal/core/usecases"
	"github.com/samirrijal/earthimagery/internal/pkg/config"
)

// setupLiveDeps connects to Earth Engine with the configured key file.
func setupLiveDeps(t *testing.T) *http.Dependencies {
	cfg, err := config.Load("earthimagery-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if _, err := earthengine.LoadCredentials(cfg.EarthEngine.CredentialsFile); err != nil {
		t.Skipf("no credentials: %v", err)
	}

	gw := usecases.NewGateway(earthengine.NewConnector(cfg.EarthEngine.CredentialsFile,
		earthengine.WithBaseURL(cfg.EarthEngine.BaseURL),
		earthengine.WithProject(cfg.EarthEngine.Project),
	))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := gw.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := gw.HealthCheck(ctx); err != nil {
		t.Logf("health check failed: %v", err)
	}

	return &http.Dependencies{
		Imagery:              usecases.NewImageryService(gw, nil),
		Gateway:              gw,
		ExposeInternalErrors: true,
	}
}

func TestIntegration_Imagery(t *testing.T) {
	app := setupApp(setupLiveDeps(t))

	req := httptest.NewRequest("GET", "/v5000/earth/imagery/?lon=-122.4194&lat=37.7749&date=2020&dim=0.5", nil)
	resp, err := app.Test(req, 60_000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(result.URL, ":getPixels") {
		t.Errorf("unexpected thumbnail url %q", result.URL)
	}
}

func TestIntegration_NoImagesBeforeSentinel2(t *testing.T) {
	app := setupApp(setupLiveDeps(t))

	req := httptest.NewRequest("GET", "/v5000/earth/imagery/?lon=-122.4194&lat=37.7749&date=1990", nil)
	resp, err := app.Test(req, 60_000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
}
