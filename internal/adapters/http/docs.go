package http

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Earth Imagery API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>SwaggerUIBundle({url: '/docs/openapi.json', dom_id: '#swagger-ui'});</script>
</body>
</html>`

// APIDoc is a validated OpenAPI document in its source YAML and as JSON.
type APIDoc struct {
	Title   string
	Version string
	yaml    []byte
	json    []byte
}

// LoadAPIDoc reads and validates the OpenAPI document at path.
func LoadAPIDoc(ctx context.Context, path string) (*APIDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read api doc: %w", err)
	}

	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parse api doc: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid api doc: %w", err)
	}

	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode api doc: %w", err)
	}
	return &APIDoc{Title: doc.Info.Title, Version: doc.Info.Version, yaml: data, json: js}, nil
}

// SetupDocs serves Swagger UI and the document on the docs group.
func SetupDocs(docs fiber.Router, doc *APIDoc) {
	docs.Get("", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(swaggerUIHTML)
	})
	docs.Get("/openapi.json", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(doc.json)
	})
	docs.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(doc.yaml)
	})
}
