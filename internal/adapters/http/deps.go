package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/earthimagery/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Imagery *usecases.ImageryService
	Gateway *usecases.Gateway
	NATS    *nats.Conn
	Docs    *APIDoc

	// ExposeInternalErrors puts the raw error message in 500 responses.
	ExposeInternalErrors bool
	// RequestTimeout bounds imagery requests. Zero disables it.
	RequestTimeout time.Duration
}
