package http

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/earthimagery/internal/core/domain"
	"github.com/samirrijal/earthimagery/internal/pkg/logging"
	"github.com/samirrijal/earthimagery/internal/pkg/metrics"
)

// APIError is a structured error response.
type APIError struct {
	Error     string `json:"error"` // Human-readable message
	Code      string `json:"code"`  // bad_request, not_found, unavailable, internal_error
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Error:     message,
		Code:      code,
		Status:    status,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

const (
	msgInternal = "internal server error"
	msgTimeout  = "request timed out"
)

// serviceError is the client-facing form of an imagery error.
type serviceError struct {
	status  int
	code    string
	outcome string
	message string
}

// classifyError maps err onto the HTTP contract. Unrecognized errors are 500
// and carry the raw message only when deps.ExposeInternalErrors is set.
func classifyError(deps *Dependencies, err error) serviceError {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return serviceError{fiber.StatusBadRequest, "bad_request", "invalid", verr.Message}
	case errors.Is(err, domain.ErrNoImages):
		return serviceError{fiber.StatusNotFound, "not_found", "not_found", domain.MsgNoImages}
	case errors.Is(err, domain.ErrSessionUnavailable):
		return serviceError{fiber.StatusServiceUnavailable, "unavailable", "unavailable", domain.MsgSessionUnavailable}
	case errors.Is(err, context.DeadlineExceeded):
		return serviceError{fiber.StatusGatewayTimeout, "timeout", "timeout", msgTimeout}
	default:
		msg := msgInternal
		if deps.ExposeInternalErrors {
			msg = err.Error()
		}
		return serviceError{fiber.StatusInternalServerError, "internal_error", "error", msg}
	}
}

// writeServiceError maps an imagery error to its HTTP response.
func writeServiceError(c *fiber.Ctx, deps *Dependencies, err error) error {
	se := classifyError(deps, err)
	metrics.ImageryRequests.WithLabelValues(se.outcome).Inc()
	if se.status >= fiber.StatusInternalServerError {
		logging.FromContext(c.UserContext()).LogAttrs(c.UserContext(), slog.LevelError,
			"error in get_imagery", slog.String("error", err.Error()))
	}
	return newError(c, se.status, se.code, se.message)
}

// ErrorHandler renders errors that escape handlers (timeouts, unknown
// routes, panics turned into errors) in the APIError shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := "internal_error"
	msg := msgInternal

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		msg = fe.Message
		switch status {
		case fiber.StatusNotFound:
			code = "not_found"
		case fiber.StatusRequestTimeout:
			code = "timeout"
		case fiber.StatusUpgradeRequired:
			code = "upgrade_required"
		default:
			if status < fiber.StatusInternalServerError {
				code = "bad_request"
			}
		}
	}
	return newError(c, status, code, msg)
}
