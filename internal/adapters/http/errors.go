package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/maptrace/internal/core/domain"
	"github.com/samirrijal/maptrace/internal/core/pathcodec"
	"github.com/samirrijal/maptrace/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, internal_error, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
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

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errUnavailable returns a 503 error for features whose backend is not configured.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}

// errFromService maps usecase errors onto API errors. Unknown errors are
// logged and reported as 500 without their text.
func errFromService(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, pathcodec.ErrMalformedPath),
		errors.Is(err, usecases.ErrInvalidSession),
		errors.Is(err, usecases.ErrInvalidName),
		errors.Is(err, usecases.ErrInvalidZoom):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, err.Error())
	}
	LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	return errInternal(c, "internal error")
}

var errNoDatabase = errors.New("database not available")
