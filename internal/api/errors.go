package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/dudu/mirrorbooth/internal/settings"
)

// apiError carries the HTTP status a handler failure maps to.
type apiError struct {
	Code int
	Err  error
}

func (e *apiError) Error() string { return e.Err.Error() }
func (e *apiError) Unwrap() error { return e.Err }

func badRequest(err error) error {
	return &apiError{Code: fiber.StatusBadRequest, Err: err}
}

var errTooManyRequests = &apiError{Code: fiber.StatusTooManyRequests, Err: errors.New("too many requests")}

func errorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := err.Error()

		var aerr *apiError
		var ferr *fiber.Error
		switch {
		case errors.As(err, &aerr):
			code = aerr.Code
		case errors.Is(err, settings.ErrInvalid):
			code = fiber.StatusBadRequest
		case errors.As(err, &ferr):
			code = ferr.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Errorw("request failed", "request_id", getRequestID(c), "error", err)
			msg = "internal server error"
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}
