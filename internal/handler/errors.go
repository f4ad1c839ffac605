package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/codechat/internal/port"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, port.ErrRepoNotFound), errors.Is(err, port.ErrJobNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, port.ErrNotReady):
		return fiber.StatusConflict
	case errors.Is(err, port.ErrIngestionFailed):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, port.ErrModelCall):
		return fiber.StatusBadGateway
	case errors.Is(err, port.ErrInvalidURL),
		errors.Is(err, port.ErrInvalidContact),
		errors.Is(err, port.ErrEmptyQuestion),
		errors.Is(err, port.ErrRepoPrivate),
		errors.Is(err, port.ErrRepoEmpty),
		errors.Is(err, port.ErrRepoTooLarge):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// errorCode is a stable machine-readable name for the error kind.
func errorCode(err error) string {
	switch {
	case errors.Is(err, port.ErrRepoNotFound):
		return "not_found"
	case errors.Is(err, port.ErrJobNotFound):
		return "job_not_found"
	case errors.Is(err, port.ErrNotReady):
		return "not_ready"
	case errors.Is(err, port.ErrIngestionFailed):
		return "ingestion_failed"
	case errors.Is(err, port.ErrModelCall):
		return "model_error"
	case errors.Is(err, port.ErrRepoPrivate):
		return "repo_private"
	case errors.Is(err, port.ErrRepoEmpty):
		return "repo_empty"
	case errors.Is(err, port.ErrRepoTooLarge):
		return "repo_too_large"
	case statusFor(err) == fiber.StatusBadRequest:
		return "invalid_request"
	default:
		return "internal"
	}
}

func writeError(c fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed", "path", c.Path(), "error", err)
		msg = "internal error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg, "code": errorCode(err)})
}
